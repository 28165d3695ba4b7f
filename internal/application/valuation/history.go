package valuation

import (
	"context"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const DefaultHistoryCapacity = 50

// Sample is one (time, total value) point.
type Sample struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// HistoryStore keeps the most recent samples per account, oldest evicted first.
type HistoryStore interface {
	Append(ctx context.Context, accountID uuid.UUID, s Sample) error
	Samples(ctx context.Context, accountID uuid.UUID) ([]Sample, error)
}

// Ring is a fixed-capacity FIFO of samples.
type Ring struct {
	buf   []Sample
	start int
	size  int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &Ring{buf: make([]Sample, capacity)}
}

// Push appends s, overwriting the oldest sample when full.
func (r *Ring) Push(s Sample) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = s
		r.size++
		return
	}
	r.buf[r.start] = s
	r.start = (r.start + 1) % len(r.buf)
}

// Slice returns the samples oldest-first.
func (r *Ring) Slice() []Sample {
	out := make([]Sample, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

func (r *Ring) Len() int { return r.size }

// MemoryHistory holds one ring per account in process memory.
type MemoryHistory struct {
	capacity int
	mu       sync.Mutex
	rings    map[uuid.UUID]*Ring
}

func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &MemoryHistory{capacity: capacity, rings: make(map[uuid.UUID]*Ring)}
}

func (m *MemoryHistory) Append(_ context.Context, accountID uuid.UUID, s Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rings[accountID]
	if !ok {
		r = NewRing(m.capacity)
		m.rings[accountID] = r
	}
	r.Push(s)
	return nil
}

func (m *MemoryHistory) Samples(_ context.Context, accountID uuid.UUID) ([]Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rings[accountID]
	if !ok {
		return []Sample{}, nil
	}
	return r.Slice(), nil
}

const historyKeyPrefix = "valuation:history:"

// RedisHistory keeps samples in a capped Redis list (newest at the head).
type RedisHistory struct {
	Rdb      *redis.Client
	Capacity int
}

func (h *RedisHistory) key(id uuid.UUID) string {
	return historyKeyPrefix + id.String()
}

func (h *RedisHistory) capacity() int64 {
	if h.Capacity <= 0 {
		return DefaultHistoryCapacity
	}
	return int64(h.Capacity)
}

func (h *RedisHistory) Append(ctx context.Context, accountID uuid.UUID, s Sample) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	pipe := h.Rdb.TxPipeline()
	pipe.LPush(ctx, h.key(accountID), b)
	pipe.LTrim(ctx, h.key(accountID), 0, h.capacity()-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (h *RedisHistory) Samples(ctx context.Context, accountID uuid.UUID) ([]Sample, error) {
	raw, err := h.Rdb.LRange(ctx, h.key(accountID), 0, h.capacity()-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Sample, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var s Sample
		if err := json.Unmarshal([]byte(raw[i]), &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
