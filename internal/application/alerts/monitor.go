package alerts

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultPollInterval = 30 * time.Second

// Monitor polls all armed alerts on a fixed interval until its context ends.
type Monitor struct {
	Service  *Service
	Interval time.Duration
}

func (m *Monitor) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	log.Info().Dur("interval", interval).Msg("Alert monitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Alert monitor stopped")
			return
		case <-t.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep runs one check over every account that has armed alerts and returns
// how many alerts fired.
func (m *Monitor) Sweep(ctx context.Context) int {
	ids, err := m.Service.ArmedAccounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Alert monitor: list accounts")
		return 0
	}
	fired := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return fired
		}
		res, err := m.Service.Check(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("account_id", id.String()).Msg("Alert monitor: check")
			continue
		}
		fired += len(res.Fired)
	}
	return fired
}
