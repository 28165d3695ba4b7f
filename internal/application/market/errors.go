package market

import (
	"errors"
	"fmt"
)

// Kind classifies a provider failure.
type Kind string

const (
	KindNetwork     Kind = "network"
	KindNotFound    Kind = "not_found"
	KindRateLimited Kind = "rate_limited"
	KindNoData      Kind = "no_data"
	KindDecode      Kind = "decode"
	KindUpstream    Kind = "upstream"
)

var (
	ErrInvalidPeriod   = errors.New("unsupported period")
	ErrInvalidInterval = errors.New("unsupported interval")
)

// FetchError is returned for every failed provider call; the gateway never
// substitutes data on its own.
type FetchError struct {
	Op     string
	Ticker string
	Kind   Kind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("market %s %s: %s", e.Op, e.Ticker, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf returns the failure kind, or "" when err is not a FetchError.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsNotFound reports an unknown ticker.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
