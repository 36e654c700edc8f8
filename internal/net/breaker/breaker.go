// Package breaker shields the pipeline from a misbehaving quote provider.
// Once the provider trips, item fetches fail fast into synthetic data
// instead of burning their full timeout budget every cycle.
package breaker

import (
	"time"

	cb "github.com/sony/gobreaker"
)

// Breaker wraps a sony/gobreaker circuit for one upstream provider.
type Breaker struct {
	cb *cb.CircuitBreaker
}

// New builds a breaker that opens after 5 consecutive failures, or a >50%
// failure rate over at least 10 requests, and probes again after 30s.
// Thresholds are loose on purpose: single-symbol hiccups are routine for
// the public chart API and must not blackhole the whole universe.
func New(name string) *Breaker {
	st := cb.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= 5 {
			return true
		}
		if counts.Requests < 10 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.5
	}
	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

// Execute runs fn through the circuit.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	return b.cb.Execute(fn)
}

// Open reports whether the circuit is currently rejecting calls.
func (b *Breaker) Open() bool {
	return b.cb.State() == cb.StateOpen
}

// State returns the circuit state label for health reporting.
func (b *Breaker) State() string {
	switch b.cb.State() {
	case cb.StateOpen:
		return "open"
	case cb.StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}
