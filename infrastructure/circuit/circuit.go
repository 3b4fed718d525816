// Package circuit wraps per-source fetches with a circuit breaker so
// one source's repeated failures never starve the others, applied to
// any context-scoped fetch closure.
package circuit

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Config carries the breaker's open/half-open tuning.
type Config struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	ProbeInterval       time.Duration
}

// DefaultConfig opens after 5 consecutive failures and probes every 30s.
func DefaultConfig() Config {
	return Config{ConsecutiveFailures: 5, OpenTimeout: 60 * time.Second, ProbeInterval: 30 * time.Second}
}

// Breaker fronts one source's fetch calls with gobreaker's
// closed/open/half-open state machine.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
	cfg  Config
}

// New constructs a breaker named after the source it fronts.
func New(name string, cfg Config) *Breaker {
	st := gobreaker.Settings{
		Name:    name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit: state change")
		},
	}
	return &Breaker{name: name, cb: gobreaker.NewCircuitBreaker(st), cfg: cfg}
}

// Execute runs fn through the breaker. When the breaker is open, fn is
// never called and gobreaker.ErrOpenState is returned so the caller
// (the orchestrator) can treat it as a source-unavailable condition.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	return b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
}

// State reports the breaker's current state for health reporting.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// StartProbe runs fn on ProbeInterval until ctx is cancelled — used to
// actively exercise a half-open breaker with a cheap health call rather
// than waiting for real traffic to trip it closed again.
func (b *Breaker) StartProbe(ctx context.Context, fn func(context.Context)) {
	ticker := time.NewTicker(b.cfg.ProbeInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}
