package sources

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	domerrors "github.com/hoangpro/omen/domain/errors"
	"github.com/hoangpro/omen/domain/signal"
	"github.com/hoangpro/omen/infrastructure/circuit"
)

// GuardedSource fronts any Source with a circuit breaker and an
// outbound rate limiter: the breaker fronts each source, opening
// after consecutive failures and closing again
// after a cooldown probe succeeds. Rate-limit errors are unwrapped and
// returned typed so the orchestrator can back off instead of tripping
// the breaker on a condition that isn't really a fault.
type GuardedSource struct {
	inner   Source
	breaker *circuit.Breaker
	limiter *rate.Limiter
}

// NewGuardedSource wraps src with a freshly constructed breaker and a
// token-bucket limiter (fetches/sec, burst).
func NewGuardedSource(src Source, cfg circuit.Config, fetchesPerSecond float64, burst int) *GuardedSource {
	return &GuardedSource{
		inner:   src,
		breaker: circuit.New(src.Name(), cfg),
		limiter: rate.NewLimiter(rate.Limit(fetchesPerSecond), burst),
	}
}

func (g *GuardedSource) Name() string { return g.inner.Name() }

func (g *GuardedSource) FetchEvents(ctx context.Context, limit int, asof *time.Time) ([]signal.RawSignalEvent, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var rateLimited *domerrors.RateLimitedError
	result, err := g.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
		events, err := g.inner.FetchEvents(ctx, limit, asof)
		if asRateLimited(err, &rateLimited) {
			return nil, nil
		}
		return events, err
	})
	if rateLimited != nil {
		return nil, rateLimited
	}
	if err != nil {
		var rl *domerrors.RateLimitedError
		if ok := asRateLimited(err, &rl); ok {
			return nil, rl
		}
		return nil, err
	}
	events, _ := result.([]signal.RawSignalEvent)
	return events, nil
}

// State reports the underlying breaker's state (closed/open/half-open).
func (g *GuardedSource) State() string { return g.breaker.State() }

func asRateLimited(err error, target **domerrors.RateLimitedError) bool {
	rl, ok := err.(*domerrors.RateLimitedError)
	if !ok {
		return false
	}
	*target = rl
	return true
}
