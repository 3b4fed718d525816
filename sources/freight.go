package sources

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/domain/signal"
)

// FreightRateObservation is one route's current spot rate.
type FreightRateObservation struct {
	Route      string
	RateUSD    float64
	ObservedAt time.Time
}

// FreightFetcher retrieves the current batch of freight rate
// observations from the upstream collaborator.
type FreightFetcher func(ctx context.Context) ([]FreightRateObservation, error)

// FreightSource implements Source for freight-rate anomalies via the
// generic z-score detector, using the 2.5σ threshold tuned for
// price-change magnitudes.
type FreightSource struct {
	fetch   FreightFetcher
	tracker *zscoreTracker
	cache   replayCache
	now     func() time.Time
}

func NewFreightSource(fetch FreightFetcher) *FreightSource {
	return &FreightSource{fetch: fetch, tracker: newZScoreTracker(), now: time.Now}
}

func (s *FreightSource) Name() string { return "freight" }

func (s *FreightSource) FetchEvents(ctx context.Context, limit int, asof *time.Time) ([]signal.RawSignalEvent, error) {
	if batch, ok := s.cache.lookup(asof); ok {
		return batch, nil
	}

	obs, err := s.fetch(ctx)
	if err != nil {
		log.Error().Err(err).Str("source", s.Name()).Msg("freight fetch failed")
		return nil, err
	}

	observedAt := resolveAsof(asof, s.now)
	var out []signal.RawSignalEvent
	for _, o := range obs {
		res := s.tracker.observe(o.Route, o.RateUSD, 0, math.MaxFloat64, 2.5)
		if !res.Activated || !res.Flagged {
			continue
		}
		out = append(out, freightEvent(o, res, observedAt))
	}
	out = out[:clampLimit(len(out), limit)]

	if asof != nil {
		s.cache.store(*asof, out)
	}
	return out, nil
}

func freightEvent(o FreightRateObservation, res genericAnomalyResult, observedAt time.Time) signal.RawSignalEvent {
	dateKey := observedAt.UTC().Format("20060102")
	eventID := fmt.Sprintf("freight-%s-%s", slugify(o.Route), dateKey)
	title := fmt.Sprintf("Freight rate anomaly on %s", o.Route)
	market := signal.MarketMeta{Source: "freight-feed", MarketID: eventID}
	return signal.NewRawSignalEvent(
		eventID, title, fmt.Sprintf("rate_usd=%.2f zscore=%.2f", o.RateUSD, res.ZScore),
		0.5, true, nil,
		[]string{"freight", slugify(o.Route)},
		nil, market, observedAt,
		map[string]any{"source_metrics": map[string]any{"rate_usd": o.RateUSD, "zscore": res.ZScore}},
	)
}
