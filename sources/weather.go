package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/domain/signal"
)

// WeatherObservation is one region's current wind speed reading, the
// metric this adapter watches for anomalies.
type WeatherObservation struct {
	Region        string
	WindSpeedKTS  float64
	ObservedAt    time.Time
	Lat, Lon      float64
}

const weatherMinValidKTS = 0
const weatherMaxValidKTS = 250 // above hurricane-force ceiling; hard invalid

// WeatherFetcher retrieves the current batch of weather observations
// from the upstream collaborator.
type WeatherFetcher func(ctx context.Context) ([]WeatherObservation, error)

// WeatherSource implements Source for weather anomalies via the
// generic z-score detector at the standard 3σ threshold.
type WeatherSource struct {
	fetch   WeatherFetcher
	tracker *zscoreTracker
	cache   replayCache
	now     func() time.Time
}

func NewWeatherSource(fetch WeatherFetcher) *WeatherSource {
	return &WeatherSource{fetch: fetch, tracker: newZScoreTracker(), now: time.Now}
}

func (s *WeatherSource) Name() string { return "weather" }

func (s *WeatherSource) FetchEvents(ctx context.Context, limit int, asof *time.Time) ([]signal.RawSignalEvent, error) {
	if batch, ok := s.cache.lookup(asof); ok {
		return batch, nil
	}

	obs, err := s.fetch(ctx)
	if err != nil {
		log.Error().Err(err).Str("source", s.Name()).Msg("weather fetch failed")
		return nil, err
	}

	observedAt := resolveAsof(asof, s.now)
	var out []signal.RawSignalEvent
	for _, o := range obs {
		res := s.tracker.observe(o.Region, o.WindSpeedKTS, weatherMinValidKTS, weatherMaxValidKTS, 3.0)
		if !res.Activated || !res.Flagged {
			continue
		}
		out = append(out, weatherEvent(o, res, observedAt))
	}
	out = out[:clampLimit(len(out), limit)]

	if asof != nil {
		s.cache.store(*asof, out)
	}
	return out, nil
}

func weatherEvent(o WeatherObservation, res genericAnomalyResult, observedAt time.Time) signal.RawSignalEvent {
	dateKey := observedAt.UTC().Format("20060102")
	eventID := fmt.Sprintf("weather-%s-%s", slugify(o.Region), dateKey)
	title := fmt.Sprintf("Weather anomaly in %s", o.Region)
	market := signal.MarketMeta{Source: "weather-feed", MarketID: eventID}
	return signal.NewRawSignalEvent(
		eventID, title, fmt.Sprintf("wind_speed_kts=%.1f zscore=%.2f", o.WindSpeedKTS, res.ZScore),
		0.5, true, nil,
		[]string{"weather", slugify(o.Region)},
		[]signal.Location{{Lat: o.Lat, Lon: o.Lon, Name: o.Region}},
		market, observedAt,
		map[string]any{"source_metrics": map[string]any{"wind_speed_kts": o.WindSpeedKTS, "zscore": res.ZScore}},
	)
}
