package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/domain/rules"
	"github.com/hoangpro/omen/domain/signal"
)

// PortCongestionObservation is one port's current vs. normal waiting
// vessel count.
type PortCongestionObservation struct {
	Port          string
	VesselsWaiting int
	NormalWaiting  int
	ObservedAt     time.Time
}

// ChokepointDelayObservation is one chokepoint's current transit time
// and queue depth.
type ChokepointDelayObservation struct {
	Chokepoint         string
	AvgTransitHours    float64
	NormalTransitHours float64
	QueueVessels       int
	ObservedAt         time.Time
}

// VesselPosition is one AIS ping used for route-deviation detection.
type VesselPosition struct {
	VesselID          string
	Lat, Lon          float64
	ExpectedWaypoints []signal.Location
	ObservedAt        time.Time
}

const routeDeviationThresholdKM = 100.0
const routeRerouteThresholdKM = 500.0

// congestionSeverity buckets a waiting-ratio into a five-band scale.
func congestionSeverity(ratio float64) string {
	switch {
	case ratio < 1.5:
		return "none"
	case ratio < 2.0:
		return "low"
	case ratio < 2.5:
		return "medium"
	case ratio < 3.0:
		return "high"
	default:
		return "critical"
	}
}

// EvaluatePortCongestion checks port congestion: ratio = waiting/normal,
// anomaly at ratio >= threshold.
func EvaluatePortCongestion(o PortCongestionObservation, threshold float64) (ratio float64, anomaly bool, severity string) {
	if o.NormalWaiting <= 0 {
		return 0, false, "none"
	}
	ratio = float64(o.VesselsWaiting) / float64(o.NormalWaiting)
	anomaly = ratio >= threshold
	severity = congestionSeverity(ratio)
	return
}

// EvaluateChokepointDelay implements the delay/blockage check: delays
// at ratio >= 1.5, blockage requires ratio >= 3.0 AND queue > 50.
func EvaluateChokepointDelay(o ChokepointDelayObservation) (ratio float64, delayed, blockage bool) {
	if o.NormalTransitHours <= 0 {
		return 0, false, false
	}
	ratio = o.AvgTransitHours / o.NormalTransitHours
	delayed = ratio >= 1.5
	blockage = ratio >= 3.0 && o.QueueVessels > 50
	return
}

// EvaluateRouteDeviation computes the minimum Haversine distance from
// the vessel's position to any expected waypoint, classifying large
// deviations as a reroute.
func EvaluateRouteDeviation(p VesselPosition) (minDistanceKM float64, deviation bool, class string) {
	minDistanceKM = -1
	for _, wp := range p.ExpectedWaypoints {
		d := rules.HaversineKM(p.Lat, p.Lon, wp.Lat, wp.Lon)
		if minDistanceKM < 0 || d < minDistanceKM {
			minDistanceKM = d
		}
	}
	if minDistanceKM < 0 {
		return 0, false, ""
	}
	deviation = minDistanceKM > routeDeviationThresholdKM
	if !deviation {
		return minDistanceKM, false, ""
	}
	if minDistanceKM > routeRerouteThresholdKM {
		return minDistanceKM, true, "reroute"
	}
	return minDistanceKM, true, "minor"
}

// AISFetcher retrieves the current batch of port, chokepoint, and
// vessel-position observations from the upstream AIS collaborator.
type AISFetcher func(ctx context.Context) ([]PortCongestionObservation, []ChokepointDelayObservation, []VesselPosition, error)

// AISSource implements Source for maritime traffic anomalies.
type AISSource struct {
	fetch              AISFetcher
	congestionThreshold float64
	cache              replayCache
	now                func() time.Time
}

func NewAISSource(fetch AISFetcher, congestionThreshold float64) *AISSource {
	return &AISSource{fetch: fetch, congestionThreshold: congestionThreshold, now: time.Now}
}

func (s *AISSource) Name() string { return "ais" }

func (s *AISSource) FetchEvents(ctx context.Context, limit int, asof *time.Time) ([]signal.RawSignalEvent, error) {
	if batch, ok := s.cache.lookup(asof); ok {
		return batch, nil
	}

	ports, chokepoints, vessels, err := s.fetch(ctx)
	if err != nil {
		log.Error().Err(err).Str("source", s.Name()).Msg("ais fetch failed")
		return nil, err
	}

	observedAt := resolveAsof(asof, s.now)
	var out []signal.RawSignalEvent

	for _, o := range ports {
		ratio, anomaly, severity := EvaluatePortCongestion(o, s.congestionThreshold)
		if !anomaly {
			continue
		}
		out = append(out, portCongestionEvent(o, ratio, severity, observedAt))
	}

	for _, o := range chokepoints {
		ratio, delayed, blockage := EvaluateChokepointDelay(o)
		if !delayed {
			continue
		}
		out = append(out, chokepointDelayEvent(o, ratio, blockage, observedAt))
	}

	for _, p := range vessels {
		dist, deviation, class := EvaluateRouteDeviation(p)
		if !deviation {
			continue
		}
		out = append(out, routeDeviationEvent(p, dist, class, observedAt))
	}

	out = out[:clampLimit(len(out), limit)]

	if asof != nil {
		s.cache.store(*asof, out)
	}
	return out, nil
}

func portCongestionEvent(o PortCongestionObservation, ratio float64, severity string, observedAt time.Time) signal.RawSignalEvent {
	dateKey := observedAt.UTC().Format("20060102")
	eventID := fmt.Sprintf("ais-port-%s-%s", slugify(o.Port), dateKey)
	title := fmt.Sprintf("Port congestion at %s (%s)", o.Port, severity)
	market := signal.MarketMeta{Source: "ais-feed", MarketID: eventID}
	return signal.NewRawSignalEvent(
		eventID, title, fmt.Sprintf("vessels_waiting=%d normal_waiting=%d ratio=%.2f", o.VesselsWaiting, o.NormalWaiting, ratio),
		0.5, true, nil,
		[]string{"congestion", slugify(o.Port), severity},
		nil, market, observedAt,
		map[string]any{"source_metrics": map[string]any{"ratio": ratio, "vessels_waiting": o.VesselsWaiting, "normal_waiting": o.NormalWaiting, "severity": severity}},
	)
}

func chokepointDelayEvent(o ChokepointDelayObservation, ratio float64, blockage bool, observedAt time.Time) signal.RawSignalEvent {
	dateKey := observedAt.UTC().Format("20060102")
	tag := "delay"
	if blockage {
		tag = "blockage"
	}
	eventID := fmt.Sprintf("ais-chokepoint-%s-%s-%s", slugify(o.Chokepoint), tag, dateKey)
	title := fmt.Sprintf("%s at %s", titleCaseTag(tag), o.Chokepoint)
	market := signal.MarketMeta{Source: "ais-feed", MarketID: eventID}
	return signal.NewRawSignalEvent(
		eventID, title, fmt.Sprintf("avg_transit_hours=%.2f normal_transit_hours=%.2f queue=%d ratio=%.2f", o.AvgTransitHours, o.NormalTransitHours, o.QueueVessels, ratio),
		0.5, true, nil,
		[]string{"chokepoint", slugify(o.Chokepoint), tag},
		nil, market, observedAt,
		map[string]any{"source_metrics": map[string]any{"ratio": ratio, "queue_vessels": o.QueueVessels, "blockage": blockage}},
	)
}

func routeDeviationEvent(p VesselPosition, distKM float64, class string, observedAt time.Time) signal.RawSignalEvent {
	dateKey := observedAt.UTC().Format("20060102")
	eventID := fmt.Sprintf("ais-route-%s-%s-%s", slugify(p.VesselID), class, dateKey)
	title := fmt.Sprintf("Route deviation for vessel %s (%s)", p.VesselID, class)
	market := signal.MarketMeta{Source: "ais-feed", MarketID: eventID}
	return signal.NewRawSignalEvent(
		eventID, title, fmt.Sprintf("deviation_km=%.1f class=%s", distKM, class),
		0.5, true, nil,
		[]string{"route-deviation", class},
		[]signal.Location{{Lat: p.Lat, Lon: p.Lon, Name: p.VesselID}},
		market, observedAt,
		map[string]any{"source_metrics": map[string]any{"deviation_km": distKM, "class": class}},
	)
}

func titleCaseTag(tag string) string {
	if tag == "blockage" {
		return "Blockage"
	}
	return "Delay"
}
