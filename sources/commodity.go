package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/domain/signal"
)

// PricePoint is one observation in a commodity's price time series.
type PricePoint struct {
	At    time.Time
	Price float64
}

// PriceTimeSeries is a sorted-by-time sequence of price observations
// for one symbol.
type PriceTimeSeries struct {
	Symbol string
	Points []PricePoint // must be sorted ascending by At
}

// CommodityGateConfig carries the spike detector's tunable bands.
type CommodityGateConfig struct {
	MinDataPoints   int
	SmoothingWindow int
	ThresholdPct    float64
	ThresholdZ      float64
	MinorBandPct    float64 // below this, a z-score-only spike still reads as minor
	SplitBandPct    float64 // minor/moderate boundary
	ModerateBandPct float64 // moderate/major boundary
	// Anything at or above ModerateBandPct is major.
}

// DefaultCommodityGateConfig matches the documented severity bands:
// minor 5-10%, moderate 10-20%, major >=20%.
func DefaultCommodityGateConfig() CommodityGateConfig {
	return CommodityGateConfig{
		MinDataPoints:   10,
		SmoothingWindow: 3,
		ThresholdPct:    0.05,
		ThresholdZ:      2.0,
		MinorBandPct:    0.05,
		SplitBandPct:    0.10,
		ModerateBandPct: 0.20,
	}
}

// SpikeResult is the full scoring record for one series evaluation.
type SpikeResult struct {
	Symbol     string  `json:"symbol"`
	IsSpike    bool    `json:"is_spike"`
	Direction  string  `json:"direction"`
	Severity   string  `json:"severity"`
	PctChange  float64 `json:"pct_change"`
	ZScore     float64 `json:"zscore"`
	Latest     float64 `json:"latest"`
	Baseline   float64 `json:"baseline"`
	EventID    string  `json:"event_id"`
}

// EvaluateSpike detects a commodity price spike: baseline over all
// points except the last smoothing_window (no self-reference), z-score
// clamped to [-10, 10] for JSON safety, severity banded on |pct_change|.
func EvaluateSpike(ts PriceTimeSeries, cfg CommodityGateConfig, asof time.Time) (SpikeResult, bool) {
	n := len(ts.Points)
	if n < cfg.MinDataPoints {
		return SpikeResult{}, false
	}

	latest := ts.Points[n-1].Price

	cut := n - cfg.SmoothingWindow
	if cut < 1 {
		cut = 1
	}
	baselinePoints := ts.Points[:cut]
	baseline := mean(pricesOf(baselinePoints))

	all := pricesOf(ts.Points)
	m := mean(all)
	sd := stddev(all, m)

	pctChange := 0.0
	if baseline != 0 {
		pctChange = (latest - baseline) / baseline
	}

	z := 0.0
	if sd != 0 {
		z = (latest - m) / sd
	}
	z = clamp(z, -10, 10)

	isSpike := math.Abs(pctChange) >= cfg.ThresholdPct || math.Abs(z) >= cfg.ThresholdZ
	if !isSpike {
		return SpikeResult{}, false
	}

	direction := "down"
	if pctChange > 0 {
		direction = "up"
	}
	severity := severityBand(math.Abs(pctChange), cfg)

	dateKey := asof.UTC().Format("20060102")
	eventID := fmt.Sprintf("commodity-%s-%s-%s-%s", ts.Symbol, direction, dateKey, spikeHash(ts.Symbol, direction, dateKey, severity))

	return SpikeResult{
		Symbol:    ts.Symbol,
		IsSpike:   true,
		Direction: direction,
		Severity:  severity,
		PctChange: pctChange,
		ZScore:    z,
		Latest:    latest,
		Baseline:  baseline,
		EventID:   eventID,
	}, true
}

func severityBand(absPct float64, cfg CommodityGateConfig) string {
	switch {
	case absPct < cfg.SplitBandPct:
		return "minor"
	case absPct < cfg.ModerateBandPct:
		return "moderate"
	default:
		return "major"
	}
}

func spikeHash(symbol, direction, dateKey, severity string) string {
	key := fmt.Sprintf("%s|%s|%s|%s", symbol, direction, dateKey, severity)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:8]
}

func pricesOf(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Price
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CommoditySeriesFetcher retrieves current price series for every
// tracked symbol from the upstream collaborator.
type CommoditySeriesFetcher func(ctx context.Context) ([]PriceTimeSeries, error)

// CommoditySource implements Source for commodity price spikes.
type CommoditySource struct {
	fetch CommoditySeriesFetcher
	cfg   CommodityGateConfig
	cache replayCache
	now   func() time.Time
}

func NewCommoditySource(fetch CommoditySeriesFetcher, cfg CommodityGateConfig) *CommoditySource {
	return &CommoditySource{fetch: fetch, cfg: cfg, now: time.Now}
}

func (s *CommoditySource) Name() string { return "commodity" }

func (s *CommoditySource) FetchEvents(ctx context.Context, limit int, asof *time.Time) ([]signal.RawSignalEvent, error) {
	if batch, ok := s.cache.lookup(asof); ok {
		return batch, nil
	}

	series, err := s.fetch(ctx)
	if err != nil {
		log.Error().Err(err).Str("source", s.Name()).Msg("commodity fetch failed")
		return nil, err
	}

	observedAt := resolveAsof(asof, s.now)
	sort.Slice(series, func(i, j int) bool { return series[i].Symbol < series[j].Symbol })

	out := make([]signal.RawSignalEvent, 0, len(series))
	for _, ts := range series {
		res, ok := EvaluateSpike(ts, s.cfg, observedAt)
		if !ok {
			continue
		}
		out = append(out, commodityEvent(ts.Symbol, res, observedAt))
	}
	out = out[:clampLimit(len(out), limit)]

	if asof != nil {
		s.cache.store(*asof, out)
	}
	return out, nil
}

func commodityEvent(symbol string, res SpikeResult, observedAt time.Time) signal.RawSignalEvent {
	title := fmt.Sprintf("%s price %s %s", symbol, res.Direction, res.Severity)
	keywords := []string{"commodity", symbol, res.Direction, res.Severity}

	market := signal.MarketMeta{Source: "commodity-feed", MarketID: res.EventID}

	return signal.NewRawSignalEvent(
		res.EventID,
		title,
		fmt.Sprintf("pct_change=%.4f zscore=%.4f baseline=%.4f latest=%.4f", res.PctChange, res.ZScore, res.Baseline, res.Latest),
		0.5,
		true,
		nil,
		keywords,
		nil,
		market,
		observedAt,
		map[string]any{"source_metrics": res},
	)
}
