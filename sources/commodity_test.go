package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatSeries(symbol string, n int, price float64) PriceTimeSeries {
	points := make([]PricePoint, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		points[i] = PricePoint{At: base.Add(time.Duration(i) * time.Hour), Price: price}
	}
	return PriceTimeSeries{Symbol: symbol, Points: points}
}

func TestEvaluateSpike_BelowMinDataPointsNotEvaluated(t *testing.T) {
	ts := flatSeries("OIL", 5, 100)
	_, ok := EvaluateSpike(ts, DefaultCommodityGateConfig(), time.Now())
	assert.False(t, ok)
}

func TestEvaluateSpike_FlatSeriesIsNotASpike(t *testing.T) {
	ts := flatSeries("OIL", 12, 100)
	_, ok := EvaluateSpike(ts, DefaultCommodityGateConfig(), time.Now())
	assert.False(t, ok)
}

func TestEvaluateSpike_UpwardMoveExceedsThresholdPct(t *testing.T) {
	ts := flatSeries("OIL", 12, 100)
	ts.Points[len(ts.Points)-1].Price = 120 // +20%, above 5% threshold
	res, ok := EvaluateSpike(ts, DefaultCommodityGateConfig(), time.Now())
	require.True(t, ok)
	assert.Equal(t, "up", res.Direction)
	assert.Equal(t, "major", res.Severity)
}

func TestEvaluateSpike_DownwardMoveDetected(t *testing.T) {
	ts := flatSeries("OIL", 12, 100)
	ts.Points[len(ts.Points)-1].Price = 80
	res, ok := EvaluateSpike(ts, DefaultCommodityGateConfig(), time.Now())
	require.True(t, ok)
	assert.Equal(t, "down", res.Direction)
}

func TestEvaluateSpike_SeverityBands(t *testing.T) {
	cfg := DefaultCommodityGateConfig()
	assert.Equal(t, "minor", severityBand(0.01, cfg))
	assert.Equal(t, "minor", severityBand(0.07, cfg))
	assert.Equal(t, "moderate", severityBand(0.15, cfg))
	assert.Equal(t, "major", severityBand(0.5, cfg))
}

func TestEvaluateSpike_FifteenPercentJumpClassifiesAsModerate(t *testing.T) {
	ts := flatSeries("OIL", 12, 100)
	ts.Points[len(ts.Points)-1].Price = 115 // +15% over a flat baseline
	res, ok := EvaluateSpike(ts, DefaultCommodityGateConfig(), time.Now())
	require.True(t, ok)
	assert.Equal(t, "up", res.Direction)
	assert.Equal(t, "moderate", res.Severity)
}

func TestEvaluateSpike_ZScoreClampedToRange(t *testing.T) {
	ts := flatSeries("OIL", 12, 100)
	ts.Points[len(ts.Points)-1].Price = 1000000
	res, ok := EvaluateSpike(ts, DefaultCommodityGateConfig(), time.Now())
	require.True(t, ok)
	assert.LessOrEqual(t, res.ZScore, 10.0)
	assert.GreaterOrEqual(t, res.ZScore, -10.0)
}

func TestCommoditySource_FetchEventsOnlyIncludesSpikes(t *testing.T) {
	spiking := flatSeries("OIL", 12, 100)
	spiking.Points[len(spiking.Points)-1].Price = 130
	flat := flatSeries("GOLD", 12, 2000)

	fetch := func(ctx context.Context) ([]PriceTimeSeries, error) {
		return []PriceTimeSeries{spiking, flat}, nil
	}
	src := NewCommoditySource(fetch, DefaultCommodityGateConfig())
	events, err := src.FetchEvents(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Title, "OIL")
}

func TestCommoditySource_FetchErrorPropagates(t *testing.T) {
	fetch := func(ctx context.Context) ([]PriceTimeSeries, error) {
		return nil, assertErr("upstream down")
	}
	src := NewCommoditySource(fetch, DefaultCommodityGateConfig())
	_, err := src.FetchEvents(context.Background(), 10, nil)
	assert.Error(t, err)
}

func TestCommoditySource_Name(t *testing.T) {
	assert.Equal(t, "commodity", NewCommoditySource(nil, DefaultCommodityGateConfig()).Name())
}
