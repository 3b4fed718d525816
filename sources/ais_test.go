package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangpro/omen/domain/signal"
)

func TestCongestionSeverity_Bands(t *testing.T) {
	assert.Equal(t, "none", congestionSeverity(1.2))
	assert.Equal(t, "low", congestionSeverity(1.7))
	assert.Equal(t, "medium", congestionSeverity(2.2))
	assert.Equal(t, "high", congestionSeverity(2.7))
	assert.Equal(t, "critical", congestionSeverity(3.5))
}

func TestEvaluatePortCongestion_NoAnomalyBelowThreshold(t *testing.T) {
	_, anomaly, _ := EvaluatePortCongestion(PortCongestionObservation{VesselsWaiting: 10, NormalWaiting: 10}, 1.5)
	assert.False(t, anomaly)
}

func TestEvaluatePortCongestion_AnomalyAtThreshold(t *testing.T) {
	ratio, anomaly, severity := EvaluatePortCongestion(PortCongestionObservation{VesselsWaiting: 20, NormalWaiting: 10}, 1.5)
	assert.True(t, anomaly)
	assert.Equal(t, 2.0, ratio)
	assert.Equal(t, "medium", severity)
}

func TestEvaluatePortCongestion_ZeroNormalWaitingIsSafe(t *testing.T) {
	_, anomaly, severity := EvaluatePortCongestion(PortCongestionObservation{VesselsWaiting: 5, NormalWaiting: 0}, 1.5)
	assert.False(t, anomaly)
	assert.Equal(t, "none", severity)
}

func TestEvaluateChokepointDelay_DelayedNotBlockage(t *testing.T) {
	_, delayed, blockage := EvaluateChokepointDelay(ChokepointDelayObservation{AvgTransitHours: 20, NormalTransitHours: 10, QueueVessels: 10})
	assert.True(t, delayed)
	assert.False(t, blockage)
}

func TestEvaluateChokepointDelay_BlockageRequiresRatioAndQueue(t *testing.T) {
	_, _, blockage := EvaluateChokepointDelay(ChokepointDelayObservation{AvgTransitHours: 35, NormalTransitHours: 10, QueueVessels: 60})
	assert.True(t, blockage)

	_, _, blockage2 := EvaluateChokepointDelay(ChokepointDelayObservation{AvgTransitHours: 35, NormalTransitHours: 10, QueueVessels: 10})
	assert.False(t, blockage2, "high ratio alone without queue depth is not a blockage")
}

func TestEvaluateRouteDeviation_NoWaypointsNoDeviation(t *testing.T) {
	_, deviation, _ := EvaluateRouteDeviation(VesselPosition{Lat: 1, Lon: 1})
	assert.False(t, deviation)
}

func TestEvaluateRouteDeviation_WithinThresholdNoDeviation(t *testing.T) {
	p := VesselPosition{Lat: 30.0, Lon: 32.3, ExpectedWaypoints: []signal.Location{{Lat: 30.01, Lon: 32.31}}}
	_, deviation, _ := EvaluateRouteDeviation(p)
	assert.False(t, deviation)
}

func TestEvaluateRouteDeviation_LargeDeviationClassifiesAsReroute(t *testing.T) {
	p := VesselPosition{Lat: 0, Lon: 0, ExpectedWaypoints: []signal.Location{{Lat: 30, Lon: 32}}}
	dist, deviation, class := EvaluateRouteDeviation(p)
	require.True(t, deviation)
	assert.Equal(t, "reroute", class)
	assert.Greater(t, dist, 500.0)
}

func TestAISSource_FetchEventsCoversAllThreeObservationTypes(t *testing.T) {
	fetch := func(ctx context.Context) ([]PortCongestionObservation, []ChokepointDelayObservation, []VesselPosition, error) {
		return []PortCongestionObservation{{Port: "Singapore", VesselsWaiting: 30, NormalWaiting: 10}},
			[]ChokepointDelayObservation{{Chokepoint: "Suez Canal", AvgTransitHours: 40, NormalTransitHours: 10, QueueVessels: 60}},
			[]VesselPosition{{VesselID: "v1", Lat: 0, Lon: 0, ExpectedWaypoints: []signal.Location{{Lat: 30, Lon: 32}}}},
			nil
	}
	src := NewAISSource(fetch, 1.5)
	events, err := src.FetchEvents(context.Background(), 10, nil)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestAISSource_FetchErrorPropagates(t *testing.T) {
	fetch := func(ctx context.Context) ([]PortCongestionObservation, []ChokepointDelayObservation, []VesselPosition, error) {
		return nil, nil, nil, assertErr("upstream down")
	}
	src := NewAISSource(fetch, 1.5)
	_, err := src.FetchEvents(context.Background(), 10, nil)
	assert.Error(t, err)
}

func TestAISSource_Name(t *testing.T) {
	assert.Equal(t, "ais", NewAISSource(nil, 1.5).Name())
}
