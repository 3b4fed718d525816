package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangpro/omen/domain/signal"
)

func TestGeographicRelevanceRule_PassesOnChokepointAlias(t *testing.T) {
	cfg := DefaultConfig()
	r := &GeographicRelevanceRule{}
	e := eventWithText("Tankers reroute around the Strait of Hormuz", "")

	res, err := r.Evaluate(e, cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusPassed, res.Status)
	assert.Equal(t, 1.0, res.Score)
}

func TestGeographicRelevanceRule_PassesOnProximityToChokepoint(t *testing.T) {
	cfg := DefaultConfig()
	r := &GeographicRelevanceRule{}
	e := eventWithText("unrelated headline", "no keywords here")
	e.InferredLocations = []signal.Location{{Lat: 30.6, Lon: 32.3}} // near Suez Canal

	res, err := r.Evaluate(e, cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusPassed, res.Status)
	assert.InDelta(t, 0.9, res.Score, 1e-9)
}

func TestGeographicRelevanceRule_RejectsWithNoMatch(t *testing.T) {
	cfg := DefaultConfig()
	r := &GeographicRelevanceRule{}
	e := eventWithText("a quiet news day", "nothing happened")

	res, err := r.Evaluate(e, cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusRejectedIrrelevantGeography, res.Status)
	assert.Equal(t, 0.0, res.Score)
}

func TestGeographicRelevanceRule_FallbackKeywordBucketedScoring(t *testing.T) {
	cfg := DefaultConfig()
	r := &GeographicRelevanceRule{}

	single := eventWithText("a report mentions a port", "")
	res, err := r.Evaluate(single, cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusPassed, res.Status)
	assert.InDelta(t, 0.4, res.Score, 1e-9)

	many := eventWithText("port canal terminal shipping congestion reroute route", "")
	res2, err := r.Evaluate(many, cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusPassed, res2.Status)
	assert.Greater(t, res2.Score, res.Score)
}

func TestHaversineKM_ZeroForIdenticalPoints(t *testing.T) {
	assert.InDelta(t, 0, HaversineKM(30.5852, 32.2654, 30.5852, 32.2654), 1e-9)
}

func TestHaversineKM_KnownDistanceOrderOfMagnitude(t *testing.T) {
	d := HaversineKM(30.5852, 32.2654, 2.5, 101.5) // Suez to Malacca
	assert.Greater(t, d, 8000.0)
	assert.Less(t, d, 9500.0)
}
