package sources

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZScoreTracker_NotActivatedBelowTenSamples(t *testing.T) {
	tr := newZScoreTracker()
	for i := 0; i < 9; i++ {
		res := tr.observe("m", 100, 0, 1000, 3.0)
		assert.False(t, res.Activated)
	}
}

func TestZScoreTracker_ActivatesOnceWindowReachesTenSamples(t *testing.T) {
	tr := newZScoreTracker()
	for i := 0; i < 10; i++ {
		tr.observe("m", 100, 0, 1000, 3.0)
	}
	res := tr.observe("m", 100, 0, 1000, 3.0)
	assert.True(t, res.Activated)
}

func TestZScoreTracker_FlagsOutlierAboveSigmaThreshold(t *testing.T) {
	tr := newZScoreTracker()
	for i := 0; i < 10; i++ {
		tr.observe("m", 100, 0, 1000, 3.0)
	}
	res := tr.observe("m", 1000, 0, 10000, 3.0)
	assert.True(t, res.Flagged)
}

func TestZScoreTracker_DoesNotFlagWithinBand(t *testing.T) {
	tr := newZScoreTracker()
	for i := 0; i < 10; i++ {
		tr.observe("m", 99+2*float64(i%2), 0, 1000, 3.0) // mean 100, stddev 1
	}
	res := tr.observe("m", 101, 0, 1000, 3.0)
	assert.False(t, res.Flagged)
}

func TestZScoreTracker_OutOfValidRangeAlwaysFlagsRegardlessOfSampleCount(t *testing.T) {
	tr := newZScoreTracker()
	res := tr.observe("m", -5, 0, 1000, 3.0)
	assert.True(t, res.Flagged)
	assert.True(t, res.Activated)
	assert.True(t, math.IsInf(res.ZScore, 1))
}

func TestZScoreTracker_IndependentWindowsPerMetric(t *testing.T) {
	tr := newZScoreTracker()
	for i := 0; i < 10; i++ {
		tr.observe("metric-a", 100, 0, 1000, 3.0)
	}
	res := tr.observe("metric-b", 500, 0, 1000, 3.0)
	assert.False(t, res.Activated, "metric-b has its own window and has not reached 10 samples")
}
