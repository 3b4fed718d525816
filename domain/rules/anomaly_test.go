package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangpro/omen/domain/signal"
)

func baseAnomalyEvent() signal.RawSignalEvent {
	return signal.NewRawSignalEvent(
		"evt", "title", "desc", 0.5, false, nil, nil, nil,
		signal.MarketMeta{Source: "polymarket", MarketID: "m1", TotalVolumeUSD: 1000, CurrentLiquidityUSD: 5000},
		time.Now(), nil,
	)
}

func TestAnomalyRule_PassesCleanEvent(t *testing.T) {
	cfg := DefaultConfig()
	r := NewAnomalyRule()

	res, err := r.Evaluate(baseAnomalyEvent(), cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusPassed, res.Status)
	assert.Equal(t, 1.0, res.Score)
}

func TestAnomalyRule_ExtremeProbabilityAddsRisk(t *testing.T) {
	cfg := DefaultConfig()
	r := NewAnomalyRule()
	e := baseAnomalyEvent()
	e.Probability = 0.99

	res, err := r.Evaluate(e, cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusPassed, res.Status)
	assert.InDelta(t, 0.7, res.Score, 1e-9)
}

func TestAnomalyRule_RejectsAtManipulationThreshold(t *testing.T) {
	cfg := DefaultConfig()
	r := NewAnomalyRule()
	e := baseAnomalyEvent()
	e.Probability = 0.99                                      // +0.3
	e.Movement = &signal.Movement{Delta: 0.9, WindowHours: 1} // +0.3
	trader := 1
	e.Market.TraderCount = &trader
	e.Market.TotalVolumeUSD = cfg.MinTraderVolumeUSD + 1 // +0.2

	res, err := r.Evaluate(e, cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusRejectedManipulationSuspected, res.Status)
	assert.Equal(t, 0.0, res.Score)
}

func TestAnomalyRule_TraderMismatchRequiresBothConditions(t *testing.T) {
	cfg := DefaultConfig()
	r := NewAnomalyRule()
	e := baseAnomalyEvent()
	trader := cfg.MinTraderCount - 1
	e.Market.TraderCount = &trader
	e.Market.TotalVolumeUSD = cfg.MinTraderVolumeUSD - 1 // volume too low to trigger

	res, err := r.Evaluate(e, cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusPassed, res.Status)
	assert.Equal(t, 1.0, res.Score)
}

func TestAnomalyRule_InsufficientHistoryDoesNotFlagZScore(t *testing.T) {
	cfg := DefaultConfig()
	r := NewAnomalyRule()
	e := baseAnomalyEvent()
	e.Movement = &signal.Movement{Delta: 0.1, WindowHours: 1}

	res, err := r.Evaluate(e, cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusPassed, res.Status)
	assert.Equal(t, 1.0, res.Score)
}

// TestAnomalyRule_ProbabilityZScoreFlagsAfterStableHistory establishes ten
// stable probability observations through one reused rule instance, then
// feeds an outlier value; the tracker should only flag once it has enough
// history to compute a mean and stddev, and should flag the outlier.
func TestAnomalyRule_ProbabilityZScoreFlagsAfterStableHistory(t *testing.T) {
	cfg := DefaultConfig()
	r := NewAnomalyRule()

	history := []float64{0.50, 0.51, 0.49, 0.50, 0.52, 0.48, 0.50, 0.51, 0.49, 0.50}
	for i, p := range history {
		e := baseAnomalyEvent()
		e.Probability = p
		res, err := r.Evaluate(e, cfg)
		require.NoError(t, err)
		assert.Equal(t, signal.StatusPassed, res.Status)
		assert.Equal(t, 1.0, res.Score, "observation %d should not yet have enough history to flag", i)
	}

	outlier := baseAnomalyEvent()
	outlier.Probability = 0.80 // far outside the tight band above, but not an extreme-probability value
	res, err := r.Evaluate(outlier, cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusPassed, res.Status)
	assert.Less(t, res.Score, 1.0, "an outlier against ten tightly clustered prior observations should add risk")
}

// TestAnomalyRule_VolumeZScoreAccumulatesAcrossCalls exercises the
// volume tracker the same way, confirming it only reacts to the
// configured rule instance's own rolling history, not a per-call reset.
func TestAnomalyRule_VolumeZScoreAccumulatesAcrossCalls(t *testing.T) {
	cfg := DefaultConfig()
	r := NewAnomalyRule()

	history := []float64{1000, 1010, 990, 1005, 995, 1020, 980, 1000, 1010, 990}
	for _, v := range history {
		e := baseAnomalyEvent()
		e.Market.TotalVolumeUSD = v
		_, err := r.Evaluate(e, cfg)
		require.NoError(t, err)
	}

	spike := baseAnomalyEvent()
	spike.Market.TotalVolumeUSD = 10_000_000
	res, err := r.Evaluate(spike, cfg)
	require.NoError(t, err)
	assert.Less(t, res.Score, 1.0)
}
