package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangpro/omen/domain/signal"
)

func eventWithLiquidity(liquidity float64) signal.RawSignalEvent {
	return signal.NewRawSignalEvent(
		"evt", "title", "desc", 0.5, false, nil, nil, nil,
		signal.MarketMeta{Source: "polymarket", MarketID: "m1", CurrentLiquidityUSD: liquidity},
		time.Now(), nil,
	)
}

func TestLiquidityRule_RejectsBelowMinimum(t *testing.T) {
	cfg := DefaultConfig()
	r := &LiquidityRule{}

	res, err := r.Evaluate(eventWithLiquidity(cfg.MinLiquidityUSD-1), cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusRejectedLowLiquidity, res.Status)
	assert.Equal(t, 0.0, res.Score)
}

func TestLiquidityRule_PassesAtExactFloorWithBoundaryScore(t *testing.T) {
	cfg := DefaultConfig()
	r := &LiquidityRule{}

	res, err := r.Evaluate(eventWithLiquidity(cfg.MinLiquidityUSD), cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusPassed, res.Status)
	assert.InDelta(t, 0.1, res.Score, 1e-9)
}

func TestLiquidityRule_ScoreCapsAtOne(t *testing.T) {
	cfg := DefaultConfig()
	r := &LiquidityRule{}

	res, err := r.Evaluate(eventWithLiquidity(cfg.MinLiquidityUSD*100), cfg)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusPassed, res.Status)
	assert.Equal(t, 1.0, res.Score)
}
