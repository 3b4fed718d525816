package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketSource_NormalizesProbabilityFromJSONOutcomePrices(t *testing.T) {
	fetch := func(ctx context.Context, limit int) ([]RawMarket, error) {
		return []RawMarket{{
			Title: "Houthi attack closes Strait of Hormuz", Description: "port congestion feared",
			OutcomePrices: `["0.62", "0.38"]`, Source: "polymarket", MarketID: "m1",
			TotalVolumeUSD: 500000, LiquidityUSD: 20000,
		}}, nil
	}
	src := NewMarketSource(fetch)

	events, err := src.FetchEvents(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.InDelta(t, 0.62, events[0].Probability, 0.0001)
	assert.False(t, events[0].ProbabilityIsFallback)
}

func TestMarketSource_FallsBackToBestAskThenDefault(t *testing.T) {
	ask := 0.71
	fetch := func(ctx context.Context, limit int) ([]RawMarket, error) {
		return []RawMarket{
			{Title: "t1", OutcomePrices: "", BestAsk: &ask, Source: "s", MarketID: "m1"},
			{Title: "t2", OutcomePrices: "", BestAsk: nil, Source: "s", MarketID: "m2"},
		}, nil
	}
	src := NewMarketSource(fetch)
	events, err := src.FetchEvents(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.InDelta(t, 0.71, events[0].Probability, 0.0001)
	assert.False(t, events[0].ProbabilityIsFallback)

	assert.Equal(t, 0.5, events[1].Probability)
	assert.True(t, events[1].ProbabilityIsFallback)
}

func TestMarketSource_InfersLocationsFromChokepointAliases(t *testing.T) {
	fetch := func(ctx context.Context, limit int) ([]RawMarket, error) {
		return []RawMarket{{Title: "Tensions rise near Strait of Hormuz", OutcomePrices: "0.5", Source: "s", MarketID: "m1"}}, nil
	}
	src := NewMarketSource(fetch)
	events, err := src.FetchEvents(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotEmpty(t, events[0].InferredLocations)
	assert.Contains(t, events[0].InferredLocations[0].Name, "Hormuz")
}

func TestMarketSource_FetchErrorPropagates(t *testing.T) {
	fetch := func(ctx context.Context, limit int) ([]RawMarket, error) {
		return nil, assertErr("upstream down")
	}
	src := NewMarketSource(fetch)
	_, err := src.FetchEvents(context.Background(), 10, nil)
	assert.Error(t, err)
}

func TestMarketSource_ReplayReturnsCachedBatchForSameAsof(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, limit int) ([]RawMarket, error) {
		calls++
		return []RawMarket{{Title: "t", OutcomePrices: "0.5", Source: "s", MarketID: "m1"}}, nil
	}
	src := NewMarketSource(fetch)
	asof := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := src.FetchEvents(context.Background(), 10, &asof)
	require.NoError(t, err)
	second, err := src.FetchEvents(context.Background(), 10, &asof)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestMarketSource_ClampsToLimit(t *testing.T) {
	fetch := func(ctx context.Context, limit int) ([]RawMarket, error) {
		return []RawMarket{
			{Title: "a", OutcomePrices: "0.5", Source: "s", MarketID: "m1"},
			{Title: "b", OutcomePrices: "0.5", Source: "s", MarketID: "m2"},
			{Title: "c", OutcomePrices: "0.5", Source: "s", MarketID: "m3"},
		}, nil
	}
	src := NewMarketSource(fetch)
	events, err := src.FetchEvents(context.Background(), 2, nil)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestMarketSource_Name(t *testing.T) {
	assert.Equal(t, "market", NewMarketSource(nil).Name())
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
