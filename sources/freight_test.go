package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreightSource_FetchEventsOnlyIncludesFlaggedAnomalies(t *testing.T) {
	call := 0
	fetch := func(ctx context.Context) ([]FreightRateObservation, error) {
		call++
		if call <= 10 {
			return []FreightRateObservation{{Route: "Shanghai-LA", RateUSD: 2000}}, nil
		}
		return []FreightRateObservation{{Route: "Shanghai-LA", RateUSD: 20000}}, nil
	}
	src := NewFreightSource(fetch)

	for i := 0; i < 10; i++ {
		out, err := src.FetchEvents(context.Background(), 10, nil)
		require.NoError(t, err)
		assert.Empty(t, out, "tracker has not yet activated")
	}

	out, err := src.FetchEvents(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Title, "Shanghai-LA")
}

func TestFreightSource_FetchErrorPropagates(t *testing.T) {
	fetch := func(ctx context.Context) ([]FreightRateObservation, error) {
		return nil, assertErr("upstream down")
	}
	src := NewFreightSource(fetch)
	_, err := src.FetchEvents(context.Background(), 10, nil)
	assert.Error(t, err)
}

func TestFreightSource_Name(t *testing.T) {
	assert.Equal(t, "freight", NewFreightSource(nil).Name())
}
