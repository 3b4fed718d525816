package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangpro/omen/domain/signal"
)

func newTestCollector(t *testing.T, now time.Time) *Collector {
	t.Helper()
	c := New(prometheus.NewRegistry())
	c.now = func() time.Time { return now }
	return c
}

func TestCollector_SnapshotStaleWhenEmpty(t *testing.T) {
	c := newTestCollector(t, time.Now())
	snap := c.Snapshot()
	assert.Equal(t, "stale", snap.DataFreshness)
	assert.Equal(t, 0, snap.EventsReceived)
}

func TestCollector_RecordValidatedAndGenerated(t *testing.T) {
	now := time.Now()
	c := newTestCollector(t, now)

	c.RecordValidated(signal.RawSignalEvent{EventID: "e1"})
	c.RecordGenerated(signal.OmenSignal{SignalID: "OMEN-1", ConfidenceScore: 0.8}, 50*time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, "fresh", snap.DataFreshness)
	assert.Equal(t, 1, snap.Validated)
	assert.Equal(t, 1, snap.SignalsGenerated)
	assert.InDelta(t, 50.0, snap.AvgLatencyMs, 0.001)
	assert.InDelta(t, 0.8, snap.AvgConfidence, 0.001)
}

func TestCollector_RecordRejectedTracksReasons(t *testing.T) {
	c := newTestCollector(t, time.Now())
	c.RecordRejected(signal.RawSignalEvent{EventID: "e1"}, "validation", "liquidity", "below floor")
	c.RecordRejected(signal.RawSignalEvent{EventID: "e2"}, "validation", "liquidity", "below floor")

	snap := c.Snapshot()
	assert.Equal(t, 2, snap.Rejected)
	assert.Equal(t, 2, snap.RejectionReasons["below floor"])
}

func TestCollector_RecordBelowConfidence(t *testing.T) {
	c := newTestCollector(t, time.Now())
	c.RecordBelowConfidence(signal.OmenSignal{SignalID: "OMEN-1"})

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Rejected)
	assert.Equal(t, 1, snap.RejectionReasons["confidence below minimum"])
}

func TestCollector_EvictsBucketsOutsideWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCollector(t, start)
	c.RecordValidated(signal.RawSignalEvent{EventID: "e1"})

	c.now = func() time.Time { return start.Add(windowMinutes * time.Minute) }
	c.RecordValidated(signal.RawSignalEvent{EventID: "e2"})

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Validated, "bucket older than the rolling window must be evicted")
}

func TestCollector_RecordSourceHealthSeedsThenEWMAs(t *testing.T) {
	c := newTestCollector(t, time.Now())
	c.RecordSourceHealth("polymarket", 100*time.Millisecond, false, 10)
	c.RecordSourceHealth("polymarket", 200*time.Millisecond, true, 20)

	snap := c.Snapshot()
	health, ok := snap.SourceHealth["polymarket"]
	require.True(t, ok)
	// seed = 100, then 0.3*200 + 0.7*100 = 130
	assert.InDelta(t, 130.0, health.LatencyMsEWMA, 0.001)
	assert.InDelta(t, 0.3, health.ErrorRateEWMA, 0.001)
}

func TestCollector_RecordErrorIncrementsPromCounter(t *testing.T) {
	c := newTestCollector(t, time.Now())
	assert.NotPanics(t, func() {
		c.RecordError("validation", assertErr("boom"))
	})
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
