package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSignalEvent_ForcesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	observed := time.Date(2026, 4, 1, 8, 0, 0, 0, loc)
	emitted := time.Date(2026, 4, 1, 8, 5, 0, 0, loc)

	sig := OmenSignal{SignalID: "OMEN-ABCDEF123456", TraceID: "trace", InputEventHash: "hash", RulesetVersion: "v1"}
	evt := NewSignalEvent("1.0", sig, "src-1", observed, emitted)

	assert.Equal(t, time.UTC, evt.ObservedAt.Location())
	assert.Equal(t, time.UTC, evt.EmittedAt.Location())
	assert.True(t, evt.ObservedAt.Equal(observed))
	assert.Equal(t, sig.SignalID, evt.SignalID)
	assert.Equal(t, sig.TraceID, evt.TraceID)
	assert.Nil(t, evt.LedgerSequence)
}

func TestSignalEvent_WithLedgerPlacement(t *testing.T) {
	evt := NewSignalEvent("1.0", OmenSignal{SignalID: "OMEN-1"}, "src-1", time.Now(), time.Now())
	written := time.Date(2026, 4, 1, 9, 0, 0, 0, time.FixedZone("X", 3600))

	placed := evt.WithLedgerPlacement("2026-04-01", 42, written)

	require.NotNil(t, placed.LedgerSequence)
	assert.Equal(t, uint64(42), *placed.LedgerSequence)
	assert.Equal(t, "2026-04-01", placed.LedgerPartition)
	require.NotNil(t, placed.LedgerWrittenAt)
	assert.Equal(t, time.UTC, placed.LedgerWrittenAt.Location())

	assert.Nil(t, evt.LedgerSequence, "original envelope must be unmodified")
}
