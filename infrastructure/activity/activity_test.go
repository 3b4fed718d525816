package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangpro/omen/domain/signal"
)

func TestLog_RecentReturnsNewestFirst(t *testing.T) {
	l := NewLog()
	l.append(EventSystem, "first")
	l.append(EventSystem, "second")
	l.append(EventSystem, "third")

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Message)
	assert.Equal(t, "second", recent[1].Message)
}

func TestLog_RecentClampsToAvailableCount(t *testing.T) {
	l := NewLog()
	l.append(EventSystem, "only one")

	recent := l.Recent(50)
	require.Len(t, recent, 1)
}

func TestLog_WrapsAroundRingCapacity(t *testing.T) {
	l := NewLog()
	for i := 0; i < ringCapacity+10; i++ {
		l.append(EventSystem, "entry")
	}
	recent := l.Recent(0)
	assert.Len(t, recent, ringCapacity)
}

func TestRejectionTracker_StageCountsAndTopReasons(t *testing.T) {
	tr := NewRejectionTracker()
	tr.RecordRejection("validation", "liquidity", "below floor")
	tr.RecordRejection("validation", "liquidity", "below floor")
	tr.RecordRejection("validation", "semantic", "off topic")

	counts := tr.StageCounts()
	assert.Equal(t, 3, counts["validation"])

	top := tr.TopReasons(1)
	require.Len(t, top, 1)
	assert.Equal(t, "below floor", top[0].Reason)
	assert.Equal(t, 2, top[0].Count)
}

func TestRejectionTracker_PassFailRate(t *testing.T) {
	tr := NewRejectionTracker()
	assert.Equal(t, 0.0, tr.PassFailRate())

	tr.RecordPass()
	tr.RecordPass()
	tr.RecordPass()
	tr.RecordRejection("validation", "liquidity", "below floor")

	assert.InDelta(t, 0.75, tr.PassFailRate(), 0.001)
}

func TestRecorder_RecordValidatedLogsAndCountsPass(t *testing.T) {
	r := NewRecorder()
	r.RecordValidated(signal.RawSignalEvent{EventID: "e1"})

	recent := r.Log.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, EventValidation, recent[0].Type)
	assert.Equal(t, 1.0, r.Rejects.PassFailRate())
}

func TestRecorder_RecordRejectedLogsAndTracksReason(t *testing.T) {
	r := NewRecorder()
	r.RecordRejected(signal.RawSignalEvent{EventID: "e1"}, "validation", "liquidity", "below floor")

	recent := r.Log.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, EventRule, recent[0].Type)
	assert.Equal(t, 1, r.Rejects.StageCounts()["validation"])
}

func TestRecorder_RecordErrorLogsAsEventError(t *testing.T) {
	r := NewRecorder()
	r.RecordError("generation", errBoom{})

	recent := r.Log.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, EventError, recent[0].Type)
}

func TestRecorder_RecordBelowConfidenceTracksReason(t *testing.T) {
	r := NewRecorder()
	r.RecordBelowConfidence(signal.OmenSignal{SignalID: "OMEN-1"})
	assert.Equal(t, 1, r.Rejects.StageCounts()["generation"])
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
