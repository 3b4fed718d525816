// Package activity implements the bounded in-process activity log and
// rejection tracker.
package activity

import (
	"sync"
	"time"

	"github.com/hoangpro/omen/domain/signal"
)

// EventType classifies one activity log entry.
type EventType string

const (
	EventSignal     EventType = "signal"
	EventValidation EventType = "validation"
	EventRule       EventType = "rule"
	EventAlert      EventType = "alert"
	EventSource     EventType = "source"
	EventError      EventType = "error"
	EventSystem     EventType = "system"
)

// Entry is one activity log record.
type Entry struct {
	Type      EventType
	Message   string
	At        time.Time
}

const ringCapacity = 1000

// Log is a bounded ring buffer of the most recent activity entries.
type Log struct {
	mu    sync.Mutex
	ring  []Entry
	head  int
	count int
	now   func() time.Time
}

func NewLog() *Log {
	return &Log{ring: make([]Entry, ringCapacity), now: time.Now}
}

func (l *Log) append(t EventType, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring[l.head] = Entry{Type: t, Message: msg, At: l.now()}
	l.head = (l.head + 1) % ringCapacity
	if l.count < ringCapacity {
		l.count++
	}
}

// Recent returns up to n entries, newest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > l.count {
		n = l.count
	}
	out := make([]Entry, 0, n)
	idx := (l.head - 1 + ringCapacity) % ringCapacity
	for i := 0; i < n; i++ {
		out = append(out, l.ring[idx])
		idx = (idx - 1 + ringCapacity) % ringCapacity
	}
	return out
}

// rejectionEntry records why one event was dropped at which stage.
type rejectionEntry struct {
	Stage    string
	RuleName string
	Reason   string
	At       time.Time
}

// RejectionTracker is a separate bounded ring over rejection reasons,
// exposing per-stage counts and a top-N reason histogram.
type RejectionTracker struct {
	mu    sync.Mutex
	ring  []rejectionEntry
	head  int
	count int
	now   func() time.Time

	stageCounts  map[string]int
	reasonCounts map[string]int
	passCount    int
	failCount    int
}

func NewRejectionTracker() *RejectionTracker {
	return &RejectionTracker{
		ring:         make([]rejectionEntry, ringCapacity),
		now:          time.Now,
		stageCounts:  make(map[string]int),
		reasonCounts: make(map[string]int),
	}
}

func (t *RejectionTracker) RecordPass() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.passCount++
}

func (t *RejectionTracker) RecordRejection(stage, ruleName, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ring[t.head] = rejectionEntry{Stage: stage, RuleName: ruleName, Reason: reason, At: t.now()}
	t.head = (t.head + 1) % ringCapacity
	if t.count < ringCapacity {
		t.count++
	}
	t.stageCounts[stage]++
	t.reasonCounts[reason]++
	t.failCount++
}

// StageCounts returns a copy of the per-stage rejection counts.
func (t *RejectionTracker) StageCounts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.stageCounts))
	for k, v := range t.stageCounts {
		out[k] = v
	}
	return out
}

// TopReasons returns the n most frequent rejection reasons, descending.
func (t *RejectionTracker) TopReasons(n int) []ReasonCount {
	t.mu.Lock()
	defer t.mu.Unlock()
	all := make([]ReasonCount, 0, len(t.reasonCounts))
	for reason, count := range t.reasonCounts {
		all = append(all, ReasonCount{Reason: reason, Count: count})
	}
	sortReasonCounts(all)
	if n > 0 && n < len(all) {
		all = all[:n]
	}
	return all
}

// ReasonCount pairs a rejection reason with its occurrence count.
type ReasonCount struct {
	Reason string
	Count  int
}

func sortReasonCounts(rs []ReasonCount) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j].Count > rs[j-1].Count; j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
}

// PassFailRate returns the fraction of recorded outcomes that passed.
func (t *RejectionTracker) PassFailRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := t.passCount + t.failCount
	if total == 0 {
		return 0
	}
	return float64(t.passCount) / float64(total)
}

// Recorder adapts (Log, RejectionTracker) to pipeline.Recorder.
type Recorder struct {
	Log     *Log
	Rejects *RejectionTracker
}

func NewRecorder() *Recorder {
	return &Recorder{Log: NewLog(), Rejects: NewRejectionTracker()}
}

func (r *Recorder) RecordValidated(event signal.RawSignalEvent) {
	r.Log.append(EventValidation, "event validated: "+event.EventID)
	r.Rejects.RecordPass()
}

func (r *Recorder) RecordDeduplicated(event signal.RawSignalEvent) {
	r.Log.append(EventSignal, "event deduplicated: "+event.EventID)
}

func (r *Recorder) RecordRejected(event signal.RawSignalEvent, stage, ruleName, reason string) {
	r.Log.append(EventRule, "event rejected at "+stage+": "+reason)
	r.Rejects.RecordRejection(stage, ruleName, reason)
}

func (r *Recorder) RecordGenerated(sig signal.OmenSignal, latency time.Duration) {
	r.Log.append(EventSignal, "signal generated: "+sig.SignalID)
}

func (r *Recorder) RecordBelowConfidence(sig signal.OmenSignal) {
	r.Log.append(EventRule, "signal below confidence threshold")
	r.Rejects.RecordRejection("generation", "", "confidence below minimum")
}

func (r *Recorder) RecordError(stage string, err error) {
	r.Log.append(EventError, stage+": "+err.Error())
}
