// Package dlq implements a bounded, thread-safe dead-letter queue:
// events the pipeline could not process land here instead of being
// dropped, tagged with the OmenError that
// caused the enqueue.
package dlq

import (
	"sync"
	"time"

	domerrors "github.com/hoangpro/omen/domain/errors"
	"github.com/hoangpro/omen/domain/signal"
)

// Entry is one dead-lettered event.
type Entry struct {
	Event     signal.RawSignalEvent
	Err       *domerrors.OmenError
	EnqueuedAt time.Time
}

// Queue is a bounded FIFO; once full, the oldest entry is dropped to
// make room for the new one (never blocks a caller).
type Queue struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	dropped  uint64
}

// New constructs a queue with the given capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Queue{capacity: capacity}
}

// Enqueue appends an entry, evicting the oldest if the queue is full.
func (q *Queue) Enqueue(event signal.RawSignalEvent, err *domerrors.OmenError, now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.capacity {
		q.entries = q.entries[1:]
		q.dropped++
	}
	q.entries = append(q.entries, Entry{Event: event, Err: err, EnqueuedAt: now})
}

// Drain removes and returns up to max entries, oldest first, for
// reprocessing.
func (q *Queue) Drain(max int) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if max <= 0 || max > len(q.entries) {
		max = len(q.entries)
	}
	out := make([]Entry, max)
	copy(out, q.entries[:max])
	q.entries = q.entries[max:]
	return out
}

// Len reports the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Dropped reports how many entries have been evicted for capacity.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
