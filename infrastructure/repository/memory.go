package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hoangpro/omen/domain/signal"
)

// InMemoryRepository is the reference implementation: a multi-index
// store guarded by a single reader-writer lock (probe takes the read
// lock, save takes the write lock briefly).
type InMemoryRepository struct {
	mu        sync.RWMutex
	byID      map[string]signal.OmenSignal
	byHash    map[string]string // input_event_hash -> signal_id
	byEventID map[string][]string
	order     []string // signal_ids, append order; re-sorted lazily on read
}

// NewInMemoryRepository constructs an empty store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:      make(map[string]signal.OmenSignal),
		byHash:    make(map[string]string),
		byEventID: make(map[string][]string),
	}
}

func (r *InMemoryRepository) Save(_ context.Context, sig signal.OmenSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[sig.SignalID]; !exists {
		r.order = append(r.order, sig.SignalID)
	}
	r.byID[sig.SignalID] = sig
	r.byHash[sig.InputEventHash] = sig.SignalID

	ids := r.byEventID[sig.SourceEventID]
	found := false
	for _, id := range ids {
		if id == sig.SignalID {
			found = true
			break
		}
	}
	if !found {
		r.byEventID[sig.SourceEventID] = append(ids, sig.SignalID)
	}
	return nil
}

func (r *InMemoryRepository) FindByHash(_ context.Context, inputEventHash string) (*signal.OmenSignal, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byHash[inputEventHash]
	if !ok {
		return nil, false, nil
	}
	sig := r.byID[id]
	return &sig, true, nil
}

func (r *InMemoryRepository) FindByEventID(_ context.Context, sourceEventID string) ([]signal.OmenSignal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byEventID[sourceEventID]
	out := make([]signal.OmenSignal, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) FindRecent(_ context.Context, limit, offset int, since *time.Time) ([]signal.OmenSignal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]signal.OmenSignal, 0, len(r.order))
	for _, id := range r.order {
		sig := r.byID[id]
		if since != nil && sig.GeneratedAt.Before(*since) {
			continue
		}
		all = append(all, sig)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].GeneratedAt.After(all[j].GeneratedAt)
	})

	if offset >= len(all) {
		return []signal.OmenSignal{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *InMemoryRepository) Count(_ context.Context, since *time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if since == nil {
		return len(r.byID), nil
	}
	n := 0
	for _, sig := range r.byID {
		if !sig.GeneratedAt.Before(*since) {
			n++
		}
	}
	return n, nil
}
