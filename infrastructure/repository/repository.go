// Package repository implements the idempotency-probe-capable signal
// store: an in-memory multi-index reference implementation and a
// Postgres-backed production implementation.
package repository

import (
	"context"
	"time"

	"github.com/hoangpro/omen/domain/signal"
)

// Repository is the contract every implementation satisfies.
type Repository interface {
	// Save is UPSERT by signal_id.
	Save(ctx context.Context, sig signal.OmenSignal) error
	// FindByHash is the idempotency probe.
	FindByHash(ctx context.Context, inputEventHash string) (*signal.OmenSignal, bool, error)
	// FindByEventID returns every signal derived from one source event,
	// newest first by generated_at.
	FindByEventID(ctx context.Context, sourceEventID string) ([]signal.OmenSignal, error)
	// FindRecent paginates descending by generated_at, optionally
	// filtered to signals generated since a given time.
	FindRecent(ctx context.Context, limit, offset int, since *time.Time) ([]signal.OmenSignal, error)
	// Count returns the total number of stored signals, optionally since
	// a given time.
	Count(ctx context.Context, since *time.Time) (int, error)
}
