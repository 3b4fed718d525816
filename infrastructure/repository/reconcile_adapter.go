package repository

import (
	"context"
	"time"

	"github.com/hoangpro/omen/domain/signal"
)

// ReconcileAdapter satisfies reconcile.Downstream over a Repository: the
// repository itself is what ledger writes are reconciled against.
type ReconcileAdapter struct {
	repo Repository
}

func NewReconcileAdapter(repo Repository) *ReconcileAdapter {
	return &ReconcileAdapter{repo: repo}
}

// ListProcessedIDs returns every signal id generated on the partition's
// calendar day. partition may carry a "-late" suffix (late-arrival
// sibling); the suffix is stripped before parsing, so a late partition
// is compared against the signals generated on its bare key's day.
func (a *ReconcileAdapter) ListProcessedIDs(ctx context.Context, partition string) (map[string]struct{}, error) {
	dateKey := partition
	if len(dateKey) > 5 && dateKey[len(dateKey)-5:] == "-late" {
		dateKey = dateKey[:len(dateKey)-5]
	}
	day, err := time.Parse("2006-01-02", dateKey)
	if err != nil {
		return nil, err
	}
	dayEnd := day.Add(24 * time.Hour)

	ids := make(map[string]struct{})
	const pageSize = 500
	offset := 0
	for {
		sigs, err := a.repo.FindRecent(ctx, pageSize, offset, &day)
		if err != nil {
			return nil, err
		}
		if len(sigs) == 0 {
			break
		}
		for _, sig := range sigs {
			if sig.GeneratedAt.Before(dayEnd) {
				ids[sig.SignalID] = struct{}{}
			}
		}
		if len(sigs) < pageSize {
			break
		}
		offset += pageSize
	}
	return ids, nil
}

// ReplayIdempotent re-saves the envelope's signal payload; Save is an
// UPSERT by signal_id so a repeat replay is a no-op.
func (a *ReconcileAdapter) ReplayIdempotent(ctx context.Context, evt signal.SignalEvent) error {
	return a.repo.Save(ctx, evt.Signal)
}
