// Package reconcile implements the ledger-vs-downstream reconcile
// loop: detects and heals divergence between the ledger (source of
// truth) and a downstream processor by replaying missing signal ids.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/domain/signal"
	"github.com/hoangpro/omen/infrastructure/ledger"
)

// Downstream is the collaborator this loop reconciles against.
type Downstream interface {
	ListProcessedIDs(ctx context.Context, partition string) (map[string]struct{}, error)
	ReplayIdempotent(ctx context.Context, evt signal.SignalEvent) error
}

// Status is a partition's reconcile outcome.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusPartial   Status = "PARTIAL"
	StatusFailed    Status = "FAILED"
	StatusSkipped   Status = "SKIPPED"
)

// PartitionState is the persisted reconcile state for one partition.
type PartitionState struct {
	Partition         string
	LastHighwater     uint64
	ManifestRevision  uint64
	LedgerRecordCount int
	ProcessedCount    int
	MissingCount      int
	ReplayedCount     int
	Status            Status
	DurationMs        int64
	LastRunAt         time.Time
}

// Config carries the loop's tunables.
type Config struct {
	LookbackDays   int
	MaxReplayBatch int
	Interval       time.Duration
}

func DefaultConfig() Config {
	return Config{LookbackDays: 14, MaxReplayBatch: 500, Interval: 300 * time.Second}
}

// Reconciler runs the per-partition reconcile algorithm against a
// ledger and a downstream collaborator, keeping state in memory (a
// production deployment would persist PartitionState to the repository
// or a dedicated table; this in-process store is meant to be
// substituted there).
type Reconciler struct {
	ledger     *ledger.Ledger
	downstream Downstream
	cfg        Config
	state      map[string]PartitionState
}

func New(led *ledger.Ledger, downstream Downstream, cfg Config) *Reconciler {
	return &Reconciler{ledger: led, downstream: downstream, cfg: cfg, state: make(map[string]PartitionState)}
}

// RunOnce reconciles every eligible partition once and returns the
// per-partition results. Eligible: within LookbackDays; main partitions
// must be sealed; "-late" partitions are processed regardless of seal
// state.
func (r *Reconciler) RunOnce(ctx context.Context, now time.Time) ([]PartitionState, error) {
	keys, err := r.ledger.Partitions()
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	sort.Strings(keys)

	var results []PartitionState
	for _, key := range keys {
		if !r.eligible(key, now) {
			continue
		}
		state := r.reconcilePartition(ctx, key, now)
		results = append(results, state)
	}
	return results, nil
}

func (r *Reconciler) eligible(key string, now time.Time) bool {
	dateKey := key
	late := false
	if len(key) > 5 && key[len(key)-5:] == "-late" {
		dateKey = key[:len(key)-5]
		late = true
	}
	day, err := time.Parse("2006-01-02", dateKey)
	if err != nil {
		return false
	}
	if now.Sub(day) > time.Duration(r.cfg.LookbackDays)*24*time.Hour {
		return false
	}
	if late {
		return true
	}
	return r.ledger.IsSealed(key, now)
}

func (r *Reconciler) reconcilePartition(ctx context.Context, key string, now time.Time) PartitionState {
	start := now

	highwater, revision, err := r.ledger.Highwater(key)
	if err != nil {
		return PartitionState{Partition: key, Status: StatusFailed, LastRunAt: now}
	}

	prev, everProcessed := r.state[key]
	needsReconcile := !everProcessed || highwater > prev.LastHighwater || revision != prev.ManifestRevision
	if !needsReconcile {
		skipped := PartitionState{Partition: key, LastHighwater: highwater, ManifestRevision: revision, Status: StatusSkipped, LastRunAt: now}
		r.state[key] = skipped
		return skipped
	}

	ledgerIDs, err := r.ledger.SignalIDs(key)
	if err != nil {
		return PartitionState{Partition: key, Status: StatusFailed, LastRunAt: now}
	}

	processedIDs, err := r.downstream.ListProcessedIDs(ctx, key)
	if err != nil {
		return PartitionState{Partition: key, Status: StatusFailed, LastRunAt: now}
	}
	if isLatePartition(key) {
		mainKey := key[:len(key)-len("-late")]
		if mainProcessed, err := r.downstream.ListProcessedIDs(ctx, mainKey); err == nil {
			for id := range mainProcessed {
				processedIDs[id] = struct{}{}
			}
		}
	}

	var missing []string
	for id := range ledgerIDs {
		if _, ok := processedIDs[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)

	var extras []string
	for id := range processedIDs {
		if _, ok := ledgerIDs[id]; !ok {
			extras = append(extras, id)
		}
	}
	if len(extras) > 0 {
		sort.Strings(extras)
		log.Error().Str("partition", key).Strs("extras", extras).
			Msg("reconcile: downstream has ids absent from the ledger (invariant violation)")
	}

	replayBatch := missing
	if len(replayBatch) > r.cfg.MaxReplayBatch {
		replayBatch = replayBatch[:r.cfg.MaxReplayBatch]
	}

	replayed := 0
	failed := 0
	for _, id := range replayBatch {
		evt, err := r.ledger.FindByID(key, id)
		if err != nil || evt == nil {
			failed++
			continue
		}
		if err := r.downstream.ReplayIdempotent(ctx, *evt); err != nil {
			failed++
			continue
		}
		replayed++
	}

	status := StatusCompleted
	if failed > 0 && replayed > 0 {
		status = StatusPartial
	} else if failed > 0 && replayed == 0 {
		status = StatusFailed
	}

	result := PartitionState{
		Partition:         key,
		LastHighwater:     highwater,
		ManifestRevision:  revision,
		LedgerRecordCount: len(ledgerIDs),
		ProcessedCount:    len(processedIDs),
		MissingCount:      len(missing),
		ReplayedCount:     replayed,
		Status:            status,
		DurationMs:        time.Since(start).Milliseconds(),
		LastRunAt:         now,
	}
	r.state[key] = result

	log.Info().
		Str("partition", key).
		Int("ledger_count", result.LedgerRecordCount).
		Int("processed_count", result.ProcessedCount).
		Int("missing", result.MissingCount).
		Int("replayed", result.ReplayedCount).
		Str("status", string(result.Status)).
		Msg("reconcile: partition summary")

	return result
}

func isLatePartition(key string) bool {
	return len(key) > 5 && key[len(key)-5:] == "-late"
}

// RunLoop runs RunOnce on cfg.Interval until ctx is cancelled.
func (r *Reconciler) RunLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx, time.Now()); err != nil {
				log.Error().Err(err).Msg("reconcile: loop iteration failed")
			}
		}
	}
}

// ExitCode implements the reconcile CLI's exit contract: 0 if every
// partition completed or was skipped, 1 if any partition FAILED.
func ExitCode(results []PartitionState) int {
	for _, r := range results {
		if r.Status == StatusFailed {
			return 1
		}
	}
	return 0
}
