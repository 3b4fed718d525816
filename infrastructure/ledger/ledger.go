package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/domain/signal"
)

// Config carries the ledger's tunable retention/sealing parameters.
// cmd/omen fills it from the ledger section of the YAML config; no
// OMEN_RETENTION_* environment variable is read.
type Config struct {
	BaseDir              string
	AutoSealAfterHours   float64 // default 24
	SealGracePeriodHours float64 // default 2
	HotDays              int
	WarmDays             int
	ColdDays             int
	CompressWarm         bool
}

// DefaultConfig matches the documented defaults.
func DefaultConfig(baseDir string) Config {
	return Config{
		BaseDir:              baseDir,
		AutoSealAfterHours:   24,
		SealGracePeriodHours: 2,
		HotDays:              7,
		WarmDays:             30,
		ColdDays:             365,
		CompressWarm:         true,
	}
}

// partitionState guards one partition's writes with its own mutex:
// ledger appends are serialized per partition.
type partitionState struct {
	mu   sync.Mutex
	dir  string
	seal *time.Time // nil until auto-sealed
}

// Ledger is the append-only durable store.
type Ledger struct {
	cfg Config

	mu         sync.Mutex // guards partitions map only, never held across I/O
	partitions map[string]*partitionState
}

// New constructs a ledger rooted at cfg.BaseDir.
func New(cfg Config) *Ledger {
	return &Ledger{cfg: cfg, partitions: make(map[string]*partitionState)}
}

// partitionKey returns the YYYY-MM-DD partition for a UTC timestamp.
func partitionKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (l *Ledger) partitionDir(key string) string {
	return filepath.Join(l.cfg.BaseDir, key)
}

func (l *Ledger) statePartition(key string) *partitionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ps, ok := l.partitions[key]; ok {
		return ps
	}
	ps := &partitionState{dir: l.partitionDir(key)}
	l.partitions[key] = ps
	return ps
}

// sealTimeFor returns the instant a main partition seals: its own day's
// start plus 24h (end of day, UTC) plus auto-seal-after plus grace.
func (l *Ledger) sealTimeFor(key string) (time.Time, error) {
	dayStart, err := time.Parse("2006-01-02", key)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse partition key %q: %w", key, err)
	}
	dayEnd := dayStart.Add(24 * time.Hour)
	return dayEnd.Add(time.Duration((l.cfg.AutoSealAfterHours + l.cfg.SealGracePeriodHours) * float64(time.Hour))), nil
}

// IsSealed reports whether the main partition for key has passed its
// seal time as of "now".
func (l *Ledger) IsSealed(key string, now time.Time) bool {
	sealAt, err := l.sealTimeFor(key)
	if err != nil {
		return false
	}
	return !now.Before(sealAt)
}

// Append writes evt to the partition derived from its observed_at (UTC).
// Late-arriving records — whose target partition has already sealed —
// land in the sibling "<date>-late" partition instead, which is never
// auto-sealed by date alone.
func (l *Ledger) Append(evt signal.SignalEvent, now time.Time) (signal.SignalEvent, error) {
	key := partitionKey(evt.ObservedAt)
	late := l.IsSealed(key, now)
	if late {
		key = key + "-late"
	}

	ps := l.statePartition(key)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if err := os.MkdirAll(ps.dir, 0755); err != nil {
		return evt, fmt.Errorf("create partition dir %s: %w", ps.dir, err)
	}

	manifest, err := readManifest(ps.dir)
	if err != nil {
		return evt, err
	}

	_, line, err := NewRecord(evt)
	if err != nil {
		return evt, err
	}

	f, err := os.OpenFile(filepath.Join(ps.dir, "signals.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return evt, fmt.Errorf("open partition log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return evt, fmt.Errorf("append ledger line: %w", err)
	}
	if err := f.Sync(); err != nil {
		return evt, fmt.Errorf("flush ledger partition: %w", err)
	}

	manifest.HighwaterSequence++
	manifest.ManifestRevision++
	if err := writeManifestAtomic(ps.dir, manifest); err != nil {
		return evt, err
	}

	stamped := evt.WithLedgerPlacement(key, manifest.HighwaterSequence, now)

	log.Info().
		Str("partition", key).
		Uint64("sequence", manifest.HighwaterSequence).
		Str("signal_id", evt.SignalID).
		Msg("ledger: appended signal")

	return stamped, nil
}

// Highwater reads a partition's current (highwater, revision) atomically
// — readers never observe a torn tail because the manifest is written
// only after the data line is fsynced.
func (l *Ledger) Highwater(key string) (uint64, uint64, error) {
	ps := l.statePartition(key)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	m, err := readManifest(ps.dir)
	if err != nil {
		return 0, 0, err
	}
	return m.HighwaterSequence, m.ManifestRevision, nil
}
