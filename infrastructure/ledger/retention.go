package ledger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Seal marks a main partition closed to writes once it has passed its
// seal time. Sealing is idempotent. "-late" partitions are never sealed
// by this path — they stay open for as long as late arrivals appear.
func (l *Ledger) Seal(key string, now time.Time) error {
	if strings.HasSuffix(key, "-late") {
		return nil
	}
	if !l.IsSealed(key, now) {
		return nil
	}

	ps := l.statePartition(key)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	m, err := readManifest(ps.dir)
	if err != nil {
		return err
	}
	if m.SealedAt != nil {
		return nil
	}
	sealedAt := now.UTC()
	m.SealedAt = &sealedAt
	if err := writeManifestAtomic(ps.dir, m); err != nil {
		return err
	}
	log.Info().Str("partition", key).Msg("ledger: partition sealed")
	return nil
}

// CompressAged gzips the JSONL log of every partition (including
// "-late" siblings) whose day is at least cfg.HotDays old, moving it
// from the hot tier into warm storage in place. Seal state is not
// checked. Already-compressed partitions are skipped.
func (l *Ledger) CompressAged(now time.Time) error {
	if !l.cfg.CompressWarm {
		return nil
	}
	keys, err := l.Partitions()
	if err != nil {
		return err
	}
	for _, key := range keys {
		dateKey := strings.TrimSuffix(key, "-late")
		day, err := time.Parse("2006-01-02", dateKey)
		if err != nil {
			continue
		}
		age := now.Sub(day)
		if age < time.Duration(l.cfg.HotDays)*24*time.Hour {
			continue
		}
		if err := l.compressPartition(key); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) compressPartition(key string) error {
	dir := l.partitionDir(key)
	src := filepath.Join(dir, "signals.jsonl")
	dst := src + ".gz"

	if _, err := os.Stat(dst); err == nil {
		return nil // already compressed
	}
	in, err := os.Open(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open partition for compression %s: %w", key, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create compressed segment %s: %w", key, err)
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		out.Close()
		return fmt.Errorf("compress partition %s: %w", key, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip writer for %s: %w", key, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close compressed segment %s: %w", key, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove uncompressed partition %s: %w", key, err)
	}
	log.Info().Str("partition", key).Msg("ledger: compressed aged partition to warm tier")
	return nil
}

// ArchiveCold moves partitions older than cfg.WarmDays into a "cold"
// archive subdirectory, and deletes anything older than cfg.ColdDays
// when delete is enabled by the caller.
func (l *Ledger) ArchiveCold(now time.Time, deleteOlderThanCold bool) error {
	keys, err := l.Partitions()
	if err != nil {
		return err
	}
	coldDir := filepath.Join(l.cfg.BaseDir, "cold")

	for _, key := range keys {
		if key == "cold" {
			continue
		}
		dateKey := strings.TrimSuffix(key, "-late")
		day, err := time.Parse("2006-01-02", dateKey)
		if err != nil {
			continue
		}
		age := now.Sub(day)

		if deleteOlderThanCold && age >= time.Duration(l.cfg.ColdDays)*24*time.Hour {
			if err := os.RemoveAll(l.partitionDir(key)); err != nil {
				return fmt.Errorf("delete expired partition %s: %w", key, err)
			}
			log.Info().Str("partition", key).Msg("ledger: deleted expired partition")
			continue
		}

		if age >= time.Duration(l.cfg.WarmDays)*24*time.Hour {
			if err := os.MkdirAll(coldDir, 0755); err != nil {
				return fmt.Errorf("create cold archive dir: %w", err)
			}
			dst := filepath.Join(coldDir, key)
			if _, err := os.Stat(dst); err == nil {
				continue // already archived
			}
			if err := os.Rename(l.partitionDir(key), dst); err != nil {
				return fmt.Errorf("archive partition %s to cold tier: %w", key, err)
			}
			log.Info().Str("partition", key).Msg("ledger: archived partition to cold tier")
		}
	}
	return nil
}
