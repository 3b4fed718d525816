package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hoangpro/omen/domain/signal"
)

// ReadPartition reads every record in a partition's JSONL log, in
// append order.
func (l *Ledger) ReadPartition(key string) ([]Record, error) {
	path := filepath.Join(l.partitionDir(key), "signals.jsonl")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open partition %s: %w", key, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal ledger line in %s: %w", key, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan partition %s: %w", key, err)
	}
	return records, nil
}

// SignalIDs returns the set of signal ids present in a partition.
func (l *Ledger) SignalIDs(key string) (map[string]struct{}, error) {
	records, err := l.ReadPartition(key)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(records))
	for _, r := range records {
		ids[r.Signal.SignalID] = struct{}{}
	}
	return ids, nil
}

// FindByID scans a partition for one signal event by id. Used by the
// reconcile loop's bounded replay of missing ids.
func (l *Ledger) FindByID(key, signalID string) (*signal.SignalEvent, error) {
	records, err := l.ReadPartition(key)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.Signal.SignalID == signalID {
			evt := r.Signal
			return &evt, nil
		}
	}
	return nil, nil
}

// Partitions lists the partition keys (day directories) currently on
// disk, including "-late" siblings.
func (l *Ledger) Partitions() ([]string, error) {
	entries, err := os.ReadDir(l.cfg.BaseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			keys = append(keys, e.Name())
		}
	}
	return keys, nil
}
