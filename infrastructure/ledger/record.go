// Package ledger implements a durable, append-only, partitioned JSONL
// signal ledger: partition-by-day writes, late-arrival sibling
// partitions, sealing, and highwater/manifest
// tracking for the reconcile loop.
package ledger

import (
	"encoding/json"
	"fmt"
	"hash/crc32"

	"github.com/hoangpro/omen/domain/signal"
)

// Record is the on-disk ledger record format:
// {"checksum":"crc32:<8hex>","length":<int>,"signal":{...}}.
type Record struct {
	Checksum string             `json:"checksum"`
	Length   int                `json:"length"`
	Signal   signal.SignalEvent `json:"signal"`
}

// NewRecord serializes evt to canonical JSON (null fields elided) and
// wraps it with its CRC32 checksum and byte length.
func NewRecord(evt signal.SignalEvent) (Record, []byte, error) {
	body, err := signal.CanonicalJSON(evt)
	if err != nil {
		return Record{}, nil, fmt.Errorf("canonicalize signal event: %w", err)
	}
	sum := crc32.ChecksumIEEE(body)
	rec := Record{
		Checksum: fmt.Sprintf("crc32:%08x", sum),
		Length:   len(body),
		Signal:   evt,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return Record{}, nil, fmt.Errorf("marshal ledger record: %w", err)
	}
	return rec, line, nil
}

// Verify recomputes the checksum over the canonical JSON of r.Signal and
// reports whether it matches r.Checksum — the round-trip invariant.
func (r Record) Verify() bool {
	body, err := signal.CanonicalJSON(r.Signal)
	if err != nil {
		return false
	}
	want := fmt.Sprintf("crc32:%08x", crc32.ChecksumIEEE(body))
	return want == r.Checksum
}
