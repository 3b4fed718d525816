package signal

import "time"

// SignalEvent wraps an OmenSignal for ledger/transport with schema
// versioning and ledger placement metadata. All timestamps here are
// timezone-aware UTC — this is enforced at construction, not by convention.
type SignalEvent struct {
	SchemaVersion  string    `json:"schema_version"`
	SignalID       string    `json:"signal_id"`
	TraceID        string    `json:"trace_id"`
	InputEventHash string    `json:"input_event_hash"`
	SourceEventID  string    `json:"source_event_id"`
	RulesetVersion string    `json:"ruleset_version"`
	ObservedAt     time.Time `json:"observed_at"`
	EmittedAt      time.Time `json:"emitted_at"`

	LedgerWrittenAt *time.Time `json:"ledger_written_at,omitempty"`
	LedgerPartition string     `json:"ledger_partition,omitempty"`
	LedgerSequence  *uint64    `json:"ledger_sequence,omitempty"`

	Signal OmenSignal `json:"signal_payload"`
}

// NewSignalEvent builds an envelope for a freshly generated OmenSignal.
// observedAt and emittedAt are both forced to UTC, satisfying the
// timezone-aware-UTC invariant unconditionally.
func NewSignalEvent(schemaVersion string, sig OmenSignal, sourceEventID string, observedAt, emittedAt time.Time) SignalEvent {
	return SignalEvent{
		SchemaVersion:  schemaVersion,
		SignalID:       sig.SignalID,
		TraceID:        sig.TraceID,
		InputEventHash: sig.InputEventHash,
		SourceEventID:  sourceEventID,
		RulesetVersion: sig.RulesetVersion,
		ObservedAt:     observedAt.UTC(),
		EmittedAt:      emittedAt.UTC(),
		Signal:         sig,
	}
}

// WithLedgerPlacement returns a copy stamped with partition/sequence/
// written-at, as performed by the ledger's write protocol.
func (e SignalEvent) WithLedgerPlacement(partition string, sequence uint64, writtenAt time.Time) SignalEvent {
	w := writtenAt.UTC()
	e.LedgerPartition = partition
	e.LedgerSequence = &sequence
	e.LedgerWrittenAt = &w
	return e
}
