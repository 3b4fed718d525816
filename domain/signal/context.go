package signal

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ProcessingContext is the immutable (processing_time, ruleset_version,
// trace_id) triple that pins every timestamp produced during one
// pipeline invocation. It is the sole source of timestamps used in
// validation results, explanation steps, and emitted signals — the
// determinism contract. Its own trace_id is derived from
// processing_time.isoformat() + ruleset_version and is distinct from the
// input-hash-derived trace id carried by ValidatedSignal.
type ProcessingContext struct {
	ProcessingTime time.Time
	RulesetVersion string
	TraceID        string
}

// NewProcessingContext creates a context for one pipeline invocation.
func NewProcessingContext(processingTime time.Time, rulesetVersion string) ProcessingContext {
	pt := processingTime.UTC()
	sum := sha256.Sum256([]byte(pt.Format(time.RFC3339Nano) + rulesetVersion))
	return ProcessingContext{
		ProcessingTime: pt,
		RulesetVersion: rulesetVersion,
		TraceID:        hex.EncodeToString(sum[:]),
	}
}

// SignalTraceID derives the deterministic trace id carried by a
// ValidatedSignal: sha256(input_event_hash + ruleset_version), hex-encoded.
func (c ProcessingContext) SignalTraceID(inputEventHash string) string {
	sum := sha256.Sum256([]byte(inputEventHash + c.RulesetVersion))
	return hex.EncodeToString(sum[:])
}
