package signal

import (
	"fmt"
	"strings"
	"time"
)

// GeographicContext carries the regions/chokepoints an OmenSignal touches.
type GeographicContext struct {
	Regions     []string `json:"regions,omitempty"`
	Chokepoints []string `json:"chokepoints,omitempty"`
}

// TemporalContext carries the horizon/resolution implied by the signal.
type TemporalContext struct {
	EventHorizon   *time.Time `json:"event_horizon,omitempty"`
	ResolutionDate *time.Time `json:"resolution_date,omitempty"`
}

// EvidenceItem cites one source that backs the signal.
type EvidenceItem struct {
	SourceName string `json:"source_name"`
	SourceType string `json:"source_type"`
	URL        string `json:"url,omitempty"`
}

// OmenSignal is the final, immutable decision-grade artifact. It carries
// no severity, no impact metrics, no recommendation — OMEN makes no risk
// decisions.
type OmenSignal struct {
	SignalID       string `json:"signal_id"`
	SourceEventID  string `json:"source_event_id"`
	TraceID        string `json:"trace_id"`
	InputEventHash string `json:"input_event_hash"`

	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Probability float64 `json:"probability"`
	ProbabilitySource string `json:"probability_source"`

	ConfidenceScore float64         `json:"confidence_score"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`

	Category Category `json:"category"`
	Tags     []string `json:"tags"`

	Geographic GeographicContext `json:"geographic_context"`
	Temporal   TemporalContext   `json:"temporal_context"`

	Evidence []EvidenceItem `json:"evidence"`

	RulesetVersion string            `json:"ruleset_version"`
	Chain          *ExplanationChain `json:"explanation_chain"`

	GeneratedAt time.Time `json:"generated_at"`
}

// IsLive reports whether this id was minted by the LIVE-prefixed
// generator, per the id-prefix filtering convention.
func (s OmenSignal) IsLive() bool {
	return strings.HasPrefix(s.SignalID, "OMEN-LIVE")
}

// SignalID derives the "OMEN-<12 hex uppercase>" id from a trace id.
// When live is true, the distinct "OMEN-LIVE<8 hex>" prefix is used
// instead, so API filtering by mode is a simple string-prefix check.
func SignalID(traceID string, live bool) string {
	if live {
		n := 8
		if len(traceID) < n {
			n = len(traceID)
		}
		return fmt.Sprintf("OMEN-LIVE%s", strings.ToUpper(traceID[:n]))
	}
	n := 12
	if len(traceID) < n {
		n = len(traceID)
	}
	return fmt.Sprintf("OMEN-%s", strings.ToUpper(traceID[:n]))
}
