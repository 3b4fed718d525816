package signal

import "time"

// ExplanationStep is one entry in an ExplanationChain: a single rule or
// stage's structured contribution to the final signal. step_id starts
// at 1 and increases monotonically within a chain.
type ExplanationStep struct {
	StepID                int               `json:"step_id"`
	RuleName              string            `json:"rule_name"`
	RuleVersion           string            `json:"rule_version"`
	InputSummary          string            `json:"input_summary"`
	OutputSummary         string            `json:"output_summary"`
	ParametersUsed        map[string]string `json:"parameters_used,omitempty"` // parameter name -> "value (source_citation)"
	Reasoning             string            `json:"reasoning"`
	ConfidenceContribution float64          `json:"confidence_contribution"`
	Timestamp             time.Time         `json:"timestamp"`
}

// ExplanationChain is the ordered, append-only record of every stage
// that touched a signal. A signal that cannot produce a complete chain
// must not be emitted.
type ExplanationChain struct {
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	Steps       []ExplanationStep `json:"steps"`
}

// NewExplanationChain starts a chain anchored to the context's
// processing time.
func NewExplanationChain(ctx ProcessingContext) *ExplanationChain {
	return &ExplanationChain{
		StartedAt: ctx.ProcessingTime,
		Steps:     make([]ExplanationStep, 0, 8),
	}
}

// Add appends the next step, assigning step_id and timestamp from the
// context that owns this chain's run.
func (c *ExplanationChain) Add(ctx ProcessingContext, ruleName, ruleVersion, inputSummary, outputSummary, reasoning string, confidenceContribution float64, parametersUsed map[string]string) {
	c.Steps = append(c.Steps, ExplanationStep{
		StepID:                 len(c.Steps) + 1,
		RuleName:               ruleName,
		RuleVersion:            ruleVersion,
		InputSummary:           inputSummary,
		OutputSummary:          outputSummary,
		ParametersUsed:         parametersUsed,
		Reasoning:              reasoning,
		ConfidenceContribution: confidenceContribution,
		Timestamp:              ctx.ProcessingTime,
	})
}

// Complete stamps completed_at from the context's processing time.
func (c *ExplanationChain) Complete(ctx ProcessingContext) {
	c.CompletedAt = ctx.ProcessingTime
}
