package rules

import (
	"github.com/hoangpro/omen/domain/signal"
)

// RuleName/version constants, following the gate-evidence naming
// convention (domain.GateEvidence.Name).
const (
	RuleLiquidity  = "liquidity_validation"
	RuleAnomaly    = "anomaly_validation"
	RuleSemantic   = "semantic_relevance_validation"
	RuleGeographic = "geographic_relevance_validation"
	ruleVersion    = "v1"
)

// Rule evaluates one validator stage against an event and the rule config.
type Rule interface {
	Name() string
	Evaluate(event signal.RawSignalEvent, cfg Config) (signal.ValidationResult, error)
}

// Outcome is the chain's verdict: either a passing signal.ValidatedSignal
// (category/chokepoints/score populated) or a rejection reason, plus the
// full ordered list of ValidationResults produced along the way.
type Outcome struct {
	Passed          bool
	RejectionReason string
	Results         []signal.ValidationResult
}

// DefaultChain is the fixed rule order: liquidity is cheapest and runs
// first, geography last.
func DefaultChain() []Rule {
	return []Rule{
		&LiquidityRule{},
		NewAnomalyRule(),
		&SemanticRelevanceRule{},
		&GeographicRelevanceRule{},
	}
}

// Run executes the chain in order. On the first rejection (or rule
// error with FailOnRuleError set) it stops and returns that rejection;
// results collected so far are still returned for the explanation chain.
func Run(chain []Rule, event signal.RawSignalEvent, cfg Config) Outcome {
	results := make([]signal.ValidationResult, 0, len(chain))

	for _, rule := range chain {
		res, err := rule.Evaluate(event, cfg)
		if err != nil {
			errResult := signal.ValidationResult{
				RuleName:    rule.Name(),
				RuleVersion: ruleVersion,
				Status:      signal.StatusRejectedRuleError,
				Score:       0,
				Reason:      err.Error(),
			}
			results = append(results, errResult)
			if cfg.FailOnRuleError {
				return Outcome{Passed: false, RejectionReason: string(signal.StatusRejectedRuleError), Results: results}
			}
			continue
		}

		results = append(results, res)
		if !res.Passed() {
			return Outcome{Passed: false, RejectionReason: string(res.Status), Results: results}
		}
	}

	return Outcome{Passed: true, Results: results}
}
