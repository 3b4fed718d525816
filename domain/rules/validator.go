package rules

import (
	"strings"

	"github.com/hoangpro/omen/domain/signal"
)

// Validator runs the fixed rule chain against a RawSignalEvent and, on a
// pass, projects it into a ValidatedSignal with category, chokepoints,
// and scores populated.
type Validator struct {
	Chain  []Rule
	Config Config
}

// NewValidator builds a validator with the default chain and config.
func NewValidator(cfg Config) *Validator {
	return &Validator{Chain: DefaultChain(), Config: cfg}
}

// Validate executes the chain and, if it passes, builds the
// ValidatedSignal. trace id and explanation-chain timestamps come from
// ctx, the pipeline's single source of truth for time.
func (v *Validator) Validate(event signal.RawSignalEvent, ctx signal.ProcessingContext) (*signal.ValidatedSignal, Outcome) {
	outcome := Run(v.Chain, event, v.Config)
	if !outcome.Passed {
		return nil, outcome
	}

	liquidityScore := 0.0
	for _, res := range outcome.Results {
		if res.RuleName == RuleLiquidity {
			liquidityScore = res.Score
		}
	}

	chokepoints := extractChokepoints(event)
	category := inferCategory(event)
	overall := signal.MeanPassedScore(outcome.Results)

	chain := signal.NewExplanationChain(ctx)
	for _, res := range outcome.Results {
		chain.Add(ctx, res.RuleName, res.RuleVersion,
			"raw_signal_event", string(res.Status), res.Reason, res.Score, nil)
	}
	chain.Complete(ctx)

	vs := &signal.ValidatedSignal{
		Event:                  event,
		Category:               category,
		RelevantLocations:      event.InferredLocations,
		AffectedChokepoints:    chokepoints,
		Results:                outcome.Results,
		OverallValidationScore: overall,
		SignalStrength:         overall,
		LiquidityScore:         liquidityScore,
		RulesetVersion:         ctx.RulesetVersion,
		Chain:                  chain,
		TraceID:                ctx.SignalTraceID(event.InputEventHash),
	}
	return vs, outcome
}

func extractChokepoints(event signal.RawSignalEvent) []string {
	text := strings.ToLower(event.Title + " " + event.Description)
	var found []string
	seen := map[string]struct{}{}
	for _, cp := range Chokepoints() {
		for _, alias := range cp.Aliases {
			if ContainsWholeWord(text, alias) {
				if _, ok := seen[cp.Name]; !ok {
					seen[cp.Name] = struct{}{}
					found = append(found, cp.Name)
				}
				break
			}
		}
	}
	return found
}

// inferCategory applies a fixed keyword-precedence heuristic: the first
// category (in this priority order) with a whole-word match wins;
// UNKNOWN when nothing matches.
func inferCategory(event signal.RawSignalEvent) signal.Category {
	text := strings.ToLower(event.Title + " " + event.Description + " " + strings.Join(event.Keywords, " "))

	precedence := []struct {
		category signal.Category
		keywords []string
	}{
		{signal.CategoryGeopolitical, LogisticsKeywordCategories["conflict"]},
		{signal.CategoryLabor, LogisticsKeywordCategories["labor"]},
		{signal.CategoryClimate, LogisticsKeywordCategories["climate"]},
		{signal.CategoryRegulatory, append(append([]string{}, LogisticsKeywordCategories["regulatory"]...), LogisticsKeywordCategories["sanctions"]...)},
		{signal.CategoryInfrastructure, LogisticsKeywordCategories["infrastructure"]},
	}

	for _, p := range precedence {
		if len(MatchWholeWords(text, p.keywords)) > 0 {
			return p.category
		}
	}
	return signal.CategoryUnknown
}
