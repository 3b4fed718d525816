package rules

import (
	"fmt"
	"strings"

	"github.com/hoangpro/omen/domain/signal"
)

// semanticRiskCategories are the six keyword categories semantic
// relevance matches against — deliberately excluding "routes" and
// "geopolitical", which are geographic-rule bonus
// categories, not semantic ones.
var semanticRiskCategories = []string{"conflict", "sanctions", "labor", "infrastructure", "climate", "regulatory"}

// SemanticRelevanceRule rejects off-topic events outright, then scores
// relevance from whole-word risk-keyword matches across the six
// categories above.
type SemanticRelevanceRule struct{}

func (r *SemanticRelevanceRule) Name() string { return RuleSemantic }

func (r *SemanticRelevanceRule) Evaluate(event signal.RawSignalEvent, cfg Config) (signal.ValidationResult, error) {
	text := strings.ToLower(event.Title + " " + event.Description)

	for _, phrase := range OffTopicBlocklist {
		if strings.Contains(text, phrase) {
			return signal.ValidationResult{
				RuleName:    r.Name(),
				RuleVersion: ruleVersion,
				Status:      signal.StatusRejectedIrrelevantSemantic,
				Score:       0,
				Reason:      fmt.Sprintf("off-topic phrase matched: %q", phrase),
			}, nil
		}
	}

	categoriesMatched := 0
	totalMatches := 0
	var matchedCategories []string
	for _, cat := range semanticRiskCategories {
		matches := MatchWholeWords(text, LogisticsKeywordCategories[cat])
		if len(matches) > 0 {
			categoriesMatched++
			totalMatches += len(matches)
			matchedCategories = append(matchedCategories, cat)
		}
	}

	score := 0.2*float64(categoriesMatched) + 0.1*float64(totalMatches)
	if score > 1.0 {
		score = 1.0
	}

	if score < cfg.SemanticMinScore {
		return signal.ValidationResult{
			RuleName:    r.Name(),
			RuleVersion: ruleVersion,
			Status:      signal.StatusRejectedIrrelevantSemantic,
			Score:       score,
			Reason:      fmt.Sprintf("semantic score %.2f below minimum %.2f", score, cfg.SemanticMinScore),
		}, nil
	}

	return signal.ValidationResult{
		RuleName:    r.Name(),
		RuleVersion: ruleVersion,
		Status:      signal.StatusPassed,
		Score:       score,
		Reason:      fmt.Sprintf("matched categories: %s", strings.Join(matchedCategories, ",")),
	}, nil
}
