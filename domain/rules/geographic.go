package rules

import (
	"fmt"
	"strings"

	"github.com/hoangpro/omen/domain/signal"
)

// GeographicRelevanceRule is the last and most permissive rule: it
// passes on a chokepoint name match, a proximity match against an
// inferred location, or (as a fallback) any logistics keyword match.
type GeographicRelevanceRule struct{}

func (r *GeographicRelevanceRule) Name() string { return RuleGeographic }

func (r *GeographicRelevanceRule) Evaluate(event signal.RawSignalEvent, cfg Config) (signal.ValidationResult, error) {
	text := strings.ToLower(event.Title + " " + event.Description)

	var matchedChokepoints []string
	for _, cp := range Chokepoints() {
		for _, alias := range cp.Aliases {
			if ContainsWholeWord(text, alias) {
				matchedChokepoints = append(matchedChokepoints, cp.Name)
				break
			}
		}
	}
	if len(matchedChokepoints) > 0 {
		return signal.ValidationResult{
			RuleName:    r.Name(),
			RuleVersion: ruleVersion,
			Status:      signal.StatusPassed,
			Score:       1.0,
			Reason:      fmt.Sprintf("chokepoint keyword match: %s", strings.Join(matchedChokepoints, ",")),
		}, nil
	}

	for _, loc := range event.InferredLocations {
		for _, cp := range Chokepoints() {
			if HaversineKM(loc.Lat, loc.Lon, cp.Lat, cp.Lon) <= cfg.GeographicProximityKM {
				return signal.ValidationResult{
					RuleName:    r.Name(),
					RuleVersion: ruleVersion,
					Status:      signal.StatusPassed,
					Score:       0.9,
					Reason:      fmt.Sprintf("location within %.0fkm of %s", cfg.GeographicProximityKM, cp.Name),
				}, nil
			}
		}
	}

	matchCount := 0
	bonusCategoryPresent := false
	for _, cat := range []string{"routes", "geopolitical", "infrastructure"} {
		matches := MatchWholeWords(text, LogisticsKeywordCategories[cat])
		matchCount += len(matches)
		if len(matches) > 0 && (cat == "routes" || cat == "geopolitical") {
			bonusCategoryPresent = true
		}
	}

	if matchCount == 0 {
		return signal.ValidationResult{
			RuleName:    r.Name(),
			RuleVersion: ruleVersion,
			Status:      signal.StatusRejectedIrrelevantGeography,
			Score:       0,
			Reason:      "no chokepoint, proximity, or logistics keyword match",
		}, nil
	}

	score := bucketedGeoScore(matchCount)
	if bonusCategoryPresent {
		score += 0.1
		if score > 1.0 {
			score = 1.0
		}
	}

	return signal.ValidationResult{
		RuleName:    r.Name(),
		RuleVersion: ruleVersion,
		Status:      signal.StatusPassed,
		Score:       score,
		Reason:      fmt.Sprintf("%d logistics keyword match(es), fallback scoring", matchCount),
	}, nil
}

func bucketedGeoScore(matchCount int) float64 {
	switch {
	case matchCount >= 4:
		return 0.8
	case matchCount >= 2:
		return 0.6
	default:
		return 0.4
	}
}
