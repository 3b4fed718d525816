// Package enrich implements the signal enricher: a pure function that
// attaches context to a ValidatedSignal without computing any impact
// assessment.
package enrich

import (
	"sort"

	"github.com/hoangpro/omen/domain/rules"
	"github.com/hoangpro/omen/domain/signal"
)

// Enrichment is the context the enricher attaches, carried forward by
// the generator into the final OmenSignal.
type Enrichment struct {
	MatchedKeywords    []string
	KeywordCategories  map[string][]string
	RelevanceScore     float64
	MatchedChokepoints []string
	MatchedRegions     []string
	ConfidenceFactors  map[string]float64
	ValidationResults  []signal.ValidationResult
}

// Enrich is a pure function over a ValidatedSignal: it never performs
// I/O and never computes severity/impact.
func Enrich(vs *signal.ValidatedSignal) Enrichment {
	text := vs.Event.Title + " " + vs.Event.Description
	categories := map[string][]string{}
	var matched []string
	bonusPresent := false

	for _, cat := range rules.LogisticsKeywordCategoriesSorted() {
		hits := rules.MatchWholeWords(text, rules.LogisticsKeywordCategories[cat])
		if len(hits) == 0 {
			continue
		}
		categories[cat] = hits
		matched = append(matched, hits...)
		if cat == "routes" || cat == "geopolitical" {
			bonusPresent = true
		}
	}
	matched = dedupSorted(matched)

	relevance := relevanceFromKeywordCount(len(matched))
	if bonusPresent {
		relevance += 0.1
		if relevance > 1.0 {
			relevance = 1.0
		}
	}

	var regions []string
	for _, loc := range vs.RelevantLocations {
		if loc.Region != "" {
			regions = append(regions, loc.Region)
		}
	}
	regions = dedupSorted(regions)

	confidenceFactors := map[string]float64{
		"liquidity":  vs.LiquidityScore,
		"geographic": geoFactorFromChokepoints(len(vs.AffectedChokepoints)),
	}

	return Enrichment{
		MatchedKeywords:    matched,
		KeywordCategories:  categories,
		RelevanceScore:     relevance,
		MatchedChokepoints: vs.AffectedChokepoints,
		MatchedRegions:     regions,
		ConfidenceFactors:  confidenceFactors,
		ValidationResults:  vs.Results,
	}
}

// relevanceFromKeywordCount applies fixed buckets:
// 1kw->0.3, 2-3->0.5, 4-5->0.7, >=6->0.9.
func relevanceFromKeywordCount(n int) float64 {
	switch {
	case n == 0:
		return 0
	case n == 1:
		return 0.3
	case n <= 3:
		return 0.5
	case n <= 5:
		return 0.7
	default:
		return 0.9
	}
}

func geoFactorFromChokepoints(n int) float64 {
	if n == 0 {
		return 0.2
	}
	if n == 1 {
		return 0.7
	}
	return 1.0
}

func dedupSorted(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
