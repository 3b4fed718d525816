// Package generate implements the signal generator: the final
// projection from a ValidatedSignal + Enrichment into an immutable
// OmenSignal.
package generate

import (
	"sort"

	"github.com/hoangpro/omen/application/enrich"
	"github.com/hoangpro/omen/domain/signal"
)

// SourceReliability is the per-source-type constant folded into
// confidence_score alongside liquidity and geographic factors.
var SourceReliability = map[string]float64{
	"polymarket": 0.85,
	"news":       0.7,
	"commodity":  0.9,
	"ais":        0.8,
	"freight":    0.8,
	"weather":    0.85,
}

func sourceReliability(sourceName string) float64 {
	if v, ok := SourceReliability[sourceName]; ok {
		return v
	}
	return 0.6
}

// Generate projects a validated, enriched signal into an OmenSignal.
// live controls which id prefix is minted. A signal whose confidence
// falls below the orchestrator's MinConfidenceForOutput is still
// generated — dropping
// below-threshold output is the orchestrator's job, not the
// generator's.
func Generate(vs *signal.ValidatedSignal, en enrich.Enrichment, ctx signal.ProcessingContext, live bool, sourceType string) signal.OmenSignal {
	liquidity := en.ConfidenceFactors["liquidity"]
	geographic := en.ConfidenceFactors["geographic"]
	reliability := sourceReliability(vs.Event.Market.Source)

	confidence := (liquidity + geographic + reliability) / 3.0

	tags := buildTags(en.MatchedKeywords, en.KeywordCategories, sourceType)

	probabilitySource := "observed"
	if vs.Event.ProbabilityIsFallback {
		probabilitySource = "fallback"
	}

	sigID := signal.SignalID(vs.TraceID, live)

	evidence := []signal.EvidenceItem{
		{
			SourceName: vs.Event.Market.Source,
			SourceType: sourceType,
			URL:        vs.Event.Market.URL,
		},
	}

	return signal.OmenSignal{
		SignalID:          sigID,
		SourceEventID:     vs.Event.EventID,
		TraceID:           vs.TraceID,
		InputEventHash:    vs.Event.InputEventHash,
		Title:             vs.Event.Title,
		Description:       vs.Event.Description,
		Probability:       vs.Event.Probability,
		ProbabilitySource: probabilitySource,
		ConfidenceScore:   confidence,
		ConfidenceLevel:   signal.BucketConfidence(confidence),
		Category:          vs.Category,
		Tags:              tags,
		Geographic: signal.GeographicContext{
			Regions:     en.MatchedRegions,
			Chokepoints: en.MatchedChokepoints,
		},
		Evidence:       evidence,
		RulesetVersion: vs.RulesetVersion,
		Chain:          vs.Chain,
		GeneratedAt:    ctx.ProcessingTime,
	}
}

func buildTags(keywords []string, categories map[string][]string, sourceType string) []string {
	set := map[string]struct{}{}
	for _, k := range keywords {
		set[k] = struct{}{}
	}
	for cat := range categories {
		set[cat] = struct{}{}
	}
	if sourceType != "" {
		set[sourceType] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
