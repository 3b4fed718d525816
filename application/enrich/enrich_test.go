package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hoangpro/omen/domain/signal"
)

func validatedSignalWithText(title, description string, chokepoints []string, regions []string, liquidityScore float64) *signal.ValidatedSignal {
	return &signal.ValidatedSignal{
		Event: signal.RawSignalEvent{
			Title:       title,
			Description: description,
		},
		AffectedChokepoints: chokepoints,
		RelevantLocations: func() []signal.Location {
			var locs []signal.Location
			for _, r := range regions {
				locs = append(locs, signal.Location{Region: r})
			}
			return locs
		}(),
		LiquidityScore: liquidityScore,
	}
}

func TestEnrich_NoMatchesYieldsZeroRelevance(t *testing.T) {
	vs := validatedSignalWithText("a quiet day", "nothing happened", nil, nil, 0.5)
	en := Enrich(vs)

	assert.Empty(t, en.MatchedKeywords)
	assert.Equal(t, 0.0, en.RelevanceScore)
}

func TestEnrich_KeywordCountBuckets(t *testing.T) {
	one := Enrich(validatedSignalWithText("port disruption", "", nil, nil, 0))
	assert.InDelta(t, 0.3, one.RelevanceScore, 1e-9)

	few := Enrich(validatedSignalWithText("port canal disruption", "", nil, nil, 0))
	assert.InDelta(t, 0.5, few.RelevanceScore, 1e-9)
}

func TestEnrich_BonusCategoryAddsRelevance(t *testing.T) {
	withBonus := Enrich(validatedSignalWithText("port reroute", "", nil, nil, 0))
	withoutBonus := Enrich(validatedSignalWithText("port terminal", "", nil, nil, 0))
	assert.Greater(t, withBonus.RelevanceScore, withoutBonus.RelevanceScore)
}

func TestEnrich_MatchedKeywordsDedupedAndSorted(t *testing.T) {
	vs := validatedSignalWithText("port port canal", "", nil, nil, 0)
	en := Enrich(vs)
	assert.Equal(t, []string{"canal", "port"}, en.MatchedKeywords)
}

func TestEnrich_RegionsDedupedAndSorted(t *testing.T) {
	vs := validatedSignalWithText("t", "d", nil, []string{"MENA", "Asia", "MENA"}, 0)
	en := Enrich(vs)
	assert.Equal(t, []string{"Asia", "MENA"}, en.MatchedRegions)
}

func TestEnrich_ConfidenceFactorsFromLiquidityAndChokepoints(t *testing.T) {
	none := Enrich(validatedSignalWithText("t", "d", nil, nil, 0.4))
	assert.Equal(t, 0.4, none.ConfidenceFactors["liquidity"])
	assert.Equal(t, 0.2, none.ConfidenceFactors["geographic"])

	single := Enrich(validatedSignalWithText("t", "d", []string{"Suez Canal"}, nil, 0))
	assert.Equal(t, 0.7, single.ConfidenceFactors["geographic"])

	multiple := Enrich(validatedSignalWithText("t", "d", []string{"Suez Canal", "Strait of Hormuz"}, nil, 0))
	assert.Equal(t, 1.0, multiple.ConfidenceFactors["geographic"])
}

func TestEnrich_CarriesValidationResultsForward(t *testing.T) {
	vs := validatedSignalWithText("t", "d", nil, nil, 0)
	vs.Results = []signal.ValidationResult{{RuleName: "liquidity_validation", Status: signal.StatusPassed}}
	en := Enrich(vs)
	assert.Equal(t, vs.Results, en.ValidationResults)
}
