package rules

// Config carries the tunable parameters for the validator rule chain.
// Each value would, in a full audit build, carry a (unit, source
// citation, bounds) tuple; the bounds enforced here are the ones
// named explicitly below.
type Config struct {
	MinLiquidityUSD float64 // liquidity floor rule

	ExtremeProbabilityLow  float64 // default 0.05
	ExtremeProbabilityHigh float64 // default 0.95
	MaxProbabilityChange   float64 // within window, fraction
	MinTraderCount         int
	MinTraderVolumeUSD     float64
	AnomalyZThreshold      float64
	ManipulationThreshold  float64 // risk_score >= this rejects

	SemanticMinScore    float64 // default 0.3
	GeographicProximityKM float64 // default 500

	FailOnRuleError bool
}

// DefaultConfig returns the parameter set used when no override is
// supplied, matching the documented defaults.
func DefaultConfig() Config {
	return Config{
		MinLiquidityUSD:        1000,
		ExtremeProbabilityLow:  0.05,
		ExtremeProbabilityHigh: 0.95,
		MaxProbabilityChange:   0.5,
		MinTraderCount:         5,
		MinTraderVolumeUSD:     50000,
		AnomalyZThreshold:      3.0,
		ManipulationThreshold:  0.5,
		SemanticMinScore:       0.3,
		GeographicProximityKM:  500,
		FailOnRuleError:        true,
	}
}
