package config

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

// Param is one auditable ruleset parameter: its value, unit, the
// citation for where the value came from, and the bounds it must stay
// within. Every rule parameter carries this tuple rather than being a
// bare literal in code.
type Param struct {
	Value          float64 `yaml:"value"`
	Unit           string  `yaml:"unit"`
	SourceCitation string  `yaml:"source_citation"`
	MinBound       float64 `yaml:"min_bound"`
	MaxBound       float64 `yaml:"max_bound"`
}

// InBounds reports whether Value falls within [MinBound, MaxBound].
func (p Param) InBounds() bool {
	return p.Value >= p.MinBound && p.Value <= p.MaxBound
}

// ParamTable is a named collection of auditable parameters, e.g. the
// liquidity rule's thresholds or the anomaly rule's z-score bands.
type ParamTable map[string]Param

// LoadParamTable parses a YAML document of the form:
//
//	min_liquidity_usd:
//	  value: 10000
//	  unit: usd
//	  source_citation: "ruleset v1.0.0 design doc"
//	  min_bound: 0
//	  max_bound: 1000000
//
// and validates every entry is within its own declared bounds.
func LoadParamTable(data []byte) (ParamTable, error) {
	var table ParamTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("unmarshal param table: %w", err)
	}
	for name, p := range table {
		if !p.InBounds() {
			return nil, fmt.Errorf("param %q value %v outside bounds [%v, %v]", name, p.Value, p.MinBound, p.MaxBound)
		}
	}
	return table, nil
}

// DefaultLiquidityParams is the compiled-in fallback for the liquidity
// rule's thresholds when no override file is supplied, grounded on the
// same named defaults domain/rules.DefaultConfig carries.
func DefaultLiquidityParams() ParamTable {
	return ParamTable{
		"min_liquidity_usd": {
			Value: 10000, Unit: "usd",
			SourceCitation: "ruleset v1.0.0 default",
			MinBound:       0, MaxBound: 1_000_000,
		},
		"min_volume_usd": {
			Value: 5000, Unit: "usd",
			SourceCitation: "ruleset v1.0.0 default",
			MinBound:       0, MaxBound: 1_000_000,
		},
	}
}

// DefaultAnomalyParams mirrors the z-score thresholds sources/anomaly.go
// and sources/commodity.go use, surfaced here for auditability rather
// than left as bare literals in the source package.
func DefaultAnomalyParams() ParamTable {
	return ParamTable{
		"commodity_spike_z": {
			Value: 2.0, Unit: "stddev",
			SourceCitation: "ruleset v1.0.0 default",
			MinBound:       0.5, MaxBound: 10,
		},
		"freight_anomaly_z": {
			Value: 2.5, Unit: "stddev",
			SourceCitation: "ruleset v1.0.0 default",
			MinBound:       0.5, MaxBound: 10,
		},
		"weather_anomaly_z": {
			Value: 3.0, Unit: "stddev",
			SourceCitation: "ruleset v1.0.0 default",
			MinBound:       0.5, MaxBound: 10,
		},
	}
}
