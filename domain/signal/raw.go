// Package signal holds the core OMEN value types: RawSignalEvent,
// ValidatedSignal, OmenSignal, the processing context that pins every
// timestamp in a pipeline run, and the explanation chain each of them
// carries forward.
package signal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Location is an inferred or market-derived place reference.
type Location struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Name   string  `json:"name,omitempty"`
	Region string  `json:"region,omitempty"`
}

// Movement captures a probability's recent trajectory, if known.
type Movement struct {
	Current     float64 `json:"current"`
	Previous    float64 `json:"previous"`
	Delta       float64 `json:"delta"`
	WindowHours float64 `json:"window_hours"`
}

// MarketMeta is the provenance of a prediction-market-sourced event.
type MarketMeta struct {
	Source             string   `json:"source"`
	MarketID           string   `json:"market_id"`
	URL                string   `json:"url,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	TotalVolumeUSD     float64  `json:"total_volume_usd"`
	CurrentLiquidityUSD float64 `json:"current_liquidity_usd"`
	TraderCount        *int     `json:"trader_count,omitempty"`
	TokenIDs           []string `json:"token_ids,omitempty"`
}

// RawSignalEvent is the normalized, immutable representation of any
// heterogeneous source event. Construct it only through NewRawSignalEvent
// so that InputEventHash is always populated.
type RawSignalEvent struct {
	EventID               string     `json:"event_id"`
	Title                 string     `json:"title"`
	Description           string     `json:"description,omitempty"`
	Probability           float64    `json:"probability"`
	ProbabilityIsFallback bool       `json:"probability_is_fallback"`
	Movement              *Movement  `json:"movement,omitempty"`
	Keywords              []string   `json:"keywords"`
	InferredLocations     []Location `json:"inferred_locations,omitempty"`
	Market                MarketMeta `json:"market"`
	ObservedAt            time.Time  `json:"observed_at"`
	RawPayload            map[string]any `json:"-"`

	InputEventHash string `json:"input_event_hash"`
}

// NewRawSignalEvent normalizes keywords (lowercased, de-duplicated,
// sorted) and eagerly computes the deterministic input_event_hash.
// observed_at and raw_payload never participate in the hash — the same
// event observed twice must hash identically.
func NewRawSignalEvent(
	eventID, title, description string,
	probability float64,
	probabilityIsFallback bool,
	movement *Movement,
	keywords []string,
	inferredLocations []Location,
	market MarketMeta,
	observedAt time.Time,
	rawPayload map[string]any,
) RawSignalEvent {
	normKeywords := normalizeKeywords(keywords)

	e := RawSignalEvent{
		EventID:               eventID,
		Title:                 title,
		Description:           description,
		Probability:           probability,
		ProbabilityIsFallback: probabilityIsFallback,
		Movement:              movement,
		Keywords:              normKeywords,
		InferredLocations:     inferredLocations,
		Market:                market,
		ObservedAt:            observedAt.UTC(),
		RawPayload:            rawPayload,
	}
	e.InputEventHash = e.computeHash()
	return e
}

func normalizeKeywords(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, k := range in {
		lk := strings.ToLower(strings.TrimSpace(k))
		if lk == "" {
			continue
		}
		if _, ok := seen[lk]; ok {
			continue
		}
		seen[lk] = struct{}{}
		out = append(out, lk)
	}
	sort.Strings(out)
	return out
}

// computeHash builds the canonical, fixed-precision, sorted-keywords
// tuple and returns its SHA-256 hex digest.
// Exactly: {event_id, title, description, probability(10dp), movement
// tuple, sorted keywords, market.source, market.market_id, volume(2dp),
// liquidity(2dp)}. Observation time and raw payload are excluded by
// construction — they are simply not read here.
func (e RawSignalEvent) computeHash() string {
	var b strings.Builder
	b.WriteString(e.EventID)
	b.WriteByte('|')
	b.WriteString(e.Title)
	b.WriteByte('|')
	b.WriteString(e.Description)
	b.WriteByte('|')
	fmt.Fprintf(&b, "%.10f", e.Probability)
	b.WriteByte('|')
	if e.Movement != nil {
		fmt.Fprintf(&b, "%.10f,%.10f,%.10f,%.4f", e.Movement.Current, e.Movement.Previous, e.Movement.Delta, e.Movement.WindowHours)
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(e.Keywords, ","))
	b.WriteByte('|')
	b.WriteString(e.Market.Source)
	b.WriteByte('|')
	b.WriteString(e.Market.MarketID)
	b.WriteByte('|')
	fmt.Fprintf(&b, "%.2f", e.Market.TotalVolumeUSD)
	b.WriteByte('|')
	fmt.Fprintf(&b, "%.2f", e.Market.CurrentLiquidityUSD)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
