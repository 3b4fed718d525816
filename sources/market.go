package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/domain/rules"
	"github.com/hoangpro/omen/domain/signal"
)

// RawMarket is the upstream prediction-market object this adapter
// normalizes, shaped after Polymarket/Kalshi-style market payloads.
type RawMarket struct {
	Title           string
	Description     string
	OutcomePrices   string // JSON-encoded array or comma-separated, YES first
	BestAsk         *float64
	TotalVolumeUSD  float64
	LiquidityUSD    float64
	TraderCount     *int
	TokenIDs        []string
	Source          string
	MarketID        string
	URL             string
	CreatedAt       time.Time
	ObservedAt      time.Time
}

// MarketFetcher retrieves the current batch of raw markets from the
// upstream collaborator (a prediction-market API client in production).
type MarketFetcher func(ctx context.Context, limit int) ([]RawMarket, error)

// MarketSource implements Source for prediction-market events.
type MarketSource struct {
	fetch MarketFetcher
	cache replayCache
	now   func() time.Time
}

// NewMarketSource wires a MarketFetcher collaborator into the adapter.
func NewMarketSource(fetch MarketFetcher) *MarketSource {
	return &MarketSource{fetch: fetch, now: time.Now}
}

func (s *MarketSource) Name() string { return "market" }

func (s *MarketSource) FetchEvents(ctx context.Context, limit int, asof *time.Time) ([]signal.RawSignalEvent, error) {
	if batch, ok := s.cache.lookup(asof); ok {
		return batch, nil
	}

	raws, err := s.fetch(ctx, limit)
	if err != nil {
		log.Error().Err(err).Str("source", s.Name()).Msg("market fetch failed")
		return nil, err
	}

	observedAt := resolveAsof(asof, s.now)
	out := make([]signal.RawSignalEvent, 0, len(raws))
	for _, m := range raws {
		out = append(out, s.normalize(m, observedAt))
	}
	out = out[:clampLimit(len(out), limit)]

	if asof != nil {
		s.cache.store(*asof, out)
	}
	return out, nil
}

func (s *MarketSource) normalize(m RawMarket, observedAt time.Time) signal.RawSignalEvent {
	probability, isFallback := extractYesProbability(m.OutcomePrices, m.BestAsk)

	text := strings.ToLower(m.Title + " " + m.Description)
	keywords := matchAllLogisticsKeywords(text)
	locations := inferLocations(text)

	market := signal.MarketMeta{
		Source:              m.Source,
		MarketID:            m.MarketID,
		URL:                 m.URL,
		CreatedAt:           m.CreatedAt,
		TotalVolumeUSD:      m.TotalVolumeUSD,
		CurrentLiquidityUSD: m.LiquidityUSD,
		TraderCount:         m.TraderCount,
		TokenIDs:            m.TokenIDs,
	}

	eventID := fmt.Sprintf("market-%s-%s", m.Source, m.MarketID)

	return signal.NewRawSignalEvent(
		eventID,
		m.Title,
		m.Description,
		probability,
		isFallback,
		nil,
		keywords,
		locations,
		market,
		observedAt,
		nil,
	)
}

// extractYesProbability parses outcomePrices as a JSON array, then as
// comma-separated, else falls back to bestAsk, else 0.5 with the
// fallback flag set — a three-tier resolution.
func extractYesProbability(outcomePrices string, bestAsk *float64) (float64, bool) {
	trimmed := strings.TrimSpace(outcomePrices)
	if trimmed != "" {
		var arr []string
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil && len(arr) > 0 {
			if p, err := strconv.ParseFloat(arr[0], 64); err == nil {
				return p, false
			}
		}
		parts := strings.Split(trimmed, ",")
		if len(parts) > 0 {
			if p, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err == nil {
				return p, false
			}
		}
	}
	if bestAsk != nil {
		return *bestAsk, false
	}
	return 0.5, true
}

func matchAllLogisticsKeywords(text string) []string {
	var out []string
	for _, cat := range rules.LogisticsKeywordCategoriesSorted() {
		out = append(out, rules.MatchWholeWords(text, rules.LogisticsKeywordCategories[cat])...)
	}
	return out
}

func inferLocations(text string) []signal.Location {
	var out []signal.Location
	for _, cp := range rules.Chokepoints() {
		for _, alias := range cp.Aliases {
			if rules.ContainsWholeWord(text, alias) {
				out = append(out, signal.Location{Lat: cp.Lat, Lon: cp.Lon, Name: cp.Name})
				break
			}
		}
	}
	return out
}
