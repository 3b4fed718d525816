package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/domain/signal"
)

// NewsArticle is the upstream article payload the news adapter scores.
type NewsArticle struct {
	Title        string
	Description  string
	Content      string
	SourceName   string
	SourceDomain string
	PublishedAt  time.Time
	FetchedAt    time.Time
}

// TopicKeywords is a topic's primary (strong signal) and secondary
// (supporting) keyword lists for relevance scoring.
type TopicKeywords struct {
	Primary   []string
	Secondary []string
}

// newsTopics is the compiled-in topic keyword table.
var newsTopics = map[string]TopicKeywords{
	"geopolitical":   {Primary: []string{"war", "conflict", "sanctions", "embargo"}, Secondary: []string{"tension", "dispute", "sovereignty"}},
	"labor":          {Primary: []string{"strike", "walkout", "union"}, Secondary: []string{"picket", "labor dispute"}},
	"infrastructure": {Primary: []string{"port", "canal", "terminal", "chokepoint"}, Secondary: []string{"congestion", "capacity"}},
	"climate":        {Primary: []string{"hurricane", "typhoon", "cyclone", "flood"}, Secondary: []string{"drought", "storm"}},
	"regulatory":     {Primary: []string{"regulation", "ban", "tariff"}, Secondary: []string{"restriction", "compliance"}},
}

// newsCredibilityTiers maps a source domain to its credibility tier
// score; unlisted domains fall through to the default.
var newsCredibilityTiers = map[string]float64{
	"reuters.com":    1.0,
	"apnews.com":     1.0,
	"bloomberg.com":  1.0,
	"wsj.com":        0.9,
	"ft.com":         0.9,
	"bbc.com":        0.9,
	"cnbc.com":       0.7,
	"maritime-executive.com": 0.7,
	"gcaptain.com":   0.7,
	"tradewindsnews.com": 0.7,
	"dailymail.co.uk": 0.3,
}

const newsDefaultCredibility = 0.3

var (
	sentimentPositive = map[string]struct{}{"growth": {}, "recovery": {}, "agreement": {}, "resolved": {}, "easing": {}, "improve": {}, "improved": {}, "stabilize": {}, "stabilized": {}}
	sentimentNegative = map[string]struct{}{"crisis": {}, "collapse": {}, "disruption": {}, "blockage": {}, "conflict": {}, "attack": {}, "sanctions": {}, "shortage": {}, "delay": {}, "delays": {}}
)

var newsTagPatterns = map[string]*regexp.Regexp{
	"strike":    regexp.MustCompile(`(?i)\bstrike\b`),
	"lockdown":  regexp.MustCompile(`(?i)\blockdown\b`),
	"blockage":  regexp.MustCompile(`(?i)\bblockage\b|\bblocked\b`),
	"sanctions": regexp.MustCompile(`(?i)\bsanctions?\b`),
	"cyber":     regexp.MustCompile(`(?i)\bcyber(attack)?\b`),
	"weather":   regexp.MustCompile(`(?i)\bhurricane\b|\btyphoon\b|\bstorm\b|\bflood(ing)?\b`),
	"conflict":  regexp.MustCompile(`(?i)\bwar\b|\bconflict\b|\battack\b`),
}

var tokenPattern = regexp.MustCompile(`\b\w+\b`)

// NewsGateConfig carries the score's tunable thresholds.
type NewsGateConfig struct {
	MinCredibility      float64
	MinRecency          float64
	MinCombinedScore    float64
	WeightCredibility   float64
	WeightRecency       float64
	MaxAgeHours         float64
	FreshThresholdHours float64
	HalfLifeHours       float64
}

// DefaultNewsGateConfig matches the documented thresholds.
func DefaultNewsGateConfig() NewsGateConfig {
	return NewsGateConfig{
		MinCredibility:      0.5,
		MinRecency:          0.3,
		MinCombinedScore:    0.5,
		WeightCredibility:   0.6,
		WeightRecency:       0.4,
		MaxAgeHours:         72,
		FreshThresholdHours: 2,
		HalfLifeHours:       24,
	}
}

// NewsQualityScore is the fully-explained scoring result for one article.
type NewsQualityScore struct {
	Credibility     float64  `json:"credibility"`
	Recency         float64  `json:"recency"`
	TopicRelevance  float64  `json:"topic_relevance"`
	Sentiment       float64  `json:"sentiment"`
	Combined        float64  `json:"combined_score"`
	MatchedTopics   []string `json:"matched_topics,omitempty"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	PassedGate      bool     `json:"passed_gate"`
	IsDuplicate     bool     `json:"is_duplicate"`
	RejectReason    string   `json:"reject_reason,omitempty"`
}

// NewsQualityGate evaluates articles against the four-check gate.
// Dedup state is per-instance, never shared across batches — construct
// a fresh gate (or call ResetDedupeCache) per batch/replay.
type NewsQualityGate struct {
	cfg  NewsGateConfig
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewNewsQualityGate(cfg NewsGateConfig) *NewsQualityGate {
	return &NewsQualityGate{cfg: cfg, seen: make(map[string]struct{})}
}

// ResetDedupeCache clears the seen-hash set at the start of a new
// batch/replay.
func (g *NewsQualityGate) ResetDedupeCache() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = make(map[string]struct{})
}

// Evaluate scores one article against processing_time as the reference
// instant, in fail-closed priority order.
func (g *NewsQualityGate) Evaluate(a NewsArticle, referenceTime time.Time) NewsQualityScore {
	credibility := g.credibility(a.SourceDomain)
	recency, stale := g.recency(a.PublishedAt, referenceTime)
	topicScore, topics, keywords := g.topicRelevance(a)
	sentiment, tags := g.sentimentAndTags(a)

	combined := credibility*g.cfg.WeightCredibility + recency*g.cfg.WeightRecency

	score := NewsQualityScore{
		Credibility:     credibility,
		Recency:         recency,
		TopicRelevance:  topicScore,
		Sentiment:       sentiment,
		Combined:        round4(combined),
		MatchedTopics:   topics,
		MatchedKeywords: keywords,
		Tags:            tags,
	}

	switch {
	case credibility < g.cfg.MinCredibility:
		score.RejectReason = "Source credibility below minimum"
		return score
	case stale || recency < g.cfg.MinRecency:
		score.RejectReason = "Article too stale"
		return score
	case combined < g.cfg.MinCombinedScore:
		score.RejectReason = "Combined score below minimum"
		return score
	}

	dupeHash := dedupeHash(a.Title, a.SourceDomain)
	g.mu.Lock()
	_, dup := g.seen[dupeHash]
	if !dup {
		g.seen[dupeHash] = struct{}{}
	}
	g.mu.Unlock()
	if dup {
		score.IsDuplicate = true
		score.RejectReason = "Duplicate article"
		return score
	}

	if topicScore < 0.1 {
		score.RejectReason = "No relevant topics matched"
		return score
	}

	score.PassedGate = true
	return score
}

func (g *NewsQualityGate) credibility(domain string) float64 {
	d := strings.ToLower(strings.TrimPrefix(strings.ToLower(domain), "www."))
	if v, ok := newsCredibilityTiers[d]; ok {
		return v
	}
	return newsDefaultCredibility
}

func (g *NewsQualityGate) recency(publishedAt, referenceTime time.Time) (float64, bool) {
	ageHours := referenceTime.Sub(publishedAt).Hours()
	if ageHours > g.cfg.MaxAgeHours {
		return 0.0, true
	}
	if ageHours <= g.cfg.FreshThresholdHours {
		return 1.0, false
	}
	decay := math.Exp(-math.Ln2 * ageHours / g.cfg.HalfLifeHours)
	return round4(decay), false
}

func (g *NewsQualityGate) topicRelevance(a NewsArticle) (float64, []string, []string) {
	text := strings.ToLower(a.Title + " " + a.Description + " " + a.Content)

	var matchedTopics []string
	var matchedKeywords []string
	kwCount := 0
	for topic, kws := range newsTopics {
		all := append(append([]string{}, kws.Primary...), kws.Secondary...)
		matches := matchAllWords(text, all)
		if len(matches) > 0 {
			matchedTopics = append(matchedTopics, topic)
			matchedKeywords = append(matchedKeywords, matches...)
			kwCount += len(matches)
		}
	}
	sort.Strings(matchedTopics)
	matchedKeywords = dedupSorted(matchedKeywords)

	var score float64
	switch {
	case len(matchedTopics) == 0:
		score = 0.0
	case len(matchedTopics) == 1:
		score = 0.5 + math.Min(float64(kwCount)*0.1, 0.3)
	default:
		score = 0.8 + math.Min(float64(len(matchedTopics))*0.05, 0.2)
	}
	if score > 1.0 {
		score = 1.0
	}
	return round4(score), matchedTopics, matchedKeywords
}

func (g *NewsQualityGate) sentimentAndTags(a NewsArticle) (float64, []string) {
	text := strings.ToLower(a.Title + " " + a.Description)
	tokens := tokenPattern.FindAllString(text, -1)

	pos, neg := 0, 0
	for _, tok := range tokens {
		if _, ok := sentimentPositive[tok]; ok {
			pos++
		}
		if _, ok := sentimentNegative[tok]; ok {
			neg++
		}
	}
	total := pos + neg
	var sentiment float64
	if total > 0 {
		sentiment = math.Round(float64(pos-neg)/float64(total)*100) / 100
	}

	var tags []string
	for tag, re := range newsTagPatterns {
		if re.MatchString(text) {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return sentiment, tags
}

func matchAllWords(text string, keywords []string) []string {
	var out []string
	for _, k := range keywords {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(k)) + `\b`)
		if re.MatchString(text) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func dedupSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

var punctuationPattern = regexp.MustCompile(`[^\w\s]`)
var whitespacePattern = regexp.MustCompile(`\s+`)

func normalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = punctuationPattern.ReplaceAllString(t, "")
	t = whitespacePattern.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// dedupeHash is the first 16 hex chars of SHA-256(normalized_title +
// "|" + lowercased source domain).
func dedupeHash(title, sourceDomain string) string {
	key := normalizeTitle(title) + "|" + strings.ToLower(sourceDomain)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// NewsFetcher retrieves the current batch of raw articles from the
// upstream news API collaborator.
type NewsFetcher func(ctx context.Context, limit int) ([]NewsArticle, error)

// NewsSource implements Source for news-derived events.
type NewsSource struct {
	fetch NewsFetcher
	gate  *NewsQualityGate
	cache replayCache
	now   func() time.Time
}

func NewNewsSource(fetch NewsFetcher, gate *NewsQualityGate) *NewsSource {
	return &NewsSource{fetch: fetch, gate: gate, now: time.Now}
}

func (s *NewsSource) Name() string { return "news" }

func (s *NewsSource) FetchEvents(ctx context.Context, limit int, asof *time.Time) ([]signal.RawSignalEvent, error) {
	if batch, ok := s.cache.lookup(asof); ok {
		return batch, nil
	}

	s.gate.ResetDedupeCache()

	articles, err := s.fetch(ctx, limit)
	if err != nil {
		log.Error().Err(err).Str("source", s.Name()).Msg("news fetch failed")
		return nil, err
	}

	observedAt := resolveAsof(asof, s.now)
	out := make([]signal.RawSignalEvent, 0, len(articles))
	for _, a := range articles {
		score := s.gate.Evaluate(a, observedAt)
		if !score.PassedGate {
			log.Debug().Str("title", a.Title).Str("reason", score.RejectReason).Msg("news: article rejected by quality gate")
			continue
		}
		out = append(out, newsEventFromArticle(a, score, observedAt))
	}
	out = out[:clampLimit(len(out), limit)]

	if asof != nil {
		s.cache.store(*asof, out)
	}
	return out, nil
}

func newsEventFromArticle(a NewsArticle, score NewsQualityScore, observedAt time.Time) signal.RawSignalEvent {
	keywords := append(append([]string{}, score.MatchedKeywords...), score.Tags...)
	eventID := fmt.Sprintf("news-%s", dedupeHash(a.Title, a.SourceDomain))

	market := signal.MarketMeta{
		Source:   a.SourceName,
		MarketID: eventID,
		URL:      "",
	}

	return signal.NewRawSignalEvent(
		eventID,
		a.Title,
		a.Description,
		0.5,
		true,
		nil,
		keywords,
		nil,
		market,
		observedAt,
		map[string]any{"news_quality_score": score},
	)
}
