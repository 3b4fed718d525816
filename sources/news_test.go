package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsQualityGate_RejectsLowCredibility(t *testing.T) {
	gate := NewNewsQualityGate(DefaultNewsGateConfig())
	now := time.Now()
	score := gate.Evaluate(NewsArticle{Title: "port strike disrupts shipping", SourceDomain: "randomblog.xyz", PublishedAt: now}, now)
	assert.False(t, score.PassedGate)
	assert.Equal(t, "Source credibility below minimum", score.RejectReason)
}

func TestNewsQualityGate_RejectsStaleArticle(t *testing.T) {
	gate := NewNewsQualityGate(DefaultNewsGateConfig())
	now := time.Now()
	score := gate.Evaluate(NewsArticle{Title: "port strike disrupts shipping", SourceDomain: "reuters.com", PublishedAt: now.Add(-100 * time.Hour)}, now)
	assert.False(t, score.PassedGate)
	assert.Equal(t, "Article too stale", score.RejectReason)
}

func TestNewsQualityGate_RejectsNoTopicMatch(t *testing.T) {
	gate := NewNewsQualityGate(DefaultNewsGateConfig())
	now := time.Now()
	score := gate.Evaluate(NewsArticle{Title: "local bakery wins award", Description: "delicious pastries", SourceDomain: "reuters.com", PublishedAt: now}, now)
	assert.False(t, score.PassedGate)
}

func TestNewsQualityGate_PassesFreshCredibleOnTopicArticle(t *testing.T) {
	gate := NewNewsQualityGate(DefaultNewsGateConfig())
	now := time.Now()
	score := gate.Evaluate(NewsArticle{
		Title: "Port strike halts container terminal operations", Description: "union walkout spreads",
		SourceDomain: "reuters.com", PublishedAt: now,
	}, now)
	require.True(t, score.PassedGate)
	assert.Contains(t, score.MatchedTopics, "labor")
}

func TestNewsQualityGate_RejectsDuplicateWithinSameBatch(t *testing.T) {
	gate := NewNewsQualityGate(DefaultNewsGateConfig())
	now := time.Now()
	article := NewsArticle{Title: "Port strike halts container terminal operations", Description: "union walkout", SourceDomain: "reuters.com", PublishedAt: now}

	first := gate.Evaluate(article, now)
	require.True(t, first.PassedGate)

	second := gate.Evaluate(article, now)
	assert.False(t, second.PassedGate)
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, "Duplicate article", second.RejectReason)
}

func TestNewsQualityGate_ResetDedupeCacheAllowsRepeatAcrossBatches(t *testing.T) {
	gate := NewNewsQualityGate(DefaultNewsGateConfig())
	now := time.Now()
	article := NewsArticle{Title: "Port strike halts container terminal operations", Description: "union walkout", SourceDomain: "reuters.com", PublishedAt: now}

	first := gate.Evaluate(article, now)
	require.True(t, first.PassedGate)

	gate.ResetDedupeCache()
	second := gate.Evaluate(article, now)
	assert.True(t, second.PassedGate)
}

func TestNewsSource_FetchEventsOnlyIncludesArticlesPassingGate(t *testing.T) {
	gate := NewNewsQualityGate(DefaultNewsGateConfig())
	fetch := func(ctx context.Context, limit int) ([]NewsArticle, error) {
		now := time.Now()
		return []NewsArticle{
			{Title: "Port strike halts container terminal operations", Description: "union walkout", SourceDomain: "reuters.com", PublishedAt: now},
			{Title: "local bakery wins award", Description: "pastries", SourceDomain: "reuters.com", PublishedAt: now},
		}, nil
	}
	src := NewNewsSource(fetch, gate)
	events, err := src.FetchEvents(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Title, "Port strike")
}

func TestNewsSource_FetchErrorPropagates(t *testing.T) {
	gate := NewNewsQualityGate(DefaultNewsGateConfig())
	fetch := func(ctx context.Context, limit int) ([]NewsArticle, error) {
		return nil, assertErr("upstream down")
	}
	src := NewNewsSource(fetch, gate)
	_, err := src.FetchEvents(context.Background(), 10, nil)
	assert.Error(t, err)
}

func TestNewsSource_Name(t *testing.T) {
	assert.Equal(t, "news", NewNewsSource(nil, NewNewsQualityGate(DefaultNewsGateConfig())).Name())
}

func TestDedupeHash_SameTitleAndDomainDeterministic(t *testing.T) {
	a := dedupeHash("Port Strike!", "Reuters.com")
	b := dedupeHash("port strike", "reuters.com")
	assert.Equal(t, a, b)
}

func TestDedupeHash_DifferentDomainDiffers(t *testing.T) {
	a := dedupeHash("Port Strike", "reuters.com")
	b := dedupeHash("Port Strike", "apnews.com")
	assert.NotEqual(t, a, b)
}
