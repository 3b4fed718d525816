// Package sources implements the per-source adapters: market, news,
// commodity, ais, freight, and weather. Every adapter
// exposes the one-operation Source interface and the same replay
// contract — when asof is supplied and a cached batch exists for it,
// the adapter returns that batch unchanged instead of fetching live,
// so a fixed asof timestamp reproduces the same RawSignalEvents.
package sources

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hoangpro/omen/domain/signal"
)

// Source is the uniform fetch contract every adapter implements.
type Source interface {
	Name() string
	FetchEvents(ctx context.Context, limit int, asof *time.Time) ([]signal.RawSignalEvent, error)
}

// replayCache memoizes the last live batch per source so that a
// replay request carrying the same asof timestamp returns an
// unchanged result.
type replayCache struct {
	mu    sync.Mutex
	asof  time.Time
	batch []signal.RawSignalEvent
	valid bool
}

func (c *replayCache) lookup(asof *time.Time) ([]signal.RawSignalEvent, bool) {
	if asof == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || !c.asof.Equal(*asof) {
		return nil, false
	}
	return c.batch, true
}

func (c *replayCache) store(asof time.Time, batch []signal.RawSignalEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asof = asof
	c.batch = batch
	c.valid = true
}

func resolveAsof(asof *time.Time, now func() time.Time) time.Time {
	if asof != nil {
		return *asof
	}
	return now()
}

func clampLimit(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases and hyphenates a name for use inside deterministic
// event ids (e.g. "Strait of Hormuz" -> "strait-of-hormuz").
func slugify(s string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}
