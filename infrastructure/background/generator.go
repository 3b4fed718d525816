// Package background implements the periodic per-source signal
// generator: every PollInterval, it fans a batch process out to each
// enabled source in parallel, under a short per-source
// timeout, and pushes newly generated signals to the streaming hub.
package background

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/application/pipeline"
	"github.com/hoangpro/omen/domain/signal"
	"github.com/hoangpro/omen/sources"
)

// Publisher receives every signal the background loop generates, e.g.
// infrastructure/streaming.Hub.
type Publisher interface {
	Publish(sig signal.OmenSignal)
}

// Config carries the loop's tunables.
type Config struct {
	PollInterval  time.Duration
	FetchTimeout  time.Duration
	FetchLimit    int
}

// DefaultConfig matches the documented default of 120s.
func DefaultConfig() Config {
	return Config{PollInterval: 120 * time.Second, FetchTimeout: 15 * time.Second, FetchLimit: 100}
}

// Generator drives the orchestrator over every enabled source on a
// timer. Signals it produces use the live-mode id prefix (the
// orchestrator must be configured with Live: true), so downstream
// consumers can filter recent signals by mode.
type Generator struct {
	cfg          Config
	orchestrator *pipeline.Orchestrator
	srcs         map[string]sources.Source
	publisher    Publisher

	lastRunAt    time.Time
	lastRunError map[string]error
}

func New(cfg Config, orchestrator *pipeline.Orchestrator, srcs map[string]sources.Source, publisher Publisher) *Generator {
	return &Generator{cfg: cfg, orchestrator: orchestrator, srcs: srcs, publisher: publisher, lastRunError: make(map[string]error)}
}

// RunCycle fetches from every source in parallel and runs each batch
// through the orchestrator. One source's failure never affects another.
func (g *Generator) RunCycle(ctx context.Context) map[string]CycleResult {
	results := make(map[string]CycleResult, len(g.srcs))
	resultsCh := make(chan namedResult, len(g.srcs))

	for name, src := range g.srcs {
		go func(name string, src sources.Source) {
			resultsCh <- namedResult{name: name, result: g.runSource(ctx, name, src)}
		}(name, src)
	}

	for range g.srcs {
		nr := <-resultsCh
		results[nr.name] = nr.result
	}

	g.lastRunAt = time.Now().UTC()
	return results
}

type namedResult struct {
	name   string
	result CycleResult
}

// CycleResult summarizes one source's contribution to a cycle.
type CycleResult struct {
	EventsFetched int
	Generated     int
	Rejected      int
	Err           error
}

func (g *Generator) runSource(ctx context.Context, name string, src sources.Source) CycleResult {
	fetchCtx, cancel := context.WithTimeout(ctx, g.cfg.FetchTimeout)
	defer cancel()

	events, err := src.FetchEvents(fetchCtx, g.cfg.FetchLimit, nil)
	if err != nil {
		log.Error().Err(err).Str("source", name).Msg("background: source fetch failed")
		g.lastRunError[name] = err
		return CycleResult{Err: err}
	}
	delete(g.lastRunError, name)

	batch := g.orchestrator.ProcessBatch(ctx, events, nil)

	result := CycleResult{EventsFetched: len(events)}
	for _, br := range batch {
		switch {
		case br.Result.Rejected:
			result.Rejected++
		case br.Result.Signal != nil:
			result.Generated++
			if g.publisher != nil {
				g.publisher.Publish(*br.Result.Signal)
			}
		}
	}
	return result
}

// RunLoop runs RunCycle on cfg.PollInterval until ctx is cancelled.
func (g *Generator) RunLoop(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.RunCycle(ctx)
		}
	}
}

// Status reports the loop's last-run summary for the
// GET /signals/generator/status endpoint.
type Status struct {
	LastRunAt time.Time
	Errors    map[string]string
}

func (g *Generator) Status() Status {
	errs := make(map[string]string, len(g.lastRunError))
	for name, err := range g.lastRunError {
		errs[name] = err.Error()
	}
	return Status{LastRunAt: g.lastRunAt, Errors: errs}
}
