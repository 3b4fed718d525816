// Package routing implements the schema router and three-layer live
// gate: the mechanism deciding whether a request may see data from
// the "live" schema versus always-safe "demo" data.
package routing

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/domain/attestation"
)

// Mode is the effective schema a response was routed to.
type Mode string

const (
	ModeLive Mode = "live"
	ModeDemo Mode = "demo"
)

// SourceHealth is one configured source's live-gate-relevant state.
type SourceHealth struct {
	Name    string
	Type    attestation.SourceType
	Healthy bool
}

// GateConfig carries the live gate's tunable thresholds.
type GateConfig struct {
	MasterSwitch        bool // OMEN_ALLOW_LIVE_MODE
	MinRealSourceRatio  float64
	RequiredRealSources []string
	CacheTTL            time.Duration
}

// DefaultGateConfig matches the documented defaults; the master switch
// defaults to false ("false until production-ready").
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MasterSwitch:       false,
		MinRealSourceRatio: 0.80,
		CacheTTL:           30 * time.Second,
	}
}

// GateResult is the live gate's verdict plus its block reasons, always
// produced even when ALLOWED (reasons is empty in that case).
type GateResult struct {
	Allowed bool
	Reasons []string
	evalAt  time.Time
}

// LiveGate evaluates the three layers and caches the verdict briefly.
type LiveGate struct {
	cfg GateConfig

	mu      sync.Mutex
	cached  *GateResult
}

func NewLiveGate(cfg GateConfig) *LiveGate {
	return &LiveGate{cfg: cfg}
}

// Evaluate runs all three layers against the current source health
// snapshot, using the cached verdict if it is still within CacheTTL.
func (g *LiveGate) Evaluate(now time.Time, sources []SourceHealth) GateResult {
	g.mu.Lock()
	if g.cached != nil && now.Sub(g.cached.evalAt) < g.cfg.CacheTTL {
		cached := *g.cached
		g.mu.Unlock()
		return cached
	}
	g.mu.Unlock()

	result := g.evaluateFresh(sources)
	result.evalAt = now

	g.mu.Lock()
	g.cached = &result
	g.mu.Unlock()

	if !result.Allowed {
		log.Warn().Strs("reasons", result.Reasons).Msg("routing: live gate blocked")
	}
	return result
}

func (g *LiveGate) evaluateFresh(sources []SourceHealth) GateResult {
	var reasons []string

	// Layer 1: master switch.
	if !g.cfg.MasterSwitch {
		return GateResult{Allowed: false, Reasons: []string{"MASTER_SWITCH_OFF"}}
	}

	// Layer 2: service checks.
	total := len(sources)
	real := 0
	healthByName := make(map[string]SourceHealth, total)
	for _, s := range sources {
		healthByName[s.Name] = s
		if s.Type == attestation.SourceReal {
			real++
		}
	}
	ratio := 0.0
	if total > 0 {
		ratio = float64(real) / float64(total)
	}
	if ratio < g.cfg.MinRealSourceRatio {
		reasons = append(reasons, "REAL_SOURCE_RATIO_BELOW_MINIMUM")
	}
	for _, name := range g.cfg.RequiredRealSources {
		s, ok := healthByName[name]
		if !ok {
			reasons = append(reasons, "REQUIRED_SOURCE_NOT_REGISTERED:"+name)
			continue
		}
		if s.Type != attestation.SourceReal {
			reasons = append(reasons, "REQUIRED_SOURCE_NOT_REAL:"+name)
		}
		if !s.Healthy {
			reasons = append(reasons, "REQUIRED_SOURCE_UNHEALTHY:"+name)
		}
	}

	if len(reasons) > 0 {
		return GateResult{Allowed: false, Reasons: reasons}
	}
	return GateResult{Allowed: true}
}

// EvaluateRequest is layer 3: request middleware. A DEMO-mode request
// always passes and short-circuits the cache; a LIVE-mode request
// invokes the gate and downgrades to DEMO on block.
func (g *LiveGate) EvaluateRequest(requestedLive bool, now time.Time, sources []SourceHealth) (Mode, []string) {
	if !requestedLive {
		return ModeDemo, nil
	}
	result := g.Evaluate(now, sources)
	if !result.Allowed {
		return ModeDemo, result.Reasons
	}
	return ModeLive, nil
}
