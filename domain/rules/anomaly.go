package rules

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/hoangpro/omen/domain/signal"
)

// AnomalyRule accumulates a risk_score from six independent manipulation
// signals: extreme probability, excessive probability movement, a
// trader-count/volume mismatch, and rolling z-score checks on the
// probability, volume, and movement-delta each event carries. risk_score
// >= the configured threshold rejects as REJECTED_MANIPULATION_SUSPECTED;
// below threshold it passes, noting any minor anomalies found.
//
// The z-score checks are statistical, not per-event: each tracker keeps
// a rolling window of every value it has observed across calls and only
// starts flagging once it has enough history, the same rolling-window
// contract sources/anomaly.go's zscoreTracker uses for the inbound
// adapters. A rule instance must be reused across events (as
// NewValidator does) for this history to accumulate; use NewAnomalyRule
// to get one correctly initialized.
type AnomalyRule struct {
	probability *zscoreWindow
	volume      *zscoreWindow
	movement    *zscoreWindow
}

// NewAnomalyRule builds an AnomalyRule with its three z-score trackers
// initialized and ready to accumulate history.
func NewAnomalyRule() *AnomalyRule {
	return &AnomalyRule{
		probability: newZScoreWindow(),
		volume:      newZScoreWindow(),
		movement:    newZScoreWindow(),
	}
}

func (r *AnomalyRule) Name() string { return RuleAnomaly }

func (r *AnomalyRule) Evaluate(event signal.RawSignalEvent, cfg Config) (signal.ValidationResult, error) {
	if r.probability == nil {
		r.probability = newZScoreWindow()
	}
	if r.volume == nil {
		r.volume = newZScoreWindow()
	}
	if r.movement == nil {
		r.movement = newZScoreWindow()
	}

	var riskScore float64
	var notes []string

	if event.Probability < cfg.ExtremeProbabilityLow || event.Probability > cfg.ExtremeProbabilityHigh {
		riskScore += 0.3
		notes = append(notes, fmt.Sprintf("extreme probability %.4f", event.Probability))
	}

	if z, anomaly := r.probability.observe(event.Probability, 0, 1, cfg.AnomalyZThreshold); anomaly {
		riskScore += 0.2
		notes = append(notes, fmt.Sprintf("probability z-score %.2f", z))
	}

	if event.Movement != nil && math.Abs(event.Movement.Delta) > cfg.MaxProbabilityChange {
		riskScore += 0.3
		notes = append(notes, fmt.Sprintf("excessive probability change %.4f over %.1fh", event.Movement.Delta, event.Movement.WindowHours))
	}

	if event.Movement != nil {
		if z, anomaly := r.movement.observe(math.Abs(event.Movement.Delta), 0, math.MaxFloat64, cfg.AnomalyZThreshold); anomaly {
			riskScore += 0.2
			notes = append(notes, fmt.Sprintf("movement z-score %.2f", z))
		}
	}

	if event.Market.TraderCount != nil &&
		*event.Market.TraderCount < cfg.MinTraderCount &&
		event.Market.TotalVolumeUSD > cfg.MinTraderVolumeUSD {
		riskScore += 0.2
		notes = append(notes, fmt.Sprintf("%d traders against $%.2f volume", *event.Market.TraderCount, event.Market.TotalVolumeUSD))
	}

	if event.Market.TotalVolumeUSD > 0 {
		if z, anomaly := r.volume.observe(event.Market.TotalVolumeUSD, 0, math.MaxFloat64, cfg.AnomalyZThreshold); anomaly {
			riskScore += 0.2
			notes = append(notes, fmt.Sprintf("volume z-score %.2f", z))
		}
	}

	if riskScore >= cfg.ManipulationThreshold {
		return signal.ValidationResult{
			RuleName:    r.Name(),
			RuleVersion: ruleVersion,
			Status:      signal.StatusRejectedManipulationSuspected,
			Score:       0,
			Reason:      fmt.Sprintf("risk_score %.2f >= threshold %.2f: %s", riskScore, cfg.ManipulationThreshold, strings.Join(notes, "; ")),
		}, nil
	}

	reason := "no anomalies detected"
	if len(notes) > 0 {
		reason = "minor anomalies: " + strings.Join(notes, "; ")
	}

	return signal.ValidationResult{
		RuleName:    r.Name(),
		RuleVersion: ruleVersion,
		Status:      signal.StatusPassed,
		Score:       1.0 - riskScore,
		Reason:      reason,
	}, nil
}

// zscoreWindow keeps a bounded rolling window of one metric's observed
// values and flags generic statistical anomalies. Requires at least 10
// prior samples before it activates; a value outside [minValid, maxValid]
// always flags regardless of sample count.
type zscoreWindow struct {
	mu     sync.Mutex
	values []float64
	maxLen int
}

func newZScoreWindow() *zscoreWindow {
	return &zscoreWindow{maxLen: 1000}
}

func (w *zscoreWindow) observe(value, minValid, maxValid, sigmaThreshold float64) (float64, bool) {
	if value < minValid || value > maxValid {
		w.push(value)
		return math.Inf(1), true
	}

	w.mu.Lock()
	window := append([]float64{}, w.values...)
	w.mu.Unlock()

	w.push(value)

	if len(window) < 10 {
		return 0, false
	}

	m := meanOf(window)
	sd := stddevOf(window, m)
	if sd == 0 {
		return 0, false
	}
	z := (value - m) / sd
	return z, math.Abs(z) > sigmaThreshold
}

func (w *zscoreWindow) push(value float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.values = append(w.values, value)
	if len(w.values) > w.maxLen {
		w.values = w.values[len(w.values)-w.maxLen:]
	}
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddevOf(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}
