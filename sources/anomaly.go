package sources

import (
	"math"
	"sync"
)

// zscoreTracker keeps a bounded rolling window of observations per
// metric key and flags generic statistical anomalies. Requires at
// least 10 samples
// before it activates.
type zscoreTracker struct {
	mu      sync.Mutex
	windows map[string][]float64
	maxLen  int
}

func newZScoreTracker() *zscoreTracker {
	return &zscoreTracker{windows: make(map[string][]float64), maxLen: 1000}
}

// genericAnomalyResult is the tracker's verdict for one observation.
type genericAnomalyResult struct {
	ZScore   float64
	Flagged  bool
	Activated bool
}

// observe records value under metric and evaluates it against the
// window collected so far. minValid/maxValid are a hard validity range;
// a value outside it always flags regardless of sample count.
// sigmaThreshold lets callers use 2.5σ for price-change magnitudes and
// 3σ otherwise.
func (t *zscoreTracker) observe(metric string, value, minValid, maxValid, sigmaThreshold float64) genericAnomalyResult {
	if value < minValid || value > maxValid {
		t.push(metric, value)
		return genericAnomalyResult{ZScore: math.Inf(1), Flagged: true, Activated: true}
	}

	t.mu.Lock()
	window := append([]float64{}, t.windows[metric]...)
	t.mu.Unlock()

	t.push(metric, value)

	if len(window) < 10 {
		return genericAnomalyResult{Activated: false}
	}

	m := mean(window)
	sd := stddev(window, m)
	if sd == 0 {
		if value == m {
			return genericAnomalyResult{Activated: true}
		}
		// A constant history gives any departure from it an infinite z.
		return genericAnomalyResult{ZScore: math.Copysign(math.Inf(1), value-m), Flagged: true, Activated: true}
	}
	z := (value - m) / sd
	return genericAnomalyResult{ZScore: z, Flagged: math.Abs(z) > sigmaThreshold, Activated: true}
}

func (t *zscoreTracker) push(metric string, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := append(t.windows[metric], value)
	if len(w) > t.maxLen {
		w = w[len(w)-t.maxLen:]
	}
	t.windows[metric] = w
}
