// Package metrics implements the rolling 60-minute pipeline metrics
// collector, plus a Prometheus exposition of the same counters for
// scraping.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoangpro/omen/domain/signal"
)

const windowMinutes = 60

// bucket accumulates one minute's worth of pipeline activity.
type bucket struct {
	minute time.Time

	eventsReceived  int
	validated       int
	rejected        int
	generated       int
	deduplicated    int

	latencySumMs   float64
	latencyCount   int
	confidenceSum  float64
	confidenceCount int

	rejectionReasons map[string]int
}

func newBucket(minute time.Time) *bucket {
	return &bucket{minute: minute, rejectionReasons: make(map[string]int)}
}

// sourceHealth tracks an exponentially-weighted moving average (α=0.3)
// over one source's latency, error rate, and events-per-minute.
type sourceHealth struct {
	LatencyMsEWMA      float64
	ErrorRateEWMA      float64
	EventsPerMinEWMA   float64
	initialized        bool
}

const ewmaAlpha = 0.3

func (h *sourceHealth) update(latencyMs float64, errored bool, events float64) {
	errVal := 0.0
	if errored {
		errVal = 1.0
	}
	if !h.initialized {
		h.LatencyMsEWMA = latencyMs
		h.ErrorRateEWMA = errVal
		h.EventsPerMinEWMA = events
		h.initialized = true
		return
	}
	h.LatencyMsEWMA = ewmaAlpha*latencyMs + (1-ewmaAlpha)*h.LatencyMsEWMA
	h.ErrorRateEWMA = ewmaAlpha*errVal + (1-ewmaAlpha)*h.ErrorRateEWMA
	h.EventsPerMinEWMA = ewmaAlpha*events + (1-ewmaAlpha)*h.EventsPerMinEWMA
}

// Collector is the pipeline-wide metrics sink. It implements
// pipeline.Recorder.
type Collector struct {
	mu      sync.Mutex
	buckets map[int64]*bucket // keyed by unix-minute
	health  map[string]*sourceHealth

	now func() time.Time

	promValidated prometheus.Counter
	promRejected  prometheus.Counter
	promGenerated prometheus.Counter
	promErrors    *prometheus.CounterVec
	promLatency   prometheus.Histogram
}

// New constructs a collector and registers its Prometheus metrics
// against reg (pass prometheus.NewRegistry() or prometheus.DefaultRegisterer-wrapped registry).
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		buckets: make(map[int64]*bucket),
		health:  make(map[string]*sourceHealth),
		now:     time.Now,
		promValidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "omen", Name: "signals_validated_total", Help: "Total events that passed validation.",
		}),
		promRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "omen", Name: "signals_rejected_total", Help: "Total events rejected at any stage.",
		}),
		promGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "omen", Name: "signals_generated_total", Help: "Total OmenSignals generated.",
		}),
		promErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omen", Name: "pipeline_errors_total", Help: "Pipeline errors by stage.",
		}, []string{"stage"}),
		promLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "omen", Name: "signal_generation_latency_ms", Help: "Generation stage latency in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(c.promValidated, c.promRejected, c.promGenerated, c.promErrors, c.promLatency)
	}
	return c
}

func (c *Collector) bucketFor(t time.Time) *bucket {
	key := t.UTC().Truncate(time.Minute).Unix()
	b, ok := c.buckets[key]
	if !ok {
		b = newBucket(time.Unix(key, 0).UTC())
		c.buckets[key] = b
		c.evictOld(t)
	}
	return b
}

func (c *Collector) evictOld(now time.Time) {
	cutoff := now.Add(-windowMinutes * time.Minute).UTC().Truncate(time.Minute).Unix()
	for k := range c.buckets {
		if k < cutoff {
			delete(c.buckets, k)
		}
	}
}

func (c *Collector) RecordValidated(event signal.RawSignalEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucketFor(c.now())
	b.eventsReceived++
	b.validated++
	c.promValidated.Inc()
}

func (c *Collector) RecordDeduplicated(event signal.RawSignalEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucketFor(c.now())
	b.eventsReceived++
	b.deduplicated++
}

func (c *Collector) RecordRejected(event signal.RawSignalEvent, stage, ruleName, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucketFor(c.now())
	b.eventsReceived++
	b.rejected++
	b.rejectionReasons[reason]++
	c.promRejected.Inc()
}

func (c *Collector) RecordGenerated(sig signal.OmenSignal, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucketFor(c.now())
	b.generated++
	b.latencySumMs += float64(latency.Milliseconds())
	b.latencyCount++
	b.confidenceSum += sig.ConfidenceScore
	b.confidenceCount++
	c.promGenerated.Inc()
	c.promLatency.Observe(float64(latency.Milliseconds()))
}

func (c *Collector) RecordBelowConfidence(sig signal.OmenSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucketFor(c.now())
	b.rejected++
	b.rejectionReasons["confidence below minimum"]++
}

func (c *Collector) RecordError(stage string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promErrors.WithLabelValues(stage).Inc()
}

// RecordSourceHealth folds one fetch cycle's latency/error/event-count
// into a source's EWMA health record.
func (c *Collector) RecordSourceHealth(sourceName string, latency time.Duration, errored bool, eventCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.health[sourceName]
	if !ok {
		h = &sourceHealth{}
		c.health[sourceName] = h
	}
	h.update(float64(latency.Milliseconds()), errored, float64(eventCount))
}

// Snapshot is the aggregated view over the rolling window.
type Snapshot struct {
	WindowMinutes    int                      `json:"window_minutes"`
	EventsReceived   int                      `json:"events_received"`
	Validated        int                      `json:"validated"`
	Deduplicated     int                      `json:"deduplicated"`
	SignalsGenerated int                      `json:"signals_generated"`
	Rejected         int                      `json:"rejected"`
	AvgLatencyMs     float64                  `json:"avg_latency_ms"`
	AvgConfidence    float64                  `json:"avg_confidence"`
	RejectionReasons map[string]int           `json:"rejection_reasons"`
	SourceHealth     map[string]SourceHealthView `json:"source_health"`
	DataFreshness    string                   `json:"data_freshness"`
}

// SourceHealthView is the read-only EWMA snapshot for one source.
type SourceHealthView struct {
	LatencyMsEWMA    float64 `json:"latency_ms_ewma"`
	ErrorRateEWMA    float64 `json:"error_rate_ewma"`
	EventsPerMinEWMA float64 `json:"events_per_min_ewma"`
}

// Snapshot aggregates every in-window bucket into one view. When no
// batches have landed in the window, data_freshness is "stale".
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	cutoff := now.Add(-windowMinutes * time.Minute)

	snap := Snapshot{WindowMinutes: windowMinutes, RejectionReasons: make(map[string]int), SourceHealth: make(map[string]SourceHealthView)}
	var latencySum, confidenceSum float64
	var latencyCount, confidenceCount int

	for _, b := range c.buckets {
		if !b.minute.After(cutoff) {
			continue
		}
		snap.EventsReceived += b.eventsReceived
		snap.Validated += b.validated
		snap.Deduplicated += b.deduplicated
		snap.SignalsGenerated += b.generated
		snap.Rejected += b.rejected
		latencySum += b.latencySumMs
		latencyCount += b.latencyCount
		confidenceSum += b.confidenceSum
		confidenceCount += b.confidenceCount
		for reason, n := range b.rejectionReasons {
			snap.RejectionReasons[reason] += n
		}
	}

	if latencyCount > 0 {
		snap.AvgLatencyMs = latencySum / float64(latencyCount)
	}
	if confidenceCount > 0 {
		snap.AvgConfidence = confidenceSum / float64(confidenceCount)
	}

	for name, h := range c.health {
		snap.SourceHealth[name] = SourceHealthView{
			LatencyMsEWMA:    h.LatencyMsEWMA,
			ErrorRateEWMA:    h.ErrorRateEWMA,
			EventsPerMinEWMA: h.EventsPerMinEWMA,
		}
	}

	if snap.EventsReceived == 0 {
		snap.DataFreshness = "stale"
	} else {
		snap.DataFreshness = "fresh"
	}
	return snap
}
