// Package pipeline implements the orchestrator: idempotency probe,
// validation, enrichment, generation, persist-then-
// publish, and dead-letter routing, all pinned to one ProcessingContext
// per invocation.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/application/enrich"
	"github.com/hoangpro/omen/application/generate"
	domerrors "github.com/hoangpro/omen/domain/errors"
	"github.com/hoangpro/omen/domain/rules"
	"github.com/hoangpro/omen/domain/signal"
	"github.com/hoangpro/omen/infrastructure/dlq"
	"github.com/hoangpro/omen/infrastructure/ledger"
	"github.com/hoangpro/omen/infrastructure/repository"
)

// Publisher is the outbound-notification collaborator. A nil
// Publisher in Config skips publishing entirely.
type Publisher interface {
	Publish(ctx context.Context, sig signal.OmenSignal) error
}

// Recorder is the observability sink the orchestrator reports every
// stage outcome to. infrastructure/metrics and infrastructure/activity
// satisfy this; tests and callers that don't care can pass NoopRecorder.
type Recorder interface {
	RecordValidated(event signal.RawSignalEvent)
	RecordDeduplicated(event signal.RawSignalEvent)
	RecordRejected(event signal.RawSignalEvent, stage, ruleName, reason string)
	RecordGenerated(sig signal.OmenSignal, latency time.Duration)
	RecordBelowConfidence(sig signal.OmenSignal)
	RecordError(stage string, err error)
}

// NoopRecorder discards everything; the zero value is ready to use.
type NoopRecorder struct{}

func (NoopRecorder) RecordValidated(signal.RawSignalEvent)                  {}
func (NoopRecorder) RecordDeduplicated(signal.RawSignalEvent)               {}
func (NoopRecorder) RecordRejected(signal.RawSignalEvent, string, string, string) {}
func (NoopRecorder) RecordGenerated(signal.OmenSignal, time.Duration)        {}
func (NoopRecorder) RecordBelowConfidence(signal.OmenSignal)                {}
func (NoopRecorder) RecordError(string, error)                              {}

// MultiRecorder fans every call out to each recorder in order — used to
// wire both infrastructure/metrics and infrastructure/activity into one
// Orchestrator.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordValidated(event signal.RawSignalEvent) {
	for _, r := range m {
		r.RecordValidated(event)
	}
}
func (m MultiRecorder) RecordDeduplicated(event signal.RawSignalEvent) {
	for _, r := range m {
		r.RecordDeduplicated(event)
	}
}
func (m MultiRecorder) RecordRejected(event signal.RawSignalEvent, stage, ruleName, reason string) {
	for _, r := range m {
		r.RecordRejected(event, stage, ruleName, reason)
	}
}
func (m MultiRecorder) RecordGenerated(sig signal.OmenSignal, latency time.Duration) {
	for _, r := range m {
		r.RecordGenerated(sig, latency)
	}
}
func (m MultiRecorder) RecordBelowConfidence(sig signal.OmenSignal) {
	for _, r := range m {
		r.RecordBelowConfidence(sig)
	}
}
func (m MultiRecorder) RecordError(stage string, err error) {
	for _, r := range m {
		r.RecordError(stage, err)
	}
}

// Config carries the orchestrator's tunables.
type Config struct {
	RulesetVersion        string
	MinConfidenceForOutput float64
	FailOnPersistError    bool
	FailOnPublishError    bool
	DLQEnabled            bool
	Live                  bool
	SourceType            string
	SchemaVersion         string
}

// DefaultConfig matches the documented defaults.
func DefaultConfig() Config {
	return Config{
		RulesetVersion:         "v1.0.0",
		MinConfidenceForOutput: 0.3,
		FailOnPersistError:     false,
		FailOnPublishError:     false,
		DLQEnabled:             true,
		SchemaVersion:          "v1",
	}
}

// Orchestrator wires the validator, repository, ledger, DLQ, and an
// optional publisher/recorder into the process_single/process_batch/
// reprocess_dlq operations.
type Orchestrator struct {
	cfg       Config
	validator *rules.Validator
	repo      repository.Repository
	ledger    *ledger.Ledger
	queue     *dlq.Queue
	publisher Publisher
	recorder  Recorder
	now       func() time.Time
}

// New constructs an orchestrator. publisher and recorder may be nil/
// NoopRecorder{} respectively when those collaborators aren't wired.
func New(cfg Config, validatorCfg rules.Config, repo repository.Repository, led *ledger.Ledger, queue *dlq.Queue, publisher Publisher, recorder Recorder) *Orchestrator {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	return &Orchestrator{
		cfg:       cfg,
		validator: rules.NewValidator(validatorCfg),
		repo:      repo,
		ledger:    led,
		queue:     queue,
		publisher: publisher,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Result is process_single's outcome.
type Result struct {
	Success   bool
	Cached    bool
	Rejected  bool
	RejectStage string
	RejectRule  string
	RejectReason string
	Signal    *signal.OmenSignal
	Error     *domerrors.OmenError
}

// ProcessSingle runs one event through the full pipeline. pctx may be
// nil, in which case a fresh ProcessingContext is created from the
// orchestrator's wall clock.
func (o *Orchestrator) ProcessSingle(ctx context.Context, event signal.RawSignalEvent, pctx *signal.ProcessingContext) Result {
	var pc signal.ProcessingContext
	if pctx != nil {
		pc = *pctx
	} else {
		pc = signal.NewProcessingContext(o.now(), o.cfg.RulesetVersion)
	}

	if cached, found, err := o.repo.FindByHash(ctx, event.InputEventHash); err == nil && found {
		o.recorder.RecordDeduplicated(event)
		return Result{Success: true, Cached: true, Signal: cached}
	} else if err != nil {
		o.recorder.RecordError("idempotency_probe", err)
	}

	vs, outcome := o.validator.Validate(event, pc)
	if !outcome.Passed {
		firstFailingRule := ""
		if len(outcome.Results) > 0 {
			firstFailingRule = outcome.Results[len(outcome.Results)-1].RuleName
		}
		o.recorder.RecordRejected(event, "validation", firstFailingRule, outcome.RejectionReason)
		return Result{Success: true, Rejected: true, RejectStage: "validation", RejectRule: firstFailingRule, RejectReason: outcome.RejectionReason}
	}
	o.recorder.RecordValidated(event)

	en := enrich.Enrich(vs)

	start := o.now()
	sig := generate.Generate(vs, en, pc, o.cfg.Live, o.cfg.SourceType)
	o.recorder.RecordGenerated(sig, o.now().Sub(start))

	if sig.ConfidenceScore < o.cfg.MinConfidenceForOutput {
		o.recorder.RecordBelowConfidence(sig)
		return Result{Success: true, Rejected: true, RejectStage: "generation", RejectReason: "confidence below minimum"}
	}

	if err := o.persistThenPublish(ctx, sig, event, pc); err != nil {
		return Result{Success: false, Error: domerrors.Wrap("pipeline", err)}
	}

	return Result{Success: true, Signal: &sig}
}

func (o *Orchestrator) persistThenPublish(ctx context.Context, sig signal.OmenSignal, event signal.RawSignalEvent, pc signal.ProcessingContext) error {
	if err := o.repo.Save(ctx, sig); err != nil {
		log.Error().Err(err).Str("signal_id", sig.SignalID).Msg("pipeline: persist failed")
		o.recorder.RecordError("persist", err)
		if o.cfg.FailOnPersistError {
			return err
		}
	} else if o.ledger != nil {
		evt := signal.NewSignalEvent(o.cfg.SchemaVersion, sig, event.EventID, event.ObservedAt, pc.ProcessingTime)
		if _, err := o.ledger.Append(evt, o.now()); err != nil {
			log.Error().Err(err).Str("signal_id", sig.SignalID).Msg("pipeline: ledger append failed")
			o.recorder.RecordError("ledger_append", err)
		}
	}

	if o.publisher != nil {
		if err := o.publisher.Publish(ctx, sig); err != nil {
			log.Error().Err(err).Str("signal_id", sig.SignalID).Msg("pipeline: publish failed")
			o.recorder.RecordError("publish", err)
			if o.cfg.FailOnPublishError {
				return err
			}
		}
	}
	return nil
}

// BatchResult is one event's outcome inside a ProcessBatch call.
type BatchResult struct {
	Event  signal.RawSignalEvent
	Result Result
}

// ProcessBatch runs ProcessSingle over every event, independently
// wrapped — one event's unexpected error never aborts the batch. Every
// event shares the same ProcessingContext so the batch is internally
// consistent.
func (o *Orchestrator) ProcessBatch(ctx context.Context, events []signal.RawSignalEvent, pctx *signal.ProcessingContext) []BatchResult {
	var pc signal.ProcessingContext
	if pctx != nil {
		pc = *pctx
	} else {
		pc = signal.NewProcessingContext(o.now(), o.cfg.RulesetVersion)
	}

	out := make([]BatchResult, 0, len(events))
	for _, event := range events {
		result := o.safeProcessSingle(ctx, event, &pc)
		out = append(out, BatchResult{Event: event, Result: result})
	}
	return out
}

// safeProcessSingle recovers from a panic/unexpected error in one
// event's processing and routes it to the DLQ.
func (o *Orchestrator) safeProcessSingle(ctx context.Context, event signal.RawSignalEvent, pc *signal.ProcessingContext) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			o.enqueueFailure(event, domerrors.Wrap("pipeline", domerrors.ErrUnexpectedInternal))
			result = Result{Success: false, Error: domerrors.Wrap("pipeline", domerrors.ErrUnexpectedInternal)}
		}
	}()

	result = o.ProcessSingle(ctx, event, pc)
	if !result.Success && o.cfg.DLQEnabled {
		o.enqueueFailure(event, result.Error)
	}
	return result
}

func (o *Orchestrator) enqueueFailure(event signal.RawSignalEvent, err *domerrors.OmenError) {
	if o.queue == nil {
		return
	}
	o.queue.Enqueue(event, err, o.now())
}

// ReprocessDLQ pops up to maxItems entries FIFO and reruns each through
// ProcessSingle. Idempotent: already-processed events short-circuit via
// the idempotency probe inside ProcessSingle.
func (o *Orchestrator) ReprocessDLQ(ctx context.Context, maxItems int) []BatchResult {
	if o.queue == nil {
		return nil
	}
	entries := o.queue.Drain(maxItems)
	out := make([]BatchResult, 0, len(entries))
	for _, e := range entries {
		result := o.safeProcessSingle(ctx, e.Event, nil)
		out = append(out, BatchResult{Event: e.Event, Result: result})
	}
	return out
}
