// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrate runs every registered worker concurrently for a
// subject/context pair, isolates worker failures and timeouts, and hands the
// collected results to synthesis. Compare does the same for several subjects
// in parallel and ranks the outcomes.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/intellidrug/internal/compare"
	"github.com/pdiddy/intellidrug/internal/synthesis"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// Reporter generates a report file for a completed analysis and returns its
// path. It runs off the orchestration path; failures are recorded on the
// analysis and never fail the run.
type Reporter interface {
	Generate(ctx context.Context, analysis types.Analysis) (string, error)
}

// ContextRecorder receives each worker's result after synthesis so follow-up
// questions can be grounded in it.
type ContextRecorder interface {
	SetWorkerContext(subject, worker string, result types.WorkerResult)
}

// Orchestrator owns a worker registry and the progress of its runs.
type Orchestrator struct {
	registry    *Registry
	logger      *slog.Logger
	reporter    Reporter
	contexts    ContextRecorder
	strategy    types.Strategy
	timeout     time.Duration
	timeouts    map[string]time.Duration
	maxSubjects int64
	now         func() time.Time

	// runMu serializes single-subject runs so tracker reflects one run.
	runMu   sync.Mutex
	tracker *Tracker

	mu       sync.RWMutex
	subjects map[string]*Tracker
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithReporter sets the report collaborator.
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithContextRecorder sets where worker results are recorded for follow-up.
func WithContextRecorder(c ContextRecorder) Option {
	return func(o *Orchestrator) { o.contexts = c }
}

// WithStrategy sets the strategy used by Run and Compare.
func WithStrategy(s types.Strategy) Option {
	return func(o *Orchestrator) {
		if s != "" {
			o.strategy = s
		}
	}
}

// WithTimeout sets the default per-worker timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithWorkerTimeout overrides the timeout for one worker.
func WithWorkerTimeout(worker string, d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeouts[worker] = d
		}
	}
}

// WithMaxConcurrentSubjects bounds how many subjects Compare runs at once.
// Zero means unbounded.
func WithMaxConcurrentSubjects(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxSubjects = int64(n)
		}
	}
}

// WithConfig applies an OrchestratorConfig.
func WithConfig(cfg types.OrchestratorConfig) Option {
	return func(o *Orchestrator) {
		WithTimeout(cfg.WorkerTimeout)(o)
		WithStrategy(cfg.Strategy)(o)
		WithMaxConcurrentSubjects(cfg.MaxConcurrentSubjects)(o)
		for w, d := range cfg.WorkerTimeouts {
			WithWorkerTimeout(w, d)(o)
		}
	}
}

// New returns an Orchestrator over registry.
func New(registry *Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
		strategy: types.StrategyStandard,
		timeout:  types.DefaultWorkerTimeout,
		timeouts: make(map[string]time.Duration),
		now:      time.Now,
		subjects: make(map[string]*Tracker),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.tracker = NewTracker(registry.Names())
	return o
}

// Registry returns the orchestrator's worker registry.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// Strategy returns the strategy used by Run and Compare.
func (o *Orchestrator) Strategy() types.Strategy { return o.strategy }

// Progress returns a snapshot of the latest single-subject run.
func (o *Orchestrator) Progress() types.ProgressState {
	return o.tracker.Snapshot()
}

// SubjectProgress returns a snapshot of subject's run in the latest Compare.
func (o *Orchestrator) SubjectProgress(subject string) (types.ProgressState, bool) {
	o.mu.RLock()
	t, ok := o.subjects[subject]
	o.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return t.Snapshot(), true
}

// Run invokes every worker for req concurrently and returns the analysis once
// every worker has completed, failed, or timed out. Worker failures are
// recorded in the result map. Run returns an error only for invalid input or
// when ctx is cancelled, in which case outstanding workers are cancelled too.
func (o *Orchestrator) Run(ctx context.Context, req Request) (types.Analysis, error) {
	if err := req.Validate(); err != nil {
		return types.Analysis{}, err
	}
	o.runMu.Lock()
	defer o.runMu.Unlock()
	return o.run(ctx, o.tracker, req)
}

func (o *Orchestrator) run(ctx context.Context, tracker *Tracker, req Request) (types.Analysis, error) {
	tracker.Reset(o.registry.Names())
	o.logger.Info("analysis started", "subject", req.Subject, "context", req.Context, "workers", o.registry.Len())

	results := o.collect(ctx, tracker, req)
	if err := ctx.Err(); err != nil {
		return types.Analysis{}, &Error{Kind: KindCanceled, Message: "run abandoned for " + req.Subject, Cause: err}
	}

	analysis := types.Analysis{
		Subject:   req.Subject,
		Context:   req.Context,
		Timestamp: o.now().UTC(),
		Results:   results,
	}
	analysis.Recommendation = synthesis.Synthesize(req.Subject, req.Context, results, synthesis.Profile(o.strategyFor(req)))

	if o.contexts != nil {
		for name, res := range results {
			o.contexts.SetWorkerContext(req.Subject, name, res)
		}
	}

	o.attachReport(ctx, &analysis)

	o.logger.Info("analysis complete",
		"subject", req.Subject,
		"recommendation", analysis.Recommendation.Recommendation,
		"score", analysis.Recommendation.Score,
		"failed", len(results.Failed()))
	return analysis, nil
}

// collect fans req out to every worker and gathers one entry per worker.
func (o *Orchestrator) collect(ctx context.Context, tracker *Tracker, req Request) types.WorkerResults {
	type workerOutcome struct {
		name   string
		result types.WorkerResult
	}

	workers := o.registry.Workers()
	ch := make(chan workerOutcome, len(workers))
	var wg sync.WaitGroup

	for _, w := range workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			ch <- workerOutcome{name: w.Name(), result: o.invoke(ctx, tracker, w, req)}
		}(w)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	results := make(types.WorkerResults, len(workers))
	for wo := range ch {
		results[wo.name] = wo.result
	}
	return results
}

// invoke runs one worker under its own timeout. It always returns a result:
// the worker's own, or an error placeholder on timeout, failure, or panic.
func (o *Orchestrator) invoke(ctx context.Context, tracker *Tracker, w Worker, req Request) types.WorkerResult {
	name := w.Name()
	o.transition(tracker, name, types.StatusRunning)
	start := time.Now()

	wctx, cancel := context.WithTimeout(ctx, o.timeoutFor(name))
	defer cancel()

	type reply struct {
		result types.WorkerResult
		err    error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := w.Analyze(wctx, req)
		done <- reply{result: res, err: err}
	}()

	var werr *Error
	var result types.WorkerResult
	select {
	case r := <-done:
		switch {
		case r.err == nil:
			result = r.result
		case ctx.Err() != nil:
			werr = &Error{Kind: KindCanceled, Worker: name, Message: "run abandoned", Cause: ctx.Err()}
		case errors.Is(r.err, context.DeadlineExceeded) && wctx.Err() != nil:
			werr = &Error{Kind: KindTimeout, Worker: name, Message: "exceeded " + o.timeoutFor(name).String()}
		default:
			werr = &Error{Kind: KindException, Worker: name, Message: "analyze failed", Cause: r.err}
		}
	case <-wctx.Done():
		if ctx.Err() != nil {
			werr = &Error{Kind: KindCanceled, Worker: name, Message: "run abandoned", Cause: ctx.Err()}
		} else {
			werr = &Error{Kind: KindTimeout, Worker: name, Message: "exceeded " + o.timeoutFor(name).String()}
		}
	}

	elapsed := time.Since(start)
	if werr != nil {
		result = types.ErrorResult(werr.resultMessage())
		o.logger.Warn("worker failed", "worker", name, "subject", req.Subject, "elapsed", elapsed, "kind", werr.Kind, "error", werr)
	} else if result.Failed() {
		result.Confidence = 0
		o.logger.Warn("worker reported error", "worker", name, "subject", req.Subject, "elapsed", elapsed, "error", result.Error)
	} else {
		o.logger.Debug("worker complete", "worker", name, "subject", req.Subject, "elapsed", elapsed, "confidence", result.Confidence)
	}

	if result.Failed() {
		o.transition(tracker, name, types.StatusFailed)
	} else {
		o.transition(tracker, name, types.StatusComplete)
	}
	return result
}

func (o *Orchestrator) transition(tracker *Tracker, worker string, to types.Status) {
	if err := tracker.Transition(worker, to); err != nil {
		o.logger.Error("progress update rejected", "worker", worker, "error", err)
	}
}

func (o *Orchestrator) timeoutFor(worker string) time.Duration {
	if d, ok := o.timeouts[worker]; ok {
		return d
	}
	return o.timeout
}

// attachReport asks the reporter for a report in its own goroutine and
// records the path or the failure on the analysis.
func (o *Orchestrator) attachReport(ctx context.Context, a *types.Analysis) {
	if o.reporter == nil {
		return
	}
	type reply struct {
		path string
		err  error
	}
	done := make(chan reply, 1)
	snapshot := *a
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		path, err := o.reporter.Generate(ctx, snapshot)
		done <- reply{path: path, err: err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-ctx.Done():
		r.err = ctx.Err()
	}
	if r.err != nil {
		a.ReportError = r.err.Error()
		o.logger.Warn("report generation failed", "subject", a.Subject, "error", r.err)
		return
	}
	a.ReportPath = r.path
}

// strategyFor returns the request's strategy, or the orchestrator default.
func (o *Orchestrator) strategyFor(req Request) types.Strategy {
	if req.Strategy == "" {
		return o.strategy
	}
	s, err := types.ParseStrategy(string(req.Strategy))
	if err != nil {
		return o.strategy
	}
	return s
}

// Resynthesize re-scores a stored analysis under strategy without running
// any worker.
func (o *Orchestrator) Resynthesize(a types.Analysis, strategy types.Strategy) types.Recommendation {
	return synthesis.SynthesizeAnalysis(a, synthesis.Profile(strategy))
}

// CompareRequest asks for several subjects to be analysed against one context.
type CompareRequest struct {
	Subjects []string       `json:"subjects" yaml:"subjects"`
	Context  string         `json:"context" yaml:"context"`
	Strategy types.Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// Validate requires at least two distinct, non-blank subjects.
func (r CompareRequest) Validate() error {
	if len(r.Subjects) < 2 {
		return invalidInput("comparison needs at least two subjects, got %d", len(r.Subjects))
	}
	seen := make(map[string]bool, len(r.Subjects))
	for _, s := range r.Subjects {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			return invalidInput("comparison subjects must not be blank")
		}
		if seen[key] {
			return invalidInput("duplicate subject %q", s)
		}
		seen[key] = true
	}
	return validateStrategy(r.Strategy)
}

// Compare runs a full analysis for every subject concurrently, each with its
// own progress tracker, and ranks the outcomes. A failing subject is listed
// as a failure and does not block the others. Invalid input is rejected
// before any worker runs.
func (o *Orchestrator) Compare(ctx context.Context, req CompareRequest) (types.Comparison, error) {
	if err := req.Validate(); err != nil {
		return types.Comparison{}, err
	}

	trackers := make(map[string]*Tracker, len(req.Subjects))
	for _, s := range req.Subjects {
		trackers[s] = NewTracker(o.registry.Names())
	}
	o.mu.Lock()
	o.subjects = trackers
	o.mu.Unlock()

	var sem *semaphore.Weighted
	if o.maxSubjects > 0 {
		sem = semaphore.NewWeighted(o.maxSubjects)
	}

	type subjectOutcome struct {
		subject  string
		analysis types.Analysis
		err      error
	}
	ch := make(chan subjectOutcome, len(req.Subjects))
	var wg sync.WaitGroup

	for _, s := range req.Subjects {
		wg.Add(1)
		go func(subject string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					ch <- subjectOutcome{subject: subject, err: &Error{Kind: KindException, Message: fmt.Sprintf("panic: %v", r)}}
				}
			}()
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					ch <- subjectOutcome{subject: subject, err: err}
					return
				}
				defer sem.Release(1)
			}
			a, err := o.run(ctx, trackers[subject], Request{Subject: subject, Context: req.Context, Strategy: req.Strategy})
			ch <- subjectOutcome{subject: subject, analysis: a, err: err}
		}(s)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	bySubject := make(map[string]subjectOutcome, len(req.Subjects))
	for so := range ch {
		bySubject[so.subject] = so
	}
	if err := ctx.Err(); err != nil {
		return types.Comparison{}, &Error{Kind: KindCanceled, Message: "comparison abandoned", Cause: err}
	}

	cmp := types.Comparison{
		Context:   req.Context,
		Subjects:  append([]string(nil), req.Subjects...),
		Timestamp: o.now().UTC(),
		Analyses:  make(map[string]types.Analysis, len(req.Subjects)),
	}
	outcomes := make([]types.SubjectOutcome, 0, len(req.Subjects))
	for _, s := range req.Subjects {
		so := bySubject[s]
		if so.err != nil {
			if cmp.Failures == nil {
				cmp.Failures = make(map[string]string)
			}
			cmp.Failures[s] = so.err.Error()
			outcomes = append(outcomes, types.SubjectOutcome{Subject: s, Error: so.err.Error()})
			continue
		}
		cmp.Analyses[s] = so.analysis
		rec := so.analysis.Recommendation
		outcomes = append(outcomes, types.SubjectOutcome{Subject: s, Recommendation: &rec})
	}

	cmp.Result = compare.CompareResults(outcomes)
	o.logger.Info("comparison complete", "subjects", len(req.Subjects), "best", cmp.Result.BestCandidates, "top_score", cmp.Result.TopScore)
	return cmp, nil
}
