// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/intellidrug/pkg/types"
)

// Request carries the two inputs every worker receives. Strategy, when set,
// overrides the orchestrator's default for this run's synthesis and report.
type Request struct {
	Subject  string         `json:"subject" yaml:"subject"`
	Context  string         `json:"context" yaml:"context"`
	Strategy types.Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// Validate reports an InvalidInput error when the subject is blank or the
// strategy is unknown.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Subject) == "" {
		return invalidInput("subject is required")
	}
	return validateStrategy(r.Strategy)
}

func validateStrategy(s types.Strategy) error {
	if _, err := types.ParseStrategy(string(s)); err != nil {
		return invalidInput("%v", err)
	}
	return nil
}

// Worker is one analysis source. Analyze must return a result or an error
// and must honour ctx cancellation; the orchestrator bounds each call with a
// per-worker timeout and records a failure when it fires.
type Worker interface {
	Name() string
	Analyze(ctx context.Context, req Request) (types.WorkerResult, error)
}

// WorkerFunc adapts a function to the Worker interface.
type WorkerFunc func(ctx context.Context, req Request) (types.WorkerResult, error)

type funcWorker struct {
	name string
	fn   WorkerFunc
}

func (w funcWorker) Name() string { return w.name }

func (w funcWorker) Analyze(ctx context.Context, req Request) (types.WorkerResult, error) {
	return w.fn(ctx, req)
}

// NewWorker names fn as a Worker.
func NewWorker(name string, fn WorkerFunc) Worker {
	return funcWorker{name: name, fn: fn}
}

// Registry is the ordered set of workers an Orchestrator runs. It is built
// once and read concurrently afterwards.
type Registry struct {
	workers []Worker
	byName  map[string]Worker
}

// NewRegistry builds a registry, rejecting empty and duplicate names.
func NewRegistry(workers ...Worker) (*Registry, error) {
	r := &Registry{byName: make(map[string]Worker, len(workers))}
	for _, w := range workers {
		if w == nil {
			return nil, fmt.Errorf("registry: nil worker")
		}
		name := w.Name()
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("registry: worker with empty name")
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("registry: duplicate worker %q", name)
		}
		r.byName[name] = w
		r.workers = append(r.workers, w)
	}
	return r, nil
}

// Names returns worker names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.workers))
	for i, w := range r.workers {
		names[i] = w.Name()
	}
	return names
}

// Get returns the named worker.
func (r *Registry) Get(name string) (Worker, bool) {
	w, ok := r.byName[name]
	return w, ok
}

// Workers returns the workers in registration order.
func (r *Registry) Workers() []Worker {
	out := make([]Worker, len(r.workers))
	copy(out, r.workers)
	return out
}

// Len returns the number of registered workers.
func (r *Registry) Len() int { return len(r.workers) }
