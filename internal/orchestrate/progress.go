// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"fmt"
	"sync"

	"github.com/pdiddy/intellidrug/pkg/types"
)

// Tracker holds the status of every worker in one run. Each worker wrapper
// writes only its own entry; observers read snapshots.
type Tracker struct {
	mu    sync.RWMutex
	state types.ProgressState
}

// NewTracker returns a tracker with every named worker Pending.
func NewTracker(workers []string) *Tracker {
	t := &Tracker{}
	t.Reset(workers)
	return t
}

// Reset replaces the state with every named worker Pending.
func (t *Tracker) Reset(workers []string) {
	state := make(types.ProgressState, len(workers))
	for _, w := range workers {
		state[w] = types.StatusPending
	}
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
}

// Transition moves worker to status. The only valid moves are
// Pending→Running and Running→Complete or Running→Failed.
func (t *Tracker) Transition(worker string, to types.Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	from, ok := t.state[worker]
	if !ok {
		return fmt.Errorf("progress: unknown worker %q", worker)
	}
	if !validTransition(from, to) {
		return fmt.Errorf("progress: worker %s: invalid transition %s -> %s", worker, from, to)
	}
	t.state[worker] = to
	return nil
}

func validTransition(from, to types.Status) bool {
	switch from {
	case types.StatusPending:
		return to == types.StatusRunning
	case types.StatusRunning:
		return to == types.StatusComplete || to == types.StatusFailed
	}
	return false
}

// Status returns worker's current status.
func (t *Tracker) Status(worker string) (types.Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.state[worker]
	return s, ok
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() types.ProgressState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(types.ProgressState, len(t.state))
	for k, v := range t.state {
		out[k] = v
	}
	return out
}
