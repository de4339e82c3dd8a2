// Package flow holds the shared shape of the portal's reconciliation flows:
// a single-shot state tracker and a cancellable deferred navigation.
//
// Every flow in the portal performs exactly one external call per mount and
// settles into a terminal state. The tracker is the single mutation point
// for that state, so a re-evaluated trigger can never issue a second call.
package flow

import (
	"sync"
)

type State string

const (
	StatePending         State = "pending"
	StateInProgress      State = "in_progress"
	StateResolvedSuccess State = "resolved_success"
	StateResolvedFailure State = "resolved_failure"
)

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	return s == StateResolvedSuccess || s == StateResolvedFailure
}

// Tracker guards a single-shot asynchronous operation.
//
// Transitions: pending -> in_progress -> resolved_success | resolved_failure.
// Terminal states are final; repeated Begin or Resolve calls are no-ops.
// The zero value is a tracker in StatePending.
type Tracker struct {
	mu    sync.Mutex
	state State
}

// Begin attempts the pending -> in_progress transition.
// It returns true only for the caller that won the transition; all later
// calls return false, whatever state the tracker is in.
func (t *Tracker) Begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != "" && t.state != StatePending {
		return false
	}

	t.state = StateInProgress
	return true
}

// Resolve moves an in-progress tracker to the given terminal state.
// Resolving a tracker that is not in progress, or with a non-terminal
// state, is a no-op and returns false.
func (t *Tracker) Resolve(s State) bool {
	if !s.Terminal() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateInProgress {
		return false
	}

	t.state = s
	return true
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == "" {
		return StatePending
	}
	return t.state
}
