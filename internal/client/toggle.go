// Package client implements the client-side optimistic cache for membership
// and like toggles: apply locally first, publish a provisional event, then
// reconcile against the server response.
package client

import "fmt"

// ToggleState tracks one toggle attempt through its lifecycle.
type ToggleState int

const (
	// StateIdle means no attempt is in flight for the entity.
	StateIdle ToggleState = iota
	// StatePending means the optimistic mutation is applied locally and the
	// server call has not resolved.
	StatePending
	// StateConfirmed means the server accepted the toggle and the local copy
	// was replaced with the server document.
	StateConfirmed
	// StateRolledBack means the server call failed and the pre-toggle
	// snapshot was restored.
	StateRolledBack
)

func (s ToggleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("ToggleState(%d)", int(s))
	}
}

// toggleAttempt is the per-entity state machine. Transitions are
// Idle -> Pending -> Confirmed | RolledBack; anything else is a bug.
type toggleAttempt struct {
	state ToggleState
}

func (a *toggleAttempt) begin() error {
	if a.state == StatePending {
		return fmt.Errorf("toggle already in flight")
	}
	a.state = StatePending
	return nil
}

func (a *toggleAttempt) confirm() {
	if a.state == StatePending {
		a.state = StateConfirmed
	}
}

func (a *toggleAttempt) rollback() {
	if a.state == StatePending {
		a.state = StateRolledBack
	}
}
