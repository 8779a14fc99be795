package session

import (
	"errors"
	"fmt"
)

// Phase is a step in the form session lifecycle.
type Phase string

const (
	PhaseCollecting      Phase = "COLLECTING_INPUT"
	PhaseValidating      Phase = "VALIDATING"
	PhaseSubmitting      Phase = "SUBMITTING"
	PhaseResolvedSuccess Phase = "RESOLVED_SUCCESS"
	PhaseResolvedFailure Phase = "RESOLVED_FAILURE"
)

// ErrInvalidTransition is returned when a phase transition is not permitted.
var ErrInvalidTransition = errors.New("invalid phase transition")

// transitions holds the permitted phase graph. Both resolved phases lead back
// to collecting: a success starts a fresh batch, a failure keeps the entered
// values so the user can retry.
var transitions = map[Phase][]Phase{
	PhaseCollecting:      {PhaseValidating},
	PhaseValidating:      {PhaseSubmitting, PhaseCollecting},
	PhaseSubmitting:      {PhaseResolvedSuccess, PhaseResolvedFailure},
	PhaseResolvedSuccess: {PhaseCollecting},
	PhaseResolvedFailure: {PhaseCollecting},
}

// CanTransition reports whether the phase may move to the target phase.
func (p Phase) CanTransition(to Phase) bool {
	for _, next := range transitions[p] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and returns the target phase.
func (p Phase) Transition(to Phase) (Phase, error) {
	if !p.CanTransition(to) {
		return p, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p, to)
	}
	return to, nil
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}
