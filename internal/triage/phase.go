// Package triage runs the chat processing loop: pick an unread conversation, inspect the
// candidate, then greet, reply or skip.
package triage

import (
	"errors"
	"fmt"
)

// Phase names one step of an iteration.
type Phase string

const (
	PhaseSettle   Phase = "settle"
	PhaseTabs     Phase = "tabs"
	PhaseFilter   Phase = "filter"
	PhaseScan     Phase = "scan"
	PhaseResume   Phase = "resume"
	PhaseSnapshot Phase = "snapshot"
	PhaseDecide   Phase = "decide"
	PhaseReply    Phase = "reply"
	PhaseGreet    Phase = "greet"
	PhaseExchange Phase = "exchange"
	PhaseDone     Phase = "done"
)

// PhaseError attributes an iteration failure to the phase it happened in.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// PhaseOf returns the failed phase of err, or "" if err carries none.
func PhaseOf(err error) Phase {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase
	}
	return ""
}

// Outcome is how an iteration ended.
type Outcome string

const (
	OutcomeReplied Outcome = "replied"
	OutcomeGreeted Outcome = "greeted"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)
