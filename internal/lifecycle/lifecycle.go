// Package lifecycle is the case state machine: pure functions that decide
// whether a transition is legal and which state an investigation should
// move to next. It holds no storage and performs no side effects; both the
// orchestrator and the agent runner route every state change through it.
package lifecycle

import (
	"fmt"

	"fathom/internal/casefile"
)

// Decision is the outcome of a gate check. Reason is set only when the
// transition is blocked and must be surfaced to the caller verbatim.
type Decision struct {
	Allowed bool
	Reason  string
}

// GateError wraps a blocked transition so CLI callers can distinguish an
// expected, user-actionable rejection from an internal failure.
type GateError struct {
	From   casefile.State
	To     casefile.State
	Reason string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("transition %s -> %s blocked: %s", e.From, e.To, e.Reason)
}

// CanTransition decides whether the case may move to target. Rules are
// evaluated independently and the first failing rule wins. A blocked
// transition is reported, never coerced.
func CanTransition(c *casefile.Case, target casefile.State) Decision {
	if c.State == target {
		return Decision{Allowed: true}
	}

	if target == casefile.StateResolve {
		if open := c.OpenRequiredQuestions(); len(open) > 0 {
			return Decision{Reason: fmt.Sprintf(
				"Required questions are unanswered (%d open)", len(open))}
		}
	}

	if c.State == casefile.StatePlan && target == casefile.StateExecute {
		if len(c.Hypotheses) == 0 {
			return Decision{Reason: "No hypotheses to test"}
		}
	}

	if c.State == casefile.StatePendingExternal && target == casefile.StatePlan {
		if open := c.OpenRequiredQuestions(); len(open) > 0 {
			return Decision{Reason: fmt.Sprintf(
				"Waiting on external input: %d required question(s) still open", len(open))}
		}
	}

	if c.State == casefile.StateIntake && target == casefile.StateNormalize {
		if open := c.OpenRequiredQuestions(); len(open) > 0 {
			return Decision{Reason: fmt.Sprintf(
				"%d required question(s) unanswered; run 'extract' to auto-extract answers from evidence, or answer them with 'answer'",
				len(open))}
		}
	}

	return Decision{Allowed: true}
}

// Recommended returns the deterministic successor state. Every state has
// exactly one successor except Evaluate, which branches on hypothesis
// outcomes, and Postmortem, which is terminal.
func Recommended(c *casefile.Case) casefile.State {
	switch c.State {
	case casefile.StateIntake:
		return casefile.StateNormalize
	case casefile.StateNormalize:
		return casefile.StateClassify
	case casefile.StateClassify:
		return casefile.StatePlan
	case casefile.StatePlan:
		return casefile.StateExecute
	case casefile.StateExecute:
		return casefile.StateEvaluate
	case casefile.StateEvaluate:
		if c.HasValidatedHypothesis() {
			return casefile.StateResolve
		}
		return casefile.StatePlan
	case casefile.StateResolve:
		return casefile.StateReadyForSolution
	case casefile.StateReadyForSolution:
		return casefile.StatePostmortem
	case casefile.StatePostmortem:
		return casefile.StatePostmortem
	case casefile.StatePendingExternal:
		return casefile.StatePlan
	}
	return c.State
}

// Terminal reports whether the state has no forward successor.
func Terminal(s casefile.State) bool {
	return s == casefile.StatePostmortem
}
