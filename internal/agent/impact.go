package agent

import "fathom/internal/consult"

// Impact is the static approval tier of an action kind. The mapping is
// fixed: reading or annotating the case is low, asking humans for work is
// medium, and moving the investigation forward is high.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Classify returns the impact tier for a validated action kind.
func Classify(kind consult.ActionKind) Impact {
	switch kind {
	case consult.ActionAnswerQuestion, consult.ActionTestHypothesis:
		return ImpactLow
	case consult.ActionRequestEvidence:
		return ImpactMedium
	case consult.ActionTransitionState:
		return ImpactHigh
	}
	// Kinds outside the closed set never reach dispatch; High here only
	// backstops a missed Validate call.
	return ImpactHigh
}

// NeedsApproval reports whether the impact tier requires explicit
// approval when auto-approve is off. Low impact is always auto-approved.
func (i Impact) NeedsApproval() bool { return i != ImpactLow }

// Approver decides whether a Medium/High impact action may be applied.
// The CLI wires a terminal prompt; tests wire fixed policies.
type Approver interface {
	Approve(action *consult.ProposedAction, impact Impact) (bool, error)
}

// ApproverFunc adapts a function to the Approver interface.
type ApproverFunc func(action *consult.ProposedAction, impact Impact) (bool, error)

func (f ApproverFunc) Approve(a *consult.ProposedAction, i Impact) (bool, error) { return f(a, i) }

// DenyAll refuses every approval request. The safe default when no
// approver is wired.
func DenyAll() Approver {
	return ApproverFunc(func(*consult.ProposedAction, Impact) (bool, error) { return false, nil })
}
