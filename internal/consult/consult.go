// Package consult is the client for the external language-model
// consultation service. Callers hand it case context and get back a
// structured suggestion bundle; every call carries a bounded timeout and
// degrades to an explicit error, never a hang. Parsing of the model's
// text responses is isolated in parse.go so the calling logic never sees
// formatting differences.
package consult

import (
	"context"
	"errors"
	"fmt"

	"fathom/internal/casefile"
)

// Mode selects the timeout budget and prompt register for a call.
type Mode string

const (
	// ModeAnalysis is used for per-state suggestion calls during
	// auto-progression; these may read a lot of context.
	ModeAnalysis Mode = "analysis"
	// ModeGuidance is used for short, directed calls: action proposals,
	// answer extraction, remediation drafting.
	ModeGuidance Mode = "guidance"
)

// Confidence is the closed confidence scale for extracted answers.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ErrUnavailable covers timeouts, transport errors, and malformed
// responses. Callers treat all three as one failure class and fall back
// to deterministic, evidence-only behavior.
var ErrUnavailable = errors.New("consultation unavailable")

// QuestionSuggestion is a new question proposed by the service.
type QuestionSuggestion struct {
	Prompt   string `json:"prompt"`
	Required bool   `json:"required"`
	Guidance string `json:"guidance,omitempty"`
}

// AnswerSuggestion is a per-question answer extracted from evidence.
type AnswerSuggestion struct {
	QuestionID   string     `json:"question_id"`
	Answer       string     `json:"answer"`
	Confidence   Confidence `json:"confidence"`
	Alternatives []string   `json:"alternatives,omitempty"`
	EvidenceIDs  []string   `json:"evidence_ids,omitempty"`
}

// Suggestions is the structured bundle returned by an analysis call.
// All fields are optional; an empty bundle is a valid response.
type Suggestions struct {
	Hypotheses     []string             `json:"hypotheses,omitempty"`
	Questions      []QuestionSuggestion `json:"questions,omitempty"`
	Classification string               `json:"classification,omitempty"`
	Reasoning      string               `json:"reasoning,omitempty"`
	Answers        []AnswerSuggestion   `json:"answers,omitempty"`
}

// ScopeDraft is the structured problem-scope response.
type ScopeDraft struct {
	Summary            string
	ErrorPatterns      []string
	AffectedComponents []string
	Timeframe          string
	Impact             string
	EvidenceSummary    string
}

// ExtractedAnswer is the result of extracting one answer strictly from
// evidence text. Found=false is an explicitly allowed outcome and must be
// dropped by the caller, never turned into a low-confidence guess.
type ExtractedAnswer struct {
	Found       bool
	Answer      string
	Confidence  Confidence
	EvidenceIDs []string
}

// Consultant is the consultation contract shared by the orchestrator and
// the agent runner.
type Consultant interface {
	// Analyze returns suggestions for the case at its current state.
	Analyze(ctx context.Context, c *casefile.Case, mode Mode) (*Suggestions, error)
	// RemediationPlan drafts a root-cause / immediate-actions /
	// verification-steps plan from the case and prior findings.
	RemediationPlan(ctx context.Context, c *casefile.Case, findings []string) (string, error)
	// ScopeDraft drafts a problem scope from the statement and evidence
	// content, optionally steered by human feedback.
	ScopeDraft(ctx context.Context, c *casefile.Case, evidenceText, feedback string) (*ScopeDraft, error)
	// ExtractAnswer answers one question strictly from evidence text.
	ExtractAnswer(ctx context.Context, c *casefile.Case, q casefile.Question, evidenceText string) (*ExtractedAnswer, error)
	// ProposeAction returns exactly one next action for an agent session.
	ProposeAction(ctx context.Context, req *ActionRequest) (*ProposedAction, error)
}

// ActionRequest carries the session context for an action proposal.
// Built by the agent runner so this package stays below it.
type ActionRequest struct {
	Case           *casefile.Case
	Specialization string
	DomainTerms    []string
	Plan           []string
	Theories       []string
	History        []string
}

// ActionKind is the closed set of agent action tags. Anything outside
// this set is rejected on receipt, never executed.
type ActionKind string

const (
	ActionAnswerQuestion  ActionKind = "answer-question"
	ActionTestHypothesis  ActionKind = "test-hypothesis"
	ActionRequestEvidence ActionKind = "request-evidence"
	ActionTransitionState ActionKind = "transition-state"
)

// ProposedAction is the tagged union returned by ProposeAction. Only the
// payload fields for the tagged kind are meaningful.
type ProposedAction struct {
	Kind      ActionKind `json:"kind"`
	Reasoning string     `json:"reasoning,omitempty"`

	// answer-question
	QuestionID string `json:"question_id,omitempty"`
	Answer     string `json:"answer,omitempty"`

	// test-hypothesis
	HypothesisID     string                    `json:"hypothesis_id,omitempty"`
	HypothesisStatus casefile.HypothesisStatus `json:"hypothesis_status,omitempty"`
	EvidenceIDs      []string                  `json:"evidence_ids,omitempty"`

	// request-evidence
	EvidenceNeeded string `json:"evidence_needed,omitempty"`

	// transition-state
	TargetState casefile.State `json:"target_state,omitempty"`
}

// Validate checks the tag and its payload schema. A nil error means the
// action is safe to classify and dispatch.
func (a *ProposedAction) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil action", ErrUnavailable)
	}
	switch a.Kind {
	case ActionAnswerQuestion:
		if a.QuestionID == "" || a.Answer == "" {
			return fmt.Errorf("answer-question action missing question_id or answer")
		}
	case ActionTestHypothesis:
		if a.HypothesisID == "" {
			return fmt.Errorf("test-hypothesis action missing hypothesis_id")
		}
		switch a.HypothesisStatus {
		case casefile.HypothesisValidated, casefile.HypothesisDisproven:
		default:
			return fmt.Errorf("test-hypothesis action has invalid status %q", a.HypothesisStatus)
		}
	case ActionRequestEvidence:
		if a.EvidenceNeeded == "" {
			return fmt.Errorf("request-evidence action missing description")
		}
	case ActionTransitionState:
		if a.TargetState == "" {
			return fmt.Errorf("transition-state action missing target state")
		}
	default:
		return fmt.Errorf("unrecognized action kind %q", a.Kind)
	}
	return nil
}
