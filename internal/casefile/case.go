// Package casefile defines the data model for one troubleshooting
// investigation: the Case record, its questions, hypotheses, evidence
// references, and the append-only event log that audits every change.
package casefile

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle stage of a Case. Transitions between states are
// validated by the lifecycle package; the Case itself never enforces rules.
type State string

const (
	StateIntake           State = "intake"
	StateNormalize        State = "normalize"
	StateClassify         State = "classify"
	StatePlan             State = "plan"
	StateExecute          State = "execute"
	StateEvaluate         State = "evaluate"
	StateResolve          State = "resolve"
	StateReadyForSolution State = "ready_for_solution"
	StatePostmortem       State = "postmortem"
	StatePendingExternal  State = "pending_external"
)

// QuestionStatus tracks whether an intake question still blocks progress.
type QuestionStatus string

const (
	QuestionOpen     QuestionStatus = "open"
	QuestionAnswered QuestionStatus = "answered"
	QuestionSkipped  QuestionStatus = "skipped"
)

// HypothesisStatus is the test outcome of a working theory.
type HypothesisStatus string

const (
	HypothesisOpen      HypothesisStatus = "open"
	HypothesisValidated HypothesisStatus = "validated"
	HypothesisDisproven HypothesisStatus = "disproven"
)

// Question is one piece of information the investigation needs. Required
// questions gate the Intake→Normalize and →Resolve transitions until they
// are answered, skipped, or explicitly overridden by a Constraint.
type Question struct {
	ID               string         `json:"id"`
	Prompt           string         `json:"prompt"`
	Required         bool           `json:"required"`
	Status           QuestionStatus `json:"status"`
	Answer           string         `json:"answer,omitempty"`
	RequiresEvidence bool           `json:"requires_evidence,omitempty"`
	Guidance         string         `json:"guidance,omitempty"`
}

// Hypothesis is a candidate root cause under test.
type Hypothesis struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Status      HypothesisStatus `json:"status"`
	EvidenceIDs []string         `json:"evidence_ids,omitempty"`
}

// Evidence references one stored artifact. Records are immutable once
// created; only the evidence collaborator creates them.
type Evidence struct {
	ID         string   `json:"id"`
	Path       string   `json:"path"`
	MediaType  string   `json:"media_type"`
	IsRedacted bool     `json:"is_redacted"`
	Tags       []string `json:"tags,omitempty"`
}

// Constraint is an audited override of a required-question gate. Creating
// one is the only sanctioned way to move past an unanswered required
// question, and it always carries a closed reason code.
type Constraint struct {
	ID          string           `json:"id"`
	QuestionID  string           `json:"question_id"`
	Reason      ConstraintReason `json:"reason"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ConstraintReason is the closed set of override justifications.
type ConstraintReason string

const (
	ReasonInfoUnavailable  ConstraintReason = "info_unavailable"
	ReasonNotApplicable    ConstraintReason = "not_applicable"
	ReasonAcceptedRisk     ConstraintReason = "accepted_risk"
	ReasonDeferredFollowup ConstraintReason = "deferred_followup"
)

// Outcome is the final verdict recorded when a case resolves.
type Outcome struct {
	Verdict     string   `json:"verdict"`
	Explanation string   `json:"explanation"`
	EvidenceIDs []string `json:"evidence_ids,omitempty"`
}

// Case is the unit of work: one tracked troubleshooting investigation.
// Collections are ordered and append-only except for in-place status
// mutations on questions and hypotheses. The State field only ever changes
// through a lifecycle-approved transition recorded as a CaseEvent.
type Case struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Expected       string        `json:"expected"`
	Actual         string        `json:"actual"`
	State          State         `json:"state"`
	Classification string        `json:"classification,omitempty"`
	Questions      []Question    `json:"questions,omitempty"`
	Hypotheses     []Hypothesis  `json:"hypotheses,omitempty"`
	Evidence       []Evidence    `json:"evidence,omitempty"`
	Events         []CaseEvent   `json:"events,omitempty"`
	Constraints    []Constraint  `json:"constraints,omitempty"`
	Scope          *ProblemScope `json:"scope,omitempty"`
	Outcome        *Outcome      `json:"outcome,omitempty"`
	StrictMode     bool          `json:"strict_mode,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// New creates a Case at intake with empty collections.
func New(title, expected, actual string) *Case {
	now := time.Now().UTC()
	return &Case{
		ID:        uuid.NewString(),
		Title:     title,
		Expected:  expected,
		Actual:    actual,
		State:     StateIntake,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Question returns the question with the given ID, or nil.
func (c *Case) Question(id string) *Question {
	for i := range c.Questions {
		if c.Questions[i].ID == id {
			return &c.Questions[i]
		}
	}
	return nil
}

// Hypothesis returns the hypothesis with the given ID, or nil.
func (c *Case) Hypothesis(id string) *Hypothesis {
	for i := range c.Hypotheses {
		if c.Hypotheses[i].ID == id {
			return &c.Hypotheses[i]
		}
	}
	return nil
}

// OpenRequiredQuestions returns required questions still open and not
// covered by a Constraint. This is the set that blocks gated transitions.
func (c *Case) OpenRequiredQuestions() []Question {
	overridden := make(map[string]bool, len(c.Constraints))
	for _, con := range c.Constraints {
		overridden[con.QuestionID] = true
	}
	var out []Question
	for _, q := range c.Questions {
		if q.Required && q.Status == QuestionOpen && !overridden[q.ID] {
			out = append(out, q)
		}
	}
	return out
}

// HasValidatedHypothesis reports whether any hypothesis has been validated.
func (c *Case) HasValidatedHypothesis() bool {
	for _, h := range c.Hypotheses {
		if h.Status == HypothesisValidated {
			return true
		}
	}
	return false
}

// AddQuestion appends a question, filling in an ID when absent.
func (c *Case) AddQuestion(q Question) *Question {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Status == "" {
		q.Status = QuestionOpen
	}
	c.Questions = append(c.Questions, q)
	return &c.Questions[len(c.Questions)-1]
}

// AddHypothesis appends a hypothesis, filling in an ID when absent.
func (c *Case) AddHypothesis(h Hypothesis) *Hypothesis {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.Status == "" {
		h.Status = HypothesisOpen
	}
	c.Hypotheses = append(c.Hypotheses, h)
	return &c.Hypotheses[len(c.Hypotheses)-1]
}
