// Package agent is the supervised autonomous runtime: a persisted,
// resumable session bound to one case, and the runner that drives it
// under hard safety limits. The runner speaks the same transition and
// gate vocabulary as the orchestrator; it never moves a case to a state
// the lifecycle package would not approve.
package agent

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fathom/internal/casefile"
	"fathom/internal/consult"
	"fathom/internal/template"
)

// Status is the session lifecycle. A session is terminal once it leaves
// active/paused.
type Status string

const (
	StatusActive     Status = "active"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusTerminated Status = "terminated"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status permits no further iterations.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusTerminated || s == StatusFailed
}

// Personality is derived once at session creation: what the agent is
// specialized in and the plan it mirrors from the case.
type Personality struct {
	Specialization string   `json:"specialization"`
	DomainTerms    []string `json:"domain_terms,omitempty"`
	Plan           []string `json:"plan,omitempty"`
	Theories       []string `json:"theories,omitempty"`
}

// HistoryEntry is one ordered entry in the session conversation log.
type HistoryEntry struct {
	Role      string    `json:"role"` // "agent", "system", "approver"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is the session's working snapshot of its case plus the full
// conversation history. Resume must restore it bit-for-bit.
type Context struct {
	EvidenceIDs       []string       `json:"evidence_ids,omitempty"`
	AnsweredQuestions []string       `json:"answered_questions,omitempty"`
	Hypotheses        []string       `json:"hypotheses,omitempty"`
	PendingEvidence   []string       `json:"pending_evidence,omitempty"`
	History           []HistoryEntry `json:"history,omitempty"`
}

// Config carries the safety limits. DeniedActions is a closed enumeration
// of action kinds this session must never dispatch; it is checked as an
// enum before dispatch, not as a substring of free text.
type Config struct {
	MaxIterations  int                  `json:"max_iterations"`
	MaxDuration    time.Duration        `json:"max_duration"`
	AutoApprove    bool                 `json:"auto_approve"`
	DeniedActions  []consult.ActionKind `json:"denied_actions,omitempty"`
	ErrorThreshold int                  `json:"error_threshold"`
}

// DefaultConfig returns the stock safety limits.
func DefaultConfig() Config {
	return Config{
		MaxIterations:  50,
		MaxDuration:    30 * time.Minute,
		AutoApprove:    false,
		ErrorThreshold: 5,
	}
}

// Metrics is updated every iteration and persisted with the session.
type Metrics struct {
	Iterations        int       `json:"iterations"`
	StartTime         time.Time `json:"start_time"`
	QuestionsAnswered int       `json:"questions_answered"`
	HypothesesTested  int       `json:"hypotheses_tested"`
	StateTransitions  int       `json:"state_transitions"`
	ErrorsEncountered int       `json:"errors_encountered"`
}

// Session is the persisted execution context.
type Session struct {
	ID          string      `json:"id"`
	CaseID      string      `json:"case_id"`
	Status      Status      `json:"status"`
	Personality Personality `json:"personality"`
	Context     Context     `json:"context"`
	Config      Config      `json:"config"`
	Metrics     Metrics     `json:"metrics"`
	StartedAt   time.Time   `json:"started_at"`
}

// CreateSession derives a session from the case (and template, when one
// seeded the case). The investigation plan mirrors the case's questions
// and the working theories mirror its hypotheses.
func CreateSession(c *casefile.Case, tpl *template.Template, cfg Config) *Session {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = DefaultConfig().MaxDuration
	}
	if cfg.ErrorThreshold <= 0 {
		cfg.ErrorThreshold = DefaultConfig().ErrorThreshold
	}

	p := Personality{
		Specialization: fmt.Sprintf("troubleshooting: %s", c.Title),
	}
	if c.Classification != "" {
		p.Specialization = fmt.Sprintf("troubleshooting %s cases", c.Classification)
	}
	if tpl != nil {
		p.Specialization = fmt.Sprintf("troubleshooting %s cases", tpl.Name)
		p.DomainTerms = append(p.DomainTerms, tpl.Keywords...)
	}
	if c.Scope != nil {
		p.DomainTerms = append(p.DomainTerms, c.Scope.AffectedComponents...)
	}
	for _, q := range c.Questions {
		p.Plan = append(p.Plan, q.Prompt)
	}
	for _, h := range c.Hypotheses {
		p.Theories = append(p.Theories, h.Description)
	}

	sess := &Session{
		ID:          uuid.NewString(),
		CaseID:      c.ID,
		Status:      StatusActive,
		Personality: p,
		Config:      cfg,
		StartedAt:   time.Now().UTC(),
	}
	sess.Metrics.StartTime = sess.StartedAt
	for _, e := range c.Evidence {
		sess.Context.EvidenceIDs = append(sess.Context.EvidenceIDs, e.ID)
	}
	for _, q := range c.Questions {
		if q.Status == casefile.QuestionAnswered {
			sess.Context.AnsweredQuestions = append(sess.Context.AnsweredQuestions, q.ID)
		}
	}
	for _, h := range c.Hypotheses {
		sess.Context.Hypotheses = append(sess.Context.Hypotheses, h.ID)
	}
	return sess
}

// record appends one conversation entry.
func (s *Session) record(role, content string) {
	s.Context.History = append(s.Context.History, HistoryEntry{
		Role: role, Content: content, Timestamp: time.Now().UTC(),
	})
}

// Pause moves an active session to paused. Takes effect for a running
// loop at its next iteration boundary.
func (s *Session) Pause() error {
	if s.Status != StatusActive {
		return fmt.Errorf("cannot pause session in status %s", s.Status)
	}
	s.Status = StatusPaused
	return nil
}

// Resume moves a paused session back to active. Conversation history and
// metrics are untouched; the loop picks up exactly where it stopped.
func (s *Session) Resume() error {
	if s.Status != StatusPaused {
		return fmt.Errorf("cannot resume session in status %s", s.Status)
	}
	s.Status = StatusActive
	return nil
}

// Terminate ends the session from any non-terminal status. Irreversible.
func (s *Session) Terminate() error {
	if s.Status.Terminal() {
		return fmt.Errorf("session already %s", s.Status)
	}
	s.Status = StatusTerminated
	return nil
}
