package casefile

import "time"

// EventType is the closed set of audit event kinds.
type EventType string

const (
	EventCaseCreated       EventType = "case_created"
	EventStateTransition   EventType = "state_transition"
	EventTransitionBlocked EventType = "transition_blocked"
	EventQuestionAnswered  EventType = "question_answered"
	EventQuestionSkipped   EventType = "question_skipped"
	EventAgentAction       EventType = "agent_action"
	EventEvidenceAdded     EventType = "evidence_added"
	EventConstraintAdded   EventType = "constraint_added"
	EventScopeGenerated    EventType = "scope_generated"
	EventTemplateApplied   EventType = "template_applied"
	EventClassified        EventType = "classified"
)

// CaseEvent is one immutable entry in a case's audit trail. Events are
// appended, never mutated or deleted.
type CaseEvent struct {
	Type      EventType `json:"type"`
	Actor     string    `json:"actor"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent builds a timestamped event.
func NewEvent(typ EventType, actor, detail string) CaseEvent {
	return CaseEvent{Type: typ, Actor: actor, Detail: detail, Timestamp: time.Now().UTC()}
}
