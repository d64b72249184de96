// Package orchestrate drives a case through the lifecycle state machine:
// auto-progressing through low-risk stages, consulting the language-model
// service at each one, and halting at the Plan checkpoint for human
// review. All progress is validated by the lifecycle gates and recorded
// in the case's event log; a blocked transition fails the call with its
// reason rather than being swallowed.
package orchestrate

import (
	"fmt"

	"fathom/internal/casefile"
	"fathom/internal/consult"
	"fathom/internal/evidence"
	"fathom/internal/store"
)

// maxAutoProgressSteps bounds one Next call. The forward chain from
// Intake to Plan is shorter than this; the bound only guards against a
// recommendation cycle.
const maxAutoProgressSteps = 10

// actorOrchestrator is the event-log actor for automated progression.
const actorOrchestrator = "orchestrator"

// Orchestrator owns auto-progression and the human-facing case
// operations. Every operation takes the case ID and reloads state from
// the store; no case is cached across operations.
type Orchestrator struct {
	Store      store.Store
	Consultant consult.Consultant
	Evidence   *evidence.Manager

	// ExtractWorkers bounds the parallel answer-extraction batch.
	ExtractWorkers int
}

// New returns an orchestrator over the given collaborators.
func New(st store.Store, consultant consult.Consultant, ev *evidence.Manager) *Orchestrator {
	return &Orchestrator{Store: st, Consultant: consultant, Evidence: ev, ExtractWorkers: 4}
}

// StepResult is returned by Next.
type StepResult struct {
	State          casefile.State
	Report         string // non-empty only when this call produced the report
	AutoProgressed bool
}

// mergeSuggestions appends new hypotheses and questions from a
// consultation bundle onto the case. Classification is first-wins: a
// label set earlier (by template or human) is never silently replaced.
func mergeSuggestions(c *casefile.Case, sug *consult.Suggestions) {
	for _, h := range sug.Hypotheses {
		if !hasHypothesis(c, h) {
			c.AddHypothesis(casefile.Hypothesis{Description: h})
		}
	}
	for _, q := range sug.Questions {
		if !hasQuestion(c, q.Prompt) {
			c.AddQuestion(casefile.Question{
				Prompt: q.Prompt, Required: q.Required, Guidance: q.Guidance,
			})
		}
	}
	if c.Classification == "" && sug.Classification != "" {
		c.Classification = sug.Classification
	}
}

func hasHypothesis(c *casefile.Case, description string) bool {
	for _, h := range c.Hypotheses {
		if h.Description == description {
			return true
		}
	}
	return false
}

func hasQuestion(c *casefile.Case, prompt string) bool {
	for _, q := range c.Questions {
		if q.Prompt == prompt {
			return true
		}
	}
	return false
}

// resumeFromPending moves a pending-external case back to Plan once no
// required question remains open. The caller persists and records the
// event.
func resumeFromPending(c *casefile.Case) bool {
	if c.State != casefile.StatePendingExternal || len(c.OpenRequiredQuestions()) > 0 {
		return false
	}
	c.State = casefile.StatePlan
	return true
}

// eventDetail formats a transition for the audit log.
func eventDetail(from, to casefile.State) string {
	return fmt.Sprintf("%s -> %s", from, to)
}
