package casefile

import (
	"testing"
)

func TestNewStartsAtIntake(t *testing.T) {
	c := New("broken login", "users sign in", "users get a 500")
	if c.State != StateIntake {
		t.Errorf("state: %s", c.State)
	}
	if c.ID == "" {
		t.Error("no id assigned")
	}
	if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestAddQuestionDefaults(t *testing.T) {
	c := New("t", "e", "a")
	q := c.AddQuestion(Question{Prompt: "what version?"})
	if q.ID == "" {
		t.Error("id not filled in")
	}
	if q.Status != QuestionOpen {
		t.Errorf("status: %s", q.Status)
	}

	// An explicit ID and status survive.
	q2 := c.AddQuestion(Question{ID: "q-fixed", Prompt: "x", Status: QuestionSkipped})
	if q2.ID != "q-fixed" || q2.Status != QuestionSkipped {
		t.Errorf("explicit fields overridden: %s %s", q2.ID, q2.Status)
	}
}

func TestOpenRequiredQuestions(t *testing.T) {
	c := New("t", "e", "a")
	req := c.AddQuestion(Question{Prompt: "required and open", Required: true})
	c.AddQuestion(Question{Prompt: "optional and open"})
	answered := c.AddQuestion(Question{Prompt: "required and answered", Required: true})
	answered.Status = QuestionAnswered
	skipped := c.AddQuestion(Question{Prompt: "required and skipped", Required: true})
	skipped.Status = QuestionSkipped
	constrained := c.AddQuestion(Question{Prompt: "required but overridden", Required: true})
	c.Constraints = append(c.Constraints, Constraint{
		ID: "con1", QuestionID: constrained.ID,
		Reason: ReasonInfoUnavailable, Description: "source system was decommissioned",
	})

	open := c.OpenRequiredQuestions()
	if len(open) != 1 {
		t.Fatalf("open required: %d, want 1", len(open))
	}
	if open[0].ID != req.ID {
		t.Errorf("wrong question: %s", open[0].Prompt)
	}
}

func TestHasValidatedHypothesis(t *testing.T) {
	c := New("t", "e", "a")
	if c.HasValidatedHypothesis() {
		t.Error("empty case reports a validated hypothesis")
	}
	h := c.AddHypothesis(Hypothesis{Description: "disk full"})
	c.AddHypothesis(Hypothesis{Description: "dns", Status: HypothesisDisproven})
	if c.HasValidatedHypothesis() {
		t.Error("no hypothesis is validated yet")
	}
	h.Status = HypothesisValidated
	if !c.HasValidatedHypothesis() {
		t.Error("validated hypothesis not seen")
	}
}

func TestLookupByID(t *testing.T) {
	c := New("t", "e", "a")
	q := c.AddQuestion(Question{Prompt: "p"})
	h := c.AddHypothesis(Hypothesis{Description: "d"})

	if got := c.Question(q.ID); got == nil || got.Prompt != "p" {
		t.Error("question lookup failed")
	}
	if got := c.Hypothesis(h.ID); got == nil || got.Description != "d" {
		t.Error("hypothesis lookup failed")
	}
	if c.Question("missing") != nil || c.Hypothesis("missing") != nil {
		t.Error("missing lookup returned a value")
	}

	// Lookups return live pointers into the case.
	c.Question(q.ID).Status = QuestionAnswered
	if c.Questions[0].Status != QuestionAnswered {
		t.Error("mutation through lookup pointer lost")
	}
}

func TestSetScopeArchivesPreviousVersion(t *testing.T) {
	c := New("t", "e", "a")
	c.SetScope(&ProblemScope{Summary: "first pass"})
	if c.Scope.Version != 1 {
		t.Fatalf("version: %d", c.Scope.Version)
	}
	if len(c.Scope.History) != 0 {
		t.Fatalf("fresh scope has history: %d", len(c.Scope.History))
	}

	c.SetScope(&ProblemScope{Summary: "second pass"})
	c.SetScope(&ProblemScope{Summary: "third pass"})

	if c.Scope.Version != 3 {
		t.Errorf("version: %d", c.Scope.Version)
	}
	if c.Scope.Summary != "third pass" {
		t.Errorf("summary: %q", c.Scope.Summary)
	}
	if len(c.Scope.History) != 2 {
		t.Fatalf("history: %d", len(c.Scope.History))
	}
	if c.Scope.History[0].Summary != "first pass" || c.Scope.History[1].Summary != "second pass" {
		t.Error("history order wrong")
	}

	// nil is ignored, never installed.
	c.SetScope(nil)
	if c.Scope == nil || c.Scope.Version != 3 {
		t.Error("nil scope clobbered the current one")
	}
}
