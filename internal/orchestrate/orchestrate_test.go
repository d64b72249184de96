package orchestrate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fathom/internal/casefile"
	"fathom/internal/consult"
	"fathom/internal/lifecycle"
	"fathom/internal/store"
)

func fixture(t *testing.T) (*Orchestrator, *store.MemStore, *consult.StubConsultant, *casefile.Case) {
	t.Helper()
	st := store.NewMemStore()
	stub := consult.NewStub()
	o := New(st, stub, nil)
	c := casefile.New("api timeouts", "requests complete", "requests timeout after 30s")
	if err := st.CreateCase(c); err != nil {
		t.Fatal(err)
	}
	return o, st, stub, c
}

func TestNextAutoProgressesToPlan(t *testing.T) {
	o, st, _, c := fixture(t)

	res, err := o.Next(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if res.State != casefile.StatePlan {
		t.Errorf("final state: %s, want plan", res.State)
	}
	if !res.AutoProgressed {
		t.Error("AutoProgressed = false")
	}
	if res.Report == "" {
		t.Error("no report produced at Plan checkpoint")
	}
	if !strings.Contains(res.Report, "Remediation Plan") {
		t.Errorf("report missing remediation section:\n%s", res.Report)
	}

	got, err := st.LoadCase(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != casefile.StatePlan {
		t.Errorf("persisted state: %s", got.State)
	}
	// intake -> normalize -> classify -> plan
	transitions := 0
	for _, e := range got.Events {
		if e.Type == casefile.EventStateTransition {
			transitions++
		}
		if e.Type == casefile.EventTransitionBlocked {
			t.Errorf("unexpected blocked event: %s", e.Detail)
		}
	}
	if transitions != 3 {
		t.Errorf("state transitions: %d, want 3", transitions)
	}
}

func TestNextFailsOnBlockedGateWithVerbatimReason(t *testing.T) {
	o, st, _, c := fixture(t)
	c.AddQuestion(casefile.Question{Prompt: "which region?", Required: true})
	if err := st.SaveCase(c); err != nil {
		t.Fatal(err)
	}

	_, err := o.Next(context.Background(), c.ID)
	if err == nil {
		t.Fatal("Next succeeded past a blocked gate")
	}
	var gateErr *lifecycle.GateError
	if !errors.As(err, &gateErr) {
		t.Fatalf("error type: %T (%v)", err, err)
	}
	if !strings.Contains(gateErr.Reason, "1 required question(s)") {
		t.Errorf("reason: %q", gateErr.Reason)
	}

	got, _ := st.LoadCase(c.ID)
	if got.State != casefile.StateIntake {
		t.Errorf("state moved despite block: %s", got.State)
	}
	blocked := false
	for _, e := range got.Events {
		if e.Type == casefile.EventTransitionBlocked {
			blocked = true
		}
	}
	if !blocked {
		t.Error("no TransitionBlocked event recorded")
	}
}

func TestNextStopsAtPlanCheckpoint(t *testing.T) {
	o, st, _, c := fixture(t)
	c.State = casefile.StatePlan
	if err := st.SaveCase(c); err != nil {
		t.Fatal(err)
	}

	res, err := o.Next(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if res.AutoProgressed {
		t.Error("progressed past the Plan checkpoint")
	}
	if res.State != casefile.StatePlan {
		t.Errorf("state: %s", res.State)
	}
}

func TestNextConsultationMergesSuggestions(t *testing.T) {
	o, st, _, c := fixture(t)

	if _, err := o.Next(context.Background(), c.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := st.LoadCase(c.ID)
	if len(got.Hypotheses) == 0 {
		t.Error("no hypotheses merged from consultation")
	}
	if got.Classification == "" {
		t.Error("classification not set during auto-progression")
	}
}

func TestNextClassificationFirstWins(t *testing.T) {
	o, st, _, c := fixture(t)
	c.Classification = "human-label"
	if err := st.SaveCase(c); err != nil {
		t.Fatal(err)
	}

	if _, err := o.Next(context.Background(), c.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := st.LoadCase(c.ID)
	if got.Classification != "human-label" {
		t.Errorf("classification overwritten: %q", got.Classification)
	}
}

func TestNextSurvivesConsultationFailure(t *testing.T) {
	o, _, stub, c := fixture(t)
	stub.Fail = true

	res, err := o.Next(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Next with failing consultant: %v", err)
	}
	if res.State != casefile.StatePlan {
		t.Errorf("state: %s", res.State)
	}
	// The report must still exist, with the deterministic fallback plan.
	if !strings.Contains(res.Report, "no hypothesis has been validated") {
		t.Errorf("fallback plan missing:\n%s", res.Report)
	}
}

func TestNextParksStrictCasePendingExternal(t *testing.T) {
	o, st, _, c := fixture(t)
	c.StrictMode = true
	q := c.AddQuestion(casefile.Question{Prompt: "which region?", Required: true})
	if err := st.SaveCase(c); err != nil {
		t.Fatal(err)
	}

	res, err := o.Next(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if res.State != casefile.StatePendingExternal {
		t.Errorf("state: %s, want pending_external", res.State)
	}
	if !res.AutoProgressed {
		t.Error("AutoProgressed = false")
	}

	got, _ := st.LoadCase(c.ID)
	if got.State != casefile.StatePendingExternal {
		t.Errorf("persisted state: %s", got.State)
	}
	parked := false
	for _, e := range got.Events {
		if e.Type == casefile.EventStateTransition && strings.Contains(e.Detail, "pending_external") {
			parked = true
		}
	}
	if !parked {
		t.Error("no StateTransition event into pending_external")
	}

	// Still parked while the question stays open.
	if _, err := o.Next(context.Background(), c.ID); err == nil {
		t.Fatal("Next advanced a parked case with open required questions")
	}

	// Answering resumes to Plan.
	if err := o.AddAnswer(c.ID, q.ID, "eu-west-1"); err != nil {
		t.Fatalf("AddAnswer: %v", err)
	}
	got, _ = st.LoadCase(c.ID)
	if got.State != casefile.StatePlan {
		t.Errorf("state after answer: %s, want plan", got.State)
	}
}

func TestAddAnswerResumesPendingExternal(t *testing.T) {
	o, st, _, c := fixture(t)
	q := c.AddQuestion(casefile.Question{Prompt: "vendor ticket number?", Required: true})
	c.State = casefile.StatePendingExternal
	if err := st.SaveCase(c); err != nil {
		t.Fatal(err)
	}

	if err := o.AddAnswer(c.ID, q.ID, "VENDOR-123"); err != nil {
		t.Fatalf("AddAnswer: %v", err)
	}
	got, _ := st.LoadCase(c.ID)
	if got.State != casefile.StatePlan {
		t.Errorf("state after answer: %s, want plan", got.State)
	}
	if got.Question(q.ID).Status != casefile.QuestionAnswered {
		t.Error("question not answered")
	}
}

func TestApplyAnswerSuggestionsIdempotent(t *testing.T) {
	o, st, _, c := fixture(t)
	q1 := c.AddQuestion(casefile.Question{Prompt: "version?"})
	q2 := c.AddQuestion(casefile.Question{Prompt: "region?"})
	if err := st.SaveCase(c); err != nil {
		t.Fatal(err)
	}

	batch := []consult.AnswerSuggestion{
		{QuestionID: q1.ID, Answer: "v2.1", Confidence: consult.ConfidenceHigh},
		{QuestionID: q2.ID, Answer: "eu-west-1", Confidence: consult.ConfidenceMedium},
	}

	applied, err := o.ApplyAnswerSuggestions(c.ID, batch)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if applied != 2 {
		t.Errorf("first apply count: %d", applied)
	}

	first, _ := st.LoadCase(c.ID)

	applied, err = o.ApplyAnswerSuggestions(c.ID, batch)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if applied != 0 {
		t.Errorf("second apply count: %d, want 0", applied)
	}

	second, _ := st.LoadCase(c.ID)
	for _, id := range []string{q1.ID, q2.ID} {
		if first.Question(id).Answer != second.Question(id).Answer {
			t.Errorf("answer changed on re-apply for %s", id)
		}
	}
}

func TestAddConstraintRequiresKnownReason(t *testing.T) {
	o, st, _, c := fixture(t)
	q := c.AddQuestion(casefile.Question{Prompt: "exact build?", Required: true})
	if err := st.SaveCase(c); err != nil {
		t.Fatal(err)
	}

	err := o.AddConstraint(c.ID, casefile.Constraint{
		ID: "con1", QuestionID: q.ID, Reason: "because", Description: "x",
	})
	if err == nil {
		t.Fatal("unknown reason accepted")
	}

	if err := o.AddConstraint(c.ID, casefile.Constraint{
		ID: "con1", QuestionID: q.ID,
		Reason:      casefile.ReasonInfoUnavailable,
		Description: "registry purged",
	}); err != nil {
		t.Fatalf("AddConstraint: %v", err)
	}

	got, _ := st.LoadCase(c.ID)
	if len(got.OpenRequiredQuestions()) != 0 {
		t.Error("constraint did not satisfy the gate")
	}
	if got.Constraints[0].CreatedAt.IsZero() {
		t.Error("constraint persisted without a timestamp")
	}
}
