package mcp

import (
	"context"
	"strings"
	"testing"

	"fathom/internal/casefile"
	"fathom/internal/consult"
	"fathom/internal/orchestrate"
	"fathom/internal/store"
)

func testServer(t *testing.T) (*Server, *casefile.Case) {
	t.Helper()
	st := store.NewMemStore()
	stub := consult.NewStub()
	srv := NewServer(st, orchestrate.New(st, stub, nil), stub)

	c := casefile.New("stuck deployments", "deploys roll out", "deploys hang at 50%")
	if err := st.CreateCase(c); err != nil {
		t.Fatal(err)
	}
	return srv, c
}

func TestListCases(t *testing.T) {
	srv, c := testServer(t)

	_, out, err := srv.handleListCases(context.Background(), nil, listCasesInput{})
	if err != nil {
		t.Fatalf("list_cases: %v", err)
	}
	if out.Total != 1 || len(out.Cases) != 1 {
		t.Fatalf("total: %d", out.Total)
	}
	if out.Cases[0].ID != c.ID || out.Cases[0].State != "intake" {
		t.Errorf("summary: %+v", out.Cases[0])
	}
}

func TestCaseStatusReportsGateState(t *testing.T) {
	srv, c := testServer(t)
	c.AddQuestion(casefile.Question{Prompt: "which cluster?", Required: true})
	if err := srv.Store.SaveCase(c); err != nil {
		t.Fatal(err)
	}

	_, out, err := srv.handleCaseStatus(context.Background(), nil, caseStatusInput{CaseID: c.ID})
	if err != nil {
		t.Fatalf("case_status: %v", err)
	}
	if out.OpenRequired != 1 {
		t.Errorf("open required: %d", out.OpenRequired)
	}
	if out.RecommendedState != "normalize" {
		t.Errorf("recommended: %q", out.RecommendedState)
	}
	if len(out.Questions) != 1 || out.Questions[0].Prompt != "which cluster?" {
		t.Errorf("questions: %+v", out.Questions)
	}
}

func TestCaseNextSurfacesGateRejection(t *testing.T) {
	srv, c := testServer(t)
	c.AddQuestion(casefile.Question{Prompt: "which cluster?", Required: true})
	if err := srv.Store.SaveCase(c); err != nil {
		t.Fatal(err)
	}

	_, _, err := srv.handleCaseNext(context.Background(), nil, caseNextInput{CaseID: c.ID})
	if err == nil {
		t.Fatal("blocked gate produced no error")
	}
	if !strings.Contains(err.Error(), "transition rejected") {
		t.Errorf("error: %v", err)
	}
}

func TestCaseNextAdvancesToPlan(t *testing.T) {
	srv, c := testServer(t)

	_, out, err := srv.handleCaseNext(context.Background(), nil, caseNextInput{CaseID: c.ID})
	if err != nil {
		t.Fatalf("case_next: %v", err)
	}
	if out.State != "plan" || !out.AutoProgressed {
		t.Errorf("output: %+v", out)
	}
	if out.Report == "" {
		t.Error("no report at the Plan checkpoint")
	}
}

func TestAnswerQuestionResumesCase(t *testing.T) {
	srv, c := testServer(t)
	q := c.AddQuestion(casefile.Question{Prompt: "ticket number?", Required: true})
	c.State = casefile.StatePendingExternal
	if err := srv.Store.SaveCase(c); err != nil {
		t.Fatal(err)
	}

	_, out, err := srv.handleAnswerQuestion(context.Background(), nil, answerQuestionInput{
		CaseID: c.ID, QuestionID: q.ID, Answer: "EXT-42",
	})
	if err != nil {
		t.Fatalf("answer_question: %v", err)
	}
	if out.State != "plan" {
		t.Errorf("state after answer: %q", out.State)
	}
}

func TestAgentRunBoundedIterations(t *testing.T) {
	srv, c := testServer(t)
	stored, _ := srv.Store.LoadCase(c.ID)
	stored.AddQuestion(casefile.Question{Prompt: "what changed recently?"})
	if err := srv.Store.SaveCase(stored); err != nil {
		t.Fatal(err)
	}

	_, out, err := srv.handleAgentRun(context.Background(), nil, agentRunInput{
		CaseID: c.ID, MaxIterations: 2, AutoApprove: true,
	})
	if err != nil {
		t.Fatalf("agent_run: %v", err)
	}
	if out.Status != "completed" {
		t.Errorf("status: %q (%s)", out.Status, out.Reason)
	}
	if out.Iterations != 2 {
		t.Errorf("iterations: %d", out.Iterations)
	}
	if out.SessionID == "" {
		t.Error("no session id returned")
	}

	sessions, err := srv.Store.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Errorf("sessions persisted: %d", len(sessions))
	}
}
