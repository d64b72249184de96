package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"fathom/internal/agent"
	"fathom/internal/casefile"
)

// each test runs against both implementations
func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqls, err := Open(filepath.Join(t.TempDir(), "fathom.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqls.Close() })
	return map[string]Store{
		"sqlite": sqls,
		"mem":    NewMemStore(),
	}
}

func testCase(title string) *casefile.Case {
	c := casefile.New(title, "it works", "it does not work")
	c.AddQuestion(casefile.Question{Prompt: "when did it start?", Required: true})
	c.AddHypothesis(casefile.Hypothesis{Description: "bad deploy"})
	return c
}

func TestCaseRoundTrip(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := testCase("roundtrip")
			if err := st.CreateCase(want); err != nil {
				t.Fatalf("create: %v", err)
			}
			got, err := st.LoadCase(want.ID)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("case mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadMissingCase(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := st.LoadCase("nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("error: %v, want ErrNotFound", err)
			}
			if err := st.SaveCase(testCase("never created")); !errors.Is(err, ErrNotFound) {
				t.Errorf("save error: %v, want ErrNotFound", err)
			}
			if err := st.AppendEvent("nope", casefile.EventAgentAction, "d", "a"); !errors.Is(err, ErrNotFound) {
				t.Errorf("append error: %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSaveCasePersistsMutations(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := testCase("mutate")
			if err := st.CreateCase(c); err != nil {
				t.Fatal(err)
			}
			c.State = casefile.StatePlan
			c.Classification = "service-outage"
			c.Question(c.Questions[0].ID).Status = casefile.QuestionAnswered
			if err := st.SaveCase(c); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := st.LoadCase(c.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.State != casefile.StatePlan {
				t.Errorf("state: %s", got.State)
			}
			if got.Classification != "service-outage" {
				t.Errorf("classification: %q", got.Classification)
			}
			if got.Questions[0].Status != casefile.QuestionAnswered {
				t.Error("question mutation lost")
			}
		})
	}
}

// The event log is append-only and owned by AppendEvent: overwriting the
// case snapshot, even with a stale copy carrying no events, must never
// lose appended history.
func TestEventsSurviveSnapshotOverwrite(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := testCase("history")
			if err := st.CreateCase(c); err != nil {
				t.Fatal(err)
			}
			if err := st.AppendEvent(c.ID, casefile.EventCaseCreated, "opened", "human"); err != nil {
				t.Fatal(err)
			}
			if err := st.AppendEvent(c.ID, casefile.EventStateTransition, "intake -> normalize", "orchestrator"); err != nil {
				t.Fatal(err)
			}

			stale, err := st.LoadCase(c.ID)
			if err != nil {
				t.Fatal(err)
			}
			stale.Events = nil
			stale.Title = "history (edited)"
			if err := st.SaveCase(stale); err != nil {
				t.Fatal(err)
			}

			if err := st.AppendEvent(c.ID, casefile.EventAgentAction, "answered q1", "agent:x"); err != nil {
				t.Fatal(err)
			}

			got, err := st.LoadCase(c.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.Title != "history (edited)" {
				t.Errorf("snapshot edit lost: %q", got.Title)
			}
			wantTypes := []casefile.EventType{
				casefile.EventCaseCreated,
				casefile.EventStateTransition,
				casefile.EventAgentAction,
			}
			if len(got.Events) != len(wantTypes) {
				t.Fatalf("events: %d, want %d", len(got.Events), len(wantTypes))
			}
			for i, want := range wantTypes {
				if got.Events[i].Type != want {
					t.Errorf("event[%d]: %s, want %s", i, got.Events[i].Type, want)
				}
			}
		})
	}
}

func TestCreateCaseDuplicateID(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := testCase("dup")
			if err := st.CreateCase(c); err != nil {
				t.Fatal(err)
			}
			if err := st.CreateCase(c); err == nil {
				t.Error("duplicate id accepted")
			}
		})
	}
}

func TestListCasesOrderedByCreation(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			older := testCase("older")
			older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			newer := testCase("newer")
			newer.CreatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
			// insert newest first to make the ordering do the work
			if err := st.CreateCase(newer); err != nil {
				t.Fatal(err)
			}
			if err := st.CreateCase(older); err != nil {
				t.Fatal(err)
			}
			got, err := st.ListCases()
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 2 {
				t.Fatalf("cases listed: %d", len(got))
			}
			if got[0].Title != "older" || got[1].Title != "newer" {
				t.Errorf("order: %q, %q", got[0].Title, got[1].Title)
			}
		})
	}
}

func TestSessionRoundTripAndUpsert(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := testCase("owning case")
			if err := st.CreateCase(c); err != nil {
				t.Fatal(err)
			}
			sess := agent.CreateSession(c, nil, agent.Config{})
			if err := st.SaveSession(sess); err != nil {
				t.Fatalf("save session: %v", err)
			}

			sess.Metrics.Iterations = 4
			if err := sess.Pause(); err != nil {
				t.Fatal(err)
			}
			if err := st.SaveSession(sess); err != nil {
				t.Fatalf("upsert session: %v", err)
			}

			got, err := st.LoadSession(sess.ID)
			if err != nil {
				t.Fatalf("load session: %v", err)
			}
			if diff := cmp.Diff(sess, got); diff != "" {
				t.Errorf("session mismatch (-want +got):\n%s", diff)
			}

			all, err := st.ListSessions()
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 1 {
				t.Errorf("sessions listed: %d", len(all))
			}

			if _, err := st.LoadSession("missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("missing session error: %v", err)
			}
		})
	}
}
