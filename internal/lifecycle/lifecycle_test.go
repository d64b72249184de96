package lifecycle

import (
	"strings"
	"testing"

	"fathom/internal/casefile"
)

func newCase() *casefile.Case {
	return casefile.New("pods crashlooping", "pods run", "pods restart every 30s")
}

func TestCanTransitionSameState(t *testing.T) {
	c := newCase()
	d := CanTransition(c, casefile.StateIntake)
	if !d.Allowed {
		t.Errorf("same-state transition blocked: %s", d.Reason)
	}
}

func TestCanTransitionResolveBlockedByRequiredQuestion(t *testing.T) {
	c := newCase()
	c.State = casefile.StateEvaluate
	c.AddQuestion(casefile.Question{ID: "q1", Prompt: "which namespace?", Required: true})
	c.AddHypothesis(casefile.Hypothesis{Description: "OOM kill", Status: casefile.HypothesisValidated})

	d := CanTransition(c, casefile.StateResolve)
	if d.Allowed {
		t.Fatal("resolve allowed with open required question")
	}
	if !strings.Contains(d.Reason, "Required questions are unanswered") {
		t.Errorf("reason: %q", d.Reason)
	}
}

func TestCanTransitionResolveAllowedAfterAnswer(t *testing.T) {
	c := newCase()
	c.State = casefile.StateEvaluate
	q := c.AddQuestion(casefile.Question{Prompt: "which namespace?", Required: true})
	q.Status = casefile.QuestionAnswered
	q.Answer = "prod"

	if d := CanTransition(c, casefile.StateResolve); !d.Allowed {
		t.Errorf("resolve blocked after answer: %s", d.Reason)
	}
}

func TestConstraintSatisfiesRequiredQuestionGate(t *testing.T) {
	c := newCase()
	c.State = casefile.StateEvaluate
	c.AddQuestion(casefile.Question{ID: "q1", Prompt: "exact build?", Required: true})
	c.Constraints = append(c.Constraints, casefile.Constraint{
		ID: "con1", QuestionID: "q1",
		Reason:      casefile.ReasonInfoUnavailable,
		Description: "build metadata was rotated out of the registry",
	})

	if d := CanTransition(c, casefile.StateResolve); !d.Allowed {
		t.Errorf("constraint did not satisfy gate: %s", d.Reason)
	}
}

func TestPendingExternalHoldsWhileRequiredQuestionOpen(t *testing.T) {
	c := newCase()
	c.State = casefile.StatePendingExternal
	q := c.AddQuestion(casefile.Question{Prompt: "vendor ticket number?", Required: true})

	d := CanTransition(c, casefile.StatePlan)
	if d.Allowed {
		t.Fatal("plan allowed while waiting on external input")
	}
	if !strings.Contains(d.Reason, "Waiting on external input") {
		t.Errorf("reason: %q", d.Reason)
	}

	q.Status = casefile.QuestionAnswered
	q.Answer = "VENDOR-123"
	if d := CanTransition(c, casefile.StatePlan); !d.Allowed {
		t.Errorf("plan blocked after answer: %s", d.Reason)
	}
}

func TestPlanToExecuteRequiresHypotheses(t *testing.T) {
	c := newCase()
	c.State = casefile.StatePlan

	d := CanTransition(c, casefile.StateExecute)
	if d.Allowed {
		t.Fatal("plan->execute allowed with no hypotheses")
	}
	if d.Reason != "No hypotheses to test" {
		t.Errorf("reason: %q", d.Reason)
	}

	c.AddHypothesis(casefile.Hypothesis{Description: "config drift"})
	if d := CanTransition(c, casefile.StateExecute); !d.Allowed {
		t.Errorf("plan->execute blocked with hypothesis: %s", d.Reason)
	}
}

func TestIntakeToNormalizeNamesRemedies(t *testing.T) {
	c := newCase()
	c.AddQuestion(casefile.Question{Prompt: "cluster version?", Required: true})
	c.AddQuestion(casefile.Question{Prompt: "when did it start?", Required: true})

	d := CanTransition(c, casefile.StateNormalize)
	if d.Allowed {
		t.Fatal("intake->normalize allowed with open required questions")
	}
	for _, want := range []string{"2 required question(s)", "extract", "answer"} {
		if !strings.Contains(d.Reason, want) {
			t.Errorf("reason %q missing %q", d.Reason, want)
		}
	}
}

func TestRecommendedForwardChain(t *testing.T) {
	chain := []casefile.State{
		casefile.StateIntake, casefile.StateNormalize, casefile.StateClassify,
		casefile.StatePlan, casefile.StateExecute, casefile.StateEvaluate,
	}
	c := newCase()
	for i := 0; i < len(chain)-1; i++ {
		c.State = chain[i]
		if got := Recommended(c); got != chain[i+1] {
			t.Errorf("Recommended(%s) = %s, want %s", chain[i], got, chain[i+1])
		}
	}
}

func TestRecommendedEvaluateBranch(t *testing.T) {
	c := newCase()
	c.State = casefile.StateEvaluate
	c.AddHypothesis(casefile.Hypothesis{ID: "h1", Description: "OOM", Status: casefile.HypothesisDisproven})

	if got := Recommended(c); got != casefile.StatePlan {
		t.Errorf("Recommended(evaluate, no validated) = %s, want plan", got)
	}

	c.Hypotheses[0].Status = casefile.HypothesisValidated
	if got := Recommended(c); got != casefile.StateResolve {
		t.Errorf("Recommended(evaluate, validated) = %s, want resolve", got)
	}
}

func TestRecommendedTerminalAndPending(t *testing.T) {
	c := newCase()
	c.State = casefile.StatePostmortem
	if got := Recommended(c); got != casefile.StatePostmortem {
		t.Errorf("postmortem successor: %s", got)
	}
	if !Terminal(casefile.StatePostmortem) {
		t.Error("postmortem not terminal")
	}

	c.State = casefile.StatePendingExternal
	if got := Recommended(c); got != casefile.StatePlan {
		t.Errorf("pending_external successor: %s, want plan", got)
	}
}
