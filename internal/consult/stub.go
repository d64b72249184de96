package consult

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fathom/internal/casefile"
)

// StubConsultant returns deterministic suggestions derived from the case
// text. It validates the orchestration and agent machinery without LLM
// variance, and serves offline runs. Thread-safe: the action script is
// protected by a mutex.
type StubConsultant struct {
	mu      sync.Mutex
	actions []*ProposedAction // scripted actions, consumed in order
	Fail    bool              // when set, every call returns ErrUnavailable
}

// NewStub returns a stub with no scripted actions.
func NewStub() *StubConsultant { return &StubConsultant{} }

// Script appends actions for ProposeAction to return in order.
func (s *StubConsultant) Script(actions ...*ProposedAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, actions...)
}

func (s *StubConsultant) Analyze(_ context.Context, c *casefile.Case, _ Mode) (*Suggestions, error) {
	if s.Fail {
		return nil, ErrUnavailable
	}
	sug := &Suggestions{
		Reasoning: fmt.Sprintf("deterministic analysis of %q at %s", c.Title, c.State),
	}
	// One hypothesis per error-looking token in the problem statement,
	// only while the case has none.
	if len(c.Hypotheses) == 0 {
		for _, kw := range []string{"timeout", "crash", "oom", "connection", "permission"} {
			if strings.Contains(strings.ToLower(c.Actual), kw) {
				sug.Hypotheses = append(sug.Hypotheses,
					fmt.Sprintf("failure is driven by a %s condition", kw))
			}
		}
		if len(sug.Hypotheses) == 0 {
			sug.Hypotheses = []string{"behavior diverges from expectation due to a recent change"}
		}
	}
	if c.Classification == "" && c.State == casefile.StateClassify {
		sug.Classification = "unclassified-incident"
	}
	return sug, nil
}

func (s *StubConsultant) RemediationPlan(_ context.Context, c *casefile.Case, findings []string) (string, error) {
	if s.Fail {
		return "", ErrUnavailable
	}
	var b strings.Builder
	b.WriteString("Root Cause: ")
	if c.HasValidatedHypothesis() {
		for _, h := range c.Hypotheses {
			if h.Status == casefile.HypothesisValidated {
				b.WriteString(h.Description)
				break
			}
		}
	} else {
		b.WriteString("not yet validated")
	}
	b.WriteString("\nImmediate Actions:\n- review validated hypotheses\nVerification Steps:\n- re-run the failing scenario\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "- confirm: %s\n", f)
	}
	return b.String(), nil
}

func (s *StubConsultant) ScopeDraft(_ context.Context, c *casefile.Case, _, feedback string) (*ScopeDraft, error) {
	if s.Fail {
		return nil, ErrUnavailable
	}
	summary := fmt.Sprintf("Investigation of %q: expected %s, observed %s.", c.Title, c.Expected, c.Actual)
	if feedback != "" {
		summary += " Revised per feedback: " + feedback
	}
	return &ScopeDraft{Summary: summary, Impact: "under assessment"}, nil
}

func (s *StubConsultant) ExtractAnswer(_ context.Context, _ *casefile.Case, q casefile.Question, evidenceText string) (*ExtractedAnswer, error) {
	if s.Fail {
		return nil, ErrUnavailable
	}
	// Found only when a keyword of the question appears in the evidence.
	for _, word := range strings.Fields(strings.ToLower(q.Prompt)) {
		if len(word) >= 4 && strings.Contains(strings.ToLower(evidenceText), word) {
			return &ExtractedAnswer{
				Found:      true,
				Answer:     fmt.Sprintf("see evidence mentioning %q", word),
				Confidence: ConfidenceMedium,
			}, nil
		}
	}
	return &ExtractedAnswer{Found: false}, nil
}

func (s *StubConsultant) ProposeAction(_ context.Context, req *ActionRequest) (*ProposedAction, error) {
	if s.Fail {
		return nil, ErrUnavailable
	}
	s.mu.Lock()
	if len(s.actions) > 0 {
		a := s.actions[0]
		s.actions = s.actions[1:]
		s.mu.Unlock()
		return a, nil
	}
	s.mu.Unlock()

	// Unscripted default: answer the first open question, else test the
	// first open hypothesis, else ask for evidence.
	c := req.Case
	for _, q := range c.Questions {
		if q.Status == casefile.QuestionOpen {
			return &ProposedAction{
				Kind:       ActionAnswerQuestion,
				QuestionID: q.ID,
				Answer:     "answered by stub from case context",
				Reasoning:  "open question blocks progress",
			}, nil
		}
	}
	for _, h := range c.Hypotheses {
		if h.Status == casefile.HypothesisOpen {
			return &ProposedAction{
				Kind:             ActionTestHypothesis,
				HypothesisID:     h.ID,
				HypothesisStatus: casefile.HypothesisValidated,
				Reasoning:        "first open theory",
			}, nil
		}
	}
	return &ProposedAction{
		Kind:           ActionRequestEvidence,
		EvidenceNeeded: "logs covering the failure window",
		Reasoning:      "nothing left to do without more evidence",
	}, nil
}

var _ Consultant = (*StubConsultant)(nil)
