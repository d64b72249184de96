package consult

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"fathom/internal/casefile"
)

const plainSuggestions = `Classification: config-error
Reasoning: the failure started right after a config push
Hypotheses:
- stale ConfigMap mounted by the deployment
- sidecar started before the mesh was ready
Questions:
- Which revision was rolled out? (required)
- Who approved the change?
`

const emphasizedSuggestions = `**Classification:** config-error
**Reasoning:** the failure started right after a config push
**Hypotheses:**
- stale ConfigMap mounted by the deployment
- sidecar started before the mesh was ready
**Questions:**
- Which revision was rolled out? (required)
- Who approved the change?
`

func TestParseSuggestionsBothVariants(t *testing.T) {
	want := &Suggestions{
		Classification: "config-error",
		Reasoning:      "the failure started right after a config push",
		Hypotheses: []string{
			"stale ConfigMap mounted by the deployment",
			"sidecar started before the mesh was ready",
		},
		Questions: []QuestionSuggestion{
			{Prompt: "Which revision was rolled out?", Required: true},
			{Prompt: "Who approved the change?"},
		},
	}
	for name, text := range map[string]string{"plain": plainSuggestions, "emphasized": emphasizedSuggestions} {
		got := ParseSuggestions(text)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s variant mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestParseScopeDraftBothVariants(t *testing.T) {
	plain := `Summary: intermittent 502s from the gateway
Error Patterns:
- upstream connect error
Affected Components:
- api-gateway
Timeframe: since the 14:00 deploy
Impact: checkout unavailable for ~5% of requests
Evidence Summary: gateway logs show resets`
	emphasized := `**Summary:** intermittent 502s from the gateway
**Error Patterns:**
- upstream connect error
**Affected Components:**
- api-gateway
**Timeframe:** since the 14:00 deploy
**Impact:** checkout unavailable for ~5% of requests
**Evidence Summary:** gateway logs show resets`

	want := &ScopeDraft{
		Summary:            "intermittent 502s from the gateway",
		ErrorPatterns:      []string{"upstream connect error"},
		AffectedComponents: []string{"api-gateway"},
		Timeframe:          "since the 14:00 deploy",
		Impact:             "checkout unavailable for ~5% of requests",
		EvidenceSummary:    "gateway logs show resets",
	}
	for name, text := range map[string]string{"plain": plain, "emphasized": emphasized} {
		got := ParseScopeDraft(text)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s variant mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestParseExtractionNotFound(t *testing.T) {
	for _, text := range []string{"Answer: NOT_FOUND", "**Answer:** NOT_FOUND", "Answer: not_found"} {
		got := ParseExtraction(text)
		if got.Found {
			t.Errorf("ParseExtraction(%q).Found = true", text)
		}
	}
}

func TestParseExtractionFound(t *testing.T) {
	got := ParseExtraction(`Answer: version 4.14.2
Confidence: high
Evidence:
- ev-123`)
	if !got.Found || got.Answer != "version 4.14.2" || got.Confidence != ConfidenceHigh {
		t.Errorf("extraction: %+v", got)
	}
	if len(got.EvidenceIDs) != 1 || got.EvidenceIDs[0] != "ev-123" {
		t.Errorf("evidence ids: %v", got.EvidenceIDs)
	}
}

func TestParseExtractionBadConfidenceDefaultsLow(t *testing.T) {
	got := ParseExtraction("Answer: maybe\nConfidence: certain")
	if got.Confidence != ConfidenceLow {
		t.Errorf("confidence: %s", got.Confidence)
	}
}

func TestParseActionTransition(t *testing.T) {
	a := ParseAction(`Action: transition-state
Reasoning: plan is ready
Target_State: execute`)
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if a.Kind != ActionTransitionState || a.TargetState != casefile.StateExecute {
		t.Errorf("action: %+v", a)
	}
}

func TestParseActionUnknownKindRejected(t *testing.T) {
	a := ParseAction("Action: delete-everything\nReasoning: faster")
	if err := a.Validate(); err == nil {
		t.Fatal("unknown action kind validated")
	}
}

func TestValidatePayloadSchemas(t *testing.T) {
	tests := []struct {
		name   string
		action ProposedAction
		ok     bool
	}{
		{"answer ok", ProposedAction{Kind: ActionAnswerQuestion, QuestionID: "q1", Answer: "x"}, true},
		{"answer missing id", ProposedAction{Kind: ActionAnswerQuestion, Answer: "x"}, false},
		{"test ok", ProposedAction{Kind: ActionTestHypothesis, HypothesisID: "h1", HypothesisStatus: casefile.HypothesisDisproven}, true},
		{"test open status", ProposedAction{Kind: ActionTestHypothesis, HypothesisID: "h1", HypothesisStatus: casefile.HypothesisOpen}, false},
		{"evidence ok", ProposedAction{Kind: ActionRequestEvidence, EvidenceNeeded: "gc logs"}, true},
		{"transition missing target", ProposedAction{Kind: ActionTransitionState}, false},
	}
	for _, tt := range tests {
		err := tt.action.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
