package consult

import (
	"regexp"
	"strings"

	"fathom/internal/casefile"
)

// The consultation service answers in labeled-field text. Two variants
// occur in the wild: plain fields ("Summary: ...") and emphasized fields
// ("**Summary:** ..."). Everything below normalizes both into the same
// structured types; callers never branch on formatting.

// fieldRe matches "Label: value" and "**Label:** value" header lines.
var fieldRe = regexp.MustCompile(`^\s*(?:\*\*)?([A-Za-z][A-Za-z _-]*?)(?:\*\*)?\s*:\s*(.*)$`)

// bulletRe matches "- item" and "* item" list lines.
var bulletRe = regexp.MustCompile(`^\s*[-*]\s+(.*)$`)

// notFoundSentinel is the explicit "cannot answer from evidence" reply.
const notFoundSentinel = "NOT_FOUND"

// fields splits labeled-field text into a map of lowercase label to value,
// where a value is the header remainder plus any following bullet lines.
// Later duplicate labels win, matching how models repeat corrected fields.
func fields(text string) map[string][]string {
	out := make(map[string][]string)
	var current string
	for _, line := range strings.Split(text, "\n") {
		if m := fieldRe.FindStringSubmatch(line); m != nil {
			current = strings.ToLower(strings.TrimSpace(m[1]))
			current = strings.ReplaceAll(current, " ", "_")
			out[current] = nil
			if v := strings.TrimSpace(m[2]); v != "" {
				out[current] = append(out[current], v)
			}
			continue
		}
		if current == "" {
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				out[current] = append(out[current], v)
			}
			continue
		}
		if v := strings.TrimSpace(line); v != "" {
			// Continuation of a prose field.
			if len(out[current]) == 0 {
				out[current] = append(out[current], v)
			} else {
				out[current][len(out[current])-1] += " " + v
			}
		}
	}
	return out
}

func first(f map[string][]string, key string) string {
	if vs := f[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func joined(f map[string][]string, key string) string {
	return strings.Join(f[key], " ")
}

// ParseSuggestions decodes an analysis response. Missing sections yield an
// empty (still valid) bundle.
func ParseSuggestions(text string) *Suggestions {
	f := fields(text)
	s := &Suggestions{
		Classification: first(f, "classification"),
		Reasoning:      joined(f, "reasoning"),
		Hypotheses:     f["hypotheses"],
	}
	for _, q := range f["questions"] {
		prompt, required := splitRequiredMarker(q)
		s.Questions = append(s.Questions, QuestionSuggestion{Prompt: prompt, Required: required})
	}
	return s
}

// splitRequiredMarker strips a trailing "(required)" marker from a
// suggested question.
func splitRequiredMarker(q string) (string, bool) {
	lower := strings.ToLower(q)
	if strings.HasSuffix(lower, "(required)") {
		return strings.TrimSpace(q[:len(q)-len("(required)")]), true
	}
	return q, false
}

// ParseScopeDraft decodes a problem-scope response.
func ParseScopeDraft(text string) *ScopeDraft {
	f := fields(text)
	return &ScopeDraft{
		Summary:            joined(f, "summary"),
		ErrorPatterns:      f["error_patterns"],
		AffectedComponents: f["affected_components"],
		Timeframe:          first(f, "timeframe"),
		Impact:             joined(f, "impact"),
		EvidenceSummary:    joined(f, "evidence_summary"),
	}
}

// ParseExtraction decodes an answer-extraction response. The NOT_FOUND
// sentinel maps to Found=false so the caller drops the entry.
func ParseExtraction(text string) *ExtractedAnswer {
	f := fields(text)
	answer := joined(f, "answer")
	if answer == "" || strings.EqualFold(strings.TrimSpace(answer), notFoundSentinel) {
		return &ExtractedAnswer{Found: false}
	}
	conf := Confidence(strings.ToLower(first(f, "confidence")))
	switch conf {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		conf = ConfidenceLow
	}
	return &ExtractedAnswer{
		Found:       true,
		Answer:      answer,
		Confidence:  conf,
		EvidenceIDs: f["evidence"],
	}
}

// ParseAction decodes an action proposal into the tagged union. The
// returned action is not yet validated; callers must Validate() before
// classifying and dispatching it.
func ParseAction(text string) *ProposedAction {
	f := fields(text)
	a := &ProposedAction{
		Kind:           ActionKind(strings.ToLower(first(f, "action"))),
		Reasoning:      joined(f, "reasoning"),
		QuestionID:     first(f, "question_id"),
		Answer:         joined(f, "answer"),
		HypothesisID:   first(f, "hypothesis_id"),
		EvidenceIDs:    f["evidence"],
		EvidenceNeeded: joined(f, "evidence_needed"),
		TargetState:    casefile.State(strings.ToLower(first(f, "target_state"))),
	}
	switch strings.ToLower(first(f, "hypothesis_status")) {
	case "validated":
		a.HypothesisStatus = casefile.HypothesisValidated
	case "disproven":
		a.HypothesisStatus = casefile.HypothesisDisproven
	}
	return a
}
