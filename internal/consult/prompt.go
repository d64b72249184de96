package consult

import (
	"fmt"
	"strings"

	"fathom/internal/casefile"
)

// Prompts instruct the model to answer in labeled fields so the parser in
// parse.go can decode either formatting variant.

const analysisSystemPrompt = `You are a troubleshooting analyst. Study the case and suggest what the
investigation still needs. Reply only with labeled fields:
Classification: <one short label, omit if unsure>
Reasoning: <short paragraph>
Hypotheses:
- <candidate root cause>
Questions:
- <missing information to ask for> (required)
Only list hypotheses and questions not already present in the case.`

const remediationSystemPrompt = `You are drafting a remediation plan for a resolved or nearly resolved
troubleshooting case. Reply with labeled sections:
Root Cause: <what went wrong>
Immediate Actions:
- <step>
Verification Steps:
- <step>
Base every statement on the case content. Do not invent resource names or commands.`

const scopeSystemPrompt = `You are scoping a troubleshooting investigation. Reply with labeled fields:
Summary: <one paragraph>
Error Patterns:
- <pattern>
Affected Components:
- <component>
Timeframe: <when it started/occurs>
Impact: <who or what is affected>
Evidence Summary: <what the evidence shows>`

const extractSystemPrompt = `Answer the question strictly from the evidence excerpts provided. If the
evidence does not contain the answer, reply with exactly:
Answer: NOT_FOUND
Otherwise reply:
Answer: <answer>
Confidence: <high|medium|low>
Evidence:
- <evidence id the answer came from>`

const actionSystemPrompt = `You are an investigation agent. Choose exactly one next action and reply
with labeled fields. The action must be one of:
answer-question, test-hypothesis, request-evidence, transition-state.
Reply:
Action: <kind>
Reasoning: <one sentence>
and the payload fields for that kind only:
  answer-question:  Question_ID, Answer
  test-hypothesis:  Hypothesis_ID, Hypothesis_Status (validated|disproven), Evidence (bullets)
  request-evidence: Evidence_Needed
  transition-state: Target_State`

func caseContext(c *casefile.Case) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Case: %s\nState: %s\n", c.Title, c.State)
	fmt.Fprintf(&b, "Expected: %s\nActual: %s\n", c.Expected, c.Actual)
	if c.Classification != "" {
		fmt.Fprintf(&b, "Classification: %s\n", c.Classification)
	}
	if c.Scope != nil {
		fmt.Fprintf(&b, "Scope: %s\n", c.Scope.Summary)
	}
	if len(c.Questions) > 0 {
		b.WriteString("Questions:\n")
		for _, q := range c.Questions {
			fmt.Fprintf(&b, "- [%s] (%s) %s", q.ID, q.Status, q.Prompt)
			if q.Answer != "" {
				fmt.Fprintf(&b, " -> %s", q.Answer)
			}
			b.WriteString("\n")
		}
	}
	if len(c.Hypotheses) > 0 {
		b.WriteString("Hypotheses:\n")
		for _, h := range c.Hypotheses {
			fmt.Fprintf(&b, "- [%s] (%s) %s\n", h.ID, h.Status, h.Description)
		}
	}
	if len(c.Evidence) > 0 {
		b.WriteString("Evidence:\n")
		for _, e := range c.Evidence {
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", e.ID, e.Path, e.MediaType)
		}
	}
	return b.String()
}

func analysisPrompt(c *casefile.Case) string {
	return caseContext(c)
}

func remediationPrompt(c *casefile.Case, findings []string) string {
	var b strings.Builder
	b.WriteString(caseContext(c))
	if len(findings) > 0 {
		b.WriteString("Findings:\n")
		for _, f := range findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return b.String()
}

func scopePrompt(c *casefile.Case, evidenceText, feedback string) string {
	var b strings.Builder
	b.WriteString(caseContext(c))
	if evidenceText != "" {
		fmt.Fprintf(&b, "Evidence excerpts:\n%s\n", evidenceText)
	}
	if feedback != "" {
		fmt.Fprintf(&b, "Reviewer feedback on the previous scope: %s\n", feedback)
	}
	return b.String()
}

func extractPrompt(c *casefile.Case, q casefile.Question, evidenceText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", q.Prompt)
	if q.Guidance != "" {
		fmt.Fprintf(&b, "Guidance: %s\n", q.Guidance)
	}
	fmt.Fprintf(&b, "Case: %s (%s)\n", c.Title, c.Actual)
	fmt.Fprintf(&b, "Evidence excerpts:\n%s\n", evidenceText)
	return b.String()
}

func actionPrompt(req *ActionRequest) string {
	var b strings.Builder
	if req.Specialization != "" {
		fmt.Fprintf(&b, "Specialization: %s\n", req.Specialization)
	}
	if len(req.DomainTerms) > 0 {
		fmt.Fprintf(&b, "Domain terms: %s\n", strings.Join(req.DomainTerms, ", "))
	}
	if len(req.Plan) > 0 {
		b.WriteString("Investigation plan:\n")
		for _, p := range req.Plan {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	if len(req.Theories) > 0 {
		b.WriteString("Working theories:\n")
		for _, th := range req.Theories {
			fmt.Fprintf(&b, "- %s\n", th)
		}
	}
	b.WriteString(caseContext(req.Case))
	if len(req.History) > 0 {
		b.WriteString("Recent session history:\n")
		for _, h := range tail(req.History, 10) {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	return b.String()
}

func tail(ss []string, n int) []string {
	if len(ss) <= n {
		return ss
	}
	return ss[len(ss)-n:]
}
