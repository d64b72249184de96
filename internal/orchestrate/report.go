package orchestrate

import (
	"context"
	"fmt"
	"strings"

	"fathom/internal/casefile"
	"fathom/internal/logging"
)

// minRemediationLength is the shortest consultation reply accepted as a
// remediation plan; anything shorter falls back to the deterministic
// plan assembled from case content.
const minRemediationLength = 40

// synthesizeReport builds the full troubleshooting report produced when
// auto-progression reaches the Plan checkpoint.
func (o *Orchestrator) synthesizeReport(ctx context.Context, c *casefile.Case, reasoning []string) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Troubleshooting Report: %s\n\n", c.Title)
	fmt.Fprintf(&b, "Case %s, state %s\n\n", c.ID, c.State)

	b.WriteString("## Problem\n")
	fmt.Fprintf(&b, "Expected: %s\nActual: %s\n", c.Expected, c.Actual)
	if c.Classification != "" {
		fmt.Fprintf(&b, "Classification: %s\n", c.Classification)
	}
	if c.Scope != nil {
		fmt.Fprintf(&b, "Scope: %s\n", c.Scope.Summary)
	}
	b.WriteString("\n")

	var findings []string
	if o.Evidence != nil {
		findings = o.Evidence.Findings(c)
	}
	if len(findings) > 0 {
		b.WriteString("## Evidence Findings\n")
		for _, f := range findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	answered, open := 0, 0
	for _, q := range c.Questions {
		if q.Status == casefile.QuestionOpen {
			open++
		} else {
			answered++
		}
	}
	fmt.Fprintf(&b, "## Questions (%d answered, %d open)\n", answered, open)
	for _, q := range c.Questions {
		switch q.Status {
		case casefile.QuestionAnswered:
			fmt.Fprintf(&b, "- [answered] %s -> %s\n", q.Prompt, q.Answer)
		case casefile.QuestionSkipped:
			fmt.Fprintf(&b, "- [skipped] %s\n", q.Prompt)
		default:
			fmt.Fprintf(&b, "- [open] %s\n", q.Prompt)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Hypotheses\n")
	if len(c.Hypotheses) == 0 {
		b.WriteString("(none yet)\n")
	}
	for _, h := range c.Hypotheses {
		fmt.Fprintf(&b, "- [%s] %s\n", h.Status, h.Description)
	}
	b.WriteString("\n")

	if len(reasoning) > 0 {
		b.WriteString("## Analysis Notes\n")
		for _, r := range reasoning {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Remediation Plan\n")
	b.WriteString(o.remediationPlan(ctx, c, findings))

	return b.String(), nil
}

// remediationPlan asks the consultation service for a structured plan
// and falls back to a deterministic one assembled only from known
// hypotheses and findings. The fallback never invents resource names or
// commands it cannot derive from the case.
func (o *Orchestrator) remediationPlan(ctx context.Context, c *casefile.Case, findings []string) string {
	plan, err := o.Consultant.RemediationPlan(ctx, c, findings)
	if err == nil && len(strings.TrimSpace(plan)) >= minRemediationLength {
		return plan
	}
	if err != nil {
		logging.New("orchestrate").Warn("remediation consultation failed, using fallback",
			"case", c.ID, "error", err)
	} else {
		logging.New("orchestrate").Warn("remediation reply too short, using fallback", "case", c.ID)
	}
	return fallbackPlan(c, findings)
}

// fallbackPlan is the deterministic, evidence-only remediation plan.
func fallbackPlan(c *casefile.Case, findings []string) string {
	var b strings.Builder

	b.WriteString("Root Cause: ")
	validated := []string{}
	for _, h := range c.Hypotheses {
		if h.Status == casefile.HypothesisValidated {
			validated = append(validated, h.Description)
		}
	}
	if len(validated) > 0 {
		b.WriteString(strings.Join(validated, "; "))
	} else {
		b.WriteString("not yet determined; no hypothesis has been validated")
	}
	b.WriteString("\n")

	b.WriteString("Immediate Actions:\n")
	if len(validated) > 0 {
		for _, v := range validated {
			fmt.Fprintf(&b, "- address the validated cause: %s\n", v)
		}
	} else {
		for _, h := range c.Hypotheses {
			if h.Status == casefile.HypothesisOpen {
				fmt.Fprintf(&b, "- test the open hypothesis: %s\n", h.Description)
			}
		}
		if len(c.Hypotheses) == 0 {
			b.WriteString("- gather evidence; no hypotheses have been formed\n")
		}
	}

	b.WriteString("Verification Steps:\n- reproduce the original failure scenario and confirm the expected behavior\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "- confirm the signature no longer occurs: %s\n", f)
	}
	return b.String()
}
