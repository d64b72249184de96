package orchestrate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"fathom/internal/casefile"
	"fathom/internal/logging"
)

// GenerateProblemScope requests a structured scope from the consultation
// service, optionally steered by reviewer feedback, and installs it on
// the case (previous versions are archived on the scope history). On
// collaborator failure it falls back to heuristic text extraction with
// no external call.
func (o *Orchestrator) GenerateProblemScope(ctx context.Context, caseID, feedback string) (*casefile.ProblemScope, error) {
	c, err := o.Store.LoadCase(caseID)
	if err != nil {
		return nil, fmt.Errorf("load case: %w", err)
	}

	evidenceText := ""
	if o.Evidence != nil {
		evidenceText = o.Evidence.ReadExcerpts(c)
	}

	scope := &casefile.ProblemScope{}
	draft, err := o.Consultant.ScopeDraft(ctx, c, evidenceText, feedback)
	if err != nil {
		logging.New("orchestrate").Warn("scope consultation failed, using heuristic fallback",
			"case", c.ID, "error", err)
		scope = heuristicScope(c, evidenceText)
	} else {
		scope.Summary = draft.Summary
		scope.ErrorPatterns = draft.ErrorPatterns
		scope.AffectedComponents = draft.AffectedComponents
		scope.Timeframe = draft.Timeframe
		scope.Impact = draft.Impact
		scope.EvidenceSummary = draft.EvidenceSummary
	}

	c.SetScope(scope)
	if err := o.Store.SaveCase(c); err != nil {
		return nil, fmt.Errorf("save case: %w", err)
	}
	if err := o.Store.AppendEvent(caseID, casefile.EventScopeGenerated,
		fmt.Sprintf("version %d", scope.Version), actorOrchestrator); err != nil {
		return nil, err
	}
	return scope, nil
}

// errorLineRe picks error-looking lines out of evidence text for the
// heuristic scope.
var errorLineRe = regexp.MustCompile(`(?im)^.*\b(error|fail(ed|ure)?|panic|fatal|refused|denied|timeout)\b.*$`)

// componentRe picks words that look like component names (dashed or
// dotted lowercase identifiers).
var componentRe = regexp.MustCompile(`\b[a-z][a-z0-9]*(?:[-.][a-z0-9]+)+\b`)

// heuristicScope derives a scope from the problem statement and evidence
// text using plain pattern extraction. Used whenever consultation is
// unavailable; it must not call out.
func heuristicScope(c *casefile.Case, evidenceText string) *casefile.ProblemScope {
	scope := &casefile.ProblemScope{
		Summary: fmt.Sprintf("Expected %s, but observed %s.", c.Expected, c.Actual),
		Impact:  "unknown; derived without consultation",
	}

	seen := map[string]bool{}
	for _, line := range errorLineRe.FindAllString(evidenceText, 20) {
		line = strings.TrimSpace(line)
		if len(line) > 160 {
			line = line[:160]
		}
		if !seen[line] {
			seen[line] = true
			scope.ErrorPatterns = append(scope.ErrorPatterns, line)
		}
	}

	seenComp := map[string]bool{}
	for _, comp := range componentRe.FindAllString(c.Actual+" "+evidenceText, 40) {
		if !seenComp[comp] {
			seenComp[comp] = true
			scope.AffectedComponents = append(scope.AffectedComponents, comp)
		}
		if len(scope.AffectedComponents) >= 8 {
			break
		}
	}

	if evidenceText != "" {
		scope.EvidenceSummary = fmt.Sprintf("%d evidence file(s) on record", len(c.Evidence))
	}
	return scope
}
