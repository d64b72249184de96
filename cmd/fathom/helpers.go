package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"fathom/internal/agent"
	"fathom/internal/consult"
	"fathom/internal/evidence"
	"fathom/internal/orchestrate"
	"fathom/internal/store"
	"fathom/internal/template"
)

// openStore opens the workspace SQLite store. Callers own Close.
func openStore() (*store.SqlStore, error) {
	st, err := store.Open(ws.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newConsultant builds the configured consultation backend: the offline
// stub when requested, the OpenAI client otherwise.
func newConsultant() consult.Consultant {
	if ws.Consult.Stub {
		return consult.NewStub()
	}
	return consult.NewOpenAI(consult.Config{
		APIKey:          ws.APIKey(),
		BaseURL:         ws.Consult.BaseURL,
		Model:           ws.Consult.Model,
		AnalysisTimeout: ws.Consult.AnalysisTimeout,
		GuidanceTimeout: ws.Consult.GuidanceTimeout,
	})
}

func newOrchestrator(st store.Store) *orchestrate.Orchestrator {
	return orchestrate.New(st, newConsultant(), evidence.NewManager(ws.EvidenceDir(), st))
}

// loadTemplates returns the builtin templates plus any from the
// workspace template directory.
func loadTemplates() (*template.Library, error) {
	lib, err := template.LoadDir(ws.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return lib, nil
}

// agentConfigFromWorkspace maps workspace agent defaults to a session
// config.
func agentConfigFromWorkspace() agent.Config {
	cfg := agent.Config{
		MaxIterations:  ws.Agent.MaxIterations,
		MaxDuration:    ws.Agent.MaxDuration,
		AutoApprove:    ws.Agent.AutoApprove,
		ErrorThreshold: ws.Agent.ErrorThreshold,
	}
	for _, a := range ws.Agent.DeniedActions {
		cfg.DeniedActions = append(cfg.DeniedActions, consult.ActionKind(a))
	}
	return cfg
}

// promptApprover asks on the terminal before medium/high impact actions.
func promptApprover(in io.Reader, out io.Writer) agent.Approver {
	reader := bufio.NewReader(in)
	return agent.ApproverFunc(func(action *consult.ProposedAction, impact agent.Impact) (bool, error) {
		fmt.Fprintf(out, "\nagent proposes %s (%s impact)\n", action.Kind, impact)
		if action.Reasoning != "" {
			fmt.Fprintf(out, "  reasoning: %s\n", action.Reasoning)
		}
		switch action.Kind {
		case consult.ActionRequestEvidence:
			fmt.Fprintf(out, "  evidence needed: %s\n", action.EvidenceNeeded)
		case consult.ActionTransitionState:
			fmt.Fprintf(out, "  target state: %s\n", action.TargetState)
		}
		fmt.Fprint(out, "approve? [y/N]: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	})
}

// resolveCaseID accepts a full case ID or a unique prefix (as printed by
// 'fathom list') and returns the full ID.
func resolveCaseID(st store.Store, ref string) (string, error) {
	if _, err := st.LoadCase(ref); err == nil {
		return ref, nil
	}
	cases, err := st.ListCases()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, c := range cases {
		if strings.HasPrefix(c.ID, ref) {
			matches = append(matches, c.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no case matches %q", ref)
	default:
		return "", fmt.Errorf("case ref %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// truncate shortens s for one-line table output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// shortID shows the first 8 characters of a UUID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
