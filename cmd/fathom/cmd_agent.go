package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fathom/internal/agent"
	"fathom/internal/casefile"
	"fathom/internal/consult"
)

var agentFlags struct {
	maxIterations int
	maxDuration   time.Duration
	autoApprove   bool
	deny          []string
	template      string
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run supervised autonomous investigation sessions",
}

var agentStartCmd = &cobra.Command{
	Use:   "start <case>",
	Short: "Create a session bound to a case and run it",
	Long: "Derives an agent personality from the case (its questions become the\n" +
		"plan, its hypotheses the working theories) and runs the iteration loop\n" +
		"under the configured safety limits. Medium and high impact actions ask\n" +
		"for approval on the terminal unless --auto-approve is set.",
	Args: cobra.ExactArgs(1),
	RunE: runAgentStart,
}

var agentRunCmd = &cobra.Command{
	Use:   "run <session-id>",
	Short: "Run (or continue) an existing session",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentRun,
}

var agentPauseCmd = &cobra.Command{
	Use:   "pause <session-id>",
	Short: "Pause an active session at its next iteration boundary",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setSessionStatus(cmd, args[0], "pause") },
}

var agentResumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Resume a paused session and continue running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentResume,
}

var agentTerminateCmd = &cobra.Command{
	Use:   "terminate <session-id>",
	Short: "Terminate a session (irreversible)",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setSessionStatus(cmd, args[0], "terminate") },
}

var agentStatusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show a session's metrics and recent history",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentStatus,
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE:  runAgentList,
}

func init() {
	f := agentStartCmd.Flags()
	f.IntVar(&agentFlags.maxIterations, "max-iterations", 0, "Iteration cap (default from workspace config)")
	f.DurationVar(&agentFlags.maxDuration, "max-duration", 0, "Wall-clock cap (default from workspace config)")
	f.BoolVar(&agentFlags.autoApprove, "auto-approve", false, "Apply medium/high impact actions without asking")
	f.StringSliceVar(&agentFlags.deny, "deny", nil, "Action kind(s) this session must never take")
	agentRunCmd.Flags().BoolVar(&agentFlags.autoApprove, "auto-approve", false, "Apply medium/high impact actions without asking")

	agentCmd.AddCommand(agentStartCmd)
	agentCmd.AddCommand(agentRunCmd)
	agentCmd.AddCommand(agentPauseCmd)
	agentCmd.AddCommand(agentResumeCmd)
	agentCmd.AddCommand(agentTerminateCmd)
	agentCmd.AddCommand(agentStatusCmd)
	agentCmd.AddCommand(agentListCmd)
}

func runAgentStart(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := resolveCaseID(st, args[0])
	if err != nil {
		return err
	}
	c, err := st.LoadCase(id)
	if err != nil {
		return err
	}

	cfg := agentConfigFromWorkspace()
	if agentFlags.maxIterations > 0 {
		cfg.MaxIterations = agentFlags.maxIterations
	}
	if agentFlags.maxDuration > 0 {
		cfg.MaxDuration = agentFlags.maxDuration
	}
	cfg.AutoApprove = cfg.AutoApprove || agentFlags.autoApprove
	for _, d := range agentFlags.deny {
		cfg.DeniedActions = append(cfg.DeniedActions, consult.ActionKind(d))
	}

	sess := agent.CreateSession(c, nil, cfg)
	if err := st.SaveSession(sess); err != nil {
		return err
	}
	if err := st.AppendEvent(id, casefile.EventAgentAction, "agent session started: "+sess.ID, "human"); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session: %s\n", sess.ID)
	fmt.Fprintf(out, "Persona: %s\n", sess.Personality.Specialization)
	fmt.Fprintf(out, "Limits:  %d iterations, %s, errors at %d\n",
		cfg.MaxIterations, cfg.MaxDuration, cfg.ErrorThreshold)
	return runSession(cmd, st, sess.ID)
}

func runAgentRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return runSession(cmd, st, args[0])
}

func runAgentResume(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := st.LoadSession(args[0])
	if err != nil {
		return err
	}
	if err := sess.Resume(); err != nil {
		return err
	}
	if err := st.SaveSession(sess); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Resumed %s\n", sess.ID)
	return runSession(cmd, st, sess.ID)
}

// runSession drives the iteration loop with a terminal approver.
func runSession(cmd *cobra.Command, st sessionBackend, sessionID string) error {
	runner := &agent.Runner{
		Cases:      st,
		Sessions:   st,
		Consultant: newConsultant(),
		Approver:   promptApprover(cmd.InOrStdin(), cmd.OutOrStdout()),
	}
	res, err := runner.Run(cmd.Context(), sessionID, agentFlags.autoApprove)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nSession %s: %s after %d iteration(s)\n", shortID(sessionID), res.Status, res.Iterations)
	fmt.Fprintf(out, "Reason: %s\n", res.Reason)
	return nil
}

// sessionBackend is what runSession needs from the store.
type sessionBackend interface {
	agent.CaseStore
	agent.SessionStore
}

func setSessionStatus(cmd *cobra.Command, sessionID, op string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := st.LoadSession(sessionID)
	if err != nil {
		return err
	}
	switch op {
	case "pause":
		err = sess.Pause()
	case "terminate":
		err = sess.Terminate()
	}
	if err != nil {
		return err
	}
	if err := st.SaveSession(sess); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s is now %s\n", shortID(sessionID), sess.Status)
	return nil
}

func runAgentStatus(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := st.LoadSession(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session: %s\n", sess.ID)
	fmt.Fprintf(out, "Case:    %s\n", shortID(sess.CaseID))
	fmt.Fprintf(out, "Status:  %s\n", sess.Status)
	fmt.Fprintf(out, "Persona: %s\n", sess.Personality.Specialization)
	m := sess.Metrics
	fmt.Fprintf(out, "Metrics: %d iterations, %d answered, %d hypotheses tested, %d transitions, %d errors\n",
		m.Iterations, m.QuestionsAnswered, m.HypothesesTested, m.StateTransitions, m.ErrorsEncountered)
	if n := len(sess.Context.History); n > 0 {
		fmt.Fprintf(out, "History: (last %d of %d)\n", min(10, n), n)
		for _, e := range sess.Context.History[max(0, n-10):] {
			fmt.Fprintf(out, "  %-8s %s\n", e.Role, e.Content)
		}
	}
	return nil
}

func runAgentList(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.ListSessions()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(out, "%s  case=%s  %-10s  %d iteration(s)\n",
			shortID(s.ID), shortID(s.CaseID), s.Status, s.Metrics.Iterations)
	}
	return nil
}
