package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fathom/internal/lifecycle"
)

var statusFlags struct {
	events bool
}

var statusCmd = &cobra.Command{
	Use:   "status <case>",
	Short: "Show the full state of a case",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.events, "events", false, "Include the audit event log")
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Case:     %s\n", c.ID)
	fmt.Fprintf(out, "Title:    %s\n", c.Title)
	fmt.Fprintf(out, "State:    %s\n", c.State)
	if c.Classification != "" {
		fmt.Fprintf(out, "Class:    %s\n", c.Classification)
	}
	if next := lifecycle.Recommended(c); next != c.State {
		fmt.Fprintf(out, "Next:     %s\n", next)
	}
	fmt.Fprintf(out, "Expected: %s\n", c.Expected)
	fmt.Fprintf(out, "Actual:   %s\n", c.Actual)

	if c.Scope != nil {
		fmt.Fprintf(out, "\nScope (v%d): %s\n", c.Scope.Version, c.Scope.Summary)
	}

	if len(c.Questions) > 0 {
		fmt.Fprintf(out, "\nQuestions:\n")
		for _, q := range c.Questions {
			marker := " "
			if q.Required {
				marker = "*"
			}
			fmt.Fprintf(out, "  %s [%s] %-8s %s\n", marker, shortID(q.ID), q.Status, q.Prompt)
			if q.Answer != "" {
				fmt.Fprintf(out, "      → %s\n", q.Answer)
			}
		}
	}
	if len(c.Hypotheses) > 0 {
		fmt.Fprintf(out, "\nHypotheses:\n")
		for _, h := range c.Hypotheses {
			fmt.Fprintf(out, "  [%s] %-10s %s\n", shortID(h.ID), h.Status, h.Description)
		}
	}
	if len(c.Evidence) > 0 {
		fmt.Fprintf(out, "\nEvidence: %d file(s)\n", len(c.Evidence))
	}
	if len(c.Constraints) > 0 {
		fmt.Fprintf(out, "\nConstraints:\n")
		for _, con := range c.Constraints {
			fmt.Fprintf(out, "  question %s: %s (%s)\n", shortID(con.QuestionID), con.Description, con.Reason)
		}
	}
	if statusFlags.events && len(c.Events) > 0 {
		fmt.Fprintf(out, "\nEvents: (%d)\n", len(c.Events))
		for _, e := range c.Events {
			fmt.Fprintf(out, "  %s  %-20s %-12s %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, e.Actor, e.Detail)
		}
	}
	return nil
}
