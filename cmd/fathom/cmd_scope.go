package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var scopeFlags struct {
	feedback string
}

var scopeCmd = &cobra.Command{
	Use:   "scope <case>",
	Short: "Generate or refine the problem scope",
	Long: "Builds a structured problem scope from the case and its evidence.\n" +
		"Rerunning with --feedback refines the scope; earlier versions are kept\n" +
		"on the case's scope history.",
	Args: cobra.ExactArgs(1),
	RunE: runScope,
}

func init() {
	scopeCmd.Flags().StringVar(&scopeFlags.feedback, "feedback", "", "Reviewer feedback to steer the regeneration")
}

func runScope(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := resolveCaseID(st, args[0])
	if err != nil {
		return err
	}

	scope, err := newOrchestrator(st).GenerateProblemScope(cmd.Context(), id, scopeFlags.feedback)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scope v%d\n", scope.Version)
	fmt.Fprintf(out, "Summary: %s\n", scope.Summary)
	if len(scope.ErrorPatterns) > 0 {
		fmt.Fprintf(out, "Error patterns:\n  %s\n", strings.Join(scope.ErrorPatterns, "\n  "))
	}
	if len(scope.AffectedComponents) > 0 {
		fmt.Fprintf(out, "Affected components: %s\n", strings.Join(scope.AffectedComponents, ", "))
	}
	if scope.Timeframe != "" {
		fmt.Fprintf(out, "Timeframe: %s\n", scope.Timeframe)
	}
	if scope.Impact != "" {
		fmt.Fprintf(out, "Impact: %s\n", scope.Impact)
	}
	if scope.EvidenceSummary != "" {
		fmt.Fprintf(out, "Evidence: %s\n", scope.EvidenceSummary)
	}
	return nil
}
