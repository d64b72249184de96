package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fathom/internal/casefile"
)

var nextCmd = &cobra.Command{
	Use:   "next <case>",
	Short: "Advance the case through the lifecycle",
	Long: "Advances the case along the recommended path, auto-progressing through\n" +
		"low-risk stages and consulting at each one. Stops at the Plan checkpoint\n" +
		"with a synthesized report. A blocked gate fails with exit code 2 and the\n" +
		"gate's reason; a strict-mode case blocked on required questions parks at\n" +
		"pending_external until they are answered.",
	Args: cobra.ExactArgs(1),
	RunE: runNext,
}

func runNext(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := resolveCaseID(st, args[0])
	if err != nil {
		return err
	}

	res, err := newOrchestrator(st).Next(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.State == casefile.StatePendingExternal {
		fmt.Fprintln(out, "Parked at: pending_external (answer the open required questions to resume)")
	} else if res.AutoProgressed {
		fmt.Fprintf(out, "Advanced to: %s\n", res.State)
	} else {
		fmt.Fprintf(out, "Holding at: %s (checkpoint)\n", res.State)
	}
	if res.Report != "" {
		fmt.Fprintf(out, "\n%s\n", res.Report)
	}
	return nil
}
