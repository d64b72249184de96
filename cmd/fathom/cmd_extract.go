package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var extractFlags struct {
	apply bool
}

var extractCmd = &cobra.Command{
	Use:   "extract <case>",
	Short: "Auto-extract answers to open questions from stored evidence",
	Long: "Consults the language-model service to answer open questions strictly\n" +
		"from the case's evidence. Questions the evidence cannot answer are left\n" +
		"open. Suggestions are printed for review; --apply records them.",
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractFlags.apply, "apply", false, "Apply the extracted answers to the case")
}

func runExtract(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := resolveCaseID(st, args[0])
	if err != nil {
		return err
	}

	orch := newOrchestrator(st)
	suggestions, err := orch.AutoExtractAnswers(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(suggestions) == 0 {
		fmt.Fprintln(out, "The evidence answers none of the open questions.")
		return nil
	}

	c, err := st.LoadCase(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Extracted %d answer(s):\n", len(suggestions))
	for _, s := range suggestions {
		prompt := "?"
		if q := c.Question(s.QuestionID); q != nil {
			prompt = q.Prompt
		}
		fmt.Fprintf(out, "  [%s] %s\n      → %s (confidence: %s)\n",
			shortID(s.QuestionID), prompt, s.Answer, s.Confidence)
	}

	if !extractFlags.apply {
		fmt.Fprintln(out, "\nRe-run with --apply to record these answers.")
		return nil
	}

	applied, err := orch.ApplyAnswerSuggestions(id, suggestions)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nApplied %d answer(s).\n", applied)
	return nil
}
