package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fathom/internal/casefile"
	"fathom/internal/template"
)

var newFlags struct {
	title    string
	expected string
	actual   string
	template string
	strict   bool
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a case from a problem statement",
	Long: "Creates a case at intake from a title, the expected behavior, and the actual\n" +
		"behavior. A matching template (picked by keyword, or named with --template)\n" +
		"seeds the case with intake questions and starting hypotheses.",
	RunE: runNew,
}

func init() {
	f := newCmd.Flags()
	f.StringVar(&newFlags.title, "title", "", "Short case title (required)")
	f.StringVar(&newFlags.expected, "expected", "", "Expected behavior (required)")
	f.StringVar(&newFlags.actual, "actual", "", "Actual behavior (required)")
	f.StringVar(&newFlags.template, "template", "", "Template name; empty = best keyword match, 'none' = skip")
	f.BoolVar(&newFlags.strict, "strict", false, "Strict mode: unanswerable required questions need a constraint, not a skip")

	_ = newCmd.MarkFlagRequired("title")
	_ = newCmd.MarkFlagRequired("expected")
	_ = newCmd.MarkFlagRequired("actual")
}

func runNew(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	c := casefile.New(newFlags.title, newFlags.expected, newFlags.actual)
	c.StrictMode = newFlags.strict

	var applied *template.Template
	if newFlags.template != "none" {
		lib, err := loadTemplates()
		if err != nil {
			return err
		}
		if newFlags.template != "" {
			applied = lib.Get(newFlags.template)
			if applied == nil {
				return fmt.Errorf("template %q not found", newFlags.template)
			}
		} else if matches := lib.Match(c.Title, c.Actual); len(matches) > 0 {
			applied = matches[0].Template
		}
		if applied != nil {
			template.Apply(c, applied)
		}
	}

	if err := st.CreateCase(c); err != nil {
		return err
	}
	if err := st.AppendEvent(c.ID, casefile.EventCaseCreated, c.Title, "human"); err != nil {
		return err
	}
	if applied != nil {
		if err := st.AppendEvent(c.ID, casefile.EventTemplateApplied, applied.Name, "orchestrator"); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Case:  %s\n", c.ID)
	fmt.Fprintf(out, "State: %s\n", c.State)
	if applied != nil {
		fmt.Fprintf(out, "Template: %s (%d questions, %d hypotheses)\n",
			applied.Name, len(applied.Questions), len(applied.Hypotheses))
	}
	if open := c.OpenRequiredQuestions(); len(open) > 0 {
		fmt.Fprintf(out, "\n%d required question(s) to answer before triage:\n", len(open))
		for _, q := range open {
			fmt.Fprintf(out, "  [%s] %s\n", q.ID, q.Prompt)
		}
	}
	return nil
}
