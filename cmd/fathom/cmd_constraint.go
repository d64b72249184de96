package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"fathom/internal/casefile"
)

var constraintFlags struct {
	question    string
	reason      string
	description string
}

var constraintCmd = &cobra.Command{
	Use:   "constraint <case>",
	Short: "Record an audited override for an unanswerable required question",
	Long: "A constraint is the sanctioned way past a required question that cannot\n" +
		"be answered. It needs a closed reason code (info_unavailable,\n" +
		"not_applicable, accepted_risk, deferred_followup) and a description, and\n" +
		"it is recorded in the audit log.",
	Args: cobra.ExactArgs(1),
	RunE: runConstraint,
}

func init() {
	f := constraintCmd.Flags()
	f.StringVar(&constraintFlags.question, "question", "", "Question ID or unique prefix (required)")
	f.StringVar(&constraintFlags.reason, "reason", "", "Reason code (required)")
	f.StringVar(&constraintFlags.description, "description", "", "Why the question cannot be answered (required)")
	_ = constraintCmd.MarkFlagRequired("question")
	_ = constraintCmd.MarkFlagRequired("reason")
	_ = constraintCmd.MarkFlagRequired("description")
}

func runConstraint(cmd *cobra.Command, args []string) error {
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
	q := findQuestion(c, constraintFlags.question)
	if q == nil {
		return fmt.Errorf("no question matches %q on case %s", constraintFlags.question, shortID(id))
	}

	err = newOrchestrator(st).AddConstraint(id, casefile.Constraint{
		ID:          uuid.NewString(),
		QuestionID:  q.ID,
		Reason:      casefile.ConstraintReason(constraintFlags.reason),
		Description: constraintFlags.description,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Constraint recorded for: %s\n", q.Prompt)
	return nil
}
