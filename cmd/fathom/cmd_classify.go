package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fathom/internal/casefile"
)

var classifyFlags struct {
	force bool
}

var classifyCmd = &cobra.Command{
	Use:   "classify <case> <label>",
	Short: "Set a case's classification label",
	Long: "Classification follows a first-wins policy: once set, whether by a\n" +
		"template, a consultation, or a human, it stays. Pass --force to\n" +
		"overwrite; the overwrite is recorded in the audit log.",
	Args: cobra.ExactArgs(2),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyFlags.force, "force", false, "Overwrite an existing classification")
}

func runClassify(cmd *cobra.Command, args []string) error {
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

	label := args[1]
	if c.Classification != "" && !classifyFlags.force {
		return fmt.Errorf("case %s is already classified as %q; use --force to overwrite", shortID(id), c.Classification)
	}
	prev := c.Classification
	c.Classification = label
	if err := st.SaveCase(c); err != nil {
		return err
	}

	detail := label
	if prev != "" {
		detail = fmt.Sprintf("%s (was %s)", label, prev)
	}
	if err := st.AppendEvent(id, casefile.EventClassified, detail, "human"); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Classified %s as %s\n", shortID(id), label)
	return nil
}
