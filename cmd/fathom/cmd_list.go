package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		cases, err := st.ListCases()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(cases) == 0 {
			fmt.Fprintln(out, "No cases. Create one with 'fathom new'.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATE\tCLASS\tTITLE")
		for _, c := range cases {
			class := c.Classification
			if class == "" {
				class = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", shortID(c.ID), c.State, class, truncate(c.Title, 48))
		}
		return w.Flush()
	},
}
