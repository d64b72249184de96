package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fathom/internal/evidence"
)

var evidenceFlags struct {
	tags []string
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Manage case evidence",
}

var evidenceAddCmd = &cobra.Command{
	Use:   "add <case> <file>...",
	Short: "Add files as evidence (PII is redacted on the way in)",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runEvidenceAdd,
}

var evidenceIngestCmd = &cobra.Command{
	Use:   "ingest <case> <archive>",
	Short: "Extract a zip/tar archive and add every file as evidence",
	Args:  cobra.ExactArgs(2),
	RunE:  runEvidenceIngest,
}

func init() {
	pf := evidenceCmd.PersistentFlags()
	pf.StringSliceVar(&evidenceFlags.tags, "tag", nil, "Tag(s) to attach to the evidence")
	evidenceCmd.AddCommand(evidenceAddCmd)
	evidenceCmd.AddCommand(evidenceIngestCmd)
}

func runEvidenceAdd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := resolveCaseID(st, args[0])
	if err != nil {
		return err
	}
	mgr := evidence.NewManager(ws.EvidenceDir(), st)

	out := cmd.OutOrStdout()
	for _, path := range args[1:] {
		ev, redacted, err := mgr.AddFile(id, path, evidenceFlags.tags)
		if err != nil {
			return fmt.Errorf("add %s: %w", path, err)
		}
		note := ""
		if redacted {
			note = " (redacted)"
		}
		fmt.Fprintf(out, "Added %s as %s%s\n", path, shortID(ev.ID), note)
	}
	return nil
}

func runEvidenceIngest(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := resolveCaseID(st, args[0])
	if err != nil {
		return err
	}
	mgr := evidence.NewManager(ws.EvidenceDir(), st)

	out := cmd.OutOrStdout()
	staging, err := evidence.ExtractArchiveToStaging(args[1], func(n int, current string) {
		fmt.Fprintf(out, "\rextracting: %d file(s)", n+1)
	})
	if err != nil {
		return fmt.Errorf("extract archive: %w", err)
	}
	defer os.RemoveAll(staging)
	fmt.Fprintln(out)

	records, redactedCount, err := mgr.IngestFromStaging(id, staging, evidenceFlags.tags, func(n int, current string) {
		fmt.Fprintf(out, "\ringesting: %d file(s)", n+1)
	})
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	fmt.Fprintf(out, "\nIngested %d file(s), %d redacted.\n", len(records), redactedCount)
	return nil
}
