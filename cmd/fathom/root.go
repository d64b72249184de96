package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fathom/internal/lifecycle"
	"fathom/internal/logging"
	"fathom/internal/workspace"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	config    string
	dataDir   string
	logLevel  string
	logFormat string
	stub      bool
}

// ws is the resolved workspace configuration, loaded before any command
// runs.
var ws *workspace.Workspace

var rootCmd = &cobra.Command{
	Use:   "fathom",
	Short: "Case lifecycle orchestration for troubleshooting investigations",
	Long: "Fathom tracks troubleshooting investigations as cases moving through a gated\n" +
		"lifecycle: intake, triage, planning, execution, and resolution. Progression is\n" +
		"consultation-assisted and every change is recorded in an audit log.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		if rootFlags.config != "" {
			ws, err = workspace.LoadFromPath(rootFlags.config)
		} else {
			ws, err = workspace.Discover(".")
		}
		if err != nil {
			return err
		}
		if rootFlags.dataDir != "" {
			ws.DataDir = rootFlags.dataDir
		}
		if rootFlags.logLevel != "" {
			ws.Logging.Level = rootFlags.logLevel
		}
		if rootFlags.logFormat != "" {
			ws.Logging.Format = rootFlags.logFormat
		}
		if rootFlags.stub {
			ws.Consult.Stub = true
		}
		logging.Init(logging.ParseLevel(ws.Logging.Level), ws.Logging.Format, cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.config, "config", "", "Path to workspace config file (default: probe ./fathom.{yaml,yml,json})")
	pf.StringVar(&rootFlags.dataDir, "data-dir", "", "Override the workspace data directory")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "Log format (text, json)")
	pf.BoolVar(&rootFlags.stub, "stub", false, "Use the deterministic offline consultant")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(scopeCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(evidenceCmd)
	rootCmd.AddCommand(constraintCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var gateErr *lifecycle.GateError
		if errors.As(err, &gateErr) {
			// Gate rejections are a distinct outcome for scripts.
			os.Exit(2)
		}
		os.Exit(1)
	}
}
