package main

import (
	"context"

	"github.com/spf13/cobra"

	mcpserver "fathom/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: "Starts an MCP server over stdin/stdout exposing the case tools\n" +
		"(list_cases, case_status, case_next, answer_question, agent_run).\n" +
		"The server watches for parent process death and self-terminates so\n" +
		"disconnected hosts never leave orphans behind.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	mcpserver.WatchParent(ctx, cancel)

	srv := mcpserver.NewServer(st, newOrchestrator(st), newConsultant())
	return srv.Run(ctx)
}
