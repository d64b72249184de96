package mcp

import (
	"context"
	"os"
	"time"

	"fathom/internal/logging"
)

// WatchParent monitors for parent process death in a background
// goroutine. When the parent PID changes (the MCP host disconnected or
// restarted), it calls cancelFn so the server shuts down instead of
// lingering as an orphan.
//
// This must NOT read from stdin: the SDK's StdioTransport owns stdin
// exclusively, and stealing bytes here would corrupt the JSON-RPC
// stream.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					logging.New("mcp").Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
