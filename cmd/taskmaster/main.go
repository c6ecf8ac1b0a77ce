// Taskmaster: tag-partitioned task management MCP server
//
// An MCP server that manages a dependency-linked task store for AI coding
// tools. The calling model does any content generation; the server
// validates and persists.
//
// Usage:
//
//	taskmaster serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"

	taskserver "github.com/zp-innovation/mcp-task-master-sub000/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("taskmaster v%s\n", taskserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := taskserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Diagnostics go to stderr; stdout belongs to the MCP stdio transport.
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Taskmaster v%s — tag-partitioned task management MCP server

Usage:
  taskmaster serve    Start the MCP server (stdio transport)

Configuration (environment, all optional):
  TASKMASTER_PROJECT_DIR         Project root (default: current directory)
  TASKMASTER_TASKS_FILE          Task store path (default: .taskmaster/tasks/tasks.json)
  TASKMASTER_STATE_FILE          State path (default: .taskmaster/state.json)
  TASKMASTER_COMPLEXITY_REPORT   Analysis report path (default: .taskmaster/reports/task-complexity-report.json)
  TASKMASTER_HISTORY_DISABLED    Set to true to turn off the operation journal

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "taskmaster": {
        "command": "taskmaster",
        "args": ["serve"]
      }
    }
  }
`, taskserver.Version)
}
