// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it resolves configuration, creates the
// concrete store and journal, and injects them into the tools. No
// business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/zp-innovation/mcp-task-master-sub000/internal/config"
	"github.com/zp-innovation/mcp-task-master-sub000/internal/history"
	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
	"github.com/zp-innovation/mcp-task-master-sub000/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with every tool registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the history journal's database
// connection and must be called on shutdown (typically via defer). It is
// always non-nil and safe to call even if journal init failed.
func New() (*server.MCPServer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, noop, fmt.Errorf("loading configuration: %w", err)
	}

	env := &tools.Env{
		Store:  tasks.NewFileStore(),
		Config: cfg,
	}

	// History is an independent subsystem: if the journal fails to open,
	// task tools continue working and mutations simply go unrecorded.
	cleanup := noop
	if !cfg.HistoryDisabled {
		journal, err := history.Open(cfg.HistoryPath())
		if err != nil {
			log.Printf("WARNING: history journal disabled: %v", err)
		} else {
			env.Journal = journal
			cleanup = func() {
				if err := journal.Close(); err != nil {
					log.Printf("WARNING: history journal close: %v", err)
				}
			}
		}
	}

	s := server.NewMCPServer(
		"taskmaster",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Task tools ---

	listTool := tools.NewListTasksTool(env)
	s.AddTool(listTool.Definition(), listTool.Handle)

	showTool := tools.NewShowTaskTool(env)
	s.AddTool(showTool.Definition(), showTool.Handle)

	nextTool := tools.NewNextTaskTool(env)
	s.AddTool(nextTool.Definition(), nextTool.Handle)

	addTaskTool := tools.NewAddTaskTool(env)
	s.AddTool(addTaskTool.Definition(), addTaskTool.Handle)

	removeTaskTool := tools.NewRemoveTaskTool(env)
	s.AddTool(removeTaskTool.Definition(), removeTaskTool.Handle)

	expandTool := tools.NewExpandTaskTool(env)
	s.AddTool(expandTool.Definition(), expandTool.Handle)

	// --- Subtask tools ---

	addSubtaskTool := tools.NewAddSubtaskTool(env)
	s.AddTool(addSubtaskTool.Definition(), addSubtaskTool.Handle)

	removeSubtaskTool := tools.NewRemoveSubtaskTool(env)
	s.AddTool(removeSubtaskTool.Definition(), removeSubtaskTool.Handle)

	// --- Dependency tools ---

	addDepTool := tools.NewAddDependencyTool(env)
	s.AddTool(addDepTool.Definition(), addDepTool.Handle)

	removeDepTool := tools.NewRemoveDependencyTool(env)
	s.AddTool(removeDepTool.Definition(), removeDepTool.Handle)

	validateDepsTool := tools.NewValidateDependenciesTool(env)
	s.AddTool(validateDepsTool.Definition(), validateDepsTool.Handle)

	fixDepsTool := tools.NewFixDependenciesTool(env)
	s.AddTool(fixDepsTool.Definition(), fixDepsTool.Handle)

	// --- Tag tools ---

	addTagTool := tools.NewAddTagTool(env)
	s.AddTool(addTagTool.Definition(), addTagTool.Handle)

	renameTagTool := tools.NewRenameTagTool(env)
	s.AddTool(renameTagTool.Definition(), renameTagTool.Handle)

	copyTagTool := tools.NewCopyTagTool(env)
	s.AddTool(copyTagTool.Definition(), copyTagTool.Handle)

	deleteTagTool := tools.NewDeleteTagTool(env)
	s.AddTool(deleteTagTool.Definition(), deleteTagTool.Handle)

	useTagTool := tools.NewUseTagTool(env)
	s.AddTool(useTagTool.Definition(), useTagTool.Handle)

	// --- History tool ---

	historyTool := tools.NewHistoryTool(env)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	return s, cleanup, nil
}

// noop is the default cleanup when the journal is disabled or failed
// to initialize.
func noop() {}

// serverInstructions returns the usage guidance advertised to MCP clients.
func serverInstructions() string {
	return `Taskmaster manages a tag-partitioned task store for AI-driven development.

Workflow:
1. Use 'next' to pick what to work on: it returns the highest-priority pending
   item whose dependencies are all complete.
2. Use 'expand' to break a task down. Call it without 'subtasks' to get
   generation guidance, generate the subtask array yourself, then call it again
   with the array — the server validates and merges, it never generates.
3. Use 'add_dependency' / 'remove_dependency' to shape ordering. Cycle-creating
   edges are refused; run 'validate_dependencies' to inspect the graph and
   'fix_dependencies' to repair it deterministically.
4. Tags are isolated partitions with independent task ids. 'use_tag' switches
   the default; every tool also accepts an explicit 'tag' argument.

References: '3' names task 3, '3.2' names subtask 2 of task 3. The master tag
always exists and cannot be renamed or deleted.`
}
