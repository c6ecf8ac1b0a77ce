package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// HistoryTool handles the history MCP tool, backed by the optional SQLite
// journal.
type HistoryTool struct {
	env *Env
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(env *Env) *HistoryTool {
	return &HistoryTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("history",
		mcp.WithDescription(
			"Show the most recent mutations recorded in the operation "+
				"journal, newest first.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default 20)"),
		),
	)
}

// Handle processes the history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.env.Journal == nil {
		return mcp.NewToolResultError("history is disabled: the operation journal is not available"), nil
	}
	entries, err := t.env.Journal.Recent(int(req.GetFloat("limit", 20)))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No operations recorded yet."), nil
	}
	return jsonResult(entries)
}
