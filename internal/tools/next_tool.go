package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
)

// NextTaskTool handles the next MCP tool.
type NextTaskTool struct {
	env *Env
}

// NewNextTaskTool creates a NextTaskTool.
func NewNextTaskTool(env *Env) *NextTaskTool {
	return &NextTaskTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *NextTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("next",
		mcp.WithDescription(
			"Pick the next item to work on: a pending task whose dependencies "+
				"are all complete, or a pending subtask of a task already in "+
				"progress. Ranked by priority, then fewest dependencies, then "+
				"lowest id.",
		),
		mcp.WithString("tag",
			mcp.Description("Tag to resolve against (default: current tag)"),
		),
	)
}

// Handle processes the next tool call.
func (t *NextTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	col, tag, err := t.env.loadTagged(req.GetString("tag", ""))
	if err != nil {
		return errResult(err)
	}
	report, err := tasks.LoadComplexityReport(t.env.Config.ComplexityReportPath())
	if err != nil {
		return errResult(err)
	}

	item := tasks.Next(col[tag].Tasks, report)
	if item == nil {
		return mcp.NewToolResultText("No eligible task: nothing is pending with all dependencies complete."), nil
	}
	return jsonResult(struct {
		Tag  string          `json:"tag"`
		Next *tasks.NextItem `json:"next"`
	}{Tag: tag, Next: item})
}
