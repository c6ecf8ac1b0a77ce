package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zp-innovation/mcp-task-master-sub000/internal/expand"
	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
)

// ExpandTaskTool handles the expand MCP tool.
//
// Expansion is a two-step conversation: called without content, the tool
// returns the prompt guidance the calling model should generate against
// (recommended count, analysis prompt when a complexity report exists).
// Called with content, it validates, normalizes, and merges the generated
// subtasks. The server never calls a model itself.
type ExpandTaskTool struct {
	env *Env
}

// NewExpandTaskTool creates an ExpandTaskTool.
func NewExpandTaskTool(env *Env) *ExpandTaskTool {
	return &ExpandTaskTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *ExpandTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("expand",
		mcp.WithDescription(
			"Break a task into subtasks. Call WITHOUT 'subtasks' first to get "+
				"generation guidance, generate the subtask array yourself, then "+
				"call again WITH 'subtasks' to validate and merge them. "+
				"Accepts a JSON array, a wrapper object, or prose containing "+
				"an array; items need at least a non-empty title.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id of the task to expand"),
		),
		mcp.WithString("subtasks",
			mcp.Description("Generated subtask array (raw model output is tolerated)"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Replace existing subtasks instead of appending"),
		),
		mcp.WithString("tag",
			mcp.Description("Tag to operate on (default: current tag)"),
		),
	)
}

// Handle processes the expand tool call.
func (t *ExpandTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := requireRef(req, "id")
	if err != nil {
		return errResult(err)
	}
	if ref.IsSubtask() {
		return mcp.NewToolResultError("'id' must be a task id; subtasks cannot be expanded"), nil
	}

	col, tag, err := t.env.loadTagged(req.GetString("tag", ""))
	if err != nil {
		return errResult(err)
	}
	parent := tasks.FindTask(col[tag].Tasks, ref.Task)
	if parent == nil {
		return mcp.NewToolResultError(fmt.Sprintf("task %d does not exist in tag %q", ref.Task, tag)), nil
	}
	report, err := tasks.LoadComplexityReport(t.env.Config.ComplexityReportPath())
	if err != nil {
		return errResult(err)
	}

	raw := strings.TrimSpace(req.GetString("subtasks", ""))
	if raw == "" {
		return t.guidance(parent, report, tag), nil
	}

	items, err := expand.ParseCandidates(raw)
	if err != nil {
		return errResult(err)
	}
	force := req.GetBool("force", false)
	batch, err := expand.Normalize(parent, items, force)
	if err != nil {
		return errResult(err)
	}

	if err := t.env.save(col, tag); err != nil {
		return errResult(err)
	}
	t.env.record("expand", tag, ref, fmt.Sprintf("%d subtasks", len(batch)))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Merged %d subtasks into task %d (tag %q):\n", len(batch), parent.ID, tag)
	for _, st := range batch {
		fmt.Fprintf(&sb, "- %d.%d %s\n", parent.ID, st.ID, st.Title)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// guidance builds the generation instructions for the first expand call.
func (t *ExpandTaskTool) guidance(parent *tasks.Task, report *tasks.ComplexityReport, tag string) *mcp.CallToolResult {
	count := report.RecommendedSubtasks(parent.ID, t.env.Config.DefaultSubtasks)
	nextID := tasks.MaxSubtaskID(parent.Subtasks) + 1

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Expand task %d (tag %q): %s\n\n", parent.ID, tag, parent.Title)
	fmt.Fprintf(&sb, "Generate about %d subtasks for this task, then call expand again with the array in 'subtasks'.\n\n", count)
	if parent.Description != "" {
		fmt.Fprintf(&sb, "**Description:** %s\n", parent.Description)
	}
	if parent.Details != "" {
		fmt.Fprintf(&sb, "**Details:** %s\n", parent.Details)
	}
	if len(parent.Subtasks) > 0 {
		fmt.Fprintf(&sb, "\nThe task already has %d subtasks; new ones append unless force=true.\n", len(parent.Subtasks))
	}
	if prompt := report.ExpansionPromptFor(parent.ID); prompt != "" {
		fmt.Fprintf(&sb, "\n**Analysis guidance:** %s\n", prompt)
	}
	sb.WriteString("\nEach item: {\"title\": ..., \"description\": ..., \"details\": ..., \"testStrategy\": ..., \"dependencies\": [...]}.\n")
	fmt.Fprintf(&sb, "New subtasks get ids starting at %d; dependencies may only name earlier items in the same batch, by id.\n", nextID)
	return mcp.NewToolResultText(sb.String())
}
