package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zp-innovation/mcp-task-master-sub000/internal/expand"
	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
)

// AddSubtaskTool handles the add-subtask MCP tool.
type AddSubtaskTool struct {
	env *Env
}

// NewAddSubtaskTool creates an AddSubtaskTool.
func NewAddSubtaskTool(env *Env) *AddSubtaskTool {
	return &AddSubtaskTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *AddSubtaskTool) Definition() mcp.Tool {
	return mcp.NewTool("add_subtask",
		mcp.WithDescription(
			"Add a subtask under an existing task. The subtask id is assigned "+
				"automatically within the parent. Bare numbers in dependencies "+
				"refer to sibling subtasks of the same parent.",
		),
		mcp.WithString("parent",
			mcp.Required(),
			mcp.Description("Id of the parent task"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Subtask title"),
		),
		mcp.WithString("description",
			mcp.Description("One-line summary"),
		),
		mcp.WithString("details",
			mcp.Description("Implementation notes"),
		),
		mcp.WithString("test_strategy",
			mcp.Description("How completion will be verified"),
		),
		mcp.WithString("dependencies",
			mcp.Description("Comma-separated references, e.g. '2, 5.1' (bare = sibling)"),
		),
		mcp.WithString("tag",
			mcp.Description("Tag to add to (default: current tag)"),
		),
	)
}

// Handle processes the add_subtask tool call.
func (t *AddSubtaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parentRef, err := requireRef(req, "parent")
	if err != nil {
		return errResult(err)
	}
	if parentRef.IsSubtask() {
		return mcp.NewToolResultError("'parent' must be a task id, not a subtask reference"), nil
	}
	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	deps, err := parseRefList(req.GetString("dependencies", ""))
	if err != nil {
		return errResult(err)
	}

	col, tag, err := t.env.loadTagged(req.GetString("tag", ""))
	if err != nil {
		return errResult(err)
	}
	taskList := col[tag].Tasks
	parent := tasks.FindTask(taskList, parentRef.Task)
	if parent == nil {
		return mcp.NewToolResultError(fmt.Sprintf("task %d does not exist in tag %q", parentRef.Task, tag)), nil
	}
	for _, dep := range deps {
		// Bare refs name siblings of the new subtask.
		target := dep
		if !dep.IsSubtask() {
			target = tasks.SubtaskRef(parent.ID, dep.Task)
		}
		if !tasks.RefExists(taskList, target) {
			return mcp.NewToolResultError(fmt.Sprintf("dependency %s does not exist in tag %q", dep, tag)), nil
		}
	}

	nextID := tasks.MaxSubtaskID(parent.Subtasks) + 1
	if deps == nil {
		deps = []tasks.Ref{}
	}
	parent.Subtasks = append(parent.Subtasks, tasks.Subtask{
		ID:           nextID,
		Title:        title,
		Description:  strings.TrimSpace(req.GetString("description", "")),
		Details:      strings.TrimSpace(req.GetString("details", "")),
		TestStrategy: strings.TrimSpace(req.GetString("test_strategy", "")),
		Status:       tasks.StatusPending,
		Dependencies: deps,
	})

	if err := t.env.save(col, tag); err != nil {
		return errResult(err)
	}
	ref := tasks.SubtaskRef(parent.ID, nextID)
	t.env.record("add_subtask", tag, ref, title)
	return mcp.NewToolResultText(fmt.Sprintf("Added subtask %s (%s) in tag %q", ref, title, tag)), nil
}

// RemoveSubtaskTool handles the remove-subtask MCP tool, including the
// convert mode that promotes the subtask to a standalone task instead of
// discarding it.
type RemoveSubtaskTool struct {
	env *Env
}

// NewRemoveSubtaskTool creates a RemoveSubtaskTool.
func NewRemoveSubtaskTool(env *Env) *RemoveSubtaskTool {
	return &RemoveSubtaskTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *RemoveSubtaskTool) Definition() mcp.Tool {
	return mcp.NewTool("remove_subtask",
		mcp.WithDescription(
			"Remove a subtask from its parent. With convert=true the subtask "+
				"is promoted to a standalone task that depends on its former "+
				"parent instead of being discarded.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Subtask reference like '3.2'"),
		),
		mcp.WithBoolean("convert",
			mcp.Description("Promote to a standalone task instead of deleting"),
		),
		mcp.WithString("tag",
			mcp.Description("Tag to operate on (default: current tag)"),
		),
	)
}

// Handle processes the remove_subtask tool call.
func (t *RemoveSubtaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := requireRef(req, "id")
	if err != nil {
		return errResult(err)
	}
	if !ref.IsSubtask() {
		return mcp.NewToolResultError("'id' must be a subtask reference like '3.2'"), nil
	}
	col, tag, err := t.env.loadTagged(req.GetString("tag", ""))
	if err != nil {
		return errResult(err)
	}

	if req.GetBool("convert", false) {
		updated, promoted, err := expand.Promote(col[tag].Tasks, ref.Task, ref.Sub)
		if err != nil {
			return errResult(err)
		}
		col[tag].Tasks = updated
		if err := t.env.save(col, tag); err != nil {
			return errResult(err)
		}
		t.env.record("promote_subtask", tag, ref, fmt.Sprintf("now task %d", promoted.ID))
		return mcp.NewToolResultText(fmt.Sprintf(
			"Promoted subtask %s to task %d in tag %q", ref, promoted.ID, tag,
		)), nil
	}

	taskList := col[tag].Tasks
	parent, sub := tasks.FindSubtask(taskList, ref.Task, ref.Sub)
	if parent == nil {
		return mcp.NewToolResultError(fmt.Sprintf("task %d does not exist in tag %q", ref.Task, tag)), nil
	}
	if sub == nil {
		return mcp.NewToolResultError(fmt.Sprintf("subtask %s does not exist in tag %q", ref, tag)), nil
	}

	kept := parent.Subtasks[:0]
	for _, st := range parent.Subtasks {
		if st.ID != ref.Sub {
			kept = append(kept, st)
		}
	}
	parent.Subtasks = kept
	parent.Normalize()
	stripSubtaskReferences(taskList, ref)

	if err := t.env.save(col, tag); err != nil {
		return errResult(err)
	}
	t.env.record("remove_subtask", tag, ref, "")
	return mcp.NewToolResultText(fmt.Sprintf("Removed subtask %s from tag %q", ref, tag)), nil
}

// stripSubtaskReferences drops dependencies on the removed subtask: the
// qualified form everywhere, and the bare sibling form inside the former
// parent's remaining subtasks.
func stripSubtaskReferences(taskList []tasks.Task, removed tasks.Ref) {
	for i := range taskList {
		task := &taskList[i]
		kept := task.Dependencies[:0]
		for _, dep := range task.Dependencies {
			if dep == removed {
				continue
			}
			kept = append(kept, dep)
		}
		task.Dependencies = kept

		for j := range task.Subtasks {
			sub := &task.Subtasks[j]
			keptDeps := sub.Dependencies[:0]
			for _, dep := range sub.Dependencies {
				if dep == removed {
					continue
				}
				if task.ID == removed.Task && !dep.IsSubtask() && dep.Task == removed.Sub {
					continue
				}
				keptDeps = append(keptDeps, dep)
			}
			sub.Dependencies = keptDeps
		}
	}
}
