package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
)

// taskRow is the list projection of a task. Rendering (tables, colors)
// belongs to the caller; tools only return data.
type taskRow struct {
	ID              int           `json:"id"`
	Title           string        `json:"title"`
	Status          tasks.Status  `json:"status"`
	Priority        tasks.Priority `json:"priority,omitempty"`
	Dependencies    []tasks.Ref   `json:"dependencies"`
	ComplexityScore float64       `json:"complexityScore,omitempty"`
	Subtasks        []subtaskRow  `json:"subtasks,omitempty"`
}

type subtaskRow struct {
	ID           int          `json:"id"`
	Title        string       `json:"title"`
	Status       tasks.Status `json:"status"`
	Dependencies []tasks.Ref  `json:"dependencies"`
}

// ListTasksTool handles the list MCP tool.
type ListTasksTool struct {
	env *Env
}

// NewListTasksTool creates a ListTasksTool.
func NewListTasksTool(env *Env) *ListTasksTool {
	return &ListTasksTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("list",
		mcp.WithDescription(
			"List the tasks of a tag, optionally filtered by status. "+
				"Complexity scores are attached when an analysis report exists.",
		),
		mcp.WithString("tag",
			mcp.Description("Tag to list (default: current tag)"),
		),
		mcp.WithString("status",
			mcp.Description("Only return tasks with this status"),
		),
		mcp.WithBoolean("with_subtasks",
			mcp.Description("Include each task's subtasks in the output"),
		),
	)
}

// Handle processes the list tool call.
func (t *ListTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	statusFilter := tasks.Status(strings.TrimSpace(req.GetString("status", "")))
	if statusFilter != "" {
		if err := tasks.ValidateStatus(statusFilter); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	withSubtasks := req.GetBool("with_subtasks", false)

	col, tag, err := t.env.loadTagged(req.GetString("tag", ""))
	if err != nil {
		return errResult(err)
	}
	migrated, err := t.env.consumeMigrationNotice()
	if err != nil {
		return errResult(err)
	}
	report, err := tasks.LoadComplexityReport(t.env.Config.ComplexityReportPath())
	if err != nil {
		return errResult(err)
	}

	rows := []taskRow{}
	for _, task := range col[tag].Tasks {
		if statusFilter != "" && task.Status != statusFilter {
			continue
		}
		row := taskRow{
			ID:           task.ID,
			Title:        task.Title,
			Status:       task.Status,
			Priority:     task.Priority,
			Dependencies: task.Dependencies,
		}
		if score, ok := report.ScoreFor(task.ID); ok {
			row.ComplexityScore = score
		}
		if withSubtasks {
			for _, st := range task.Subtasks {
				row.Subtasks = append(row.Subtasks, subtaskRow{
					ID:           st.ID,
					Title:        st.Title,
					Status:       st.Status,
					Dependencies: st.Dependencies,
				})
			}
		}
		rows = append(rows, row)
	}

	out := struct {
		Tag    string    `json:"tag"`
		Notice string    `json:"notice,omitempty"`
		Tasks  []taskRow `json:"tasks"`
	}{Tag: tag, Tasks: rows}
	if migrated {
		out.Notice = "Tasks file was migrated from the legacy flat format into the 'master' tag."
	}
	return jsonResult(out)
}

// ShowTaskTool handles the show MCP tool.
type ShowTaskTool struct {
	env *Env
}

// NewShowTaskTool creates a ShowTaskTool.
func NewShowTaskTool(env *Env) *ShowTaskTool {
	return &ShowTaskTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *ShowTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("show",
		mcp.WithDescription(
			"Show the full detail of one task or subtask. "+
				"Accepts a task id like '3' or a subtask id like '3.2'.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task or subtask reference"),
		),
		mcp.WithString("tag",
			mcp.Description("Tag to look in (default: current tag)"),
		),
	)
}

// Handle processes the show tool call.
func (t *ShowTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := requireRef(req, "id")
	if err != nil {
		return errResult(err)
	}
	col, tag, err := t.env.loadTagged(req.GetString("tag", ""))
	if err != nil {
		return errResult(err)
	}
	taskList := col[tag].Tasks

	if ref.IsSubtask() {
		_, sub := tasks.FindSubtask(taskList, ref.Task, ref.Sub)
		if sub == nil {
			return mcp.NewToolResultError(fmt.Sprintf("subtask %s does not exist in tag %q", ref, tag)), nil
		}
		return jsonResult(struct {
			Tag     string        `json:"tag"`
			Parent  int           `json:"parent"`
			Subtask tasks.Subtask `json:"subtask"`
		}{Tag: tag, Parent: ref.Task, Subtask: *sub})
	}

	task := tasks.FindTask(taskList, ref.Task)
	if task == nil {
		return mcp.NewToolResultError(fmt.Sprintf("task %d does not exist in tag %q", ref.Task, tag)), nil
	}
	report, err := tasks.LoadComplexityReport(t.env.Config.ComplexityReportPath())
	if err != nil {
		return errResult(err)
	}
	out := struct {
		Tag             string     `json:"tag"`
		Task            tasks.Task `json:"task"`
		ComplexityScore float64    `json:"complexityScore,omitempty"`
	}{Tag: tag, Task: *task}
	if score, ok := report.ScoreFor(task.ID); ok {
		out.ComplexityScore = score
	}
	return jsonResult(out)
}

// AddTaskTool handles the add-task MCP tool.
type AddTaskTool struct {
	env *Env
}

// NewAddTaskTool creates an AddTaskTool.
func NewAddTaskTool(env *Env) *AddTaskTool {
	return &AddTaskTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *AddTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("add_task",
		mcp.WithDescription(
			"Add a new task to a tag. The id is assigned automatically "+
				"(highest existing id + 1) and the status starts as pending.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title"),
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
		mcp.WithString("priority",
			mcp.Description("high, medium, or low (default: configured default)"),
		),
		mcp.WithString("dependencies",
			mcp.Description("Comma-separated references this task depends on, e.g. '1, 4, 3.2'"),
		),
		mcp.WithString("tag",
			mcp.Description("Tag to add to (default: current tag)"),
		),
	)
}

// Handle processes the add_task tool call.
func (t *AddTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	priority := tasks.Priority(req.GetString("priority", ""))
	if priority == "" {
		priority = tasks.Priority(t.env.Config.DefaultPriority)
	}
	if err := tasks.ValidatePriority(priority); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
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
	for _, dep := range deps {
		if !tasks.RefExists(taskList, dep) {
			return mcp.NewToolResultError(fmt.Sprintf("dependency %s does not exist in tag %q", dep, tag)), nil
		}
	}

	task := tasks.Task{
		ID:           tasks.MaxTaskID(taskList) + 1,
		Title:        title,
		Description:  strings.TrimSpace(req.GetString("description", "")),
		Details:      strings.TrimSpace(req.GetString("details", "")),
		TestStrategy: strings.TrimSpace(req.GetString("test_strategy", "")),
		Status:       tasks.StatusPending,
		Priority:     priority,
		Dependencies: deps,
	}
	if task.Dependencies == nil {
		task.Dependencies = []tasks.Ref{}
	}
	col[tag].Tasks = append(taskList, task)

	if err := t.env.save(col, tag); err != nil {
		return errResult(err)
	}
	t.env.record("add_task", tag, tasks.TaskRef(task.ID), title)
	return mcp.NewToolResultText(fmt.Sprintf("Added task %d (%s) to tag %q", task.ID, title, tag)), nil
}

// RemoveTaskTool handles the remove-task MCP tool.
type RemoveTaskTool struct {
	env *Env
}

// NewRemoveTaskTool creates a RemoveTaskTool.
func NewRemoveTaskTool(env *Env) *RemoveTaskTool {
	return &RemoveTaskTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *RemoveTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("remove_task",
		mcp.WithDescription(
			"Remove a task and every dependency reference pointing at it "+
				"or at its subtasks.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task id to remove"),
		),
		mcp.WithString("tag",
			mcp.Description("Tag to remove from (default: current tag)"),
		),
	)
}

// Handle processes the remove_task tool call.
func (t *RemoveTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := requireRef(req, "id")
	if err != nil {
		return errResult(err)
	}
	if ref.IsSubtask() {
		return mcp.NewToolResultError("'id' must be a task id; use remove_subtask for subtasks"), nil
	}
	col, tag, err := t.env.loadTagged(req.GetString("tag", ""))
	if err != nil {
		return errResult(err)
	}
	taskList := col[tag].Tasks
	if tasks.FindTask(taskList, ref.Task) == nil {
		return mcp.NewToolResultError(fmt.Sprintf("task %d does not exist in tag %q", ref.Task, tag)), nil
	}

	kept := taskList[:0]
	for _, task := range taskList {
		if task.ID != ref.Task {
			kept = append(kept, task)
		}
	}
	col[tag].Tasks = kept
	stripReferencesTo(col[tag].Tasks, ref.Task)

	if err := t.env.save(col, tag); err != nil {
		return errResult(err)
	}
	t.env.record("remove_task", tag, ref, "")
	return mcp.NewToolResultText(fmt.Sprintf("Removed task %d from tag %q", ref.Task, tag)), nil
}

// stripReferencesTo drops every dependency on the removed task or any of
// its subtasks from all remaining dependency lists.
func stripReferencesTo(taskList []tasks.Task, removedID int) {
	drop := func(deps []tasks.Ref) []tasks.Ref {
		kept := deps[:0]
		for _, dep := range deps {
			if dep.Task != removedID {
				kept = append(kept, dep)
			}
		}
		return kept
	}
	for i := range taskList {
		taskList[i].Dependencies = drop(taskList[i].Dependencies)
		for j := range taskList[i].Subtasks {
			sub := &taskList[i].Subtasks[j]
			kept := sub.Dependencies[:0]
			for _, dep := range sub.Dependencies {
				// Bare refs in a subtask list name siblings, not tasks.
				if dep.IsSubtask() && dep.Task == removedID {
					continue
				}
				kept = append(kept, dep)
			}
			sub.Dependencies = kept
		}
	}
}
