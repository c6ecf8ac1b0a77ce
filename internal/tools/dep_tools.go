package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zp-innovation/mcp-task-master-sub000/internal/deps"
	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
)

// AddDependencyTool handles the add-dependency MCP tool.
type AddDependencyTool struct {
	env *Env
}

// NewAddDependencyTool creates an AddDependencyTool.
func NewAddDependencyTool(env *Env) *AddDependencyTool {
	return &AddDependencyTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *AddDependencyTool) Definition() mcp.Tool {
	return mcp.NewTool("add_dependency",
		mcp.WithDescription(
			"Record that one item depends on another. Both must exist in the "+
				"same tag and the new edge is refused if it would create a "+
				"cycle. When 'id' is a subtask, a bare number in 'depends_on' "+
				"names a sibling subtask of the same parent.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task or subtask that gains the dependency"),
		),
		mcp.WithString("depends_on",
			mcp.Required(),
			mcp.Description("Reference that must be completed first"),
		),
		mcp.WithString("tag",
			mcp.Description("Tag to operate on (default: current tag)"),
		),
	)
}

// Handle processes the add_dependency tool call.
func (t *AddDependencyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := requireRef(req, "id")
	if err != nil {
		return errResult(err)
	}
	dep, err := requireRef(req, "depends_on")
	if err != nil {
		return errResult(err)
	}

	col, tag, err := t.env.loadTagged(req.GetString("tag", ""))
	if err != nil {
		return errResult(err)
	}
	taskList := col[tag].Tasks
	if !tasks.RefExists(taskList, owner) {
		return mcp.NewToolResultError(fmt.Sprintf("%s does not exist in tag %q", owner, tag)), nil
	}

	// Inside a subtask's list a bare number names a sibling; qualify for
	// existence and cycle checks but store the bare form.
	target := dep
	if owner.IsSubtask() && !dep.IsSubtask() {
		target = tasks.SubtaskRef(owner.Task, dep.Task)
	}
	if !tasks.RefExists(taskList, target) {
		return mcp.NewToolResultError(fmt.Sprintf("%s does not exist in tag %q", target, tag)), nil
	}
	if target == owner {
		return mcp.NewToolResultError(fmt.Sprintf("%s cannot depend on itself", owner)), nil
	}

	depList := ownerDependencies(taskList, owner)
	for _, existing := range *depList {
		qualified := existing
		if owner.IsSubtask() && !existing.IsSubtask() {
			qualified = tasks.SubtaskRef(owner.Task, existing.Task)
		}
		if qualified == target {
			return mcp.NewToolResultError(fmt.Sprintf("%s already depends on %s", owner, target)), nil
		}
	}

	*depList = append(*depList, dep)
	if report := deps.Validate(taskList); len(report.Cycles) > 0 {
		return mcp.NewToolResultError(fmt.Sprintf(
			"adding %s -> %s would create a dependency cycle", owner, target,
		)), nil
	}

	if err := t.env.save(col, tag); err != nil {
		return errResult(err)
	}
	t.env.record("add_dependency", tag, owner, fmt.Sprintf("depends on %s", target))
	return mcp.NewToolResultText(fmt.Sprintf("%s now depends on %s in tag %q", owner, target, tag)), nil
}

// RemoveDependencyTool handles the remove-dependency MCP tool.
type RemoveDependencyTool struct {
	env *Env
}

// NewRemoveDependencyTool creates a RemoveDependencyTool.
func NewRemoveDependencyTool(env *Env) *RemoveDependencyTool {
	return &RemoveDependencyTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *RemoveDependencyTool) Definition() mcp.Tool {
	return mcp.NewTool("remove_dependency",
		mcp.WithDescription("Remove a recorded dependency from a task or subtask."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task or subtask holding the dependency"),
		),
		mcp.WithString("depends_on",
			mcp.Required(),
			mcp.Description("Reference to stop depending on"),
		),
		mcp.WithString("tag",
			mcp.Description("Tag to operate on (default: current tag)"),
		),
	)
}

// Handle processes the remove_dependency tool call.
func (t *RemoveDependencyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := requireRef(req, "id")
	if err != nil {
		return errResult(err)
	}
	dep, err := requireRef(req, "depends_on")
	if err != nil {
		return errResult(err)
	}

	col, tag, err := t.env.loadTagged(req.GetString("tag", ""))
	if err != nil {
		return errResult(err)
	}
	taskList := col[tag].Tasks
	if !tasks.RefExists(taskList, owner) {
		return mcp.NewToolResultError(fmt.Sprintf("%s does not exist in tag %q", owner, tag)), nil
	}

	target := dep
	if owner.IsSubtask() && !dep.IsSubtask() {
		target = tasks.SubtaskRef(owner.Task, dep.Task)
	}

	depList := ownerDependencies(taskList, owner)
	found := false
	kept := (*depList)[:0]
	for _, existing := range *depList {
		qualified := existing
		if owner.IsSubtask() && !existing.IsSubtask() {
			qualified = tasks.SubtaskRef(owner.Task, existing.Task)
		}
		if qualified == target {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("%s does not depend on %s", owner, target)), nil
	}
	*depList = kept

	if err := t.env.save(col, tag); err != nil {
		return errResult(err)
	}
	t.env.record("remove_dependency", tag, owner, fmt.Sprintf("no longer depends on %s", target))
	return mcp.NewToolResultText(fmt.Sprintf("%s no longer depends on %s in tag %q", owner, target, tag)), nil
}

// ownerDependencies returns a pointer to the dependency list of an item
// known to exist.
func ownerDependencies(taskList []tasks.Task, owner tasks.Ref) *[]tasks.Ref {
	if owner.IsSubtask() {
		_, sub := tasks.FindSubtask(taskList, owner.Task, owner.Sub)
		return &sub.Dependencies
	}
	return &tasks.FindTask(taskList, owner.Task).Dependencies
}

// ValidateDependenciesTool handles the validate-dependencies MCP tool.
type ValidateDependenciesTool struct {
	env *Env
}

// NewValidateDependenciesTool creates a ValidateDependenciesTool.
func NewValidateDependenciesTool(env *Env) *ValidateDependenciesTool {
	return &ValidateDependenciesTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidateDependenciesTool) Definition() mcp.Tool {
	return mcp.NewTool("validate_dependencies",
		mcp.WithDescription(
			"Check a tag's dependency graph for dangling references, "+
				"self-references, and cycles. Read-only; use fix_dependencies "+
				"to repair.",
		),
		mcp.WithString("tag",
			mcp.Description("Tag to validate (default: current tag)"),
		),
	)
}

// Handle processes the validate_dependencies tool call.
func (t *ValidateDependenciesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	col, tag, err := t.env.loadTagged(req.GetString("tag", ""))
	if err != nil {
		return errResult(err)
	}
	report := deps.Validate(col[tag].Tasks)
	return jsonResult(struct {
		Tag    string       `json:"tag"`
		OK     bool         `json:"ok"`
		Issues int          `json:"issues"`
		Report *deps.Report `json:"report"`
	}{Tag: tag, OK: report.OK(), Issues: report.Issues(), Report: report})
}

// FixDependenciesTool handles the fix-dependencies MCP tool.
type FixDependenciesTool struct {
	env *Env
}

// NewFixDependenciesTool creates a FixDependenciesTool.
func NewFixDependenciesTool(env *Env) *FixDependenciesTool {
	return &FixDependenciesTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *FixDependenciesTool) Definition() mcp.Tool {
	return mcp.NewTool("fix_dependencies",
		mcp.WithDescription(
			"Repair a tag's dependency graph: remove dangling references and "+
				"self-references, break cycles, and drop duplicates. "+
				"Deterministic and idempotent; reports every change made.",
		),
		mcp.WithString("tag",
			mcp.Description("Tag to repair (default: current tag)"),
		),
	)
}

// Handle processes the fix_dependencies tool call.
func (t *FixDependenciesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	col, tag, err := t.env.loadTagged(req.GetString("tag", ""))
	if err != nil {
		return errResult(err)
	}
	fixed, report := deps.Fix(col[tag].Tasks)
	if report.Changes() > 0 {
		col[tag].Tasks = fixed
		if err := t.env.save(col, tag); err != nil {
			return errResult(err)
		}
		t.env.record("fix_dependencies", tag, tasks.Ref{}, fmt.Sprintf("%d changes", report.Changes()))
	}
	return jsonResult(struct {
		Tag     string          `json:"tag"`
		Changes int             `json:"changes"`
		Report  *deps.FixReport `json:"report"`
	}{Tag: tag, Changes: report.Changes(), Report: report})
}
