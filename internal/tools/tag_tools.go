package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
)

// AddTagTool handles the add-tag MCP tool.
type AddTagTool struct {
	env *Env
}

// NewAddTagTool creates an AddTagTool.
func NewAddTagTool(env *Env) *AddTagTool {
	return &AddTagTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *AddTagTool) Definition() mcp.Tool {
	return mcp.NewTool("add_tag",
		mcp.WithDescription(
			"Create a new tag partition, either empty or as a deep copy of "+
				"an existing tag.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the new tag (letters, digits, hyphens, underscores)"),
		),
		mcp.WithString("clone_from",
			mcp.Description("Existing tag to copy tasks from (default: create empty)"),
		),
		mcp.WithString("description",
			mcp.Description("Free-form tag description"),
		),
	)
}

// Handle processes the add_tag tool call.
func (t *AddTagTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	cloneFrom := strings.TrimSpace(req.GetString("clone_from", ""))

	col, _, err := t.env.loadCollection()
	if err != nil {
		return errResult(err)
	}
	if err := tasks.CreateTag(col, name, cloneFrom, req.GetString("description", "")); err != nil {
		return errResult(err)
	}
	if err := t.env.Store.Save(t.env.Config.TasksPath(), col); err != nil {
		return errResult(err)
	}
	t.env.record("add_tag", name, tasks.Ref{}, cloneFrom)

	if cloneFrom != "" {
		return mcp.NewToolResultText(fmt.Sprintf("Created tag %q as a copy of %q", name, cloneFrom)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created empty tag %q", name)), nil
}

// RenameTagTool handles the rename-tag MCP tool.
type RenameTagTool struct {
	env *Env
}

// NewRenameTagTool creates a RenameTagTool.
func NewRenameTagTool(env *Env) *RenameTagTool {
	return &RenameTagTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *RenameTagTool) Definition() mcp.Tool {
	return mcp.NewTool("rename_tag",
		mcp.WithDescription(
			"Rename a tag. The master tag cannot be renamed. If the renamed "+
				"tag is the current tag, the current-tag pointer follows it.",
		),
		mcp.WithString("old_name",
			mcp.Required(),
			mcp.Description("Tag to rename"),
		),
		mcp.WithString("new_name",
			mcp.Required(),
			mcp.Description("New tag name"),
		),
	)
}

// Handle processes the rename_tag tool call.
func (t *RenameTagTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	oldName := strings.TrimSpace(req.GetString("old_name", ""))
	newName := strings.TrimSpace(req.GetString("new_name", ""))

	col, st, err := t.env.loadCollection()
	if err != nil {
		return errResult(err)
	}
	if err := tasks.RenameTag(col, oldName, newName); err != nil {
		return errResult(err)
	}
	if err := t.env.Store.Save(t.env.Config.TasksPath(), col); err != nil {
		return errResult(err)
	}
	if st.CurrentTag == oldName {
		st.CurrentTag = newName
		if err := t.env.Store.SaveState(t.env.Config.StatePath(), st); err != nil {
			return errResult(err)
		}
	}

	t.env.record("rename_tag", newName, tasks.Ref{}, fmt.Sprintf("was %q", oldName))
	return mcp.NewToolResultText(fmt.Sprintf("Renamed tag %q to %q", oldName, newName)), nil
}

// CopyTagTool handles the copy-tag MCP tool.
type CopyTagTool struct {
	env *Env
}

// NewCopyTagTool creates a CopyTagTool.
func NewCopyTagTool(env *Env) *CopyTagTool {
	return &CopyTagTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *CopyTagTool) Definition() mcp.Tool {
	return mcp.NewTool("copy_tag",
		mcp.WithDescription(
			"Copy a tag into a new tag. Tasks are deep-copied; later edits "+
				"in either tag never affect the other.",
		),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Tag to copy from"),
		),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Name of the new tag"),
		),
	)
}

// Handle processes the copy_tag tool call.
func (t *CopyTagTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := strings.TrimSpace(req.GetString("source", ""))
	target := strings.TrimSpace(req.GetString("target", ""))

	col, _, err := t.env.loadCollection()
	if err != nil {
		return errResult(err)
	}
	if err := tasks.CopyTag(col, source, target); err != nil {
		return errResult(err)
	}
	if err := t.env.Store.Save(t.env.Config.TasksPath(), col); err != nil {
		return errResult(err)
	}
	t.env.record("copy_tag", target, tasks.Ref{}, fmt.Sprintf("from %q", source))
	return mcp.NewToolResultText(fmt.Sprintf("Copied tag %q to %q", source, target)), nil
}

// DeleteTagTool handles the delete-tag MCP tool.
type DeleteTagTool struct {
	env *Env
}

// NewDeleteTagTool creates a DeleteTagTool.
func NewDeleteTagTool(env *Env) *DeleteTagTool {
	return &DeleteTagTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteTagTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_tag",
		mcp.WithDescription(
			"Delete a tag and all its tasks. The master tag cannot be "+
				"deleted. If the deleted tag was current, the current tag "+
				"falls back to master.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Tag to delete"),
		),
	)
}

// Handle processes the delete_tag tool call.
func (t *DeleteTagTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))

	col, st, err := t.env.loadCollection()
	if err != nil {
		return errResult(err)
	}
	if err := tasks.DeleteTag(col, name); err != nil {
		return errResult(err)
	}
	if err := t.env.Store.Save(t.env.Config.TasksPath(), col); err != nil {
		return errResult(err)
	}
	if st.CurrentTag == name {
		st.CurrentTag = tasks.DefaultTag
		if err := t.env.Store.SaveState(t.env.Config.StatePath(), st); err != nil {
			return errResult(err)
		}
	}

	t.env.record("delete_tag", name, tasks.Ref{}, "")
	return mcp.NewToolResultText(fmt.Sprintf("Deleted tag %q", name)), nil
}

// UseTagTool handles the use-tag MCP tool.
type UseTagTool struct {
	env *Env
}

// NewUseTagTool creates a UseTagTool.
func NewUseTagTool(env *Env) *UseTagTool {
	return &UseTagTool{env: env}
}

// Definition returns the MCP tool definition for registration.
func (t *UseTagTool) Definition() mcp.Tool {
	return mcp.NewTool("use_tag",
		mcp.WithDescription(
			"Switch the current tag. Subsequent calls without an explicit "+
				"tag operate on this tag.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Tag to switch to"),
		),
	)
}

// Handle processes the use_tag tool call.
func (t *UseTagTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))

	col, st, err := t.env.loadCollection()
	if err != nil {
		return errResult(err)
	}
	if err := tasks.UseTag(col, st, name); err != nil {
		return errResult(err)
	}
	if err := t.env.Store.SaveState(t.env.Config.StatePath(), st); err != nil {
		return errResult(err)
	}
	t.env.record("use_tag", name, tasks.Ref{}, "")
	return mcp.NewToolResultText(fmt.Sprintf("Current tag is now %q", name)), nil
}
