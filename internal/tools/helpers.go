// Package tools implements the MCP tool handlers.
//
// Each tool is a struct that receives its dependencies via Env and exposes
// Definition/Handle for registration. Tools are storage and compute tools:
// the calling model does any generating, tools validate and persist.
//
// Expected failures (bad input, missing targets, conflicts) surface as
// tool-result errors the caller can read; infrastructure failures return
// a Go error and abort the request.
package tools

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zp-innovation/mcp-task-master-sub000/internal/config"
	"github.com/zp-innovation/mcp-task-master-sub000/internal/history"
	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
	"github.com/zp-innovation/mcp-task-master-sub000/pkg/taskerr"
)

// Env bundles the dependencies shared by every tool. Journal may be nil;
// all journal methods are nil-safe.
type Env struct {
	Store   tasks.Store
	Config  *config.Config
	Journal *history.Journal
}

// loadCollection loads the full collection and the sidecar state, running
// the legacy migration side effects when needed. Every tool load goes
// through here so a legacy file is migrated the same way no matter which
// tool touches it first.
func (e *Env) loadCollection() (tasks.Collection, *tasks.State, error) {
	col, migrated, err := e.Store.Load(e.Config.TasksPath())
	if err != nil {
		return nil, nil, err
	}
	st, err := e.Store.LoadState(e.Config.StatePath())
	if err != nil {
		return nil, nil, err
	}
	if migrated {
		// Rewrite the file in tagged form so the migration runs at most
		// once, and leave a one-time notice for the next listing.
		if err := e.Store.Save(e.Config.TasksPath(), col); err != nil {
			return nil, nil, err
		}
		st.MigrationNoticePending = true
		if err := e.Store.SaveState(e.Config.StatePath(), st); err != nil {
			return nil, nil, err
		}
	}
	return col, st, nil
}

// loadTagged loads the collection and resolves the working tag with the
// usual precedence: explicit argument, then current tag, then master.
func (e *Env) loadTagged(explicit string) (tasks.Collection, string, error) {
	col, st, err := e.loadCollection()
	if err != nil {
		return nil, "", err
	}
	tag, _, err := tasks.Resolve(col, explicit, st.CurrentTag)
	if err != nil {
		return nil, "", err
	}
	return col, tag, nil
}

// save persists the collection, bumping the mutated tag's timestamp first.
func (e *Env) save(col tasks.Collection, tag string) error {
	if data, ok := col[tag]; ok {
		data.Touch()
	}
	return e.Store.Save(e.Config.TasksPath(), col)
}

// consumeMigrationNotice reports whether a legacy-format migration notice
// is pending and clears it, so the notice is shown exactly once.
func (e *Env) consumeMigrationNotice() (bool, error) {
	st, err := e.Store.LoadState(e.Config.StatePath())
	if err != nil {
		return false, err
	}
	if !st.MigrationNoticePending {
		return false, nil
	}
	st.MigrationNoticePending = false
	if err := e.Store.SaveState(e.Config.StatePath(), st); err != nil {
		return false, err
	}
	return true, nil
}

// record journals a successful mutation. Journal failures are logged and
// swallowed — a mutation that already persisted must not fail afterwards.
func (e *Env) record(op, tag string, ref tasks.Ref, detail string) {
	refStr := ""
	if !ref.IsZero() {
		refStr = ref.String()
	}
	if err := e.Journal.Record(op, tag, refStr, detail); err != nil {
		log.Printf("WARNING: history journal: %v", err)
	}
}

// errResult maps an error to the right MCP outcome: expected failures
// become tool-result errors, infrastructure errors propagate.
func errResult(err error) (*mcp.CallToolResult, error) {
	if taskerr.Expected(err) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

// jsonResult renders v as indented JSON in a text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// parseRefList parses a comma-separated list of task references, e.g.
// "1, 4, 3.2". Empty input yields an empty list.
func parseRefList(s string) ([]tasks.Ref, error) {
	var refs []tasks.Ref
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ref, err := tasks.ParseRef(part)
		if err != nil {
			return nil, taskerr.Errorf(taskerr.Validation, "invalid dependency %q: %v", part, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// requireRef parses a required reference argument.
func requireRef(req mcp.CallToolRequest, name string) (tasks.Ref, error) {
	raw := strings.TrimSpace(req.GetString(name, ""))
	if raw == "" {
		return tasks.Ref{}, taskerr.Errorf(taskerr.Validation, "'%s' is required", name)
	}
	ref, err := tasks.ParseRef(raw)
	if err != nil {
		return tasks.Ref{}, taskerr.Errorf(taskerr.Validation, "invalid '%s': %v", name, err)
	}
	return ref, nil
}
