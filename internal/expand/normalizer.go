// Package expand turns externally generated subtask candidates into a
// consistent, id-sequenced, dependency-clamped set and merges it into a
// parent task. It also handles the reverse direction: promoting a subtask
// into a standalone task.
//
// Everything arriving here is untrusted model output. Candidates are
// validated against an explicit JSON Schema at the boundary — items that
// don't parse are dropped, never partially trusted.
package expand

import (
	"encoding/json"
	"strconv"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
	"github.com/zp-innovation/mcp-task-master-sub000/pkg/taskerr"
)

// candidateSchema is the shape one generated subtask candidate must have.
// Supplied ids and statuses are tolerated but ignored — the normalizer
// assigns both. Dependencies may arrive as numbers or numeric strings;
// anything else in that array is dropped during clamping.
const candidateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title"],
  "properties": {
    "id": {},
    "title": { "type": "string", "minLength": 1 },
    "description": { "type": "string" },
    "details": { "type": "string" },
    "testStrategy": { "type": "string" },
    "status": { "type": "string" },
    "dependencies": { "type": "array" }
  }
}`

var compiledCandidateSchema = jsonschema.MustCompileString("subtask-candidate.json", candidateSchema)

// candidate is the decoded form of one schema-valid raw item.
type candidate struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Details      string `json:"details"`
	TestStrategy string `json:"testStrategy"`
	Dependencies []any  `json:"dependencies"`
}

// Normalize reduces raw candidate items to a consistent subtask batch for
// parent and merges it in.
//
// When force is set an existing subtask list is cleared first; otherwise
// the batch appends. Ids are assigned sequentially starting past the
// highest surviving subtask id (removals leave gaps, so the list length
// is not a safe base), regardless of what the input supplied. Each item's
// dependencies are clamped to subtasks introduced earlier in this same
// batch; everything else is dropped. Status is forced to pending.
//
// A non-empty input that normalizes to zero usable items is a
// normalization failure — distinct from the input itself being empty.
func Normalize(parent *tasks.Task, raw []json.RawMessage, force bool) ([]tasks.Subtask, error) {
	if parent == nil {
		return nil, taskerr.Errorf(taskerr.Internal, "normalize: nil parent")
	}
	if force {
		parent.Subtasks = nil
	}

	nextID := tasks.MaxSubtaskID(parent.Subtasks) + 1
	currentID := nextID
	var batch []tasks.Subtask

	for _, item := range raw {
		cand, ok := decodeCandidate(item)
		if !ok {
			continue
		}
		st := tasks.Subtask{
			ID:           currentID,
			Title:        cand.Title,
			Description:  cand.Description,
			Details:      cand.Details,
			TestStrategy: cand.TestStrategy,
			Status:       tasks.StatusPending,
			Dependencies: clampDependencies(cand.Dependencies, nextID, currentID),
		}
		batch = append(batch, st)
		currentID++
	}

	if len(batch) == 0 && len(raw) > 0 {
		return nil, taskerr.Errorf(taskerr.Normalization,
			"none of the %d generated subtasks survived validation", len(raw))
	}

	parent.Subtasks = append(parent.Subtasks, batch...)
	parent.Normalize()
	return batch, nil
}

// decodeCandidate validates one raw item against the candidate schema and
// decodes it. Items that fail either step are dropped.
func decodeCandidate(item json.RawMessage) (candidate, bool) {
	var generic any
	if err := json.Unmarshal(item, &generic); err != nil {
		return candidate{}, false
	}
	if err := compiledCandidateSchema.Validate(generic); err != nil {
		return candidate{}, false
	}
	var cand candidate
	if err := json.Unmarshal(item, &cand); err != nil {
		return candidate{}, false
	}
	return cand, true
}

// clampDependencies keeps only integer refs to subtasks introduced earlier
// in the same batch: nextID <= dep < currentID. Non-numeric entries and
// out-of-range ids are dropped.
func clampDependencies(raw []any, nextID, currentID int) []tasks.Ref {
	deps := []tasks.Ref{}
	for _, v := range raw {
		id, ok := asInt(v)
		if !ok || id < nextID || id >= currentID {
			continue
		}
		deps = append(deps, tasks.Ref{Task: id})
	}
	return deps
}

// asInt coerces a decoded JSON value to an integer id. Numbers must be
// whole; strings must parse as integers.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case string:
		id, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}
