package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zp-innovation/mcp-task-master-sub000/pkg/taskerr"
)

// DefaultTag is the tag every store starts with and the fallback when no
// current tag has been recorded.
const DefaultTag = "master"

// Store defines persistence for the tag-partitioned task collection.
// Abstracted for testability.
type Store interface {
	// Load reads a store file. A missing file is a first run, not an
	// error: it yields a fresh collection with an empty master tag.
	// The second return reports whether a legacy flat file was migrated.
	Load(path string) (Collection, bool, error)
	// Save writes the collection back. Only persisted fields are
	// written; in-memory views such as complexity scores are not.
	Save(path string, col Collection) error
	// LoadState reads the sidecar state file (current tag pointer).
	LoadState(path string) (*State, error)
	// SaveState writes the sidecar state file.
	SaveState(path string, st *State) error
}

// State is the sidecar state persisted next to the store file. It replaces
// the process-wide "current tag" global: callers load it, thread it through,
// and persist it explicitly.
type State struct {
	CurrentTag   string `json:"currentTag"`
	LastSwitched string `json:"lastSwitched,omitempty"`
	// MigrationNoticePending is set once when a legacy file is migrated
	// and cleared by the presentation layer after it has told the user.
	MigrationNoticePending bool `json:"migrationNoticePending,omitempty"`
}

// FileStore implements Store on the local filesystem.
type FileStore struct{}

// NewFileStore creates a filesystem-backed task store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// legacyFile is the pre-tags flat format: a bare task list at top level.
type legacyFile struct {
	Tasks    []Task       `json:"tasks"`
	Metadata *TagMetadata `json:"metadata"`
}

// Load reads and parses the store file at path.
func (fs *FileStore) Load(path string) (Collection, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Genuine first run: fresh empty master tag.
			return newCollection(), false, nil
		}
		return nil, false, taskerr.New(taskerr.IO, fmt.Sprintf("reading %s", path), err)
	}

	col, migrated, err := ParseCollection(data)
	if err != nil {
		return nil, false, taskerr.New(taskerr.IO, fmt.Sprintf("parsing %s", path), err)
	}
	return col, migrated, nil
}

// ParseCollection decodes raw store-file bytes, migrating the legacy flat
// {tasks:[...]} format into a single master tag. Migration is idempotent:
// already-tagged data passes through untouched and reports migrated=false.
func ParseCollection(data []byte) (Collection, bool, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}

	if isLegacy(raw) {
		var legacy legacyFile
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, false, err
		}
		col := Collection{DefaultTag: migrateLegacy(legacy)}
		normalize(col)
		return col, true, nil
	}

	col := make(Collection, len(raw))
	for name, msg := range raw {
		var tag TagData
		if err := json.Unmarshal(msg, &tag); err != nil {
			return nil, false, fmt.Errorf("tag %q: %w", name, err)
		}
		col[name] = &tag
	}
	normalize(col)
	return col, false, nil
}

// isLegacy detects the flat pre-tags document: a top-level "tasks" array.
// A tagged file can legally contain a tag named "tasks", but that tag's
// value is an object, not an array.
func isLegacy(raw map[string]json.RawMessage) bool {
	msg, ok := raw["tasks"]
	if !ok {
		return false
	}
	trimmed := firstNonSpace(msg)
	return trimmed == '['
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

// migrateLegacy wraps a flat task list as the master tag partition.
func migrateLegacy(legacy legacyFile) *TagData {
	tag := &TagData{Tasks: legacy.Tasks}
	if legacy.Metadata != nil {
		tag.Metadata = *legacy.Metadata
	}
	return tag
}

// normalize enforces the structural invariants every load must restore:
// non-null metadata per tag, non-null task lists, and absent-not-empty
// subtask arrays.
func normalize(col Collection) {
	now := nowRFC3339()
	for _, tag := range col {
		if tag.Metadata.Created == "" {
			tag.Metadata.Created = now
		}
		if tag.Metadata.Updated == "" {
			tag.Metadata.Updated = now
		}
		if tag.Tasks == nil {
			tag.Tasks = []Task{}
		}
		for i := range tag.Tasks {
			tag.Tasks[i].Normalize()
			if tag.Tasks[i].Dependencies == nil {
				tag.Tasks[i].Dependencies = []Ref{}
			}
			for j := range tag.Tasks[i].Subtasks {
				if tag.Tasks[i].Subtasks[j].Dependencies == nil {
					tag.Tasks[i].Subtasks[j].Dependencies = []Ref{}
				}
			}
		}
	}
}

// newCollection builds the first-run collection: one empty master tag.
func newCollection() Collection {
	now := nowRFC3339()
	return Collection{
		DefaultTag: &TagData{
			Tasks: []Task{},
			Metadata: TagMetadata{
				Created:     now,
				Updated:     now,
				Description: "Default tasks context",
			},
		},
	}
}

// Save writes the collection to path, creating parent directories.
func (fs *FileStore) Save(path string, col Collection) error {
	for _, tag := range col {
		for i := range tag.Tasks {
			tag.Tasks[i].Normalize()
		}
	}
	data, err := json.MarshalIndent(col, "", "  ")
	if err != nil {
		return taskerr.New(taskerr.Internal, "marshaling task collection", err)
	}
	if err := writeFile(path, data); err != nil {
		return taskerr.New(taskerr.IO, fmt.Sprintf("writing %s", path), err)
	}
	return nil
}

// LoadState reads the sidecar state file. A missing file yields zero state.
func (fs *FileStore) LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, taskerr.New(taskerr.IO, fmt.Sprintf("reading %s", path), err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, taskerr.New(taskerr.IO, fmt.Sprintf("parsing %s", path), err)
	}
	return &st, nil
}

// SaveState writes the sidecar state file.
func (fs *FileStore) SaveState(path string, st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return taskerr.New(taskerr.Internal, "marshaling state", err)
	}
	if err := writeFile(path, data); err != nil {
		return taskerr.New(taskerr.IO, fmt.Sprintf("writing %s", path), err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Resolve picks the tag a caller should operate on. Precedence: explicit
// argument, then the recorded current tag, then master. The resolved name
// must exist in the collection.
func Resolve(col Collection, explicit, current string) (string, []Task, error) {
	name := DefaultTag
	if current != "" {
		name = current
	}
	if explicit != "" {
		name = explicit
	}
	tag, ok := col[name]
	if !ok {
		return "", nil, taskerr.Errorf(taskerr.NotFound, "tag %q does not exist", name)
	}
	return name, tag.Tasks, nil
}
