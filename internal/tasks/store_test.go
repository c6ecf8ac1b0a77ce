package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zp-innovation/mcp-task-master-sub000/pkg/taskerr"
)

func TestFileStore_Load_FirstRun(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "tasks.json")

	col, migrated, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if migrated {
		t.Error("first run should not report a migration")
	}
	master, ok := col[DefaultTag]
	if !ok {
		t.Fatal("first run should yield a master tag")
	}
	if len(master.Tasks) != 0 {
		t.Errorf("fresh master should be empty, got %d tasks", len(master.Tasks))
	}
	if master.Metadata.Created == "" {
		t.Error("fresh master should have a created timestamp")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "tasks.json")

	col := Collection{
		"master": &TagData{
			Tasks: []Task{
				{
					ID:           1,
					Title:        "Set up project",
					Status:       StatusDone,
					Priority:     PriorityHigh,
					Dependencies: []Ref{},
				},
				{
					ID:           2,
					Title:        "Build API",
					Status:       StatusPending,
					Priority:     PriorityMedium,
					Dependencies: []Ref{TaskRef(1)},
					Subtasks: []Subtask{
						{ID: 1, Title: "Define routes", Status: StatusPending, Dependencies: []Ref{}},
						{ID: 2, Title: "Wire handlers", Status: StatusPending, Dependencies: []Ref{{Task: 1}}},
					},
				},
			},
			Metadata: TagMetadata{Created: "2026-01-01T00:00:00Z", Updated: "2026-01-01T00:00:00Z"},
		},
	}
	if err := store.Save(path, col); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, migrated, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if migrated {
		t.Error("tagged file should not report a migration")
	}
	taskList := loaded["master"].Tasks
	if len(taskList) != 2 {
		t.Fatalf("got %d tasks, want 2", len(taskList))
	}
	if got := taskList[1].Dependencies[0]; got != TaskRef(1) {
		t.Errorf("task 2 dependency = %v, want task 1", got)
	}
	if len(taskList[1].Subtasks) != 2 {
		t.Fatalf("got %d subtasks, want 2", len(taskList[1].Subtasks))
	}
	if got := taskList[1].Subtasks[1].Dependencies[0]; got != (Ref{Task: 1}) {
		t.Errorf("subtask sibling dependency = %v, want bare 1", got)
	}
}

func TestFileStore_Load_LegacyMigration(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "tasks.json")

	legacy := `{
		"tasks": [
			{"id": 1, "title": "Old task", "status": "pending", "dependencies": []}
		]
	}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("writing legacy file: %v", err)
	}

	col, migrated, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !migrated {
		t.Error("legacy file should report a migration")
	}
	master, ok := col[DefaultTag]
	if !ok {
		t.Fatal("legacy tasks should land in the master tag")
	}
	if len(master.Tasks) != 1 || master.Tasks[0].Title != "Old task" {
		t.Errorf("migrated tasks = %+v", master.Tasks)
	}
	if master.Metadata.Created == "" {
		t.Error("migration should fill in tag metadata")
	}
}

func TestFileStore_Load_CorruptFile(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	_, _, err := store.Load(path)
	if err == nil {
		t.Fatal("corrupt file should fail, not default to empty")
	}
	if !taskerr.IsCode(err, taskerr.IO) {
		t.Errorf("corrupt file should be an IO error, got %v", err)
	}
}

func TestFileStore_State_RoundTrip(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "state.json")

	// Missing state file is a fresh state, not an error.
	st, err := store.LoadState(path)
	if err != nil {
		t.Fatalf("LoadState on missing file: %v", err)
	}
	if st.CurrentTag != "" {
		t.Errorf("fresh state current tag = %q, want empty", st.CurrentTag)
	}

	st.CurrentTag = "feature-auth"
	st.LastSwitched = "2026-02-03T10:00:00Z"
	if err := store.SaveState(path, st); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	loaded, err := store.LoadState(path)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if loaded.CurrentTag != "feature-auth" {
		t.Errorf("current tag = %q, want feature-auth", loaded.CurrentTag)
	}
}

func TestResolve_Precedence(t *testing.T) {
	col := Collection{
		"master":  &TagData{},
		"feature": &TagData{},
		"current": &TagData{},
	}

	tests := []struct {
		name     string
		explicit string
		current  string
		want     string
		wantErr  bool
	}{
		{"default to master", "", "", "master", false},
		{"current wins over master", "", "current", "current", false},
		{"explicit wins over current", "feature", "current", "feature", false},
		{"unknown explicit", "nope", "current", "", true},
		{"unknown current", "", "nope", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Resolve(col, tt.explicit, tt.current)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !taskerr.IsCode(err, taskerr.NotFound) {
					t.Errorf("want NotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}
