package expand

import (
	"testing"

	"github.com/zp-innovation/mcp-task-master-sub000/pkg/taskerr"
)

func TestParseCandidates_DirectArray(t *testing.T) {
	items, err := ParseCandidates(`[{"title": "a"}, {"title": "b"}]`)
	if err != nil {
		t.Fatalf("ParseCandidates failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want 2", len(items))
	}
}

func TestParseCandidates_FencedBlock(t *testing.T) {
	raw := "```json\n[{\"title\": \"a\"}]\n```"
	items, err := ParseCandidates(raw)
	if err != nil {
		t.Fatalf("ParseCandidates failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d items, want 1", len(items))
	}
}

func TestParseCandidates_WrapperObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"subtasks key", `{"subtasks": [{"title": "a"}]}`},
		{"tasks key", `{"tasks": [{"title": "a"}]}`},
		{"items key", `{"items": [{"title": "a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ParseCandidates(tt.raw)
			if err != nil {
				t.Fatalf("ParseCandidates failed: %v", err)
			}
			if len(items) != 1 {
				t.Errorf("got %d items, want 1", len(items))
			}
		})
	}
}

func TestParseCandidates_ProseAroundArray(t *testing.T) {
	raw := `Here are the subtasks you asked for:

[{"title": "a"}, {"title": "b"}]

Let me know if you need more.`
	items, err := ParseCandidates(raw)
	if err != nil {
		t.Fatalf("ParseCandidates failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want 2", len(items))
	}
}

func TestParseCandidates_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n  "},
		{"no array at all", "I could not generate anything useful."},
		{"broken array", `[{"title": "a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCandidates(tt.raw)
			if !taskerr.IsCode(err, taskerr.Normalization) {
				t.Errorf("want Normalization error, got %v", err)
			}
		})
	}
}
