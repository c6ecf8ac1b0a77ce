package tasks

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/zp-innovation/mcp-task-master-sub000/pkg/taskerr"
)

// ComplexityReport is an external, read-only analysis artifact. It is never
// required for correctness: a nil report degrades every consumer to its
// defaults.
type ComplexityReport struct {
	Meta     ComplexityMeta `json:"meta"`
	Analysis []TaskAnalysis `json:"complexityAnalysis"`
}

// ComplexityMeta describes how and when the report was generated.
type ComplexityMeta struct {
	GeneratedAt    string  `json:"generatedAt"`
	TasksAnalyzed  int     `json:"tasksAnalyzed"`
	ThresholdScore float64 `json:"thresholdScore"`
	ProjectName    string  `json:"projectName"`
	UsedResearch   bool    `json:"usedResearch"`
}

// TaskAnalysis is the per-task entry of a complexity report.
type TaskAnalysis struct {
	TaskID              int     `json:"taskId"`
	TaskTitle           string  `json:"taskTitle"`
	ComplexityScore     float64 `json:"complexityScore"`
	RecommendedSubtasks int     `json:"recommendedSubtasks"`
	ExpansionPrompt     string  `json:"expansionPrompt"`
	Reasoning           string  `json:"reasoning"`
}

// LoadComplexityReport reads a report file. A missing file is not an
// error — it returns nil, and consumers fall back to defaults.
func LoadComplexityReport(path string) (*ComplexityReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, taskerr.New(taskerr.IO, fmt.Sprintf("reading %s", path), err)
	}
	var report ComplexityReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, taskerr.New(taskerr.IO, fmt.Sprintf("parsing %s", path), err)
	}
	return &report, nil
}

// ScoreFor returns the analyzed complexity score for a task id.
// Safe on a nil report.
func (r *ComplexityReport) ScoreFor(taskID int) (float64, bool) {
	if r == nil {
		return 0, false
	}
	for i := range r.Analysis {
		if r.Analysis[i].TaskID == taskID {
			return r.Analysis[i].ComplexityScore, true
		}
	}
	return 0, false
}

// RecommendedSubtasks returns the analyzed subtask count for a task id,
// or fallback when the report is nil or has no entry for the task.
func (r *ComplexityReport) RecommendedSubtasks(taskID, fallback int) int {
	if r == nil {
		return fallback
	}
	for i := range r.Analysis {
		if r.Analysis[i].TaskID == taskID && r.Analysis[i].RecommendedSubtasks > 0 {
			return r.Analysis[i].RecommendedSubtasks
		}
	}
	return fallback
}

// ExpansionPromptFor returns the stored expansion prompt for a task id,
// empty when absent. Safe on a nil report.
func (r *ComplexityReport) ExpansionPromptFor(taskID int) string {
	if r == nil {
		return ""
	}
	for i := range r.Analysis {
		if r.Analysis[i].TaskID == taskID {
			return r.Analysis[i].ExpansionPrompt
		}
	}
	return ""
}

// AttachScores joins report scores onto the in-memory task list. The score
// is a view field and is never persisted.
func AttachScores(tasks []Task, r *ComplexityReport) {
	if r == nil {
		return
	}
	for i := range tasks {
		if score, ok := r.ScoreFor(tasks[i].ID); ok {
			tasks[i].ComplexityScore = score
		}
	}
}
