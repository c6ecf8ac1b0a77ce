// Package config resolves runtime settings from the environment.
//
// All knobs live under the TASKMASTER_ prefix; every one has a sensible
// default so a bare invocation works inside any project directory.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the resolved settings for one invocation.
type Config struct {
	// ProjectDir is the project root all relative paths resolve against.
	ProjectDir string `envconfig:"PROJECT_DIR" default:"."`
	// TasksFile is the tag-partitioned store file.
	TasksFile string `envconfig:"TASKS_FILE" default:".taskmaster/tasks/tasks.json"`
	// StateFile is the sidecar state file (current tag pointer).
	StateFile string `envconfig:"STATE_FILE" default:".taskmaster/state.json"`
	// ComplexityReport is the optional read-only analysis artifact.
	ComplexityReport string `envconfig:"COMPLEXITY_REPORT" default:".taskmaster/reports/task-complexity-report.json"`
	// HistoryFile is the optional SQLite operation journal.
	HistoryFile string `envconfig:"HISTORY_FILE" default:".taskmaster/history.db"`
	// HistoryDisabled turns the journal off entirely.
	HistoryDisabled bool `envconfig:"HISTORY_DISABLED"`
	// DefaultSubtasks is the expansion count used when the complexity
	// report is absent or has no entry for a task.
	DefaultSubtasks int `envconfig:"DEFAULT_SUBTASKS" default:"5"`
	// DefaultPriority is assigned to tasks created without one.
	DefaultPriority string `envconfig:"DEFAULT_PRIORITY" default:"medium"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("taskmaster", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if cfg.DefaultSubtasks < 1 {
		return nil, fmt.Errorf("TASKMASTER_DEFAULT_SUBTASKS must be at least 1, got %d", cfg.DefaultSubtasks)
	}
	return &cfg, nil
}

// TasksPath returns the absolute path of the store file.
func (c *Config) TasksPath() string { return c.resolve(c.TasksFile) }

// StatePath returns the absolute path of the state file.
func (c *Config) StatePath() string { return c.resolve(c.StateFile) }

// ComplexityReportPath returns the absolute path of the report file.
func (c *Config) ComplexityReportPath() string { return c.resolve(c.ComplexityReport) }

// HistoryPath returns the absolute path of the journal database.
func (c *Config) HistoryPath() string { return c.resolve(c.HistoryFile) }

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ProjectDir, path)
}
