// Package tasks holds the tag-partitioned task model and its persistence.
//
// A store file is a top-level mapping of tag name to an isolated task list.
// Each tag owns its own task id namespace: task 3 in tag "master" and task 3
// in tag "feature-x" are different entities, and dependency references never
// cross a tag boundary.
//
// The package follows the same design split as the rest of the server:
// types, store, tags, resolver, and complexity report live in separate files.
package tasks

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// --- Status enum ---

// Status is the lifecycle state of a task or subtask.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
	StatusCompleted  Status = "completed" // synonym of done
	StatusDeferred   Status = "deferred"
	StatusBlocked    Status = "blocked"
	StatusReview     Status = "review"
	StatusCancelled  Status = "cancelled"
)

// validStatuses is the set of allowed statuses.
var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusDone:       true,
	StatusCompleted:  true,
	StatusDeferred:   true,
	StatusBlocked:    true,
	StatusReview:     true,
	StatusCancelled:  true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid status %q: must be one of: pending, in-progress, done, completed, deferred, blocked, review, cancelled", s)
	}
	return nil
}

// IsTerminal reports whether the status counts as successfully finished.
// "done" and "completed" are synonyms for the same terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusCompleted
}

// --- Priority enum ---

// Priority orders tasks in the next-task resolver.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// priorityRank maps priorities to a sortable rank. Lower is more urgent.
var priorityRank = map[Priority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

// ValidatePriority returns an error if the priority is not recognized.
func ValidatePriority(p Priority) error {
	if _, ok := priorityRank[p]; !ok {
		return fmt.Errorf("invalid priority %q: must be one of: high, medium, low", p)
	}
	return nil
}

// Rank returns the sort rank of the priority. Unknown priorities rank
// below "low" so malformed data never outranks well-formed data.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

// --- Ref ---

// Ref points at a task ("3") or a subtask of a task ("3.2") within the
// same tag. A ref never crosses tags — it carries no tag name, so cross-tag
// references are unrepresentable.
type Ref struct {
	Task int
	Sub  int // 0 when the ref targets a task
}

// TaskRef builds a ref to a task.
func TaskRef(id int) Ref { return Ref{Task: id} }

// SubtaskRef builds a ref to a subtask.
func SubtaskRef(taskID, subID int) Ref { return Ref{Task: taskID, Sub: subID} }

// ParseRef parses "3" or "3.2".
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("empty reference")
	}
	parent, sub, compound := strings.Cut(s, ".")
	taskID, err := strconv.Atoi(parent)
	if err != nil || taskID <= 0 {
		return Ref{}, fmt.Errorf("invalid task reference %q", s)
	}
	if !compound {
		return Ref{Task: taskID}, nil
	}
	subID, err := strconv.Atoi(sub)
	if err != nil || subID <= 0 {
		return Ref{}, fmt.Errorf("invalid subtask reference %q", s)
	}
	return Ref{Task: taskID, Sub: subID}, nil
}

// IsSubtask reports whether the ref targets a subtask.
func (r Ref) IsSubtask() bool { return r.Sub > 0 }

// IsZero reports whether the ref is unset.
func (r Ref) IsZero() bool { return r.Task == 0 }

func (r Ref) String() string {
	if r.IsSubtask() {
		return fmt.Sprintf("%d.%d", r.Task, r.Sub)
	}
	return strconv.Itoa(r.Task)
}

// Compare orders refs by task id, then subtask id. A task ref sorts before
// the refs of its own subtasks.
func (r Ref) Compare(other Ref) int {
	if r.Task != other.Task {
		if r.Task < other.Task {
			return -1
		}
		return 1
	}
	if r.Sub != other.Sub {
		if r.Sub < other.Sub {
			return -1
		}
		return 1
	}
	return 0
}

// MarshalJSON writes bare task refs as JSON numbers and subtask refs as
// "parent.sub" strings, matching the persisted file format.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.IsSubtask() {
		return json.Marshal(r.String())
	}
	return json.Marshal(r.Task)
}

// UnmarshalJSON accepts a JSON number, a numeric string ("3"), or a
// compound string ("3.2"). Legacy files mix all three freely.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var num int
	if err := json.Unmarshal(data, &num); err == nil {
		if num <= 0 {
			return fmt.Errorf("invalid task reference %d", num)
		}
		*r = Ref{Task: num}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid reference %s", string(data))
	}
	parsed, err := ParseRef(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// --- Core data structures ---

// Subtask is a unit of work owned by exactly one parent task. It has no
// independent existence: bare integers in its dependency list refer to
// sibling subtasks of the same parent.
type Subtask struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Details      string `json:"details,omitempty"`
	TestStrategy string `json:"testStrategy,omitempty"`
	Status       Status `json:"status"`
	Dependencies []Ref  `json:"dependencies"`
}

// Task is the root work item, persisted inside one tag.
type Task struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Details      string    `json:"details,omitempty"`
	TestStrategy string    `json:"testStrategy,omitempty"`
	Status       Status    `json:"status"`
	Priority     Priority  `json:"priority,omitempty"`
	Dependencies []Ref     `json:"dependencies"`
	Subtasks     []Subtask `json:"subtasks,omitempty"`

	// ComplexityScore is a read-only view joined in from the complexity
	// report. It is never persisted.
	ComplexityScore float64 `json:"-"`
}

// Normalize enforces the structural invariant that an empty subtask list
// is absent rather than [].
func (t *Task) Normalize() {
	if len(t.Subtasks) == 0 {
		t.Subtasks = nil
	}
}

// Clone returns a structural deep copy of the task. Nil and empty slices
// stay distinct so a clone round-trips to the identical persisted form.
func (t Task) Clone() Task {
	out := t
	out.Dependencies = cloneRefs(t.Dependencies)
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		for i, st := range t.Subtasks {
			out.Subtasks[i] = st
			out.Subtasks[i].Dependencies = cloneRefs(st.Dependencies)
		}
	}
	return out
}

func cloneRefs(refs []Ref) []Ref {
	if refs == nil {
		return nil
	}
	out := make([]Ref, len(refs))
	copy(out, refs)
	return out
}

// TagMetadata describes a tag partition.
type TagMetadata struct {
	Created     string `json:"created"`
	Updated     string `json:"updated"`
	Description string `json:"description,omitempty"`
}

// TagData is one tag partition: its tasks plus metadata.
type TagData struct {
	Tasks    []Task      `json:"tasks"`
	Metadata TagMetadata `json:"metadata"`
}

// Touch bumps the partition's updated timestamp. Mutating operations call
// it just before the collection is persisted.
func (d *TagData) Touch() {
	d.Metadata.Updated = nowRFC3339()
}

// Clone returns a structural deep copy of the partition.
func (d *TagData) Clone() *TagData {
	out := &TagData{Metadata: d.Metadata}
	out.Tasks = make([]Task, len(d.Tasks))
	for i, t := range d.Tasks {
		out.Tasks[i] = t.Clone()
	}
	return out
}

// Collection is the in-memory form of a store file: tag name → partition.
type Collection map[string]*TagData

// TagNames returns the tag names in sorted order for deterministic output.
func (c Collection) TagNames() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- Lookup helpers ---

// FindTask returns a pointer into tasks for the task with the given id,
// or nil if absent.
func FindTask(tasks []Task, id int) *Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// FindSubtask returns pointers to a parent task and one of its subtasks,
// or nils if either is absent.
func FindSubtask(tasks []Task, parentID, subID int) (*Task, *Subtask) {
	parent := FindTask(tasks, parentID)
	if parent == nil {
		return nil, nil
	}
	for i := range parent.Subtasks {
		if parent.Subtasks[i].ID == subID {
			return parent, &parent.Subtasks[i]
		}
	}
	return parent, nil
}

// RefExists reports whether a ref resolves to an existing task or subtask
// in the given list.
func RefExists(tasks []Task, r Ref) bool {
	if r.IsSubtask() {
		_, st := FindSubtask(tasks, r.Task, r.Sub)
		return st != nil
	}
	return FindTask(tasks, r.Task) != nil
}

// StatusOf resolves a ref to the status of its target. The second return
// is false when the target does not exist.
func StatusOf(tasks []Task, r Ref) (Status, bool) {
	if r.IsSubtask() {
		_, st := FindSubtask(tasks, r.Task, r.Sub)
		if st == nil {
			return "", false
		}
		return st.Status, true
	}
	t := FindTask(tasks, r.Task)
	if t == nil {
		return "", false
	}
	return t.Status, true
}

// MaxSubtaskID returns the highest subtask id in the list, 0 when empty.
// New subtask ids are minted from this, not from the list length: removals
// leave gaps, and reusing a surviving id would collide.
func MaxSubtaskID(subs []Subtask) int {
	max := 0
	for i := range subs {
		if subs[i].ID > max {
			max = subs[i].ID
		}
	}
	return max
}

// MaxTaskID returns the highest task id in the list, 0 when empty.
func MaxTaskID(tasks []Task) int {
	max := 0
	for i := range tasks {
		if tasks[i].ID > max {
			max = tasks[i].ID
		}
	}
	return max
}
