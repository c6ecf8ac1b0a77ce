package expand

import (
	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
	"github.com/zp-innovation/mcp-task-master-sub000/pkg/taskerr"
)

// Promote converts a subtask into a standalone task. The input list is not
// mutated; the returned list has the subtask removed from its parent and a
// new task appended.
//
// The new task keeps the subtask's content and status, inherits the
// parent's priority, and gets id max(existing)+1. Its dependency list is
// the subtask's dependencies plus the former parent, deduplicated — bare
// sibling refs are requalified as "parent.sibling" so they stay meaningful
// outside the parent.
func Promote(taskList []tasks.Task, parentID, subID int) ([]tasks.Task, *tasks.Task, error) {
	updated := make([]tasks.Task, len(taskList))
	for i, t := range taskList {
		updated[i] = t.Clone()
	}

	parent, sub := tasks.FindSubtask(updated, parentID, subID)
	if parent == nil {
		return nil, nil, taskerr.Errorf(taskerr.NotFound, "task %d does not exist", parentID)
	}
	if sub == nil {
		return nil, nil, taskerr.Errorf(taskerr.NotFound, "subtask %d.%d does not exist", parentID, subID)
	}
	promoted := *sub
	promoted.Dependencies = append([]tasks.Ref(nil), sub.Dependencies...)

	// Detach from the parent, collapsing an emptied subtask list.
	kept := parent.Subtasks[:0]
	for _, st := range parent.Subtasks {
		if st.ID != subID {
			kept = append(kept, st)
		}
	}
	parent.Subtasks = kept
	parent.Normalize()

	newTask := tasks.Task{
		ID:           tasks.MaxTaskID(updated) + 1,
		Title:        promoted.Title,
		Description:  promoted.Description,
		Details:      promoted.Details,
		TestStrategy: promoted.TestStrategy,
		Status:       promoted.Status,
		Priority:     parent.Priority,
		Dependencies: promotedDependencies(promoted.Dependencies, parentID),
	}
	updated = append(updated, newTask)

	return updated, &updated[len(updated)-1], nil
}

// promotedDependencies requalifies the subtask's dependency list for life
// as a task and appends the former parent, deduplicated in first-seen order.
func promotedDependencies(deps []tasks.Ref, parentID int) []tasks.Ref {
	out := []tasks.Ref{}
	seen := make(map[tasks.Ref]bool)
	add := func(r tasks.Ref) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, dep := range deps {
		if !dep.IsSubtask() {
			// Bare sibling ref: its target stays inside the old parent.
			dep = tasks.SubtaskRef(parentID, dep.Task)
		}
		add(dep)
	}
	add(tasks.TaskRef(parentID))
	return out
}
