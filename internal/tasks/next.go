package tasks

import "sort"

// NextItem is the single best actionable work item: either a task or a
// subtask of an in-progress task.
type NextItem struct {
	Ref             Ref
	Title           string
	Status          Status
	Priority        Priority
	Dependencies    []Ref
	ComplexityScore float64 // 0 when no report entry exists
}

// IsSubtask reports whether the resolved item is a subtask.
func (n *NextItem) IsSubtask() bool { return n.Ref.IsSubtask() }

// Next computes the next actionable item, or nil when nothing is eligible.
//
// Candidates are pending tasks whose every dependency is done, plus pending
// subtasks of in-progress tasks whose own dependencies are done — once a
// parent has started, work continues subtask by subtask.
//
// Ranking, highest first: priority (high > medium > low, subtasks inherit
// the parent's), then fewer dependencies, then lower id. Given identical
// input the result is identical on every call.
func Next(tasks []Task, report *ComplexityReport) *NextItem {
	var candidates []NextItem

	for i := range tasks {
		t := &tasks[i]
		switch t.Status {
		case StatusPending:
			if allDone(tasks, t.Dependencies, nil) {
				item := NextItem{
					Ref:          TaskRef(t.ID),
					Title:        t.Title,
					Status:       t.Status,
					Priority:     effectivePriority(t.Priority),
					Dependencies: t.Dependencies,
				}
				if score, ok := report.ScoreFor(t.ID); ok {
					item.ComplexityScore = score
				}
				candidates = append(candidates, item)
			}
		case StatusInProgress:
			for j := range t.Subtasks {
				st := &t.Subtasks[j]
				if st.Status != StatusPending {
					continue
				}
				if !allDone(tasks, st.Dependencies, t) {
					continue
				}
				candidates = append(candidates, NextItem{
					Ref:          SubtaskRef(t.ID, st.ID),
					Title:        st.Title,
					Status:       st.Status,
					Priority:     effectivePriority(t.Priority),
					Dependencies: st.Dependencies,
				})
			}
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := &candidates[a], &candidates[b]
		if ra, rb := ca.Priority.Rank(), cb.Priority.Rank(); ra != rb {
			return ra < rb
		}
		if la, lb := len(ca.Dependencies), len(cb.Dependencies); la != lb {
			return la < lb
		}
		return ca.Ref.Compare(cb.Ref) < 0
	})

	best := candidates[0]
	return &best
}

// allDone reports whether every ref in deps resolves to a terminal-status
// target. When parent is non-nil the deps come from one of its subtasks,
// and bare refs mean sibling subtasks of that parent. Unresolvable refs
// count as not done — a dangling dependency blocks, it never unblocks.
func allDone(tasks []Task, deps []Ref, parent *Task) bool {
	for _, dep := range deps {
		if parent != nil && !dep.IsSubtask() {
			dep = SubtaskRef(parent.ID, dep.Task)
		}
		status, ok := StatusOf(tasks, dep)
		if !ok || !status.IsTerminal() {
			return false
		}
	}
	return true
}

// effectivePriority defaults an unset priority to medium.
func effectivePriority(p Priority) Priority {
	if p == "" {
		return PriorityMedium
	}
	return p
}
