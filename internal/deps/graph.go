// Package deps builds the dependency graph of one tag's task list,
// validates its integrity, and deterministically repairs it.
//
// The graph is directed: an edge points from a dependent item to each
// reference it requires to be complete first. Nodes are tasks and subtasks,
// addressed by tasks.Ref. Because refs carry no tag name, cross-tag edges
// cannot exist — isolation between tags holds by construction.
package deps

import (
	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
)

// Edge is a single dependency link: From requires To.
type Edge struct {
	From tasks.Ref
	To   tasks.Ref
}

// Report is the result of validating one tag's task list.
type Report struct {
	// Dangling lists references whose target does not exist.
	Dangling []Edge
	// SelfRefs lists items that depend on themselves.
	SelfRefs []tasks.Ref
	// Cycles lists each dependency cycle as the ordered nodes forming it.
	Cycles [][]tasks.Ref
}

// OK reports whether the task list passed every integrity check.
func (r *Report) OK() bool {
	return len(r.Dangling) == 0 && len(r.SelfRefs) == 0 && len(r.Cycles) == 0
}

// Issues returns the total number of problems found.
func (r *Report) Issues() int {
	return len(r.Dangling) + len(r.SelfRefs) + len(r.Cycles)
}

// Validate checks one tag's task list for dangling references,
// self-references, and cycles.
func Validate(taskList []tasks.Task) *Report {
	report := &Report{}

	for _, list := range depLists(taskList) {
		for _, dep := range *list.deps {
			target := list.qualify(dep)
			if target == list.owner {
				report.SelfRefs = append(report.SelfRefs, list.owner)
				continue
			}
			if !tasks.RefExists(taskList, target) {
				report.Dangling = append(report.Dangling, Edge{From: list.owner, To: target})
			}
		}
	}

	report.Cycles = detectCycles(taskList)
	return report
}

// depList is one mutable dependency list plus the identity of its owner.
// Subtask lists need the parent to qualify bare sibling references.
type depList struct {
	owner  tasks.Ref
	parent int // parent task id, 0 for task-owned lists
	deps   *[]tasks.Ref
}

// qualify resolves a raw stored ref into an absolute graph node. Bare refs
// inside a subtask's list mean sibling subtasks of the same parent.
func (l depList) qualify(dep tasks.Ref) tasks.Ref {
	if l.parent != 0 && !dep.IsSubtask() {
		return tasks.SubtaskRef(l.parent, dep.Task)
	}
	return dep
}

// depLists enumerates every dependency list in definition order: each task's
// own list first, then its subtasks' lists.
func depLists(taskList []tasks.Task) []depList {
	var lists []depList
	for i := range taskList {
		t := &taskList[i]
		lists = append(lists, depList{owner: tasks.TaskRef(t.ID), deps: &t.Dependencies})
		for j := range t.Subtasks {
			st := &t.Subtasks[j]
			lists = append(lists, depList{
				owner:  tasks.SubtaskRef(t.ID, st.ID),
				parent: t.ID,
				deps:   &st.Dependencies,
			})
		}
	}
	return lists
}

// detectCycles runs a depth-first search with an explicit recursion stack
// over the graph, visiting nodes in definition order so results are
// deterministic. Self-edges and dangling edges are excluded here — they
// are reported (and repaired) separately.
func detectCycles(taskList []tasks.Task) [][]tasks.Ref {
	adjacency := make(map[tasks.Ref][]tasks.Ref)
	var order []tasks.Ref
	for _, list := range depLists(taskList) {
		order = append(order, list.owner)
		for _, dep := range *list.deps {
			target := list.qualify(dep)
			if target == list.owner || !tasks.RefExists(taskList, target) {
				continue
			}
			adjacency[list.owner] = append(adjacency[list.owner], target)
		}
	}

	const (
		white = 0 // unvisited
		gray  = 1 // on the recursion stack
		black = 2 // fully explored
	)
	color := make(map[tasks.Ref]int)
	var stack []tasks.Ref
	var cycles [][]tasks.Ref

	var visit func(node tasks.Ref)
	visit = func(node tasks.Ref) {
		color[node] = gray
		stack = append(stack, node)

		for _, next := range adjacency[node] {
			switch color[next] {
			case white:
				visit(next)
			case gray:
				// Back edge: the cycle is the stack segment from the
				// first occurrence of next through the current node.
				for i, n := range stack {
					if n == next {
						cycle := make([]tasks.Ref, len(stack)-i)
						copy(cycle, stack[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[node] = black
	}

	for _, node := range order {
		if color[node] == white {
			visit(node)
		}
	}
	return cycles
}
