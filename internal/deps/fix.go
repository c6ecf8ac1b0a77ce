package deps

import (
	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
)

// FixReport records every change Fix made, in the order it was applied.
type FixReport struct {
	RemovedDangling  []Edge
	RemovedSelfRefs  []tasks.Ref
	BrokenCycleEdges []Edge
	RemovedDupes     []Edge
}

// Changes returns the total number of repairs applied.
func (r *FixReport) Changes() int {
	return len(r.RemovedDangling) + len(r.RemovedSelfRefs) +
		len(r.BrokenCycleEdges) + len(r.RemovedDupes)
}

// Fix repairs a task list's dependency graph and returns the repaired copy.
// The input is never mutated.
//
// Repairs are applied in a fixed order so the result is deterministic and
// idempotent — running Fix on its own output produces zero further changes:
//
//  1. Remove dangling references.
//  2. Remove self-references.
//  3. Break each cycle by removing one edge: the edge leaving the
//     highest-id node in the cycle toward its successor. This keeps
//     earlier-defined tasks unblocked and is a stable tie-break.
//  4. De-duplicate repeated references, preserving first occurrence order.
func Fix(taskList []tasks.Task) ([]tasks.Task, *FixReport) {
	fixed := make([]tasks.Task, len(taskList))
	for i, t := range taskList {
		fixed[i] = t.Clone()
	}
	report := &FixReport{}

	removeDangling(fixed, report)
	removeSelfRefs(fixed, report)
	breakCycles(fixed, report)
	dedupe(fixed, report)

	return fixed, report
}

func removeDangling(taskList []tasks.Task, report *FixReport) {
	for _, list := range depLists(taskList) {
		kept := (*list.deps)[:0]
		for _, dep := range *list.deps {
			target := list.qualify(dep)
			if target != list.owner && !tasks.RefExists(taskList, target) {
				report.RemovedDangling = append(report.RemovedDangling, Edge{From: list.owner, To: target})
				continue
			}
			kept = append(kept, dep)
		}
		*list.deps = kept
	}
}

func removeSelfRefs(taskList []tasks.Task, report *FixReport) {
	for _, list := range depLists(taskList) {
		kept := (*list.deps)[:0]
		for _, dep := range *list.deps {
			if list.qualify(dep) == list.owner {
				report.RemovedSelfRefs = append(report.RemovedSelfRefs, list.owner)
				continue
			}
			kept = append(kept, dep)
		}
		*list.deps = kept
	}
}

// breakCycles removes one edge per detected cycle and repeats until the
// graph is acyclic. Each pass removes at least one edge, so it terminates.
func breakCycles(taskList []tasks.Task, report *FixReport) {
	for {
		cycles := detectCycles(taskList)
		if len(cycles) == 0 {
			return
		}
		for _, cycle := range cycles {
			highest := 0
			for i := 1; i < len(cycle); i++ {
				if cycle[i].Compare(cycle[highest]) > 0 {
					highest = i
				}
			}
			successor := cycle[(highest+1)%len(cycle)]
			// An earlier removal in this pass may have broken an
			// overlapping cycle already; skip silently then.
			if removeEdge(taskList, cycle[highest], successor) {
				report.BrokenCycleEdges = append(report.BrokenCycleEdges, Edge{
					From: cycle[highest],
					To:   successor,
				})
			}
		}
	}
}

// removeEdge deletes the stored dependency on from's list whose qualified
// form equals to. Returns false when no such edge remains.
func removeEdge(taskList []tasks.Task, from, to tasks.Ref) bool {
	for _, list := range depLists(taskList) {
		if list.owner != from {
			continue
		}
		for i, dep := range *list.deps {
			if list.qualify(dep) == to {
				*list.deps = append((*list.deps)[:i], (*list.deps)[i+1:]...)
				return true
			}
		}
	}
	return false
}

func dedupe(taskList []tasks.Task, report *FixReport) {
	for _, list := range depLists(taskList) {
		seen := make(map[tasks.Ref]bool, len(*list.deps))
		kept := (*list.deps)[:0]
		for _, dep := range *list.deps {
			target := list.qualify(dep)
			if seen[target] {
				report.RemovedDupes = append(report.RemovedDupes, Edge{From: list.owner, To: target})
				continue
			}
			seen[target] = true
			kept = append(kept, dep)
		}
		*list.deps = kept
	}
}
