package deps

import (
	"reflect"
	"testing"

	"github.com/zp-innovation/mcp-task-master-sub000/internal/tasks"
)

func TestFix_DoesNotMutateInput(t *testing.T) {
	taskList := []tasks.Task{
		task(1, tasks.TaskRef(99)),
	}
	fixed, report := Fix(taskList)
	if len(taskList[0].Dependencies) != 1 {
		t.Error("Fix must not mutate its input")
	}
	if len(fixed[0].Dependencies) != 0 {
		t.Error("fixed copy should have the dangling edge removed")
	}
	if report.Changes() != 1 {
		t.Errorf("Changes = %d, want 1", report.Changes())
	}
}

func TestFix_RemovesDangling(t *testing.T) {
	taskList := []tasks.Task{
		task(5, tasks.TaskRef(99)),
	}
	fixed, report := Fix(taskList)
	if len(report.RemovedDangling) != 1 {
		t.Fatalf("removed dangling = %+v", report.RemovedDangling)
	}
	want := Edge{From: tasks.TaskRef(5), To: tasks.TaskRef(99)}
	if report.RemovedDangling[0] != want {
		t.Errorf("removed = %+v, want %+v", report.RemovedDangling[0], want)
	}
	if !Validate(fixed).OK() {
		t.Error("fixed list should validate clean")
	}
}

func TestFix_RemovesSelfRefs(t *testing.T) {
	taskList := []tasks.Task{
		task(1, tasks.TaskRef(1), tasks.TaskRef(2)),
		task(2),
	}
	fixed, report := Fix(taskList)
	if len(report.RemovedSelfRefs) != 1 || report.RemovedSelfRefs[0] != tasks.TaskRef(1) {
		t.Errorf("removed self refs = %v", report.RemovedSelfRefs)
	}
	if !reflect.DeepEqual(fixed[0].Dependencies, []tasks.Ref{tasks.TaskRef(2)}) {
		t.Errorf("task 1 deps = %v, want [2]", fixed[0].Dependencies)
	}
}

func TestFix_BreaksCycleAtHighestNode(t *testing.T) {
	taskList := []tasks.Task{
		task(1, tasks.TaskRef(2)),
		task(2, tasks.TaskRef(1)),
	}
	fixed, report := Fix(taskList)

	// The edge removed runs from the highest node in the cycle (2) to its
	// successor (1); the 1 -> 2 edge survives.
	if len(report.BrokenCycleEdges) != 1 {
		t.Fatalf("broken edges = %+v", report.BrokenCycleEdges)
	}
	want := Edge{From: tasks.TaskRef(2), To: tasks.TaskRef(1)}
	if report.BrokenCycleEdges[0] != want {
		t.Errorf("broken edge = %+v, want %+v", report.BrokenCycleEdges[0], want)
	}
	if !reflect.DeepEqual(fixed[0].Dependencies, []tasks.Ref{tasks.TaskRef(2)}) {
		t.Errorf("task 1 deps = %v, want [2]", fixed[0].Dependencies)
	}
	if len(fixed[1].Dependencies) != 0 {
		t.Errorf("task 2 deps = %v, want []", fixed[1].Dependencies)
	}
	if got := Validate(fixed); len(got.Cycles) != 0 {
		t.Errorf("fixed list still has cycles: %v", got.Cycles)
	}
}

func TestFix_BreaksLongerCycle(t *testing.T) {
	taskList := []tasks.Task{
		task(1, tasks.TaskRef(3)),
		task(2, tasks.TaskRef(1)),
		task(3, tasks.TaskRef(2)),
	}
	fixed, report := Fix(taskList)
	if len(report.BrokenCycleEdges) != 1 {
		t.Fatalf("broken edges = %+v", report.BrokenCycleEdges)
	}
	// Highest node is 3; its successor in the cycle is 2.
	want := Edge{From: tasks.TaskRef(3), To: tasks.TaskRef(2)}
	if report.BrokenCycleEdges[0] != want {
		t.Errorf("broken edge = %+v, want %+v", report.BrokenCycleEdges[0], want)
	}
	if len(Validate(fixed).Cycles) != 0 {
		t.Error("fixed list should be acyclic")
	}
}

func TestFix_RemovesDuplicates(t *testing.T) {
	taskList := []tasks.Task{
		task(1),
		task(2, tasks.TaskRef(1), tasks.TaskRef(1)),
	}
	fixed, report := Fix(taskList)
	if len(report.RemovedDupes) != 1 {
		t.Fatalf("removed dupes = %+v", report.RemovedDupes)
	}
	if !reflect.DeepEqual(fixed[1].Dependencies, []tasks.Ref{tasks.TaskRef(1)}) {
		t.Errorf("task 2 deps = %v, want [1]", fixed[1].Dependencies)
	}
}

// Acyclicity: whatever the input, the repaired graph has no cycles and
// every surviving reference resolves.
func TestFix_ReferentialIntegrityAndAcyclicity(t *testing.T) {
	taskList := []tasks.Task{
		task(1, tasks.TaskRef(2), tasks.TaskRef(42)),
		task(2, tasks.TaskRef(3), tasks.TaskRef(2)),
		task(3, tasks.TaskRef(1), tasks.TaskRef(1)),
	}
	fixed, _ := Fix(taskList)

	report := Validate(fixed)
	if len(report.Cycles) != 0 {
		t.Errorf("cycles remain: %v", report.Cycles)
	}
	if len(report.Dangling) != 0 {
		t.Errorf("dangling refs remain: %v", report.Dangling)
	}
	if len(report.SelfRefs) != 0 {
		t.Errorf("self refs remain: %v", report.SelfRefs)
	}
	for _, task := range fixed {
		for _, dep := range task.Dependencies {
			if !tasks.RefExists(fixed, dep) {
				t.Errorf("task %d keeps unresolvable dep %v", task.ID, dep)
			}
		}
	}
}

// Idempotence: fix(fix(x)) == fix(x).
func TestFix_Idempotent(t *testing.T) {
	taskList := []tasks.Task{
		task(1, tasks.TaskRef(2), tasks.TaskRef(99)),
		task(2, tasks.TaskRef(1)),
		task(3, tasks.TaskRef(3), tasks.TaskRef(1), tasks.TaskRef(1)),
	}
	once, _ := Fix(taskList)
	twice, secondReport := Fix(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second fix changed the list:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	if secondReport.Changes() != 0 {
		t.Errorf("second fix reported %d changes, want 0", secondReport.Changes())
	}
}

func TestFix_CleanInputUntouched(t *testing.T) {
	taskList := []tasks.Task{
		task(1),
		task(2, tasks.TaskRef(1)),
	}
	fixed, report := Fix(taskList)
	if report.Changes() != 0 {
		t.Errorf("clean input reported %d changes", report.Changes())
	}
	if !reflect.DeepEqual(fixed, taskList) {
		t.Error("clean input should round-trip unchanged")
	}
}
