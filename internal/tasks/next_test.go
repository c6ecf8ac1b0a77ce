package tasks

import (
	"reflect"
	"testing"
)

func pendingTask(id int, deps ...Ref) Task {
	if deps == nil {
		deps = []Ref{}
	}
	return Task{ID: id, Title: "task", Status: StatusPending, Dependencies: deps}
}

func TestNext_OnlyUnblockedCandidate(t *testing.T) {
	taskList := []Task{
		pendingTask(1),
		pendingTask(2, TaskRef(1)),
	}
	item := Next(taskList, nil)
	if item == nil {
		t.Fatal("expected a next item")
	}
	if item.Ref != TaskRef(1) {
		t.Errorf("next = %v, want task 1", item.Ref)
	}
}

func TestNext_UnblocksWhenDependencyDone(t *testing.T) {
	taskList := []Task{
		{ID: 1, Title: "task", Status: StatusDone, Dependencies: []Ref{}},
		pendingTask(2, TaskRef(1)),
	}
	item := Next(taskList, nil)
	if item == nil {
		t.Fatal("expected a next item")
	}
	if item.Ref != TaskRef(2) {
		t.Errorf("next = %v, want task 2", item.Ref)
	}
}

func TestNext_CompletedCountsAsDone(t *testing.T) {
	taskList := []Task{
		{ID: 1, Title: "task", Status: StatusCompleted, Dependencies: []Ref{}},
		pendingTask(2, TaskRef(1)),
	}
	if item := Next(taskList, nil); item == nil || item.Ref != TaskRef(2) {
		t.Errorf("completed should satisfy dependencies, got %+v", item)
	}
}

func TestNext_RankByPriority(t *testing.T) {
	taskList := []Task{
		pendingTask(1),
		pendingTask(2),
	}
	taskList[0].Priority = PriorityLow
	taskList[1].Priority = PriorityHigh

	if item := Next(taskList, nil); item.Ref != TaskRef(2) {
		t.Errorf("high priority should win, got %v", item.Ref)
	}
}

func TestNext_RankByFewerDependencies(t *testing.T) {
	done := Task{ID: 1, Title: "task", Status: StatusDone, Dependencies: []Ref{}}
	two := pendingTask(2, TaskRef(1))
	three := pendingTask(3)
	taskList := []Task{done, two, three}

	// Same priority: task 3 has zero dependencies, task 2 has one.
	if item := Next(taskList, nil); item.Ref != TaskRef(3) {
		t.Errorf("fewer dependencies should win, got %v", item.Ref)
	}
}

func TestNext_RankByLowerID(t *testing.T) {
	taskList := []Task{
		pendingTask(7),
		pendingTask(3),
	}
	if item := Next(taskList, nil); item.Ref != TaskRef(3) {
		t.Errorf("lower id should win, got %v", item.Ref)
	}
}

func TestNext_SubtaskOfInProgressParent(t *testing.T) {
	taskList := []Task{
		{
			ID:           1,
			Title:        "parent",
			Status:       StatusInProgress,
			Priority:     PriorityHigh,
			Dependencies: []Ref{},
			Subtasks: []Subtask{
				{ID: 1, Title: "first", Status: StatusDone, Dependencies: []Ref{}},
				{ID: 2, Title: "second", Status: StatusPending, Dependencies: []Ref{{Task: 1}}},
				{ID: 3, Title: "third", Status: StatusPending, Dependencies: []Ref{{Task: 2}}},
			},
		},
		pendingTask(2),
	}

	item := Next(taskList, nil)
	if item == nil {
		t.Fatal("expected a next item")
	}
	// Subtask 1.2's bare dependency "1" resolves to sibling 1.1 (done);
	// it inherits the parent's high priority and beats pending task 2.
	if item.Ref != SubtaskRef(1, 2) {
		t.Errorf("next = %v, want subtask 1.2", item.Ref)
	}
	if !item.IsSubtask() {
		t.Error("item should report as subtask")
	}
	if item.Priority != PriorityHigh {
		t.Errorf("subtask should inherit parent priority, got %v", item.Priority)
	}
}

func TestNext_PendingParentSubtasksNotEligible(t *testing.T) {
	taskList := []Task{
		{
			ID:           1,
			Title:        "parent",
			Status:       StatusPending,
			Dependencies: []Ref{},
			Subtasks: []Subtask{
				{ID: 1, Title: "sub", Status: StatusPending, Dependencies: []Ref{}},
			},
		},
	}
	item := Next(taskList, nil)
	if item == nil {
		t.Fatal("expected a next item")
	}
	if item.Ref != TaskRef(1) {
		t.Errorf("pending parent itself should be the candidate, got %v", item.Ref)
	}
}

func TestNext_DanglingDependencyBlocks(t *testing.T) {
	taskList := []Task{
		pendingTask(1, TaskRef(99)),
	}
	if item := Next(taskList, nil); item != nil {
		t.Errorf("dangling dependency should block, got %+v", item)
	}
}

func TestNext_NothingEligible(t *testing.T) {
	taskList := []Task{
		{ID: 1, Title: "task", Status: StatusDone, Dependencies: []Ref{}},
		{ID: 2, Title: "task", Status: StatusBlocked, Dependencies: []Ref{}},
	}
	if item := Next(taskList, nil); item != nil {
		t.Errorf("expected nil, got %+v", item)
	}
}

func TestNext_Deterministic(t *testing.T) {
	taskList := []Task{
		pendingTask(4),
		pendingTask(2),
		pendingTask(9),
	}
	taskList[0].Priority = PriorityMedium
	taskList[1].Priority = PriorityMedium
	taskList[2].Priority = PriorityMedium

	first := Next(taskList, nil)
	for i := 0; i < 10; i++ {
		if got := Next(taskList, nil); !reflect.DeepEqual(got, first) {
			t.Fatalf("call %d returned %+v, first call returned %+v", i, got, first)
		}
	}
}

func TestNext_AttachesComplexityScore(t *testing.T) {
	report := &ComplexityReport{
		Analysis: []TaskAnalysis{
			{TaskID: 1, ComplexityScore: 7.5},
		},
	}
	item := Next([]Task{pendingTask(1)}, report)
	if item == nil {
		t.Fatal("expected a next item")
	}
	if item.ComplexityScore != 7.5 {
		t.Errorf("score = %v, want 7.5", item.ComplexityScore)
	}
}

func TestNext_UnsetPriorityDefaultsToMedium(t *testing.T) {
	taskList := []Task{
		pendingTask(1), // no priority set
		pendingTask(2),
	}
	taskList[1].Priority = PriorityLow

	item := Next(taskList, nil)
	if item.Ref != TaskRef(1) {
		t.Errorf("unset priority should rank as medium and beat low, got %v", item.Ref)
	}
	if item.Priority != PriorityMedium {
		t.Errorf("priority = %v, want medium", item.Priority)
	}
}
