package todo

import (
	"reflect"
	"testing"
)

func planTrip(t *testing.T) (State, *CounterIDs) {
	t.Helper()
	ids := NewCounterIDs("t")
	s := SetInput(State{}, "Plan trip")
	s, payload, ok := StartBreakdown(s)
	if !ok {
		t.Fatal("StartBreakdown: expected ok")
	}
	s = FinishBreakdown(s, ids, payload, []string{"Book flight", "Pack bags"})
	return s, ids
}

func TestAddBlankIsNoop(t *testing.T) {
	ids := NewCounterIDs("t")
	for _, input := range []string{"", " ", "\t\n  "} {
		s := SetInput(State{}, input)
		got := Add(s, ids)
		if len(got.Tasks) != 0 {
			t.Errorf("Add(%q): got %d tasks, want 0", input, len(got.Tasks))
		}
		if got.Input != input {
			t.Errorf("Add(%q): input changed to %q", input, got.Input)
		}
	}
}

func TestAddAppendsTask(t *testing.T) {
	ids := NewCounterIDs("t")
	s := Add(SetInput(State{}, "Buy milk"), ids)

	if len(s.Tasks) != 1 {
		t.Fatalf("tasks: got %d, want 1", len(s.Tasks))
	}
	want := Task{ID: "t1", Label: "Buy milk"}
	if !reflect.DeepEqual(s.Tasks[0], want) {
		t.Errorf("task: got %+v, want %+v", s.Tasks[0], want)
	}
	if s.Input != "" {
		t.Errorf("input: got %q, want empty", s.Input)
	}
}

func TestAddTrimsAndKeepsOrder(t *testing.T) {
	ids := NewCounterIDs("t")
	s := Add(SetInput(State{}, "  first  "), ids)
	s = Add(SetInput(s, "second"), ids)

	if len(s.Tasks) != 2 {
		t.Fatalf("tasks: got %d, want 2", len(s.Tasks))
	}
	if s.Tasks[0].Label != "first" || s.Tasks[1].Label != "second" {
		t.Errorf("order: got %q, %q", s.Tasks[0].Label, s.Tasks[1].Label)
	}
}

func TestAddDoesNotMutateInput(t *testing.T) {
	ids := NewCounterIDs("t")
	before := Add(SetInput(State{}, "one"), ids)
	before = SetInput(before, "two")
	snapshot := append([]Task(nil), before.Tasks...)

	_ = Add(before, ids)

	if !reflect.DeepEqual(before.Tasks, snapshot) {
		t.Errorf("previous state changed: got %+v, want %+v", before.Tasks, snapshot)
	}
}

func TestAddWhileLoadingIsNoop(t *testing.T) {
	ids := NewCounterIDs("t")
	s := State{Input: "Buy milk", Loading: true}
	got := Add(s, ids)
	if len(got.Tasks) != 0 {
		t.Errorf("tasks: got %d, want 0", len(got.Tasks))
	}
}

func TestSetInputIgnoredWhileLoading(t *testing.T) {
	s := State{Input: "Plan trip", Loading: true}
	if got := SetInput(s, "something else"); got.Input != "Plan trip" {
		t.Errorf("input: got %q, want Plan trip", got.Input)
	}
}

func TestStartBreakdown(t *testing.T) {
	s := State{Input: "  Plan trip ", Err: BreakdownFailedMessage}
	next, payload, ok := StartBreakdown(s)
	if !ok {
		t.Fatal("expected ok")
	}
	if payload != "  Plan trip " {
		t.Errorf("payload: got %q, want raw input", payload)
	}
	if !next.Loading {
		t.Error("Loading: got false, want true")
	}
	if next.Err != "" {
		t.Errorf("Err: got %q, want cleared", next.Err)
	}
}

func TestStartBreakdownPreconditions(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"blank input", State{Input: "   "}},
		{"already loading", State{Input: "Plan trip", Loading: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, payload, ok := StartBreakdown(tt.state)
			if ok {
				t.Error("expected ok=false")
			}
			if payload != "" {
				t.Errorf("payload: got %q, want empty", payload)
			}
			if !reflect.DeepEqual(next, tt.state) {
				t.Errorf("state changed: got %+v, want %+v", next, tt.state)
			}
		})
	}
}

func TestFinishBreakdown(t *testing.T) {
	s, _ := planTrip(t)

	if len(s.Tasks) != 1 {
		t.Fatalf("tasks: got %d, want 1", len(s.Tasks))
	}
	parent := s.Tasks[0]
	if parent.Label != "Plan trip" || parent.Done {
		t.Errorf("parent: got %+v", parent)
	}
	if len(parent.Children) != 2 {
		t.Fatalf("children: got %d, want 2", len(parent.Children))
	}
	for i, want := range []string{"Book flight", "Pack bags"} {
		child := parent.Children[i]
		if child.Label != want || child.Done || child.HasChildren() {
			t.Errorf("child %d: got %+v, want label %q", i, child, want)
		}
	}
	if s.Input != "" {
		t.Errorf("input: got %q, want empty", s.Input)
	}
	if s.Loading {
		t.Error("Loading: got true, want false")
	}
	if s.Err != "" {
		t.Errorf("Err: got %q, want empty", s.Err)
	}
}

func TestFinishBreakdownIDsUnique(t *testing.T) {
	s, _ := planTrip(t)
	seen := map[string]bool{}
	for _, row := range s.Rows() {
		if seen[row.Task.ID] {
			t.Errorf("duplicate ID %q", row.Task.ID)
		}
		seen[row.Task.ID] = true
	}
}

func TestFinishBreakdownWithoutLinesFails(t *testing.T) {
	ids := NewCounterIDs("t")
	s, payload, _ := StartBreakdown(State{Input: "Plan trip"})
	s = FinishBreakdown(s, ids, payload, nil)

	if len(s.Tasks) != 0 {
		t.Errorf("tasks: got %d, want 0", len(s.Tasks))
	}
	if s.Err != BreakdownFailedMessage {
		t.Errorf("Err: got %q", s.Err)
	}
	if s.Input != "Plan trip" {
		t.Errorf("input: got %q, want kept", s.Input)
	}
	if s.Loading {
		t.Error("Loading: got true, want false")
	}
}

func TestFailBreakdown(t *testing.T) {
	ids := NewCounterIDs("t")
	s := Add(SetInput(State{}, "Buy milk"), ids)
	s = SetInput(s, "Plan trip")
	s, _, _ = StartBreakdown(s)
	s = FailBreakdown(s)

	if len(s.Tasks) != 1 {
		t.Errorf("tasks: got %d, want 1", len(s.Tasks))
	}
	if s.Input != "Plan trip" {
		t.Errorf("input: got %q, want Plan trip", s.Input)
	}
	if s.Err != BreakdownFailedMessage {
		t.Errorf("Err: got %q, want %q", s.Err, BreakdownFailedMessage)
	}
	if s.Loading {
		t.Error("Loading: got true, want false")
	}

	if got := DismissError(s); got.Err != "" {
		t.Errorf("DismissError: got %q, want empty", got.Err)
	}
}

func TestToggleTopLevel(t *testing.T) {
	s, ids := planTrip(t)
	s = Add(SetInput(s, "Buy milk"), ids)
	parentID := s.Tasks[0].ID
	milkID := s.Tasks[1].ID

	got := Toggle(s, parentID)

	if !got.Tasks[0].Done {
		t.Error("parent Done: got false, want true")
	}
	for i, child := range got.Tasks[0].Children {
		if child.Done {
			t.Errorf("child %d changed by parent toggle", i)
		}
	}
	if got.Tasks[1].Done {
		t.Error("unrelated task changed")
	}
	if s.Tasks[0].Done {
		t.Error("previous state changed")
	}

	got = Toggle(got, milkID)
	if !got.Tasks[1].Done || !got.Tasks[0].Done {
		t.Errorf("second toggle: got %+v", got.Tasks)
	}
}

func TestToggleChild(t *testing.T) {
	s, _ := planTrip(t)
	childID := s.Tasks[0].Children[1].ID

	got := Toggle(s, childID)

	if got.Tasks[0].Done {
		t.Error("parent changed by child toggle")
	}
	if got.Tasks[0].Children[0].Done {
		t.Error("sibling changed by child toggle")
	}
	if !got.Tasks[0].Children[1].Done {
		t.Error("child Done: got false, want true")
	}
	if s.Tasks[0].Children[1].Done {
		t.Error("previous state changed")
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	s, _ := planTrip(t)
	for _, id := range []string{s.Tasks[0].ID, s.Tasks[0].Children[0].ID} {
		got := Toggle(Toggle(s, id), id)
		if !reflect.DeepEqual(got, s) {
			t.Errorf("Toggle twice %s: got %+v, want %+v", id, got, s)
		}
	}
}

func TestToggleUnknownIsNoop(t *testing.T) {
	s, _ := planTrip(t)
	if got := Toggle(s, "missing"); !reflect.DeepEqual(got, s) {
		t.Errorf("Toggle(missing): state changed")
	}
}

func TestDelete(t *testing.T) {
	ids := NewCounterIDs("t")
	s := State{}
	for _, label := range []string{"a", "b", "c"} {
		s = Add(SetInput(s, label), ids)
	}

	got := Delete(s, s.Tasks[1].ID)

	if len(got.Tasks) != 2 {
		t.Fatalf("tasks: got %d, want 2", len(got.Tasks))
	}
	if got.Tasks[0].Label != "a" || got.Tasks[1].Label != "c" {
		t.Errorf("remaining: got %q, %q", got.Tasks[0].Label, got.Tasks[1].Label)
	}
	if len(s.Tasks) != 3 || s.Tasks[1].Label != "b" {
		t.Error("previous state changed")
	}
}

func TestDeleteParentRemovesChildren(t *testing.T) {
	s, _ := planTrip(t)
	got := Delete(s, s.Tasks[0].ID)
	if len(got.Tasks) != 0 {
		t.Errorf("tasks: got %d, want 0", len(got.Tasks))
	}
	if len(got.Rows()) != 0 {
		t.Errorf("rows: got %d, want 0", len(got.Rows()))
	}
}

func TestDeleteChildIDIsNoop(t *testing.T) {
	s, _ := planTrip(t)
	got := Delete(s, s.Tasks[0].Children[0].ID)
	if !reflect.DeepEqual(got, s) {
		t.Errorf("Delete(child): state changed: %+v", got)
	}
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	s, _ := planTrip(t)
	if got := Delete(s, "missing"); !reflect.DeepEqual(got, s) {
		t.Error("Delete(missing): state changed")
	}
}
