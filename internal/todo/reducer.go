package todo

import "strings"

// SetInput replaces the input text. The input is disabled while a breakdown
// is in flight, so the call is ignored then.
func SetInput(s State, text string) State {
	if s.Loading {
		return s
	}
	s.Input = text
	return s
}

// Add appends a plain task labelled with the trimmed input and clears the
// input. Blank input, or a breakdown in flight, makes it a no-op.
func Add(s State, ids IDSource) State {
	label := strings.TrimSpace(s.Input)
	if label == "" || s.Loading {
		return s
	}
	s.Tasks = appendTask(s.Tasks, Task{ID: ids.NewID(), Label: label})
	s.Input = ""
	return s
}

// StartBreakdown marks a breakdown as in flight and clears any previous
// error. It returns the raw input to send to the service. ok is false when
// the input is blank or another breakdown is already running; the caller
// must not issue a request in that case.
func StartBreakdown(s State) (next State, payload string, ok bool) {
	if !s.CanSubmit() {
		return s, "", false
	}
	s.Loading = true
	s.Err = ""
	return s, s.Input, true
}

// FinishBreakdown appends a parent task labelled with the trimmed text and
// one child per line, then clears the input and the in-flight flag.
// An empty line list is handled as a failure so parents always have children.
func FinishBreakdown(s State, ids IDSource, text string, lines []string) State {
	if len(lines) == 0 {
		return FailBreakdown(s)
	}

	children := make([]Task, 0, len(lines))
	for _, line := range lines {
		children = append(children, Task{ID: ids.NewID(), Label: strings.TrimSpace(line)})
	}
	parent := Task{
		ID:       ids.NewID(),
		Label:    strings.TrimSpace(text),
		Children: children,
	}

	s.Tasks = appendTask(s.Tasks, parent)
	s.Input = ""
	s.Loading = false
	return s
}

// FailBreakdown shows the fixed error message and clears the in-flight flag.
// Tasks and input are left as they were.
func FailBreakdown(s State) State {
	s.Err = BreakdownFailedMessage
	s.Loading = false
	return s
}

// DismissError hides the error banner.
func DismissError(s State) State {
	s.Err = ""
	return s
}

// Toggle flips Done on the task with the given ID. Top-level tasks are
// searched first, then each task's children. At most one flag changes; an
// unknown ID is a no-op.
func Toggle(s State, id string) State {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			tasks := copyTasks(s.Tasks)
			tasks[i].Done = !tasks[i].Done
			s.Tasks = tasks
			return s
		}
	}

	for i := range s.Tasks {
		for j := range s.Tasks[i].Children {
			if s.Tasks[i].Children[j].ID != id {
				continue
			}
			tasks := copyTasks(s.Tasks)
			children := copyTasks(tasks[i].Children)
			children[j].Done = !children[j].Done
			tasks[i].Children = children
			s.Tasks = tasks
			return s
		}
	}

	return s
}

// Delete removes the top-level task with the given ID along with its
// children. Child IDs never match.
func Delete(s State, id string) State {
	for i := range s.Tasks {
		if s.Tasks[i].ID != id {
			continue
		}
		tasks := make([]Task, 0, len(s.Tasks)-1)
		tasks = append(tasks, s.Tasks[:i]...)
		tasks = append(tasks, s.Tasks[i+1:]...)
		s.Tasks = tasks
		return s
	}
	return s
}

func appendTask(tasks []Task, task Task) []Task {
	next := make([]Task, len(tasks), len(tasks)+1)
	copy(next, tasks)
	return append(next, task)
}

func copyTasks(tasks []Task) []Task {
	next := make([]Task, len(tasks))
	copy(next, tasks)
	return next
}
