package todo

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Messages shown by every front end.
const (
	// BreakdownFailedMessage is the only user-facing error.
	BreakdownFailedMessage = "Failed to break down task. Please try again."
	// EmptyListMessage replaces the list when there are no tasks.
	EmptyListMessage = "No todos yet. Add one above!"
	// Title is the heading of the task list view.
	Title = "Smart Todo List"
)

// Task is a single entry in the list.
type Task struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Done     bool   `json:"done"`
	Children []Task `json:"children,omitempty"`
}

// HasChildren reports whether the task was created by a breakdown.
func (t *Task) HasChildren() bool {
	return len(t.Children) > 0
}

// CompletedChildren returns how many children are done.
func (t *Task) CompletedChildren() int {
	n := 0
	for i := range t.Children {
		if t.Children[i].Done {
			n++
		}
	}
	return n
}

// State is everything the task list view owns.
type State struct {
	Tasks   []Task `json:"tasks"`
	Input   string `json:"input"`
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

// CanSubmit reports whether the Add and Break Down controls are enabled.
func (s State) CanSubmit() bool {
	return !s.Loading && strings.TrimSpace(s.Input) != ""
}

// Lookup finds a task by ID among top-level tasks and their children.
// The second result is the parent's ID for children and "" otherwise.
func (s State) Lookup(id string) (Task, string, bool) {
	for _, task := range s.Tasks {
		if task.ID == id {
			return task, "", true
		}
	}
	for _, task := range s.Tasks {
		for _, child := range task.Children {
			if child.ID == id {
				return child, task.ID, true
			}
		}
	}
	return Task{}, "", false
}

// Counts returns the number of tasks and the number done, children included.
func (s State) Counts() (total, done int) {
	for _, task := range s.Tasks {
		total++
		if task.Done {
			done++
		}
		total += len(task.Children)
		done += task.CompletedChildren()
	}
	return total, done
}

// IDSource hands out task identifiers that do not repeat within a session.
type IDSource interface {
	NewID() string
}

// UUIDs generates random version 4 UUIDs.
type UUIDs struct{}

// NewID returns a fresh UUID string.
func (UUIDs) NewID() string {
	return uuid.NewString()
}

// CounterIDs generates prefix1, prefix2, ... and is safe for concurrent use.
type CounterIDs struct {
	prefix string
	next   atomic.Uint64
}

// NewCounterIDs returns a counter starting at 1.
func NewCounterIDs(prefix string) *CounterIDs {
	return &CounterIDs{prefix: prefix}
}

// NewID returns the next identifier in the sequence.
func (c *CounterIDs) NewID() string {
	return fmt.Sprintf("%s%d", c.prefix, c.next.Add(1))
}
