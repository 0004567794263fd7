// Package todo holds the task list state and the reducers that change it.
//
// A State value is never modified in place. Every operation is a plain
// function that takes the current State and returns the next one:
//
//	s = todo.SetInput(s, "Plan trip")
//	s, payload, ok := todo.StartBreakdown(s)
//	// ... send payload to the breakdown service ...
//	s = todo.FinishBreakdown(s, ids, payload, lines)
//
// Front ends keep one State, feed user events through the reducers, and
// redraw from the result. Store wraps a State with a mutex for front ends
// whose events arrive on several goroutines.
//
// # Tasks
//
// A Task is either a plain task (created by Add) or a parent created by a
// breakdown, in which case it owns a non-empty, one-level list of children.
// Parents and children carry independent Done flags. Only top-level tasks
// can be deleted; deleting a parent removes its children with it.
//
// # Identifiers
//
// Identifiers come from an IDSource. UUIDs is the default; CounterIDs hands
// out a monotonic sequence for deterministic tests.
package todo
