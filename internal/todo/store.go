package todo

import "sync"

// Store holds one State and applies reducers one at a time, so events from
// concurrent goroutines never interleave.
type Store struct {
	mu    sync.Mutex
	state State
	ids   IDSource
}

// NewStore returns an empty store. A nil ids uses UUIDs.
func NewStore(ids IDSource) *Store {
	if ids == nil {
		ids = UUIDs{}
	}
	return &Store{ids: ids}
}

// Snapshot returns the current state. Reducers never modify a State in
// place, so the result stays valid after later updates.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update applies fn to the current state and returns the new state.
func (s *Store) Update(fn func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.state
}

// SetInput applies SetInput.
func (s *Store) SetInput(text string) State {
	return s.Update(func(st State) State { return SetInput(st, text) })
}

// Add applies Add.
func (s *Store) Add() State {
	return s.Update(func(st State) State { return Add(st, s.ids) })
}

// Toggle applies Toggle.
func (s *Store) Toggle(id string) State {
	return s.Update(func(st State) State { return Toggle(st, id) })
}

// Delete applies Delete.
func (s *Store) Delete(id string) State {
	return s.Update(func(st State) State { return Delete(st, id) })
}

// DismissError applies DismissError.
func (s *Store) DismissError() State {
	return s.Update(DismissError)
}

// BeginBreakdown applies StartBreakdown. Only the caller that gets ok=true
// may send a request; everyone else lost the single in-flight slot or had
// blank input.
func (s *Store) BeginBreakdown() (payload string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, payload, ok = StartBreakdown(s.state)
	return payload, ok
}

// FinishBreakdown applies FinishBreakdown for the payload returned by
// BeginBreakdown.
func (s *Store) FinishBreakdown(payload string, lines []string) State {
	return s.Update(func(st State) State { return FinishBreakdown(st, s.ids, payload, lines) })
}

// FailBreakdown applies FailBreakdown.
func (s *Store) FailBreakdown() State {
	return s.Update(FailBreakdown)
}

// AddText replaces the input with text and adds it as a task in one step.
func (s *Store) AddText(text string) State {
	return s.Update(func(st State) State { return Add(SetInput(st, text), s.ids) })
}

// BeginBreakdownText replaces the input with text and then behaves like
// BeginBreakdown, all under one lock.
func (s *Store) BeginBreakdownText(text string) (payload string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, payload, ok = StartBreakdown(SetInput(s.state, text))
	return payload, ok
}
