package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/smarttodo/internal/breakdown"
	"github.com/nibzard/smarttodo/internal/logging"
	"github.com/nibzard/smarttodo/internal/todo"
)

func newTestModel(t *testing.T, svc breakdown.Service) *Model {
	t.Helper()
	if svc == nil {
		svc = breakdown.ServiceFunc(func(context.Context, string) ([]string, error) {
			t.Fatal("unexpected breakdown request")
			return nil, nil
		})
	}
	return NewModel(context.Background(), svc, WithIDs(todo.NewCounterIDs("t")))
}

func send(m *Model, msg tea.Msg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func typeText(m *Model, text string) {
	send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// collect runs cmd and expands batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var msgs []tea.Msg
	for _, c := range batch {
		msgs = append(msgs, collect(c)...)
	}
	return msgs
}

func findResult(t *testing.T, msgs []tea.Msg) breakdownResultMsg {
	t.Helper()
	for _, msg := range msgs {
		if res, ok := msg.(breakdownResultMsg); ok {
			return res
		}
	}
	t.Fatalf("no breakdown result in %v", msgs)
	return breakdownResultMsg{}
}

func TestInitialView(t *testing.T) {
	m := newTestModel(t, nil)
	view := m.View()

	if !strings.Contains(view, todo.Title) {
		t.Errorf("view missing title: %q", view)
	}
	if !strings.Contains(view, todo.EmptyListMessage) {
		t.Errorf("view missing empty message: %q", view)
	}
}

func TestEnterAddsTask(t *testing.T) {
	m := newTestModel(t, nil)

	typeText(m, "  Buy milk ")
	if got := m.State().Input; got != "  Buy milk " {
		t.Fatalf("input: got %q", got)
	}
	send(m, key(tea.KeyEnter))

	st := m.State()
	if len(st.Tasks) != 1 || st.Tasks[0].Label != "Buy milk" || st.Tasks[0].ID != "t1" {
		t.Fatalf("tasks: got %+v", st.Tasks)
	}
	if st.Input != "" || m.input.Value() != "" {
		t.Errorf("input not cleared: state %q, widget %q", st.Input, m.input.Value())
	}
	view := m.View()
	if !strings.Contains(view, "[ ] Buy milk") {
		t.Errorf("view missing task: %q", view)
	}
	if strings.Contains(view, todo.EmptyListMessage) {
		t.Errorf("view still shows empty message")
	}
}

func TestLongInputIsNotTruncated(t *testing.T) {
	m := newTestModel(t, nil)
	long := strings.Repeat("a", 400)

	typeText(m, long)
	send(m, key(tea.KeyEnter))

	st := m.State()
	if len(st.Tasks) != 1 {
		t.Fatalf("tasks: got %d, want 1", len(st.Tasks))
	}
	if got := len(st.Tasks[0].Label); got != len(long) {
		t.Errorf("label length: got %d, want %d", got, len(long))
	}
}

func TestEnterWithBlankInputIsNoop(t *testing.T) {
	m := newTestModel(t, nil)
	typeText(m, "   ")
	send(m, key(tea.KeyEnter))

	if n := len(m.State().Tasks); n != 0 {
		t.Errorf("tasks: got %d, want 0", n)
	}
}

func TestBreakdownSuccess(t *testing.T) {
	var got string
	svc := breakdown.ServiceFunc(func(_ context.Context, text string) ([]string, error) {
		got = text
		return []string{"Book flights", "Reserve hotel"}, nil
	})
	m := newTestModel(t, svc)

	typeText(m, "Plan trip")
	cmd := send(m, key(tea.KeyCtrlB))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if !m.State().Loading {
		t.Fatal("expected loading after ctrl+b")
	}
	if !strings.Contains(m.View(), "Breaking down...") {
		t.Errorf("view missing spinner label: %q", m.View())
	}

	res := findResult(t, collect(cmd))
	if got != "Plan trip" {
		t.Errorf("request payload: got %q", got)
	}
	send(m, res)

	st := m.State()
	if st.Loading || st.Input != "" || st.Err != "" {
		t.Fatalf("unexpected state: %+v", st)
	}
	if len(st.Tasks) != 1 {
		t.Fatalf("tasks: got %d, want 1", len(st.Tasks))
	}
	parent := st.Tasks[0]
	if parent.Label != "Plan trip" || len(parent.Children) != 2 {
		t.Fatalf("parent: got %+v", parent)
	}
	view := m.View()
	for _, want := range []string{"[ ] Plan trip", "    [ ] Book flights", "    [ ] Reserve hotel", "(0/2)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q: %q", want, view)
		}
	}
}

func TestBreakdownFailureShowsBanner(t *testing.T) {
	svc := breakdown.ServiceFunc(func(context.Context, string) ([]string, error) {
		return nil, errors.New("connection refused")
	})
	var logs bytes.Buffer
	m := NewModel(context.Background(), svc,
		WithIDs(todo.NewCounterIDs("t")),
		WithLogger(logging.NewFromConfig(&logs, "info", "text", false, false)))

	typeText(m, "Plan trip")
	send(m, findResult(t, collect(send(m, key(tea.KeyCtrlB)))))

	st := m.State()
	if st.Err != todo.BreakdownFailedMessage {
		t.Errorf("error: got %q", st.Err)
	}
	if st.Loading {
		t.Error("still loading after failure")
	}
	if st.Input != "Plan trip" || m.input.Value() != "Plan trip" {
		t.Errorf("input not kept: state %q, widget %q", st.Input, m.input.Value())
	}
	if len(st.Tasks) != 0 {
		t.Errorf("tasks: got %d, want 0", len(st.Tasks))
	}
	if !strings.Contains(m.View(), todo.BreakdownFailedMessage) {
		t.Errorf("view missing banner")
	}
	if !strings.Contains(logs.String(), "connection refused") {
		t.Errorf("failure not logged: %q", logs.String())
	}

	send(m, key(tea.KeyEsc))
	if m.State().Err != "" {
		t.Error("esc did not dismiss error")
	}
}

func TestBreakdownDisabledWhileLoading(t *testing.T) {
	calls := 0
	svc := breakdown.ServiceFunc(func(context.Context, string) ([]string, error) {
		calls++
		return []string{"a"}, nil
	})
	m := newTestModel(t, svc)

	typeText(m, "Plan trip")
	first := send(m, key(tea.KeyCtrlB))
	if first == nil {
		t.Fatal("expected first breakdown to start")
	}

	if cmd := send(m, key(tea.KeyCtrlB)); cmd != nil {
		t.Error("second ctrl+b issued a command while loading")
	}
	send(m, key(tea.KeyEnter))
	if n := len(m.State().Tasks); n != 0 {
		t.Errorf("enter added a task while loading: %d", n)
	}
	typeText(m, "more")
	if got := m.State().Input; got != "Plan trip" {
		t.Errorf("input edited while loading: %q", got)
	}

	collect(first)
	if calls != 1 {
		t.Errorf("service calls: got %d, want 1", calls)
	}
}

func TestBreakdownBlankInputIsNoop(t *testing.T) {
	m := newTestModel(t, nil)
	typeText(m, "  ")
	if cmd := send(m, key(tea.KeyCtrlB)); cmd != nil {
		t.Error("blank input started a breakdown")
	}
	if m.State().Loading {
		t.Error("loading set for blank input")
	}
}

func seedBrokenDown(t *testing.T, m *Model) {
	t.Helper()
	typeText(m, "Solo")
	send(m, key(tea.KeyEnter))
	m.state = todo.SetInput(m.state, "Plan trip")
	var payload string
	var ok bool
	m.state, payload, ok = todo.StartBreakdown(m.state)
	if !ok {
		t.Fatal("StartBreakdown refused")
	}
	send(m, breakdownResultMsg{payload: payload, lines: []string{"Book flights", "Reserve hotel"}})
}

func TestListNavigationAndToggle(t *testing.T) {
	m := newTestModel(t, nil)
	seedBrokenDown(t, m)
	// rows: Solo, Plan trip, Book flights, Reserve hotel

	send(m, key(tea.KeyTab))
	if m.focus != focusList {
		t.Fatal("tab did not focus the list")
	}

	send(m, runeKey('j'))
	send(m, runeKey('j'))
	send(m, key(tea.KeySpace))

	parent := m.State().Tasks[1]
	if parent.Done {
		t.Error("toggling a child changed its parent")
	}
	if !parent.Children[0].Done || parent.Children[1].Done {
		t.Errorf("children: got %+v", parent.Children)
	}
	if !strings.Contains(m.View(), "(1/2)") {
		t.Errorf("view missing progress: %q", m.View())
	}

	send(m, runeKey('k'))
	send(m, runeKey('x'))
	parent = m.State().Tasks[1]
	if !parent.Done || !parent.Children[0].Done || parent.Children[1].Done {
		t.Errorf("toggling parent changed children: %+v", parent)
	}

	send(m, runeKey('x'))
	if m.State().Tasks[1].Done {
		t.Error("second toggle did not restore")
	}
}

func TestCursorClamps(t *testing.T) {
	m := newTestModel(t, nil)
	seedBrokenDown(t, m)
	send(m, key(tea.KeyTab))

	for i := 0; i < 10; i++ {
		send(m, key(tea.KeyDown))
	}
	if m.cursor != 3 {
		t.Errorf("cursor: got %d, want 3", m.cursor)
	}
	for i := 0; i < 10; i++ {
		send(m, key(tea.KeyUp))
	}
	if m.cursor != 0 {
		t.Errorf("cursor: got %d, want 0", m.cursor)
	}
}

func TestDelete(t *testing.T) {
	m := newTestModel(t, nil)
	seedBrokenDown(t, m)
	send(m, key(tea.KeyTab))

	// Children have no delete control.
	send(m, runeKey('j'))
	send(m, runeKey('j'))
	send(m, runeKey('d'))
	if n := len(m.State().Rows()); n != 4 {
		t.Fatalf("deleting a child changed the list: %d rows", n)
	}

	send(m, runeKey('k'))
	send(m, runeKey('d'))
	st := m.State()
	if len(st.Tasks) != 1 || st.Tasks[0].Label != "Solo" {
		t.Fatalf("tasks after delete: %+v", st.Tasks)
	}
	if m.cursor != 0 {
		t.Errorf("cursor not clamped: %d", m.cursor)
	}

	send(m, runeKey('d'))
	if len(m.State().Tasks) != 0 {
		t.Error("last task not deleted")
	}
	if !strings.Contains(m.View(), todo.EmptyListMessage) {
		t.Error("empty message not shown after deleting everything")
	}
	send(m, runeKey('d'))
	send(m, key(tea.KeySpace))
}

func TestFocusAndQuit(t *testing.T) {
	m := newTestModel(t, nil)

	typeText(m, "q")
	if m.State().Input != "q" {
		t.Errorf("q in input: got %q", m.State().Input)
	}

	send(m, key(tea.KeyTab))
	if m.input.Focused() {
		t.Error("input still focused in list mode")
	}
	send(m, key(tea.KeyEsc))
	if m.focus != focusInput || !m.input.Focused() {
		t.Error("esc did not return to input")
	}

	send(m, key(tea.KeyTab))
	cmd := send(m, runeKey('q'))
	if cmd == nil {
		t.Fatal("q in list did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not produce QuitMsg")
	}

	cmd = send(m, key(tea.KeyCtrlC))
	if cmd == nil {
		t.Fatal("ctrl+c did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not produce QuitMsg")
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t, nil)
	send(m, key(tea.KeyTab))
	send(m, runeKey('?'))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help not shown")
	}
	send(m, runeKey('?'))
	if strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help not hidden")
	}
}

func TestIsTTY(t *testing.T) {
	var buf bytes.Buffer
	if IsTTY(&buf) {
		t.Error("buffer reported as TTY")
	}
}

func TestRunTUIRequiresTTY(t *testing.T) {
	if IsTTY(os.Stdout) {
		t.Skip("stdout is a terminal")
	}
	err := RunTUI(context.Background(), breakdown.ServiceFunc(nil))
	if err == nil || !strings.Contains(err.Error(), "TTY") {
		t.Errorf("expected TTY error, got %v", err)
	}
}
