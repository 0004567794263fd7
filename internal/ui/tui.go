// Package ui provides the terminal interface for the task list.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nibzard/smarttodo/internal/breakdown"
	"github.com/nibzard/smarttodo/internal/logging"
	"github.com/nibzard/smarttodo/internal/todo"
)

type focus int

const (
	focusInput focus = iota
	focusList
)

// Option configures the TUI model.
type Option func(*Model)

// WithIDs sets the identifier source for new tasks.
func WithIDs(ids todo.IDSource) Option {
	return func(m *Model) {
		m.ids = ids
	}
}

// WithLogger sets the logger. The TUI owns the terminal, so the logger
// should write to a file.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// RunTUI starts the task list on the terminal and blocks until the user quits.
func RunTUI(ctx context.Context, svc breakdown.Service, opts ...Option) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := NewModel(ctx, svc, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// Model is the bubbletea model of the task list view.
type Model struct {
	ctx      context.Context
	svc      breakdown.Service
	ids      todo.IDSource
	logger   *log.Logger
	state    todo.State
	input    textinput.Model
	spinner  spinner.Model
	focus    focus
	cursor   int
	showHelp bool
}

// breakdownResultMsg carries the outcome of one breakdown request back to
// the event loop.
type breakdownResultMsg struct {
	payload string
	lines   []string
	err     error
}

// NewModel returns a model with an empty list and the input focused.
func NewModel(ctx context.Context, svc breakdown.Service, opts ...Option) *Model {
	ti := textinput.New()
	ti.Placeholder = "Add a new todo..."
	ti.CharLimit = 0
	ti.Width = 50
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:     ctx,
		svc:     svc,
		ids:     todo.UUIDs{},
		logger:  logging.Discard(),
		input:   ti,
		spinner: sp,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current list state.
func (m *Model) State() todo.State {
	return m.state
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		if msg.Width > 10 {
			m.input.Width = msg.Width - 10
		}
		return m, nil
	case breakdownResultMsg:
		m.finishBreakdown(msg)
		return m, nil
	case spinner.TickMsg:
		if !m.state.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+b":
		return m, m.startBreakdown()
	case "tab":
		m.toggleFocus()
		return m, nil
	case "esc":
		if m.state.Err != "" {
			m.state = todo.DismissError(m.state)
			return m, nil
		}
		if m.focus == focusList {
			m.setFocus(focusInput)
		}
		return m, nil
	case "up":
		m.moveCursor(-1)
		return m, nil
	case "down":
		m.moveCursor(1)
		return m, nil
	}

	if m.focus == focusList {
		return m.handleListKey(msg.String())
	}
	return m.handleInputKey(msg)
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		m.add()
		return m, nil
	}
	// The input is disabled while a breakdown is in flight.
	if m.state.Loading {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.state = todo.SetInput(m.state, m.input.Value())
	return m, cmd
}

func (m *Model) handleListKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "k":
		m.moveCursor(-1)
	case "j":
		m.moveCursor(1)
	case " ", "x":
		if row, ok := m.selectedRow(); ok {
			m.state = todo.Toggle(m.state, row.Task.ID)
		}
	case "d":
		if row, ok := m.selectedRow(); ok && !row.IsChild() {
			m.state = todo.Delete(m.state, row.Task.ID)
			m.logger.Debug("task deleted", "id", row.Task.ID)
			m.clampCursor()
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) add() {
	before := len(m.state.Tasks)
	m.state = todo.Add(m.state, m.ids)
	if len(m.state.Tasks) == before {
		return
	}
	m.logger.Info("task added", "id", m.state.Tasks[before].ID)
	m.syncInput()
}

func (m *Model) startBreakdown() tea.Cmd {
	next, payload, ok := todo.StartBreakdown(m.state)
	if !ok {
		return nil
	}
	m.state = next
	m.logger.Info("breakdown requested", "task", payload)
	return tea.Batch(m.spinner.Tick, m.requestBreakdown(payload))
}

func (m *Model) requestBreakdown(payload string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		lines, err := svc.Breakdown(ctx, payload)
		return breakdownResultMsg{payload: payload, lines: lines, err: err}
	}
}

func (m *Model) finishBreakdown(msg breakdownResultMsg) {
	if msg.err != nil {
		m.logger.Error("breakdown failed", "err", msg.err)
		m.state = todo.FailBreakdown(m.state)
		return
	}
	m.state = todo.FinishBreakdown(m.state, m.ids, msg.payload, msg.lines)
	m.syncInput()
}

func (m *Model) syncInput() {
	m.input.SetValue(m.state.Input)
	m.input.CursorEnd()
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput {
		m.setFocus(focusList)
		return
	}
	m.setFocus(focusInput)
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
		return
	}
	m.input.Blur()
	m.clampCursor()
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.state.Rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selectedRow() (todo.Row, bool) {
	rows := m.state.Rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return todo.Row{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.focus)
		return b.String()
	}

	b.WriteString(m.input.View() + "\n\n")
	m.writeControls(&b)
	if m.state.Err != "" {
		b.WriteString(errorStyle.Render(m.state.Err) + mutedStyle.Render("  esc to dismiss") + "\n\n")
	}
	m.writeList(&b)
	writeFooter(&b, m.focus)
	return b.String()
}

func writeTitle(b *strings.Builder) {
	b.WriteString(titleStyle.Render(todo.Title) + "\n\n")
}

func (m *Model) writeControls(b *strings.Builder) {
	style := disabledStyle
	if m.state.CanSubmit() {
		style = buttonStyle
	}

	b.WriteString(style.Render("Add") + " ")
	if m.state.Loading {
		b.WriteString(style.Render(m.spinner.View()+" Breaking down..."))
	} else {
		b.WriteString(style.Render("Break Down"))
	}
	b.WriteString("\n\n")
}

func (m *Model) writeList(b *strings.Builder) {
	rows := m.state.Rows()
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render(todo.EmptyListMessage) + "\n\n")
		return
	}

	for i, row := range rows {
		selected := m.focus == focusList && i == m.cursor
		b.WriteString(formatRow(row, selected) + "\n")
	}

	total, done := m.state.Counts()
	b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("%d/%d done", done, total)) + "\n\n")
}

func formatRow(row todo.Row, selected bool) string {
	pointer := "  "
	if selected {
		pointer = cursorStyle.Render("> ")
	}
	indent := ""
	if row.IsChild() {
		indent = "    "
	}

	marker := "[ ]"
	label := row.Task.Label
	if row.Task.Done {
		marker = "[x]"
		label = doneStyle.Render(label)
	}

	line := fmt.Sprintf("%s%s%s %s", pointer, indent, marker, label)
	if row.Task.HasChildren() {
		line += mutedStyle.Render(fmt.Sprintf(" (%d/%d)", row.Task.CompletedChildren(), len(row.Task.Children)))
	}
	if !row.IsChild() {
		line += " " + mutedStyle.Render("✕")
	}
	return line
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  enter        Add the typed task\n")
	b.WriteString("  ctrl+b       Break the typed task down into subtasks\n")
	b.WriteString("  tab          Switch focus between input and list\n")
	b.WriteString("  up/k         Move up\n")
	b.WriteString("  down/j       Move down\n")
	b.WriteString("  space, x     Toggle done\n")
	b.WriteString("  d            Delete a top-level task\n")
	b.WriteString("  esc          Dismiss error or return to input\n")
	b.WriteString("  ?            Toggle this help screen\n")
	b.WriteString("  q, ctrl+c    Quit\n\n")
}

func writeFooter(b *strings.Builder, f focus) {
	if f == focusList {
		b.WriteString(mutedStyle.Render("space toggle | d delete | tab input | ? help | q quit") + "\n")
		return
	}
	b.WriteString(mutedStyle.Render("enter add | ctrl+b break down | tab list | ctrl+c quit") + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
