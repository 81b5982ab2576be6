// Package tui provides the terminal interface to the task list.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"todolist/pkg/task"
)

type mode int

const (
	modeList mode = iota
	modeAdd
)

// Model is the bubbletea model. Rows are addressed by task ID so a
// change published by another writer cannot redirect a keypress.
type Model struct {
	store  *task.Store
	logger *log.Logger
	ctx    context.Context

	tasks  []task.Task
	stats  task.Stats
	cursor int
	mode   mode
	input  textinput.Model
	status string

	changes chan task.Change
}

type changeMsg struct {
	ok bool
}

// New creates a model over store. changes may be nil, in which case the
// model only refreshes after its own mutations.
func New(ctx context.Context, store *task.Store, changes chan task.Change, logger *log.Logger) Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ti := textinput.New()
	ti.Placeholder = "Enter a task"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		store:   store,
		logger:  logger,
		ctx:     ctx,
		input:   ti,
		status:  "Press 'n' to add, space to toggle, 'd' to delete.",
		changes: changes,
	}
	m.refresh()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, store *task.Store, logger *log.Logger) error {
	changes := store.Subscribe()
	defer store.Unsubscribe(changes)

	program := tea.NewProgram(New(ctx, store, changes, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func waitForChange(ch chan task.Change) tea.Cmd {
	return func() tea.Msg {
		_, ok := <-ch
		return changeMsg{ok: ok}
	}
}

func (m Model) Init() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	return waitForChange(m.changes)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode == modeAdd {
			return m.updateAddMode(msg)
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-10, 10)
	case changeMsg:
		m.refresh()
		if msg.ok {
			return m, waitForChange(m.changes)
		}
	}
	return m, nil
}

func (m Model) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case "enter":
		created, err := m.store.Create(m.ctx, m.input.Value())
		switch {
		case err == nil:
			m.status = "Added task"
			m.refresh()
			m.cursor = max(m.store.IndexOf(created.ID), 0)
		case errors.Is(err, task.ErrEmptyText):
			m.status = "Task text cannot be empty"
			return m, nil
		default:
			m.fail("add", err)
		}
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "n":
		m.mode = modeAdd
		m.status = "Add mode: type a task and press Enter"
		return m, m.input.Focus()
	case " ", "space":
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		if _, err := m.store.ToggleID(m.ctx, t.ID); err != nil {
			m.fail("toggle", err)
			return m, nil
		}
		m.status = "Toggled task"
	case "d":
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		if err := m.store.DeleteID(m.ctx, t.ID); err != nil {
			m.fail("delete", err)
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted %q", t.Text)
	case "a", "A":
		if err := m.store.SetAllCompleted(m.ctx, key == "a"); err != nil {
			m.fail("set all", err)
			return m, nil
		}
		if key == "a" {
			m.status = "Marked all completed"
		} else {
			m.status = "Cleared all completion flags"
		}
	case "x":
		n, err := m.store.DeleteCompleted(m.ctx)
		if err != nil {
			m.fail("delete completed", err)
			return m, nil
		}
		m.status = fmt.Sprintf("Removed %d completed", n)
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m Model) current() (task.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return task.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *Model) refresh() {
	m.tasks = m.store.List()
	m.stats = m.store.Stats()
	m.cursor = min(m.cursor, len(m.tasks)-1)
	m.cursor = max(m.cursor, 0)
}

func (m *Model) fail(op string, err error) {
	m.logger.Error(op, "err", err)
	m.status = fmt.Sprintf("%s failed: %v", op, err)
	m.refresh()
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString("Enhanced To-Do List\n\n")
	if len(m.tasks) == 0 {
		b.WriteString("No tasks yet. Press 'n' to add one.\n")
	}
	for i, t := range m.tasks {
		cursor := " "
		if i == m.cursor && m.mode == modeList {
			cursor = ">"
		}
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		fmt.Fprintf(&b, "%s %s %s  %s\n", cursor, check, t.Text, t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}

	b.WriteString("\n")
	b.WriteString(m.stats.String())
	b.WriteString("\n")
	if m.mode == modeAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString("↑/↓ move • space toggle • n add • d delete • a/A all/none • x clear completed • q quit")
	return b.String()
}
