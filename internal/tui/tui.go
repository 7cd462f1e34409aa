// Package tui はカンバンボードのターミナルUIです。
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trackit/internal/board"
	"trackit/internal/models"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
)

// loadedMsg は一覧取得の完了です。
type loadedMsg struct{ op *board.LoadOp }

// settledMsg は楽観的更新の送信完了です。
type settledMsg struct{ op *board.Op }

// Model はボード画面のbubbleteaモデルです。
type Model struct {
	board   *board.Board
	drag    *board.DragController
	timeout time.Duration

	col        int
	row        int
	dropTarget int

	mode   mode
	editID string
	input  textinput.Model
	notice string

	keys  keyMap
	help  help.Model
	width int
}

// New はボード画面を作成します。timeoutはAPI呼び出し一回あたりの上限です。
func New(b *board.Board, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	return Model{
		board:   b,
		drag:    board.NewDragController(b),
		timeout: timeout,
		input:   ti,
		keys:    defaultKeyMap(),
		help:    help.New(),
		width:   96,
	}
}

// Run はボード画面を起動し、終了するまでブロックします。
func Run(b *board.Board, timeout time.Duration) error {
	_, err := tea.NewProgram(New(b, timeout), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	op, err := m.board.BeginLoad()
	if err != nil {
		return nil
	}
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		op.Send(ctx)
		return loadedMsg{op: op}
	}
}

func (m Model) send(op *board.Op) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		op.Send(ctx)
		return settledMsg{op: op}
	}
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}

// begin は楽観的更新を開始し、送信用のCmdを返します。
func (m *Model) begin(op *board.Op, err error) tea.Cmd {
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	m.notice = ""
	return m.send(op)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case loadedMsg:
		_ = msg.op.Settle()
		m.clamp()
		return m, nil
	case settledMsg:
		_ = msg.op.Settle()
		m.clamp()
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			m.notice = "Title cannot be empty"
			return m, nil
		}
		var cmd tea.Cmd
		if m.mode == modeAdd {
			cmd = m.begin(m.board.BeginAdd(models.TaskCreateRequest{Title: title}))
		} else {
			cmd = m.begin(m.board.BeginEdit(m.editID, models.TaskPatch{Title: &title}))
		}
		m.closeInput()
		return m, cmd
	case "esc":
		m.closeInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.editID = ""
	m.input.SetValue("")
	m.input.Blur()
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, _, dragging := m.drag.Dragging()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Left):
		if dragging {
			m.dropTarget = max(m.dropTarget-1, 0)
		} else {
			m.col = max(m.col-1, 0)
			m.clamp()
		}
	case key.Matches(msg, m.keys.Right):
		if dragging {
			m.dropTarget = min(m.dropTarget+1, len(models.Statuses)-1)
		} else {
			m.col = min(m.col+1, len(models.Statuses)-1)
			m.clamp()
		}
	case key.Matches(msg, m.keys.Up):
		if !dragging {
			m.row = max(m.row-1, 0)
		}
	case key.Matches(msg, m.keys.Down):
		if !dragging {
			m.row++
			m.clamp()
		}

	case key.Matches(msg, m.keys.Pick):
		if dragging {
			return m, nil
		}
		if t := m.selected(); t != nil {
			if err := m.drag.Pick(t.ID); err != nil {
				m.notice = err.Error()
				return m, nil
			}
			m.dropTarget = m.col
		}
	case key.Matches(msg, m.keys.Drop):
		if !dragging {
			return m, nil
		}
		target := models.Statuses[m.dropTarget]
		id, move, err := m.drag.Release(target)
		if err != nil || !move {
			return m, nil
		}
		cmd := m.begin(m.board.BeginMove(id, target))
		m.col = m.dropTarget
		m.focus(id)
		return m, cmd
	case key.Matches(msg, m.keys.Cancel):
		m.drag.Cancel()

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.Placeholder = "New task title..."
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Edit):
		if t := m.selected(); t != nil {
			m.mode = modeEdit
			m.editID = t.ID
			m.input.Placeholder = "Edit task title..."
			m.input.SetValue(t.Title)
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
	case key.Matches(msg, m.keys.Delete):
		if t := m.selected(); t != nil && !dragging {
			return m, m.begin(m.board.BeginDelete(t.ID))
		}
	case key.Matches(msg, m.keys.Dismiss):
		m.board.Dismiss()
		m.notice = ""
	case key.Matches(msg, m.keys.Reload):
		cmd := m.load()
		if cmd == nil {
			m.notice = board.ErrBusy.Error()
		}
		return m, cmd
	}
	return m, nil
}

// selected はカーソル位置のタスクを返します。
func (m Model) selected() *models.Task {
	tasks := m.board.Columns().Column(models.Statuses[m.col])
	if m.row < 0 || m.row >= len(tasks) {
		return nil
	}
	return tasks[m.row]
}

// focus はカーソルを現在の列のタスクidに合わせます。
func (m *Model) focus(id string) {
	for i, t := range m.board.Columns().Column(models.Statuses[m.col]) {
		if t.ID == id {
			m.row = i
			return
		}
	}
	m.clamp()
}

func (m *Model) clamp() {
	n := len(m.board.Columns().Column(models.Statuses[m.col]))
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m Model) View() string {
	var b strings.Builder

	state, pending := m.board.State()
	header := titleStyle.Render("TrackIt")
	switch state {
	case board.StateLoading:
		header += "  " + mutedStyle.Render("loading...")
	case board.StatePending:
		header += "  " + mutedStyle.Render(fmt.Sprintf("saving (%s)...", pending))
	}
	b.WriteString(header + "\n")

	if err := m.board.Err(); err != nil {
		b.WriteString(errorStyle.Render("! "+err.Error()) + mutedStyle.Render("  (x to dismiss)") + "\n")
	}
	if m.notice != "" {
		b.WriteString(accentStyle.Render(m.notice) + "\n")
	}

	if state == board.StateError {
		b.WriteString(mutedStyle.Render("Could not load tasks. Press r to retry.") + "\n")
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}

	b.WriteString(m.renderColumns() + "\n")

	if orphans := m.board.Columns().Orphans; len(orphans) > 0 {
		names := make([]string, 0, len(orphans))
		for _, t := range orphans {
			names = append(names, fmt.Sprintf("%s [%s]", t.Title, t.Status))
		}
		b.WriteString(mutedStyle.Render("Not on board: "+strings.Join(names, ", ")) + "\n")
	}

	if m.mode != modeBrowse {
		title := "Add task"
		if m.mode == modeEdit {
			title = "Edit task"
		}
		b.WriteString(inputBarStyle.Render(title+"\n"+m.input.View()) + "\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderColumns() string {
	cols := m.board.Columns()
	draggedID, _, dragging := m.drag.Dragging()

	colWidth := max((m.width-len(models.Statuses)*4)/len(models.Statuses), 16)
	rendered := make([]string, 0, len(models.Statuses))
	for ci, status := range models.Statuses {
		tasks := cols.Column(status)
		heading := lipgloss.NewStyle().Bold(true).Foreground(columnColors[ci]).
			Render(fmt.Sprintf("%s (%d)", status.Label(), len(tasks)))

		lines := []string{heading, ""}
		if len(tasks) == 0 {
			lines = append(lines, mutedStyle.Render("no tasks"))
		}
		for ri, t := range tasks {
			line := truncate(t.Title, colWidth-2)
			switch {
			case dragging && t.ID == draggedID:
				line = draggedStyle.Render("✥ " + line)
			case ci == m.col && ri == m.row && m.mode == modeBrowse:
				line = selectedStyle.Render("> " + line)
			default:
				line = "  " + line
			}
			lines = append(lines, line)
			if t.AssignedTo != "" {
				lines = append(lines, mutedStyle.Render("    @"+truncate(t.AssignedTo, colWidth-6)))
			}
		}

		style := columnStyle
		switch {
		case dragging && ci == m.dropTarget:
			style = dropColumnStyle
		case ci == m.col:
			style = activeColumnStyle
		}
		rendered = append(rendered, style.Width(colWidth).Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
