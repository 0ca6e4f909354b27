// Package tui is an interactive terminal board. Cards are moved between
// stages with the keyboard: pick a card up, walk to a slot, drop it.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/metalagman/taskboard/internal/board"
)

// Board is the part of board.Board the UI drives.
type Board interface {
	Load(ctx context.Context) ([]board.Stage, error)
	Move(ctx context.Context, m board.Move) ([]board.Stage, error)
}

// stagesMsg carries the board state after a load or a move.
type stagesMsg struct {
	stages []board.Stage
	err    error
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	board  Board
	stages []board.Stage
	col    int
	row    int
	held   *board.Location
	err    error
	keys   keyMap
	help   help.Model
	width  int
	loaded bool
}

// New creates a model bound to b.
func New(ctx context.Context, b Board) Model {
	return Model{
		ctx:   ctx,
		board: b,
		keys:  defaultKeys(),
		help:  help.New(),
	}
}

// Init loads the board.
func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	b, ctx := m.board, m.ctx
	return func() tea.Msg {
		stages, err := b.Load(ctx)
		return stagesMsg{stages: stages, err: err}
	}
}

func (m Model) move(mv board.Move) tea.Cmd {
	b, ctx := m.board, m.ctx
	return func() tea.Msg {
		stages, err := b.Move(ctx, mv)
		return stagesMsg{stages: stages, err: err}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stagesMsg:
		m.err = msg.err
		if msg.err == nil {
			m.stages = msg.stages
			m.loaded = true
		}
		m.clamp()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		m.col--
	case key.Matches(msg, m.keys.Right):
		m.col++
	case key.Matches(msg, m.keys.Up):
		m.row--
	case key.Matches(msg, m.keys.Down):
		m.row++
	case key.Matches(msg, m.keys.Reload):
		m.held = nil
		return m, m.load()
	case key.Matches(msg, m.keys.Cancel):
		m.held = nil
	case key.Matches(msg, m.keys.Pick):
		if m.held == nil && len(m.stages) > 0 && len(m.stages[m.col].Cards) > 0 {
			m.held = &board.Location{Stage: m.stages[m.col].Name, Index: m.row}
			m.err = nil
		}
	case key.Matches(msg, m.keys.Drop):
		if m.held == nil || len(m.stages) == 0 {
			return m, nil
		}
		mv := board.Move{
			Source:      *m.held,
			Destination: &board.Location{Stage: m.stages[m.col].Name, Index: m.row},
		}
		m.held = nil
		return m, m.move(mv)
	}
	m.clamp()
	return m, nil
}

// clamp keeps the cursor on an existing stage and a valid slot. While a card
// from another stage is held, the slot past the last card is reachable.
func (m *Model) clamp() {
	if len(m.stages) == 0 {
		m.col, m.row = 0, 0
		return
	}
	m.col = max(0, min(m.col, len(m.stages)-1))
	m.row = max(0, min(m.row, m.maxRow()))
}

func (m Model) maxRow() int {
	stage := m.stages[m.col]
	n := len(stage.Cards)
	if m.held != nil && m.held.Stage != stage.Name {
		return n
	}
	return max(0, n-1)
}

// View renders the board.
func (m Model) View() string {
	if !m.loaded {
		if m.err != nil {
			return styleError.Render("load board: "+m.err.Error()) + "\n"
		}
		return "Loading board...\n"
	}

	columns := make([]string, 0, len(m.stages))
	for i, stage := range m.stages {
		columns = append(columns, m.renderStage(i, stage))
	}
	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	b.WriteString("\n")
	if m.held != nil {
		b.WriteString(styleHeld.Render(fmt.Sprintf("holding %s #%d", m.held.Stage, m.held.Index+1)))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(styleError.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderStage(i int, stage board.Stage) string {
	focused := i == m.col
	lines := []string{styleStageTitle.Render(fmt.Sprintf("%s (%d)", stage.Name, len(stage.Cards)))}
	for j, card := range stage.Cards {
		line := card.Content
		if m.held != nil && m.held.Stage == stage.Name && m.held.Index == j {
			line = styleHeld.Render("» " + line)
		}
		if focused && j == m.row {
			line = styleCursor.Render(line)
		}
		lines = append(lines, line)
	}
	if focused && m.row == len(stage.Cards) && m.held != nil {
		lines = append(lines, styleDropSlot.Render("▸ drop here"))
	} else if len(stage.Cards) == 0 {
		lines = append(lines, styleEmpty.Render("(empty)"))
	}

	style := styleStage
	if focused {
		style = styleFocusedStage
	}
	return style.Width(stageWidth(m.width, len(m.stages))).Render(strings.Join(lines, "\n"))
}

func stageWidth(total, stages int) int {
	const minWidth = 18
	if total == 0 || stages == 0 {
		return minWidth
	}
	return max(minWidth, total/stages-4)
}
