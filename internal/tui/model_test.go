package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/taskboard/internal/board"
)

type fakeBoard struct {
	mu     sync.Mutex
	stages board.Stages
	order  []string
	moves  []board.Move
	err    error
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{
		stages: board.Stages{
			"To Do": {{ID: "1", Content: "one"}, {ID: "2", Content: "two"}},
			"Done":  {},
		},
		order: []string{"To Do", "Done"},
	}
}

func (f *fakeBoard) view() []board.Stage {
	out := make([]board.Stage, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, board.Stage{Name: name, Cards: f.stages[name]})
	}
	return out
}

func (f *fakeBoard) Load(context.Context) ([]board.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view(), nil
}

func (f *fakeBoard) Move(_ context.Context, m board.Move) ([]board.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, m)
	if f.err != nil {
		return nil, f.err
	}
	next, err := board.Reorder(f.stages, m)
	if err != nil {
		return nil, err
	}
	f.stages = next
	return f.view(), nil
}

func (f *fakeBoard) Moves() []board.Move {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]board.Move(nil), f.moves...)
}

// run feeds msg to m and executes any resulting command synchronously.
func run(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd != nil {
		if out := cmd(); out != nil {
			if _, ok := out.(stagesMsg); ok {
				next, _ = m.Update(out)
				m = next.(Model)
			}
		}
	}
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, b Board) Model {
	t.Helper()
	m := New(context.Background(), b)
	msg := m.Init()()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestLoadRendersStages(t *testing.T) {
	t.Parallel()

	m := loaded(t, newFakeBoard())
	view := m.View()
	assert.Contains(t, view, "To Do (2)")
	assert.Contains(t, view, "Done (0)")
	assert.Contains(t, view, "one")
}

func TestPickAndDropAcrossStages(t *testing.T) {
	t.Parallel()

	fb := newFakeBoard()
	m := loaded(t, fb)
	m = run(t, m, keyMsg(" "))
	require.NotNil(t, m.held)
	assert.Contains(t, m.View(), "holding To Do #1")

	m = run(t, m, keyMsg("l"))
	assert.Equal(t, 1, m.col)
	m = run(t, m, keyMsg("enter"))

	moves := fb.Moves()
	require.Len(t, moves, 1)
	assert.Equal(t, board.Location{Stage: "To Do", Index: 0}, moves[0].Source)
	assert.Equal(t, &board.Location{Stage: "Done", Index: 0}, moves[0].Destination)
	assert.Nil(t, m.held)
	assert.Len(t, m.stages[0].Cards, 1)
	assert.Equal(t, "one", m.stages[1].Cards[0].Content)
}

func TestDropWithinStage(t *testing.T) {
	t.Parallel()

	fb := newFakeBoard()
	m := loaded(t, fb)
	m = run(t, m, keyMsg(" "))
	m = run(t, m, keyMsg("j"))
	m = run(t, m, keyMsg("j"))
	assert.Equal(t, 1, m.row, "same-stage cursor stops at the last card")
	m = run(t, m, keyMsg("enter"))

	require.Len(t, fb.Moves(), 1)
	assert.Equal(t, "two", m.stages[0].Cards[0].Content)
	assert.Equal(t, "one", m.stages[0].Cards[1].Content)
}

func TestCrossStageCursorReachesEndSlot(t *testing.T) {
	t.Parallel()

	fb := newFakeBoard()
	fb.stages["Done"] = []board.Card{{ID: "3", Content: "three"}}
	m := loaded(t, fb)
	m = run(t, m, keyMsg(" "))
	m = run(t, m, keyMsg("right"))
	m = run(t, m, keyMsg("j"))
	m = run(t, m, keyMsg("j"))
	assert.Equal(t, 1, m.row)
	assert.Contains(t, m.View(), "drop here")
	m = run(t, m, keyMsg("enter"))
	assert.Equal(t, []string{"three", "one"}, []string{m.stages[1].Cards[0].Content, m.stages[1].Cards[1].Content})
}

func TestCancelAndEmptyPickDoNotMove(t *testing.T) {
	t.Parallel()

	fb := newFakeBoard()
	m := loaded(t, fb)
	m = run(t, m, keyMsg(" "))
	m = run(t, m, keyMsg("esc"))
	assert.Nil(t, m.held)
	m = run(t, m, keyMsg("enter"))

	m = run(t, m, keyMsg("l"))
	m = run(t, m, keyMsg(" "))
	assert.Nil(t, m.held, "empty stage has nothing to pick up")
	assert.Empty(t, fb.Moves())
}

func TestMoveErrorIsShown(t *testing.T) {
	t.Parallel()

	fb := newFakeBoard()
	fb.err = errors.New("database is locked")
	m := loaded(t, fb)
	m = run(t, m, keyMsg(" "))
	m = run(t, m, keyMsg("enter"))

	require.Len(t, fb.Moves(), 1)
	assert.Contains(t, m.View(), "database is locked")
	assert.Len(t, m.stages[0].Cards, 2, "state is kept on failure")
}

func TestQuit(t *testing.T) {
	t.Parallel()

	m := loaded(t, newFakeBoard())
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
