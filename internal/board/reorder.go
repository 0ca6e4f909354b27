// Package board implements the Kanban board: named stages holding ordered
// cards, and the drag-and-drop reordering between them.
package board

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange reports a move index outside the current list bounds.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnknownStage reports a move or card that names a stage the board does not have.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrValidation reports invalid input such as an empty stage name.
	ErrValidation = errors.New("validation failed")
)

// Location addresses a slot in a stage.
type Location struct {
	Stage string `json:"stage"`
	Index int    `json:"index"`
}

// Move is a drag-end event. A nil Destination means the card was dropped
// outside any stage.
type Move struct {
	Source      Location  `json:"source"`
	Destination *Location `json:"destination"`
}

// Reorder applies m to stages and returns the new mapping. The input map and
// its slices are never modified; untouched stages share their slices with the
// input. Within one stage the destination index is resolved against the list
// with the moved card already removed.
func Reorder[T any](stages map[string][]T, m Move) (map[string][]T, error) {
	if m.Destination == nil {
		return stages, nil
	}
	src, ok := stages[m.Source.Stage]
	if !ok {
		return nil, fmt.Errorf("source %q: %w", m.Source.Stage, ErrUnknownStage)
	}
	dst, ok := stages[m.Destination.Stage]
	if !ok {
		return nil, fmt.Errorf("destination %q: %w", m.Destination.Stage, ErrUnknownStage)
	}
	if m.Source.Index < 0 || m.Source.Index >= len(src) {
		return nil, fmt.Errorf("source index %d in %q (len %d): %w", m.Source.Index, m.Source.Stage, len(src), ErrIndexOutOfRange)
	}

	moved := src[m.Source.Index]
	remaining := make([]T, 0, len(src))
	remaining = append(remaining, src[:m.Source.Index]...)
	remaining = append(remaining, src[m.Source.Index+1:]...)

	out := make(map[string][]T, len(stages))
	for name, cards := range stages {
		out[name] = cards
	}

	if m.Source.Stage == m.Destination.Stage {
		if m.Destination.Index < 0 || m.Destination.Index > len(remaining) {
			return nil, fmt.Errorf("destination index %d in %q (len %d): %w", m.Destination.Index, m.Destination.Stage, len(remaining), ErrIndexOutOfRange)
		}
		out[m.Source.Stage] = insertAt(remaining, m.Destination.Index, moved)
		return out, nil
	}

	if m.Destination.Index < 0 || m.Destination.Index > len(dst) {
		return nil, fmt.Errorf("destination index %d in %q (len %d): %w", m.Destination.Index, m.Destination.Stage, len(dst), ErrIndexOutOfRange)
	}
	out[m.Source.Stage] = remaining
	out[m.Destination.Stage] = insertAt(dst, m.Destination.Index, moved)
	return out, nil
}

// insertAt returns a new slice with v at index i.
func insertAt[T any](list []T, i int, v T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, v)
	return append(out, list[i:]...)
}
