package board

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultStages seed an empty board.
var DefaultStages = []string{"To Do", "Doing", "Done"}

// Board applies board operations against a Store. Mutations are serialized in
// process; Store.ApplyMove keeps moves consistent across processes.
type Board struct {
	mu       sync.Mutex
	store    *Store
	defaults []string
}

// New creates a board. An empty defaults list falls back to DefaultStages.
func New(store *Store, defaults []string) *Board {
	if len(defaults) == 0 {
		defaults = DefaultStages
	}
	return &Board{store: store, defaults: append([]string(nil), defaults...)}
}

// Load returns the board, seeding the default stages on first use.
func (b *Board) Load(ctx context.Context) ([]Stage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(ctx)
}

func (b *Board) load(ctx context.Context) ([]Stage, error) {
	seeded, err := b.store.SeedStages(ctx, b.defaults)
	if err != nil {
		return nil, err
	}
	if seeded {
		log.Info().Strs("stages", b.defaults).Msg("board initialized")
	}
	return b.store.Load(ctx)
}

// AddStage appends a stage. Names must be non-empty and unique.
func (b *Board) AddStage(ctx context.Context, name string) (Stage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Stage{}, fmt.Errorf("stage name is required: %w", ErrValidation)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.load(ctx); err != nil {
		return Stage{}, err
	}
	if err := b.store.InsertStage(ctx, name); err != nil {
		return Stage{}, err
	}
	return Stage{Name: name, Cards: []Card{}}, nil
}

// AddCard appends a new card to stage.
func (b *Board) AddCard(ctx context.Context, stage, content string) (Card, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Card{}, fmt.Errorf("card content is required: %w", ErrValidation)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.load(ctx); err != nil {
		return Card{}, err
	}
	card := Card{ID: uuid.NewString(), Content: content}
	if err := b.store.InsertCard(ctx, stage, card); err != nil {
		return Card{}, err
	}
	return card, nil
}

// Move reorders the board for a drag-end event and persists the touched
// stages. A move without destination leaves the board untouched.
func (b *Board) Move(ctx context.Context, m Move) ([]Stage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m.Destination == nil {
		return b.load(ctx)
	}
	if _, err := b.load(ctx); err != nil {
		return nil, err
	}
	if err := b.store.ApplyMove(ctx, m); err != nil {
		return nil, err
	}
	log.Debug().
		Str("from", m.Source.Stage).Int("from_index", m.Source.Index).
		Str("to", m.Destination.Stage).Int("to_index", m.Destination.Index).
		Msg("card moved")
	return b.store.Load(ctx)
}

// Names lists stage names in display order.
func Names(stages []Stage) []string {
	out := make([]string, 0, len(stages))
	for _, s := range stages {
		out = append(out, s.Name)
	}
	return out
}
