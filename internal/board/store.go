package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Card is a unit of work on the board.
type Card struct {
	ID      string `json:"id" yaml:"id"`
	Content string `json:"content" yaml:"content"`
}

// Stages maps a stage name to its ordered cards.
type Stages = map[string][]Card

// Stage is one column of the board in display order.
type Stage struct {
	Name  string `json:"name" yaml:"name"`
	Cards []Card `json:"cards" yaml:"cards"`
}

// Store persists stages and cards in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a board store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load returns every stage in position order with its cards.
func (s *Store) Load(ctx context.Context) ([]Stage, error) {
	names, err := stageNames(ctx, s.db)
	if err != nil {
		return nil, err
	}
	cards, err := readCards(ctx, s.db)
	if err != nil {
		return nil, err
	}
	out := make([]Stage, 0, len(names))
	for _, name := range names {
		list := cards[name]
		if list == nil {
			list = []Card{}
		}
		out = append(out, Stage{Name: name, Cards: list})
	}
	return out, nil
}

// SeedStages creates the given stages when the board has none. It reports
// whether anything was written.
func (s *Store) SeedStages(ctx context.Context, names []string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin seed stages: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM board_stages`).Scan(&count); err != nil {
		return false, fmt.Errorf("count stages: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	for i, name := range names {
		if _, err := tx.ExecContext(ctx, `INSERT INTO board_stages(name, position) VALUES(?, ?)`, name, i); err != nil {
			return false, fmt.Errorf("insert stage %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed stages: %w", err)
	}
	return true, nil
}

// InsertStage appends a stage after the existing ones.
func (s *Store) InsertStage(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin insert stage: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := stageExists(ctx, tx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("stage %q already exists: %w", name, ErrValidation)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO board_stages(name, position)
		VALUES(?, (SELECT COALESCE(MAX(position), -1) + 1 FROM board_stages))`, name); err != nil {
		return fmt.Errorf("insert stage: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert stage: %w", err)
	}
	return nil
}

// InsertCard appends a card to the end of stage.
func (s *Store) InsertCard(ctx context.Context, stage string, card Card) error {
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin insert card: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := stageExists(ctx, tx, stage)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("stage %q: %w", stage, ErrUnknownStage)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO board_cards(id, stage, position, content, created_at)
		VALUES(?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM board_cards WHERE stage=?), ?, ?)`,
		card.ID, stage, stage, card.Content, now); err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert card: %w", err)
	}
	return nil
}

// ApplyMove reorders the board for m and persists the touched stages. The
// transaction claims the write lock before reading, so a concurrent writer in
// another process either commits first and is seen, or waits for this one.
func (s *Store) ApplyMove(ctx context.Context, m Move) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin move: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE board_stages SET position=position`); err != nil {
		return fmt.Errorf("lock board: %w", err)
	}
	current, err := readCards(ctx, tx)
	if err != nil {
		return err
	}
	next, err := Reorder(current, m)
	if err != nil {
		return err
	}
	touched := Stages{m.Source.Stage: next[m.Source.Stage]}
	if m.Destination != nil {
		touched[m.Destination.Stage] = next[m.Destination.Stage]
	}
	for stage, cards := range touched {
		for i, c := range cards {
			res, err := tx.ExecContext(ctx, `UPDATE board_cards SET stage=?, position=? WHERE id=?`, stage, i, c.ID)
			if err != nil {
				return fmt.Errorf("update card %s: %w", c.ID, err)
			}
			rows, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if rows == 0 {
				return fmt.Errorf("card %s disappeared during move", c.ID)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit move: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// readCards returns the stage to cards mapping. Every stage is present, empty
// ones with a nil list.
func readCards(ctx context.Context, q querier) (Stages, error) {
	names, err := stageNames(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make(Stages, len(names))
	for _, name := range names {
		out[name] = nil
	}
	rows, err := q.QueryContext(ctx, `SELECT id, stage, content FROM board_cards ORDER BY stage, position`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c Card
		var stage string
		if err := rows.Scan(&c.ID, &stage, &c.Content); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out[stage] = append(out[stage], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return out, nil
}

func stageNames(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM board_stages ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return out, nil
}

func stageExists(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var found string
	if err := tx.QueryRowContext(ctx, `SELECT name FROM board_stages WHERE name=?`, name).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("read stage: %w", err)
	}
	return true, nil
}
