package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store manages task persistence in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a task store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ Repository = (*Store)(nil)

const recordColumns = `id, title, description, is_complete, parent_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	var parentID sql.NullString
	if err := row.Scan(&r.ID, &r.Title, &r.Description, &r.IsComplete, &parentID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Record{}, err
	}
	if parentID.Valid {
		r.ParentID = parentID.String
	}
	return r, nil
}

// CreateTask inserts a new task and links its tags.
func (s *Store) CreateTask(ctx context.Context, in NewTask) (Record, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Record{}, fmt.Errorf("begin create task: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if in.ParentID != "" {
		if err := taskExists(ctx, tx, in.ParentID); err != nil {
			return Record{}, err
		}
	}
	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM tasks`).Scan(&seq); err != nil {
		return Record{}, fmt.Errorf("read task seq: %w", err)
	}
	position, err := nextPosition(ctx, tx, in.ParentID)
	if err != nil {
		return Record{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO tasks(id, seq, title, description, is_complete, parent_id, position, created_at, updated_at)
		VALUES(?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		id, seq, in.Title, in.Description, nullableString(in.ParentID), position, now, now); err != nil {
		return Record{}, fmt.Errorf("insert task: %w", err)
	}
	for _, tagID := range in.TagIDs {
		var found string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE id=?`, tagID).Scan(&found); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return Record{}, fmt.Errorf("tag %s: %w", tagID, ErrNotFound)
			}
			return Record{}, fmt.Errorf("read tag: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO task_tags(task_id, tag_id) VALUES(?, ?)`, id, tagID); err != nil {
			return Record{}, fmt.Errorf("link tag: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit create task: %w", err)
	}
	return s.Task(ctx, id)
}

// SetComplete updates the completion flag and updated_at.
func (s *Store) SetComplete(ctx context.Context, id string, complete bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET is_complete=?, updated_at=? WHERE id=?`, complete, now, id)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetParent reparents a task. Moving a task under itself or one of its
// descendants fails with ErrCycleDetected. Setting the current parent again
// keeps the task's position.
func (s *Store) SetParent(ctx context.Context, id, parentID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin set parent: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current sql.NullString
	if err := tx.QueryRowContext(ctx, `SELECT parent_id FROM tasks WHERE id=?`, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("read task parent: %w", err)
	}
	if current.String == parentID {
		return nil
	}
	if parentID != "" {
		if err := taskExists(ctx, tx, parentID); err != nil {
			return err
		}
		if err := checkAncestry(ctx, tx, id, parentID); err != nil {
			return err
		}
	}
	position, err := nextPosition(ctx, tx, parentID)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET parent_id=?, position=?, updated_at=? WHERE id=?`,
		nullableString(parentID), position, now, id); err != nil {
		return fmt.Errorf("update task parent: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set parent: %w", err)
	}
	return nil
}

// checkAncestry walks up from parentID and fails if it reaches id.
func checkAncestry(ctx context.Context, tx *sql.Tx, id, parentID string) error {
	seen := map[string]struct{}{}
	current := parentID
	for current != "" {
		if current == id {
			return fmt.Errorf("move task %s under %s: %w", id, parentID, ErrCycleDetected)
		}
		if _, ok := seen[current]; ok {
			return fmt.Errorf("ancestors of %s: %w", parentID, ErrCycleDetected)
		}
		seen[current] = struct{}{}
		var next sql.NullString
		if err := tx.QueryRowContext(ctx, `SELECT parent_id FROM tasks WHERE id=?`, current).Scan(&next); err != nil {
			return fmt.Errorf("read ancestor: %w", err)
		}
		current = next.String
	}
	return nil
}

// Task fetches a task by id with its children ids and tags.
func (s *Store) Task(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM tasks WHERE id=?`, id)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return Record{}, fmt.Errorf("read task: %w", err)
	}
	if err := s.fill(ctx, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Roots returns tasks without a parent ordered by creation.
func (s *Store) Roots(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM tasks WHERE parent_id IS NULL ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query root tasks: %w", err)
	}
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan root task: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate root tasks: %w", err)
	}
	_ = rows.Close()
	// The pool holds a single connection, so children and tags are read after
	// the root cursor is closed.
	for i := range out {
		if err := s.fill(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Delete removes a task; its subtree and tag links cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateTag inserts a tag.
func (s *Store) CreateTag(ctx context.Context, name, color string) (Tag, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	tag := Tag{ID: uuid.NewString(), Name: name, Color: color}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO tags(id, seq, name, color, created_at)
		VALUES(?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM tags), ?, ?, ?)`,
		tag.ID, tag.Name, tag.Color, now); err != nil {
		return Tag{}, fmt.Errorf("insert tag: %w", err)
	}
	return tag, nil
}

// Tags lists tags in creation order.
func (s *Store) Tags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color FROM tags ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()
	out := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return out, nil
}

func (s *Store) fill(ctx context.Context, r *Record) error {
	children, err := s.childIDs(ctx, r.ID)
	if err != nil {
		return err
	}
	r.ChildIDs = children
	tags, err := s.taskTags(ctx, r.ID)
	if err != nil {
		return err
	}
	r.Tags = tags
	return nil
}

func (s *Store) childIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tasks WHERE parent_id=? ORDER BY position, seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var childID string
		if err := rows.Scan(&childID); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		out = append(out, childID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}
	return out, nil
}

func (s *Store) taskTags(ctx context.Context, id string) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT t.id, t.name, t.color FROM task_tags tt
		JOIN tags t ON t.id = tt.tag_id
		WHERE tt.task_id=? ORDER BY t.seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query task tags: %w", err)
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scan task tag: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task tags: %w", err)
	}
	return out, nil
}

func taskExists(ctx context.Context, tx *sql.Tx, id string) error {
	var found string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM tasks WHERE id=?`, id).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("read task: %w", err)
	}
	return nil
}

func nextPosition(ctx context.Context, tx *sql.Tx, parentID string) (int64, error) {
	var position int64
	var err error
	if parentID == "" {
		err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM tasks WHERE parent_id IS NULL`).Scan(&position)
	} else {
		err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM tasks WHERE parent_id=?`, parentID).Scan(&position)
	}
	if err != nil {
		return 0, fmt.Errorf("read next position: %w", err)
	}
	return position, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
