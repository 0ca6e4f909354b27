package task

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/metalagman/taskboard/internal/db"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "taskboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewStore(database)
}

// memRepo is an in-memory Repository that records writes and can be told to
// fail specific ones.
type memRepo struct {
	mu      sync.Mutex
	seq     int
	records map[string]*Record
	roots   []string
	tags    []Tag
	calls   []string

	failComplete map[string]error
	failParent   map[string]error
	failTask     map[string]error
}

func newMemRepo() *memRepo {
	return &memRepo{
		records:      map[string]*Record{},
		failComplete: map[string]error{},
		failParent:   map[string]error{},
		failTask:     map[string]error{},
	}
}

func (m *memRepo) CreateTask(_ context.Context, in NewTask) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.ParentID != "" {
		if _, ok := m.records[in.ParentID]; !ok {
			return Record{}, fmt.Errorf("task %s: %w", in.ParentID, ErrNotFound)
		}
	}
	m.seq++
	rec := &Record{
		ID:          fmt.Sprintf("t%d", m.seq),
		Title:       in.Title,
		Description: in.Description,
		ParentID:    in.ParentID,
	}
	for _, tagID := range in.TagIDs {
		idx := slices.IndexFunc(m.tags, func(t Tag) bool { return t.ID == tagID })
		if idx < 0 {
			return Record{}, fmt.Errorf("tag %s: %w", tagID, ErrNotFound)
		}
		rec.Tags = append(rec.Tags, m.tags[idx])
	}
	m.records[rec.ID] = rec
	if in.ParentID == "" {
		m.roots = append(m.roots, rec.ID)
	} else {
		parent := m.records[in.ParentID]
		parent.ChildIDs = append(parent.ChildIDs, rec.ID)
	}
	m.calls = append(m.calls, "create:"+rec.ID)
	return cloneRecord(rec), nil
}

func (m *memRepo) SetComplete(_ context.Context, id string, complete bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf("complete:%s:%t", id, complete))
	if err := m.failComplete[id]; err != nil {
		return err
	}
	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	rec.IsComplete = complete
	return nil
}

func (m *memRepo) SetParent(_ context.Context, id, parentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf("parent:%s:%s", id, parentID))
	if err := m.failParent[id]; err != nil {
		return err
	}
	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if rec.ParentID == parentID {
		return nil
	}
	if rec.ParentID == "" {
		m.roots = slices.DeleteFunc(m.roots, func(r string) bool { return r == id })
	} else if old, ok := m.records[rec.ParentID]; ok {
		old.ChildIDs = slices.DeleteFunc(old.ChildIDs, func(c string) bool { return c == id })
	}
	rec.ParentID = parentID
	if parentID == "" {
		m.roots = append(m.roots, id)
		return nil
	}
	parent, ok := m.records[parentID]
	if !ok {
		return fmt.Errorf("task %s: %w", parentID, ErrNotFound)
	}
	parent.ChildIDs = append(parent.ChildIDs, id)
	return nil
}

func (m *memRepo) Task(_ context.Context, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failTask[id]; err != nil {
		return Record{}, err
	}
	rec, ok := m.records[id]
	if !ok {
		return Record{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return cloneRecord(rec), nil
}

func (m *memRepo) Roots(_ context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.roots))
	for _, id := range m.roots {
		out = append(out, cloneRecord(m.records[id]))
	}
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	delete(m.records, id)
	m.roots = slices.DeleteFunc(m.roots, func(r string) bool { return r == id })
	return nil
}

func (m *memRepo) CreateTag(_ context.Context, name, color string) (Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	tag := Tag{ID: fmt.Sprintf("g%d", m.seq), Name: name, Color: color}
	m.tags = append(m.tags, tag)
	return tag, nil
}

func (m *memRepo) Tags(_ context.Context) ([]Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tags), nil
}

func (m *memRepo) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

func (m *memRepo) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *memRepo) complete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id].IsComplete
}

func cloneRecord(r *Record) Record {
	out := *r
	out.ChildIDs = slices.Clone(r.ChildIDs)
	out.Tags = slices.Clone(r.Tags)
	return out
}
