package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateAndFetch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	parent, err := store.CreateTask(ctx, NewTask{Title: "parent", Description: "p"})
	require.NoError(t, err)
	assert.NotEmpty(t, parent.ID)
	assert.Empty(t, parent.ParentID)
	assert.NotEmpty(t, parent.CreatedAt)

	child, err := store.CreateTask(ctx, NewTask{Title: "child", ParentID: parent.ID})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, child.ParentID)

	got, err := store.Task(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{child.ID}, got.ChildIDs)
	assert.Equal(t, "p", got.Description)
}

func TestStoreSetCompleteNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	assert.ErrorIs(t, store.SetComplete(context.Background(), "nope", true), ErrNotFound)
}

func TestStoreSetParentAppendsAndKeepsPositionOnSameParent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	p, err := store.CreateTask(ctx, NewTask{Title: "p"})
	require.NoError(t, err)
	x, err := store.CreateTask(ctx, NewTask{Title: "x", ParentID: p.ID})
	require.NoError(t, err)
	y, err := store.CreateTask(ctx, NewTask{Title: "y"})
	require.NoError(t, err)

	require.NoError(t, store.SetParent(ctx, y.ID, p.ID))
	// Re-setting the same parent must not move x behind y.
	require.NoError(t, store.SetParent(ctx, x.ID, p.ID))

	got, err := store.Task(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{x.ID, y.ID}, got.ChildIDs)

	roots, err := store.Roots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, p.ID, roots[0].ID)
	assert.Equal(t, []string{x.ID, y.ID}, roots[0].ChildIDs)
}

func TestStoreSetParentRejectsCycles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	a, err := store.CreateTask(ctx, NewTask{Title: "a"})
	require.NoError(t, err)
	b, err := store.CreateTask(ctx, NewTask{Title: "b", ParentID: a.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, store.SetParent(ctx, a.ID, a.ID), ErrCycleDetected)
	assert.ErrorIs(t, store.SetParent(ctx, a.ID, b.ID), ErrCycleDetected)
	assert.ErrorIs(t, store.SetParent(ctx, a.ID, "missing"), ErrNotFound)
	assert.ErrorIs(t, store.SetParent(ctx, "missing", a.ID), ErrNotFound)

	got, err := store.Task(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ParentID)
}

func TestStoreDeleteCascades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	tag, err := store.CreateTag(ctx, "x", "#000")
	require.NoError(t, err)
	a, err := store.CreateTask(ctx, NewTask{Title: "a", TagIDs: []string{tag.ID}})
	require.NoError(t, err)
	b, err := store.CreateTask(ctx, NewTask{Title: "b", ParentID: a.ID})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, a.ID))
	_, err = store.Task(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var links int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_tags`).Scan(&links))
	assert.Zero(t, links)

	tags, err := store.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Tag{tag}, tags, "tags are referenced, not owned")
}
