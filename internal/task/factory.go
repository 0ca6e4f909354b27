package task

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#808080"

const defaultConcurrency = 4

var tagColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Factory creates task nodes and rebuilds trees from a Repository. One Factory
// is built per process and shared by reference.
type Factory struct {
	repo        Repository
	concurrency int
}

// Option configures a Factory.
type Option func(*Factory)

// WithConcurrency bounds how many root trees GetRootTasks hydrates at once.
func WithConcurrency(n int) Option {
	return func(f *Factory) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// NewFactory creates a factory over repo.
func NewFactory(repo Repository, opts ...Option) *Factory {
	f := &Factory{repo: repo, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCompositeTask stores a new task, optionally under parentID and linked
// to existing tags, and returns it as a composite without children.
func (f *Factory) CreateCompositeTask(ctx context.Context, title, description, parentID string, tagIDs []string) (*Composite, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("create task: %w: title is required", ErrValidation)
	}
	rec, err := f.repo.CreateTask(ctx, NewTask{
		Title:       title,
		Description: description,
		ParentID:    strings.TrimSpace(parentID),
		TagIDs:      tagIDs,
	})
	if err != nil {
		return nil, storageError("create task", err)
	}
	log.Debug().Str("task_id", rec.ID).Str("parent_id", rec.ParentID).Msg("task created")
	return NewComposite(f.repo, rec), nil
}

// GetTaskWithChildren loads taskID and, recursively, all of its descendants in
// stored order. A descendant that repeats an id on its own ancestor path fails
// with ErrCycleDetected.
func (f *Factory) GetTaskWithChildren(ctx context.Context, taskID string) (*Composite, error) {
	return f.hydrate(ctx, taskID, map[string]struct{}{})
}

func (f *Factory) hydrate(ctx context.Context, id string, path map[string]struct{}) (*Composite, error) {
	rec, err := f.load(ctx, id, path)
	if err != nil {
		return nil, err
	}
	return f.expand(ctx, rec, path)
}

// expand builds a composite for rec with its subtree. Children without
// subtasks of their own are attached as leaves.
func (f *Factory) expand(ctx context.Context, rec Record, path map[string]struct{}) (*Composite, error) {
	node := NewComposite(f.repo, rec)

	path[rec.ID] = struct{}{}
	defer delete(path, rec.ID)
	for _, childID := range rec.ChildIDs {
		childRec, err := f.load(ctx, childID, path)
		if err != nil {
			return nil, err
		}
		if len(childRec.ChildIDs) == 0 {
			node.attach(NewLeaf(f.repo, childRec))
			continue
		}
		child, err := f.expand(ctx, childRec, path)
		if err != nil {
			return nil, err
		}
		node.attach(child)
	}
	return node, nil
}

func (f *Factory) load(ctx context.Context, id string, path map[string]struct{}) (Record, error) {
	if _, ok := path[id]; ok {
		return Record{}, fmt.Errorf("hydrate task %s: %w", id, ErrCycleDetected)
	}
	rec, err := f.repo.Task(ctx, id)
	if err != nil {
		return Record{}, storageError("load task "+id, err)
	}
	return rec, nil
}

// GetRootTasks hydrates every task without a parent. The result keeps the
// repository's root order.
func (f *Factory) GetRootTasks(ctx context.Context) ([]*Composite, error) {
	roots, err := f.repo.Roots(ctx)
	if err != nil {
		return nil, storageError("load root tasks", err)
	}
	out := make([]*Composite, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, rec := range roots {
		g.Go(func() error {
			tree, err := f.GetTaskWithChildren(gctx, rec.ID)
			if err != nil {
				return err
			}
			out[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTag stores a tag. An empty color falls back to DefaultTagColor.
func (f *Factory) CreateTag(ctx context.Context, name, color string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, fmt.Errorf("create tag: %w: name is required", ErrValidation)
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = DefaultTagColor
	}
	if !tagColorPattern.MatchString(color) {
		return Tag{}, fmt.Errorf("create tag: %w: color %q is not #rgb or #rrggbb", ErrValidation, color)
	}
	tag, err := f.repo.CreateTag(ctx, name, color)
	if err != nil {
		return Tag{}, storageError("create tag", err)
	}
	return tag, nil
}

// Tags lists the available tags.
func (f *Factory) Tags(ctx context.Context) ([]Tag, error) {
	tags, err := f.repo.Tags(ctx)
	if err != nil {
		return nil, storageError("list tags", err)
	}
	return tags, nil
}

// AddSubtask creates a task under parentID and returns the hydrated parent
// with the new subtask appended.
func (f *Factory) AddSubtask(ctx context.Context, parentID, title, description string) (*Composite, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("add subtask: %w: title is required", ErrValidation)
	}
	parent, err := f.GetTaskWithChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	sub, err := f.CreateCompositeTask(ctx, title, description, parent.ID(), nil)
	if err != nil {
		return nil, err
	}
	if err := parent.Add(ctx, sub); err != nil {
		return nil, err
	}
	return parent, nil
}

// AttachTask moves childID under parentID and returns the hydrated parent.
func (f *Factory) AttachTask(ctx context.Context, parentID, childID string) (*Composite, error) {
	parent, err := f.GetTaskWithChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	child, err := f.GetTaskWithChildren(ctx, childID)
	if err != nil {
		return nil, err
	}
	if err := parent.Add(ctx, child); err != nil {
		return nil, err
	}
	return parent, nil
}

// DetachTask moves childID from parentID to the root and returns the hydrated parent.
func (f *Factory) DetachTask(ctx context.Context, parentID, childID string) (*Composite, error) {
	parent, err := f.GetTaskWithChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if err := parent.Remove(ctx, childID); err != nil {
		return nil, err
	}
	return parent, nil
}

// ToggleTask loads taskID with its subtree and toggles it.
func (f *Factory) ToggleTask(ctx context.Context, taskID string) (*Composite, error) {
	tree, err := f.GetTaskWithChildren(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := tree.ToggleComplete(ctx); err != nil {
		return nil, err
	}
	return tree, nil
}

// DeleteTask removes taskID and its subtree from storage.
func (f *Factory) DeleteTask(ctx context.Context, taskID string) error {
	if err := f.repo.Delete(ctx, taskID); err != nil {
		return storageError("delete task "+taskID, err)
	}
	log.Debug().Str("task_id", taskID).Msg("task deleted")
	return nil
}
