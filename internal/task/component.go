package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	glyphComplete   = "✓"
	glyphIncomplete = "□"
	childIndent     = "  "
)

// Component is any node of the task tree. The set of implementations is
// closed: *Leaf and *Composite.
type Component interface {
	ID() string
	Title() string
	Description() string
	IsComplete() bool
	Tags() []Tag
	// Display renders the node and its descendants, one line per node.
	Display() string
	// ToggleComplete flips the node's completion and propagates the new value
	// to every descendant.
	ToggleComplete(ctx context.Context) error
	HasChildren() bool
	// Children returns a copy of the ordered child list.
	Children() []Component

	setComplete(ctx context.Context, complete bool) error
}

type node struct {
	repo        Repository
	id          string
	title       string
	description string
	complete    bool
	tags        []Tag
}

func newNode(repo Repository, rec Record) node {
	tags := make([]Tag, len(rec.Tags))
	copy(tags, rec.Tags)
	return node{
		repo:        repo,
		id:          rec.ID,
		title:       rec.Title,
		description: rec.Description,
		complete:    rec.IsComplete,
		tags:        tags,
	}
}

func (n *node) ID() string { return n.id }
func (n *node) Title() string { return n.title }
func (n *node) Description() string { return n.description }
func (n *node) IsComplete() bool { return n.complete }

func (n *node) Tags() []Tag {
	out := make([]Tag, len(n.tags))
	copy(out, n.tags)
	return out
}

func (n *node) line() string {
	glyph := glyphIncomplete
	if n.complete {
		glyph = glyphComplete
	}
	return fmt.Sprintf("%s %s: %s", glyph, n.title, n.description)
}

// persistComplete writes the flag and only then updates memory.
func (n *node) persistComplete(ctx context.Context, complete bool) error {
	if err := n.repo.SetComplete(ctx, n.id, complete); err != nil {
		return storageError("set complete "+n.id, err)
	}
	n.complete = complete
	return nil
}

// Leaf is a task without children. Hydration builds leaves for subtasks that
// have none of their own; use a Composite to attach children.
type Leaf struct {
	node
}

// NewLeaf wraps a record as a leaf node.
func NewLeaf(repo Repository, rec Record) *Leaf {
	return &Leaf{node: newNode(repo, rec)}
}

func (l *Leaf) Display() string { return l.line() }
func (l *Leaf) HasChildren() bool { return false }
func (l *Leaf) Children() []Component { return nil }

func (l *Leaf) ToggleComplete(ctx context.Context) error {
	return l.setComplete(ctx, !l.complete)
}

func (l *Leaf) setComplete(ctx context.Context, complete bool) error {
	return l.persistComplete(ctx, complete)
}

// Composite is a task that owns an ordered list of subtasks.
type Composite struct {
	node
	children []Component
}

// NewComposite wraps a record as a composite node with no children attached.
func NewComposite(repo Repository, rec Record) *Composite {
	return &Composite{node: newNode(repo, rec)}
}

// Display renders the node line followed by every child's rendering,
// indented one level per depth, in stored order.
func (c *Composite) Display() string {
	var b strings.Builder
	b.WriteString(c.line())
	for _, child := range c.children {
		for _, line := range strings.Split(child.Display(), "\n") {
			b.WriteString("\n")
			b.WriteString(childIndent)
			b.WriteString(line)
		}
	}
	return b.String()
}

func (c *Composite) HasChildren() bool { return len(c.children) > 0 }

func (c *Composite) Children() []Component {
	out := make([]Component, len(c.children))
	copy(out, c.children)
	return out
}

// ToggleComplete sets the node and its whole subtree to the inverse of the
// node's current state. Descendants are written first, depth-first in stored
// order, then the node itself. A failed write stops the traversal; writes
// already made are not rolled back.
func (c *Composite) ToggleComplete(ctx context.Context) error {
	next := !c.complete
	if err := c.setComplete(ctx, next); err != nil {
		return err
	}
	log.Debug().Str("task_id", c.id).Bool("complete", next).Msg("task toggled")
	return nil
}

func (c *Composite) setComplete(ctx context.Context, complete bool) error {
	for _, child := range c.children {
		if err := child.setComplete(ctx, complete); err != nil {
			return err
		}
	}
	return c.persistComplete(ctx, complete)
}

// Add reparents child under c in storage, then appends it to the child list.
// A child that is already present is rejected with ErrDuplicateChild before
// any storage call.
func (c *Composite) Add(ctx context.Context, child Component) error {
	if child == nil {
		return fmt.Errorf("add child to %s: %w: child is nil", c.id, ErrValidation)
	}
	if child.ID() == c.id {
		return fmt.Errorf("add %s to itself: %w", c.id, ErrCycleDetected)
	}
	for _, existing := range c.children {
		if existing.ID() == child.ID() {
			return fmt.Errorf("add %s to %s: %w", child.ID(), c.id, ErrDuplicateChild)
		}
	}
	if err := c.repo.SetParent(ctx, child.ID(), c.id); err != nil {
		return storageError("reparent task "+child.ID(), err)
	}
	c.children = append(c.children, child)
	return nil
}

// Remove detaches childID from c in storage and drops it from the child list.
// It is a no-op when childID is not a child of c.
func (c *Composite) Remove(ctx context.Context, childID string) error {
	idx := -1
	for i, child := range c.children {
		if child.ID() == childID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	if err := c.repo.SetParent(ctx, childID, ""); err != nil {
		return storageError("detach task "+childID, err)
	}
	c.children = append(c.children[:idx:idx], c.children[idx+1:]...)
	return nil
}

// Find returns the node with id in c's subtree, including c itself.
func (c *Composite) Find(id string) (Component, bool) {
	var found Component
	Walk(c, func(n Component, _ int) bool {
		if n.ID() == id {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// attach appends a hydrated child without touching storage.
func (c *Composite) attach(child Component) {
	c.children = append(c.children, child)
}

// Walk visits root and its descendants depth-first in pre-order, passing the
// depth (root is 0). Returning false from fn stops the walk.
func Walk(root Component, fn func(n Component, depth int) bool) {
	walk(root, 0, fn)
}

func walk(n Component, depth int, fn func(Component, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	for _, child := range n.Children() {
		if !walk(child, depth+1, fn) {
			return false
		}
	}
	return true
}
