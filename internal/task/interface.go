// Package task implements the hierarchical task tree: records and tags, the
// leaf/composite task nodes, and the factory that creates and hydrates them
// from a Repository.
package task

import (
	"context"
)

// Tag is a task label. Tags are referenced by tasks, never owned.
type Tag struct {
	ID    string `json:"id"    yaml:"id"`
	Name  string `json:"name"  yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Record describes a persisted task.
type Record struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	IsComplete  bool     `json:"isComplete"`
	ParentID    string   `json:"parentId,omitempty"`
	ChildIDs    []string `json:"childIds,omitempty"`
	Tags        []Tag    `json:"tags,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// NewTask holds the fields of a task record to create.
type NewTask struct {
	Title       string
	Description string
	ParentID    string
	TagIDs      []string
}

// Repository is the persistence collaborator behind the task tree.
type Repository interface {
	// CreateTask inserts a record, appending it to ParentID's children when set.
	CreateTask(ctx context.Context, in NewTask) (Record, error)
	// SetComplete updates the completion flag of a task.
	SetComplete(ctx context.Context, id string, complete bool) error
	// SetParent moves a task under parentID (appended last), or to the root when parentID is empty.
	SetParent(ctx context.Context, id, parentID string) error
	// Task fetches a record with its ordered child ids and tags.
	Task(ctx context.Context, id string) (Record, error)
	// Roots returns all records without a parent in creation order.
	Roots(ctx context.Context) ([]Record, error)
	// Delete removes a task and its subtree.
	Delete(ctx context.Context, id string) error
	CreateTag(ctx context.Context, name, color string) (Tag, error)
	Tags(ctx context.Context) ([]Tag, error)
}
