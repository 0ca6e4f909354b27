package task

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation reports invalid input rejected before any storage call.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound reports a task or tag id with no record.
	ErrNotFound = errors.New("not found")
	// ErrPersistence reports a failed storage operation.
	ErrPersistence = errors.New("persistence failed")
	// ErrCycleDetected reports a parent/child graph that is not a tree.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrDuplicateChild reports an Add of a task that is already a child.
	ErrDuplicateChild = fmt.Errorf("%w: duplicate child", ErrValidation)
)

// storageError wraps a repository error for the caller. Not-found and cycle
// errors keep their identity; everything else becomes ErrPersistence.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrCycleDetected) || errors.Is(err, ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
