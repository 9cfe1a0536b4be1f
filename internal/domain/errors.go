package domain

import (
	"errors"
	"fmt"
)

// Common static errors used throughout the application.
var (
	// ErrNotFound is returned when an element, node or inbox card does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLocked is returned when a locked card would be moved or deleted.
	ErrLocked = errors.New("card is locked")

	// ErrIntoSelf is returned when a card would be nested inside itself.
	ErrIntoSelf = errors.New("cannot move a card into itself")

	// ErrSameLocation is returned when a move targets the node the card already lives in.
	ErrSameLocation = errors.New("source and destination are the same node")

	// ErrEmptyText is returned when a new text card has no visible content.
	ErrEmptyText = errors.New("text is empty")

	// ErrNothingToUndo is returned when the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned when the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrNotApplied is returned when a command ran but had nothing to do.
	ErrNotApplied = errors.New("command not applied")

	// ErrUnsupportedDriver is returned for an unknown storage backend name.
	ErrUnsupportedDriver = errors.New("unsupported storage driver")

	// ErrInvalidSnapshot is returned when an import document cannot be used.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// NotFoundError names the kind and id of a missing entity. It matches ErrNotFound.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
