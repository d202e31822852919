package storage

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound      = errors.New("node not found")
	ErrLinkNotFound      = errors.New("link not found")
	ErrRootImmortal      = errors.New("the root node cannot be deleted")
	ErrRootMissing       = errors.New("graph has no root node")
	ErrDuplicateRoot     = errors.New("graph already has a root node")
	ErrDuplicateNode     = errors.New("node id already exists")
	ErrSelfLink          = errors.New("a node cannot be linked to itself")
	ErrInvalidSlot       = errors.New("slot index out of range")
	ErrEmptyGraph        = errors.New("graph is empty")
	ErrInvalidViewLayers = errors.New("invalid view layers")
	ErrInvalidPresets    = errors.New("invalid presets")
	ErrStaleRevision     = errors.New("store changed since the proposal was made")
)

// StoreError provides structured error information for store operations.
type StoreError struct {
	Op      string // Operation that failed (e.g., "RemoveNode", "UpsertLink")
	Entity  string // Entity type (e.g., "node", "link", "slot")
	ID      string // Entity ID (if applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Entity, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building StoreErrors.
type ErrorBuilder struct {
	err StoreError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: StoreError{Op: op}}
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id NodeID) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = string(id)
	return b
}

// Link sets the entity to "link" with the given ID.
func (b *ErrorBuilder) Link(id LinkID) *ErrorBuilder {
	b.err.Entity = "link"
	b.err.ID = string(id)
	return b
}

// Slot sets the entity to "slot".
func (b *ErrorBuilder) Slot(index int) *ErrorBuilder {
	b.err.Entity = "slot"
	b.err.Context = fmt.Sprintf("index %d", index)
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// NodeNotFoundError creates a node not found error.
func NodeNotFoundError(op string, id NodeID) error {
	return NewError(op).Node(id).Cause(ErrNodeNotFound).Err()
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrLinkNotFound)
}
