// Package repository defines the persistence contracts for account entries,
// the typed relations between them, and the tree views built from those
// relations.
//
// Every operation runs as exactly one read or write transaction on the
// session the implementation was built with. "Missing" is reported through
// boolean results, not errors. Errors are always *errors.AppError values of
// type NOT_FOUND, INVALID_EDGE_TYPE, VALIDATION, CONSTRAINT_VIOLATION,
// TRANSACTION_FAILURE or UNAVAILABLE; raw driver errors never escape.
package repository

import (
	"context"

	"devaccountbook-backend/internal/domain"
)

// EntryRepository persists account entries.
type EntryRepository interface {
	// Create stores a new entry and returns its generated id.
	Create(ctx context.Context, title string, desc *string, tags []string) (string, error)
	// Get returns the entry, or false when it does not exist.
	Get(ctx context.Context, id string) (*domain.Entry, bool, error)
	// List pages through entries, newest first.
	List(ctx context.Context, page Pagination) ([]domain.Entry, error)
	Count(ctx context.Context) (int64, error)
	// Update applies the recognized fields of patch. It returns false when
	// the entry is missing or the patch holds no recognized field.
	Update(ctx context.Context, id string, patch domain.Patch) (bool, error)
	// Delete removes the entry and every relation touching it.
	Delete(ctx context.Context, id string) (bool, error)
}

// RelationRepository persists typed edges between entries.
type RelationRepository interface {
	// Create merges an edge of kind from fromID to toID, updating props when
	// it already exists.
	Create(ctx context.Context, fromID, toID string, kind domain.Kind, props domain.Props) (domain.Kind, error)
	List(ctx context.Context, entryID string) (domain.Relations, error)
	// Delete returns how many edges were removed, 0 or 1.
	Delete(ctx context.Context, fromID, toID string, kind domain.Kind) (int64, error)
}

// TreeRepository builds tree views rooted at an entry.
type TreeRepository interface {
	// BuildTree returns false when the root does not exist.
	BuildTree(ctx context.Context, rootID string) (*domain.TreeNode, bool, error)
}

// SchemaManager prepares the database for the repositories above.
type SchemaManager interface {
	EnsureConstraints(ctx context.Context) error
}
