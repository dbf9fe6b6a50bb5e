package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document id does not exist in the
// addressed collection.
var ErrNotFound = errors.New("document not found")

// Collections used by the application.
const (
	TasksCollection    = "tasks"
	CommentsCollection = "comments"
)

// Fields is a partial or complete document body. A key that is absent
// from the map is simply not set; callers must omit unset optional
// fields rather than writing nil values.
type Fields map[string]any

// Record is a stored document together with its store-assigned id.
type Record struct {
	ID     string
	Fields Fields
}

// DocumentStore is the persistence capability the registry is built
// on: collection-oriented CRUD with field-level partial updates.
type DocumentStore interface {
	// ListAll returns every document in the collection.
	ListAll(ctx context.Context, collection string) ([]Record, error)

	// Create persists a new document and returns its generated id.
	Create(ctx context.Context, collection string, fields Fields) (string, error)

	// UpdatePartial merges fields into an existing document. Keys not
	// present in fields are left untouched, never cleared.
	UpdatePartial(ctx context.Context, collection, id string, fields Fields) error

	// Delete removes a document. Deleting an id that does not exist
	// is not an error.
	Delete(ctx context.Context, collection, id string) error

	// GetByID fetches a single document, or ErrNotFound.
	GetByID(ctx context.Context, collection, id string) (Record, error)
}
