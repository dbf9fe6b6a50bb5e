package registry

import "errors"

var (
	// ErrNotFound means the referenced task is not in the cache.
	ErrNotFound = errors.New("task not found")

	// ErrPartialLink means the second step of a two-step comment
	// operation failed: the comment document was written (or deleted)
	// but the owning task's reference list was not updated. The store
	// is left inconsistent with the reference list; no compensation is
	// attempted.
	ErrPartialLink = errors.New("comment not linked to task")

	// ErrStoreNil guards registry construction.
	ErrStoreNil = errors.New("document store is nil")
)
