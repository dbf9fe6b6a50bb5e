package blob

import "context"

// Store uploads binary assets (dugnad images) and returns a public
// URL the document store can reference. The registry never touches
// blobs; only the create/edit flow does.
type Store interface {
	Upload(ctx context.Context, data []byte, suggestedName string) (string, error)
}
