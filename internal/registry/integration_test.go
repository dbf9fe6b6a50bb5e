package registry_test

import (
	"context"
	"testing"

	"dugnadhub-api/internal/registry"
	"dugnadhub-api/internal/store/document"
	"dugnadhub-api/internal/testutil"

	"github.com/stretchr/testify/require"
)

// Exercises the registry against the real SQLite-backed document
// store, including the JSON round trip of field types.
func TestRegistryOverDocumentStore(t *testing.T) {
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	docs, err := document.New(db)
	require.NoError(t, err)

	reg, err := registry.New(docs, registry.Options{})
	require.NoError(t, err)
	ctx := context.Background()

	max := 2
	id, err := reg.Create(ctx, registry.NewTaskFields{
		Title:         "Cleanup",
		Description:   "Spring cleanup",
		MaxVolunteers: &max,
		Location:      "Oslo",
	})
	require.NoError(t, err)

	require.NoError(t, reg.Join(ctx, id, "u1"))
	require.NoError(t, reg.Join(ctx, id, "u2"))
	require.NoError(t, reg.Join(ctx, id, "u3")) // full, silent no-op
	require.NoError(t, reg.Like(ctx, id, "u1"))

	commentID, err := reg.AddComment(ctx, id, registry.NewComment{
		AuthorID: "u1", Author: "Alice", Text: "Nice!",
	})
	require.NoError(t, err)

	// A fresh registry over the same database must reconstruct the
	// exact state from the persisted documents.
	reloaded, err := registry.New(docs, registry.Options{})
	require.NoError(t, err)
	require.NoError(t, reloaded.Refresh(ctx))

	tasks := reloaded.Tasks()
	require.Len(t, tasks, 1)
	task := tasks[0]
	require.Equal(t, id, task.ID)
	require.Equal(t, "Cleanup", task.Title)
	require.Equal(t, "Oslo", task.Location)
	require.NotNil(t, task.MaxVolunteers)
	require.Equal(t, 2, *task.MaxVolunteers)
	require.Equal(t, []string{"u1", "u2"}, task.Participants)
	require.Equal(t, []string{"u1"}, task.Likes)
	require.Equal(t, []string{commentID}, task.Comments)

	comments, err := reloaded.CommentsByIDs(ctx, task.Comments)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Equal(t, "Alice", comments[0].Author)
	require.Equal(t, "Nice!", comments[0].Comment)

	// Deleting through one registry is visible to the other only
	// after a refresh.
	require.NoError(t, reg.Remove(ctx, id))
	require.Len(t, reloaded.Tasks(), 1)
	require.NoError(t, reloaded.Refresh(ctx))
	require.Empty(t, reloaded.Tasks())
}
