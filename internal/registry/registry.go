package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"dugnadhub-api/internal/cache"
	"dugnadhub-api/internal/models"
	"dugnadhub-api/internal/store"
)

// nowMillis is a small indirection to allow test stubbing.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// NewTaskFields is the caller-supplied part of a new task.
type NewTaskFields struct {
	Title         string
	Description   string
	Location      string
	DateTime      string
	ContactInfo   string
	RequiredTasks string
	MaxVolunteers *int
	ImageURL      string
	CreatedBy     string
	// CreatedAt in epoch millis; 0 means "now".
	CreatedAt int64
}

// EditTaskFields is a partial update. nil pointer => no change.
type EditTaskFields struct {
	Title         *string
	Description   *string
	Location      *string
	DateTime      *string
	ContactInfo   *string
	RequiredTasks *string
	MaxVolunteers *int
	ImageURL      *string
}

// NewComment is the caller-supplied part of a comment.
type NewComment struct {
	AuthorID string
	Author   string
	Text     string
	// CreatedAt in epoch millis; 0 means "now".
	CreatedAt int64
}

// Registry is the single in-process cache of all tasks and the
// arbitrator of every mutation against the document store. Local
// state is only mutated after the remote write is acknowledged; on
// failure the cache keeps its last-known-good state (no rollback,
// because nothing speculative is ever applied).
//
// The cache mutex is deliberately not held across store calls, so two
// in-flight joins can both pass the capacity check. That race window
// matches the original client and is accepted; see DESIGN.md.
type Registry struct {
	store store.DocumentStore

	// resolved comment records, keyed by comment id
	comments   *cache.TTLCache[string, models.Comment]
	commentTTL time.Duration

	mu      sync.RWMutex
	tasks   []models.Task
	loading bool
}

// Options controls registry construction.
type Options struct {
	// CommentCacheTTL bounds how long resolved comments are served
	// from memory. <= 0 disables expiry.
	CommentCacheTTL time.Duration
}

// New constructs a Registry over the given document store.
func New(st store.DocumentStore, opts Options) (*Registry, error) {
	if st == nil {
		return nil, ErrStoreNil
	}
	return &Registry{
		store:      st,
		comments:   cache.New[string, models.Comment](),
		commentTTL: opts.CommentCacheTTL,
		tasks:      []models.Task{},
	}, nil
}

// Tasks returns a snapshot of the cached tasks. Each task is a deep
// copy; mutating it does not touch registry state.
func (r *Registry) Tasks() []models.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Task, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Get returns a copy of a single cached task.
func (r *Registry) Get(taskID string) (models.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, _, ok := r.find(taskID)
	if !ok {
		return models.Task{}, false
	}
	return t.Clone(), true
}

// Loading reports whether a Refresh is in flight. It is a single flag
// for the whole collection; there is no per-task loading state.
func (r *Registry) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// Refresh fetches the full task collection and replaces the cache
// wholesale. On failure the previous cache is left untouched.
func (r *Registry) Refresh(ctx context.Context) error {
	r.setLoading(true)
	defer r.setLoading(false)

	records, err := r.store.ListAll(ctx, store.TasksCollection)
	if err != nil {
		log.Printf("registry: refresh failed: %v", err)
		return fmt.Errorf("refresh tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(records))
	for _, rec := range records {
		tasks = append(tasks, taskFromRecord(rec))
	}

	r.mu.Lock()
	r.tasks = tasks
	r.mu.Unlock()
	return nil
}

// Create persists a new task and appends it to the cache under the
// store-assigned id. Unset optional fields are omitted from the
// document entirely.
func (r *Registry) Create(ctx context.Context, in NewTaskFields) (string, error) {
	createdAt := in.CreatedAt
	if createdAt == 0 {
		createdAt = nowMillis()
	}

	fields := store.Fields{
		"title":        in.Title,
		"description":  in.Description,
		"participants": []string{},
		"likes":        []string{},
		"comments":     []string{},
		"createdAt":    createdAt,
	}
	if in.Location != "" {
		fields["location"] = in.Location
	}
	if in.DateTime != "" {
		fields["dateTime"] = in.DateTime
	}
	if in.ContactInfo != "" {
		fields["contactInfo"] = in.ContactInfo
	}
	if in.RequiredTasks != "" {
		fields["requiredTasks"] = in.RequiredTasks
	}
	if in.MaxVolunteers != nil {
		fields["maxVolunteers"] = *in.MaxVolunteers
	}
	if in.ImageURL != "" {
		fields["imageUrl"] = in.ImageURL
	}
	if in.CreatedBy != "" {
		fields["createdBy"] = in.CreatedBy
	}

	id, err := r.store.Create(ctx, store.TasksCollection, fields)
	if err != nil {
		log.Printf("registry: create task failed: %v", err)
		return "", fmt.Errorf("create task: %w", err)
	}

	task := models.Task{
		ID:            id,
		Title:         in.Title,
		Description:   in.Description,
		Location:      in.Location,
		DateTime:      in.DateTime,
		ContactInfo:   in.ContactInfo,
		RequiredTasks: in.RequiredTasks,
		MaxVolunteers: in.MaxVolunteers,
		ImageURL:      in.ImageURL,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     createdAt,
		Participants:  []string{},
		Likes:         []string{},
		Comments:      []string{},
	}

	r.mu.Lock()
	r.tasks = append(r.tasks, task.Clone())
	r.mu.Unlock()
	return id, nil
}

// Edit sends a partial update for the set fields and merges them into
// the cached task in place.
func (r *Registry) Edit(ctx context.Context, taskID string, patch EditTaskFields) error {
	r.mu.RLock()
	_, _, ok := r.find(taskID)
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	fields := store.Fields{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Location != nil {
		fields["location"] = *patch.Location
	}
	if patch.DateTime != nil {
		fields["dateTime"] = *patch.DateTime
	}
	if patch.ContactInfo != nil {
		fields["contactInfo"] = *patch.ContactInfo
	}
	if patch.RequiredTasks != nil {
		fields["requiredTasks"] = *patch.RequiredTasks
	}
	if patch.MaxVolunteers != nil {
		fields["maxVolunteers"] = *patch.MaxVolunteers
	}
	if patch.ImageURL != nil {
		fields["imageUrl"] = *patch.ImageURL
	}
	if len(fields) == 0 {
		return nil
	}

	if err := r.store.UpdatePartial(ctx, store.TasksCollection, taskID, fields); err != nil {
		log.Printf("registry: edit task %s failed: %v", taskID, err)
		return fmt.Errorf("edit task %s: %w", taskID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, i, ok := r.find(taskID); ok {
		t := &r.tasks[i]
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Location != nil {
			t.Location = *patch.Location
		}
		if patch.DateTime != nil {
			t.DateTime = *patch.DateTime
		}
		if patch.ContactInfo != nil {
			t.ContactInfo = *patch.ContactInfo
		}
		if patch.RequiredTasks != nil {
			t.RequiredTasks = *patch.RequiredTasks
		}
		if patch.MaxVolunteers != nil {
			v := *patch.MaxVolunteers
			t.MaxVolunteers = &v
		}
		if patch.ImageURL != nil {
			t.ImageURL = *patch.ImageURL
		}
	}
	return nil
}

// Remove deletes the task document and drops it from the cache. On
// failure the task stays visible so callers can report the error.
func (r *Registry) Remove(ctx context.Context, taskID string) error {
	r.mu.RLock()
	_, _, ok := r.find(taskID)
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if err := r.store.Delete(ctx, store.TasksCollection, taskID); err != nil {
		log.Printf("registry: remove task %s failed: %v", taskID, err)
		return fmt.Errorf("remove task %s: %w", taskID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, i, ok := r.find(taskID); ok {
		r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	}
	return nil
}

// Join signs userID up for a task. Joining twice is a no-op, and a
// full task silently rejects the join (no error, no state change) —
// the caller sees the unchanged participant list.
func (r *Registry) Join(ctx context.Context, taskID, userID string) error {
	r.mu.RLock()
	t, _, ok := r.find(taskID)
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if t.HasParticipant(userID) {
		return nil
	}
	// Capacity is checked against the local cache only. The remote
	// store does not enforce it, and the lock is not held across the
	// write, so concurrent joins can overshoot; accepted.
	if t.IsFull() {
		log.Printf("registry: task %s is full, join by %s ignored", taskID, userID)
		return nil
	}

	updated := append(append([]string(nil), t.Participants...), userID)
	if err := r.writeMembers(ctx, taskID, "participants", updated); err != nil {
		log.Printf("registry: join task %s failed: %v", taskID, err)
		return fmt.Errorf("join task %s: %w", taskID, err)
	}
	r.applyParticipants(taskID, updated)
	return nil
}

// Leave removes userID from the participant list. If the user was not
// signed up, the same (unchanged) array is still written.
func (r *Registry) Leave(ctx context.Context, taskID, userID string) error {
	r.mu.RLock()
	t, _, ok := r.find(taskID)
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	updated := without(t.Participants, userID)
	if err := r.writeMembers(ctx, taskID, "participants", updated); err != nil {
		log.Printf("registry: leave task %s failed: %v", taskID, err)
		return fmt.Errorf("leave task %s: %w", taskID, err)
	}
	r.applyParticipants(taskID, updated)
	return nil
}

// Like records a like for userID; liking twice is a no-op.
func (r *Registry) Like(ctx context.Context, taskID, userID string) error {
	r.mu.RLock()
	t, _, ok := r.find(taskID)
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if t.HasLike(userID) {
		return nil
	}

	updated := append(append([]string(nil), t.Likes...), userID)
	if err := r.writeMembers(ctx, taskID, "likes", updated); err != nil {
		log.Printf("registry: like task %s failed: %v", taskID, err)
		return fmt.Errorf("like task %s: %w", taskID, err)
	}
	r.applyLikes(taskID, updated)
	return nil
}

// Unlike removes a like if present; the filtered array is written
// either way.
func (r *Registry) Unlike(ctx context.Context, taskID, userID string) error {
	r.mu.RLock()
	t, _, ok := r.find(taskID)
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	updated := without(t.Likes, userID)
	if err := r.writeMembers(ctx, taskID, "likes", updated); err != nil {
		log.Printf("registry: unlike task %s failed: %v", taskID, err)
		return fmt.Errorf("unlike task %s: %w", taskID, err)
	}
	r.applyLikes(taskID, updated)
	return nil
}

// AddComment stores the comment as its own document, then appends its
// id to the owning task's reference list. The two steps are not
// atomic: if the link write fails the comment document already exists
// and is orphaned. That outcome is reported as ErrPartialLink together
// with the generated id; no compensation is attempted.
func (r *Registry) AddComment(ctx context.Context, taskID string, in NewComment) (string, error) {
	r.mu.RLock()
	t, _, ok := r.find(taskID)
	r.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}

	createdAt := in.CreatedAt
	if createdAt == 0 {
		createdAt = nowMillis()
	}

	commentID, err := r.store.Create(ctx, store.CommentsCollection, store.Fields{
		"authorId":  in.AuthorID,
		"author":    in.Author,
		"comment":   in.Text,
		"createdAt": createdAt,
	})
	if err != nil {
		log.Printf("registry: create comment on task %s failed: %v", taskID, err)
		return "", fmt.Errorf("create comment: %w", err)
	}

	updated := append(append([]string(nil), t.Comments...), commentID)
	if err := r.store.UpdatePartial(ctx, store.TasksCollection, taskID, store.Fields{"comments": updated}); err != nil {
		log.Printf("registry: comment %s saved but not linked to task %s: %v", commentID, taskID, err)
		return commentID, fmt.Errorf("%w: %v", ErrPartialLink, err)
	}

	r.applyComments(taskID, updated)
	r.comments.Set(commentID, models.Comment{
		ID:        commentID,
		AuthorID:  in.AuthorID,
		Author:    in.Author,
		Comment:   in.Text,
		CreatedAt: createdAt,
	}, r.commentTTL)
	return commentID, nil
}

// RemoveComment deletes the comment document, then removes its id
// from the owning task's reference list. The reverse of AddComment's
// partial-link window applies: the task can briefly reference a
// deleted comment.
func (r *Registry) RemoveComment(ctx context.Context, taskID, commentID string) error {
	r.mu.RLock()
	t, _, ok := r.find(taskID)
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if err := r.store.Delete(ctx, store.CommentsCollection, commentID); err != nil {
		log.Printf("registry: delete comment %s failed: %v", commentID, err)
		return fmt.Errorf("delete comment %s: %w", commentID, err)
	}
	r.comments.Delete(commentID)

	updated := without(t.Comments, commentID)
	if err := r.store.UpdatePartial(ctx, store.TasksCollection, taskID, store.Fields{"comments": updated}); err != nil {
		log.Printf("registry: comment %s deleted but still referenced by task %s: %v", commentID, taskID, err)
		return fmt.Errorf("%w: %v", ErrPartialLink, err)
	}

	r.applyComments(taskID, updated)
	return nil
}

// CommentsByIDs resolves comment ids into comment records, skipping
// ids whose documents no longer exist (the visible side of the
// partial-link gap). Resolved records are served from the TTL cache
// when possible.
func (r *Registry) CommentsByIDs(ctx context.Context, ids []string) ([]models.Comment, error) {
	out := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.comments.Get(id); ok {
			out = append(out, c)
			continue
		}
		rec, err := r.store.GetByID(ctx, store.CommentsCollection, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			log.Printf("registry: fetch comment %s failed: %v", id, err)
			return nil, fmt.Errorf("fetch comment %s: %w", id, err)
		}
		c := commentFromRecord(rec)
		r.comments.Set(id, c, r.commentTTL)
		out = append(out, c)
	}
	return out, nil
}

func (r *Registry) writeMembers(ctx context.Context, taskID, field string, members []string) error {
	return r.store.UpdatePartial(ctx, store.TasksCollection, taskID, store.Fields{field: members})
}

func (r *Registry) setLoading(v bool) {
	r.mu.Lock()
	r.loading = v
	r.mu.Unlock()
}

// find returns a copy of the task and its index. Callers must hold at
// least a read lock.
func (r *Registry) find(taskID string) (models.Task, int, bool) {
	for i, t := range r.tasks {
		if t.ID == taskID {
			return t, i, true
		}
	}
	return models.Task{}, 0, false
}

func (r *Registry) applyParticipants(taskID string, members []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, i, ok := r.find(taskID); ok {
		r.tasks[i].Participants = members
	}
}

func (r *Registry) applyLikes(taskID string, members []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, i, ok := r.find(taskID); ok {
		r.tasks[i].Likes = members
	}
}

func (r *Registry) applyComments(taskID string, ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, i, ok := r.find(taskID); ok {
		r.tasks[i].Comments = ids
	}
}

func without(members []string, id string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}
