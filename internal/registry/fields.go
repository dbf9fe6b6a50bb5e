package registry

import (
	"encoding/json"

	"dugnadhub-api/internal/models"
	"dugnadhub-api/internal/store"
)

// taskFromRecord maps a raw document into a Task, defaulting the set
// fields to empty slices the way the original client did on every
// fetch.
func taskFromRecord(r store.Record) models.Task {
	t := models.Task{
		ID:            r.ID,
		Title:         stringField(r.Fields, "title"),
		Description:   stringField(r.Fields, "description"),
		Location:      stringField(r.Fields, "location"),
		DateTime:      stringField(r.Fields, "dateTime"),
		ContactInfo:   stringField(r.Fields, "contactInfo"),
		RequiredTasks: stringField(r.Fields, "requiredTasks"),
		CreatedBy:     stringField(r.Fields, "createdBy"),
		CreatedAt:     intField(r.Fields, "createdAt"),
		ImageURL:      stringField(r.Fields, "imageUrl"),
		Participants:  stringsField(r.Fields, "participants"),
		Likes:         stringsField(r.Fields, "likes"),
		Comments:      stringsField(r.Fields, "comments"),
	}
	if v, ok := r.Fields["maxVolunteers"]; ok {
		if n, ok := asInt(v); ok {
			t.MaxVolunteers = &n
		}
	}
	return t
}

func commentFromRecord(r store.Record) models.Comment {
	return models.Comment{
		ID:        r.ID,
		AuthorID:  stringField(r.Fields, "authorId"),
		Author:    stringField(r.Fields, "author"),
		Comment:   stringField(r.Fields, "comment"),
		CreatedAt: intField(r.Fields, "createdAt"),
	}
}

func stringField(f store.Fields, key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

func intField(f store.Fields, key string) int64 {
	if v, ok := f[key]; ok {
		if n, ok := asInt64(v); ok {
			return n
		}
	}
	return 0
}

func stringsField(f store.Fields, key string) []string {
	out := []string{}
	switch v := f[key].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// asInt64 normalizes the numeric types a JSON round trip can produce.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	n, ok := asInt64(v)
	return int(n), ok
}
