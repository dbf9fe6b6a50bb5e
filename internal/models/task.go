package models

// Task represents a dugnad: a volunteer work event users can join,
// like and comment on. It lives in the "tasks" collection of the
// document store; optional fields are omitted entirely when unset
// (never written as nulls).
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	Location      string `json:"location,omitempty"`
	DateTime      string `json:"dateTime,omitempty"`
	ContactInfo   string `json:"contactInfo,omitempty"`
	RequiredTasks string `json:"requiredTasks,omitempty"`

	// MaxVolunteers is the participant capacity. nil means unlimited;
	// a value of 0 means the task is immediately full.
	MaxVolunteers *int `json:"maxVolunteers,omitempty"`

	// Participants and Likes are sets of user ids kept as ordered
	// slices with no duplicates.
	Participants []string `json:"participants"`
	Likes        []string `json:"likes"`

	// Comments holds back-references (comment ids) into the
	// "comments" collection, not the comment records themselves.
	Comments []string `json:"comments"`

	CreatedBy string `json:"createdBy,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// IsFull reports whether the task has reached its capacity.
func (t Task) IsFull() bool {
	return t.MaxVolunteers != nil && len(t.Participants) >= *t.MaxVolunteers
}

// HasParticipant reports whether userID is already signed up.
func (t Task) HasParticipant(userID string) bool {
	for _, p := range t.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// HasLike reports whether userID has already liked the task.
func (t Task) HasLike(userID string) bool {
	for _, l := range t.Likes {
		if l == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate registry state
// through a returned task.
func (t Task) Clone() Task {
	out := t
	if t.MaxVolunteers != nil {
		v := *t.MaxVolunteers
		out.MaxVolunteers = &v
	}
	out.Participants = append([]string(nil), t.Participants...)
	out.Likes = append([]string(nil), t.Likes...)
	out.Comments = append([]string(nil), t.Comments...)
	return out
}
