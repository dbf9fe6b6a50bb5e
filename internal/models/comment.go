package models

// Comment is an independently addressable comment record in the
// "comments" collection. A task references it by id through its
// Comments list; the record itself does not know which task owns it.
type Comment struct {
	ID       string `json:"id"`
	AuthorID string `json:"authorId"`
	// Author is a display-name snapshot taken at post time.
	Author    string `json:"author"`
	Comment   string `json:"comment"`
	CreatedAt int64  `json:"createdAt"`
}
