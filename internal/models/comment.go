package models

import "time"

// Comment is a comment document under a post. Deleting a comment must be
// paired with a decrement of the parent post's Comments counter; the comment
// service owns that pairing.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetTimestamps is called by the document store on read/write.
func (m *Comment) SetTimestamps(created, updated time.Time) {
	m.CreatedAt = created
	m.UpdatedAt = updated
}
