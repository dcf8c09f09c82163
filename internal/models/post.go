package models

import (
	"time"

	"academia/internal/identity"
)

// Post is a media post inside an academy.
//
// Likes is a denormalized counter kept equal to len(LikedBy) under
// sequential operations; both fields are always written together by the
// engagement service. Comments mirrors the live count of comment documents
// referencing this post.
type Post struct {
	ID        string         `json:"id"`
	AcademyID string         `json:"academyId"`
	AuthorID  string         `json:"authorId"`
	Title     string         `json:"title"`
	Caption   string         `json:"caption"`
	MediaURL  string         `json:"mediaUrl"`
	Likes     int            `json:"likes"`
	LikedBy   []identity.Ref `json:"likedBy"`
	Comments  int            `json:"comments"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// SetTimestamps is called by the document store on read/write.
func (p *Post) SetTimestamps(created, updated time.Time) {
	p.CreatedAt = created
	p.UpdatedAt = updated
}

// LikedByUser reports whether the given user is in the LikedBy set.
func (p *Post) LikedByUser(userID string) bool {
	for _, ref := range p.LikedBy {
		if identity.Equal(ref, userID) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, used by the client cache for snapshots.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cp := *p
	cp.LikedBy = make([]identity.Ref, len(p.LikedBy))
	copy(cp.LikedBy, p.LikedBy)
	return &cp
}
