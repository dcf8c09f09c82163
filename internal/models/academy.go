package models

import (
	"time"

	"academia/internal/identity"
)

// Member is one entry in an academy's ordered members list. The list permits
// no duplicate canonical user identifiers; JoinedAt is assigned by the server
// when the entry is appended and preserved verbatim on every later rewrite.
type Member struct {
	UserID   identity.Ref `json:"userId"`
	JoinedAt time.Time    `json:"joinedAt"`
}

// Academy is a community document. The creator is an implicit member via
// CreatedBy and never holds a row in Members.
type Academy struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	LogoURL     string    `json:"logoUrl"`
	BannerURL   string    `json:"bannerUrl"`
	CreatedBy   string    `json:"createdBy"`
	Members     []Member  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SetTimestamps is called by the document store on read/write.
func (a *Academy) SetTimestamps(created, updated time.Time) {
	a.CreatedAt = created
	a.UpdatedAt = updated
}

// HasMember reports whether the given user holds a membership row.
// The creator is not reported here; use IsCreator for implicit membership.
func (a *Academy) HasMember(userID string) bool {
	id := identity.Normalize(userID)
	for _, m := range a.Members {
		if identity.Equal(m.UserID, id) {
			return true
		}
	}
	return false
}

// IsCreator reports whether the given user created the academy.
func (a *Academy) IsCreator(userID string) bool {
	return identity.Equal(a.CreatedBy, userID)
}

// MemberCount returns the number of explicit membership rows.
func (a *Academy) MemberCount() int {
	return len(a.Members)
}

// Clone returns a deep copy, used by the client cache for snapshots.
func (a *Academy) Clone() *Academy {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Members = make([]Member, len(a.Members))
	copy(cp.Members, a.Members)
	return &cp
}
