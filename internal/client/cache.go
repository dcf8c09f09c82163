package client

import (
	"sync"
	"time"

	"academia/internal/identity"
	"academia/internal/models"
)

// Cache is the client's local copy of academy and post documents.
//
// Mutations for optimistic toggles clone the cached document, never the
// caller's; callers read documents back via Academy/Post and must treat the
// returned copies as immutable.
type Cache struct {
	mu        sync.RWMutex
	academies map[string]*models.Academy
	posts     map[string]*models.Post
	listed    bool
	now       func() time.Time
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		academies: make(map[string]*models.Academy),
		posts:     make(map[string]*models.Post),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Academy returns a copy of the cached academy, or nil.
func (c *Cache) Academy(id string) *models.Academy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.academies[id].Clone()
}

// Post returns a copy of the cached post, or nil.
func (c *Cache) Post(id string) *models.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.posts[id].Clone()
}

// Academies returns copies of every cached academy.
func (c *Cache) Academies() []*models.Academy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Academy, 0, len(c.academies))
	for _, a := range c.academies {
		out = append(out, a.Clone())
	}
	return out
}

// HasListing reports whether the listing cache has been populated.
func (c *Cache) HasListing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listed
}

// ReplaceListing replaces the whole academy listing, dropping entries the
// server no longer returns. Used by force refresh.
func (c *Cache) ReplaceListing(academies []*models.Academy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.academies = make(map[string]*models.Academy, len(academies))
	for _, a := range academies {
		c.academies[a.ID] = a.Clone()
	}
	c.listed = true
}

// ReplaceAcademy replaces one cached academy wholesale with the given
// document.
func (c *Cache) ReplaceAcademy(academy *models.Academy) {
	if academy == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.academies[academy.ID] = academy.Clone()
}

// ReplacePost replaces one cached post wholesale with the given document.
func (c *Cache) ReplacePost(post *models.Post) {
	if post == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts[post.ID] = post.Clone()
}

// SnapshotAcademy returns a deep copy of the cached academy for later
// revert, or nil if the academy is not cached.
func (c *Cache) SnapshotAcademy(id string) *models.Academy {
	return c.Academy(id)
}

// SnapshotPost returns a deep copy of the cached post for later revert.
func (c *Cache) SnapshotPost(id string) *models.Post {
	return c.Post(id)
}

// MutateMembership applies the optimistic membership flip to the cached
// academy and returns a copy of the result along with the new direction.
// The cached members array is rewritten in full, mirroring the server.
func (c *Cache) MutateMembership(academyID, userID string) (*models.Academy, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	academy, ok := c.academies[academyID]
	if !ok {
		return nil, false, false
	}

	joining := !academy.HasMember(userID)
	members := make([]models.Member, 0, len(academy.Members)+1)
	for _, m := range academy.Members {
		if identity.Equal(m.UserID, userID) {
			continue
		}
		members = append(members, m)
	}
	if joining {
		members = append(members, models.Member{
			UserID:   identity.Bare(userID),
			JoinedAt: c.now(),
		})
	}
	academy.Members = members
	return academy.Clone(), joining, true
}

// MutateLike applies the optimistic like flip to the cached post, keeping
// Likes equal to len(LikedBy), and returns a copy of the result along with
// the new direction.
func (c *Cache) MutateLike(postID, userID string) (*models.Post, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	post, ok := c.posts[postID]
	if !ok {
		return nil, false, false
	}

	liking := !post.LikedByUser(userID)
	likedBy := make([]identity.Ref, 0, len(post.LikedBy)+1)
	for _, ref := range post.LikedBy {
		if identity.Equal(ref, userID) {
			continue
		}
		likedBy = append(likedBy, ref)
	}
	if liking {
		likedBy = append(likedBy, identity.Bare(userID))
	}
	post.LikedBy = likedBy
	post.Likes = len(likedBy)
	return post.Clone(), liking, true
}

// RevertAcademy restores a previously taken snapshot.
func (c *Cache) RevertAcademy(snapshot *models.Academy) {
	if snapshot == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.academies[snapshot.ID] = snapshot.Clone()
}

// RevertPost restores a previously taken snapshot.
func (c *Cache) RevertPost(snapshot *models.Post) {
	if snapshot == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts[snapshot.ID] = snapshot.Clone()
}
