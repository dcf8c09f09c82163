package client

import (
	"context"
	"sync"

	"academia/internal/bus"
	"academia/internal/models"
)

// JoinedList is a surface showing the academies the current user belongs to.
// It reconciles from membership events by normalized academy ID: add if
// absent on join, remove if present on leave. Both operations are
// idempotent, so seeing the provisional and the authoritative publication
// for the same toggle converges to the same list.
type JoinedList struct {
	userID string

	mu      sync.RWMutex
	entries map[string]*models.Academy
	order   []string

	unsubscribe func()
}

// NewJoinedList creates a surface for the given user and subscribes it to
// the bus.
func NewJoinedList(b *bus.Bus, userID string) *JoinedList {
	l := &JoinedList{
		userID:  userID,
		entries: make(map[string]*models.Academy),
	}
	l.unsubscribe = b.Subscribe(l.handle)
	return l
}

// Close detaches the surface from the bus.
func (l *JoinedList) Close() {
	if l.unsubscribe != nil {
		l.unsubscribe()
		l.unsubscribe = nil
	}
}

// Seed initializes the list from fetched state, for surfaces mounting after
// events have already been published.
func (l *JoinedList) Seed(academies []*models.Academy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*models.Academy, len(academies))
	l.order = l.order[:0]
	for _, a := range academies {
		if _, ok := l.entries[a.ID]; ok {
			continue
		}
		l.entries[a.ID] = a.Clone()
		l.order = append(l.order, a.ID)
	}
}

// Academies returns the joined academies in insertion order.
func (l *JoinedList) Academies() []*models.Academy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*models.Academy, 0, len(l.order))
	for _, id := range l.order {
		if a, ok := l.entries[id]; ok {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Contains reports whether the academy is on the list.
func (l *JoinedList) Contains(academyID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[academyID]
	return ok
}

func (l *JoinedList) handle(_ context.Context, e bus.MembershipEvent) {
	if e.UserID != l.userID || e.AcademyID == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.IsJoining {
		if _, ok := l.entries[e.AcademyID]; !ok {
			l.order = append(l.order, e.AcademyID)
		}
		// The document is always refreshed, so the authoritative
		// publication upgrades the provisional copy in place.
		l.entries[e.AcademyID] = e.Academy.Clone()
		return
	}

	if _, ok := l.entries[e.AcademyID]; ok {
		delete(l.entries, e.AcademyID)
		for i, id := range l.order {
			if id == e.AcademyID {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
}

// MemberCountBadge is a surface showing one academy's member count. It
// replaces its count wholesale from each event's document rather than
// incrementing, so duplicate deliveries cannot drift it.
type MemberCountBadge struct {
	academyID string

	mu    sync.RWMutex
	count int

	unsubscribe func()
}

// NewMemberCountBadge creates a badge for the academy and subscribes it to
// the bus.
func NewMemberCountBadge(b *bus.Bus, academyID string, initial int) *MemberCountBadge {
	badge := &MemberCountBadge{academyID: academyID, count: initial}
	badge.unsubscribe = b.Subscribe(badge.handle)
	return badge
}

// Close detaches the badge from the bus.
func (badge *MemberCountBadge) Close() {
	if badge.unsubscribe != nil {
		badge.unsubscribe()
		badge.unsubscribe = nil
	}
}

// Count returns the current member count.
func (badge *MemberCountBadge) Count() int {
	badge.mu.RLock()
	defer badge.mu.RUnlock()
	return badge.count
}

func (badge *MemberCountBadge) handle(_ context.Context, e bus.MembershipEvent) {
	if e.AcademyID != badge.academyID || e.Academy == nil {
		return
	}
	badge.mu.Lock()
	badge.count = e.Academy.MemberCount()
	badge.mu.Unlock()
}
