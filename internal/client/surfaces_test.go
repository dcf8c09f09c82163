package client

import (
	"context"
	"testing"

	"academia/internal/bus"
	"academia/internal/models"

	"github.com/stretchr/testify/assert"
)

func publish(b *bus.Bus, academy *models.Academy, userID string, joining, provisional bool) {
	b.Publish(context.Background(), bus.MembershipEvent{
		AcademyID:   academy.ID,
		Academy:     academy,
		IsJoining:   joining,
		UserID:      userID,
		Provisional: provisional,
	})
}

func TestJoinedList_AddAndRemove(t *testing.T) {
	b := bus.New()
	list := NewJoinedList(b, "u1")
	defer list.Close()

	publish(b, testAcademy("a1", "u1"), "u1", true, false)
	publish(b, testAcademy("a2", "u1"), "u1", true, false)
	assert.Len(t, list.Academies(), 2)
	assert.True(t, list.Contains("a1"))

	publish(b, testAcademy("a1"), "u1", false, false)
	assert.Len(t, list.Academies(), 1)
	assert.False(t, list.Contains("a1"))
}

// Receiving the provisional and the authoritative publication for the same
// toggle must not duplicate the entry or lose the removal.
func TestJoinedList_DoubleDeliveryIsIdempotent(t *testing.T) {
	b := bus.New()
	list := NewJoinedList(b, "u1")
	defer list.Close()

	publish(b, testAcademy("a1", "u1"), "u1", true, true)
	publish(b, testAcademy("a1", "u1"), "u1", true, false)
	assert.Len(t, list.Academies(), 1)

	publish(b, testAcademy("a1"), "u1", false, true)
	publish(b, testAcademy("a1"), "u1", false, false)
	assert.Empty(t, list.Academies())

	// A removal for an academy not on the list is a no-op.
	publish(b, testAcademy("a1"), "u1", false, false)
	assert.Empty(t, list.Academies())
}

func TestJoinedList_IgnoresOtherUsers(t *testing.T) {
	b := bus.New()
	list := NewJoinedList(b, "u1")
	defer list.Close()

	publish(b, testAcademy("a1", "u2"), "u2", true, false)
	assert.Empty(t, list.Academies())
}

func TestJoinedList_SeedThenReconcile(t *testing.T) {
	b := bus.New()
	list := NewJoinedList(b, "u1")
	defer list.Close()

	list.Seed([]*models.Academy{testAcademy("a1", "u1"), testAcademy("a2", "u1")})
	assert.Len(t, list.Academies(), 2)

	publish(b, testAcademy("a2"), "u1", false, false)
	academies := list.Academies()
	assert.Len(t, academies, 1)
	assert.Equal(t, "a1", academies[0].ID)
}

func TestMemberCountBadge_ReplacesWholesale(t *testing.T) {
	b := bus.New()
	badge := NewMemberCountBadge(b, "a1", 3)
	defer badge.Close()

	// The badge tracks the document's count, not a local delta, so a
	// duplicate delivery cannot double-count.
	doc := testAcademy("a1", "u1", "u2", "u3", "u4")
	publish(b, doc, "u4", true, true)
	publish(b, doc, "u4", true, false)
	assert.Equal(t, 4, badge.Count())

	publish(b, testAcademy("a2", "x"), "x", true, false)
	assert.Equal(t, 4, badge.Count())
}
