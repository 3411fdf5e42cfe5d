package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly/internal/model"
	"github.com/gatherly/gatherly/internal/store"
)

var base = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func seedEvent(t *testing.T, s *EventStore, id string, status model.EventStatus) model.Event {
	t.Helper()
	ev := model.Event{
		ID:              id,
		Title:           "Go Meetup",
		Category:        "tech",
		Location:        "Lyon",
		DateStart:       base.Add(time.Hour),
		DateEnd:         base.Add(3 * time.Hour),
		MaxParticipants: 2,
		Status:          status,
		OwnerID:         "org-1",
		CreatedAt:       base,
		UpdatedAt:       base,
	}
	require.NoError(t, s.Insert(context.Background(), ev))
	return ev
}

func seedRegistration(t *testing.T, s *RegistrationStore, id, eventID, userID string, capacity int) model.Registration {
	t.Helper()
	reg, err := s.Insert(context.Background(), model.Registration{
		ID:           id,
		EventID:      eventID,
		UserID:       userID,
		Status:       model.StatusRegistered,
		RegisteredAt: base,
	}, capacity)
	require.NoError(t, err)
	return reg
}

func TestEventUpdateStatusGuard(t *testing.T) {
	ctx := context.Background()
	s := NewEventStore()
	seedEvent(t, s, "ev-1", model.EventPending)

	updated, err := s.UpdateStatus(ctx, "ev-1", model.EventPending, model.EventApproved, "", base)
	require.NoError(t, err)
	assert.Equal(t, model.EventApproved, updated.Status)

	// The guard no longer matches, so a second identical call conflicts.
	_, err = s.UpdateStatus(ctx, "ev-1", model.EventPending, model.EventApproved, "", base)
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.UpdateStatus(ctx, "missing", model.EventPending, model.EventApproved, "", base)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEventList(t *testing.T) {
	ctx := context.Background()
	s := NewEventStore()
	seedEvent(t, s, "ev-1", model.EventApproved)
	seedEvent(t, s, "ev-2", model.EventPending)

	approved, err := s.List(ctx, store.EventFilter{Status: model.EventApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "ev-1", approved[0].ID)

	// Location matching is a case-insensitive substring.
	byLocation, err := s.List(ctx, store.EventFilter{Location: "lyo"})
	require.NoError(t, err)
	assert.Len(t, byLocation, 2)

	past, err := s.List(ctx, store.EventFilter{StartsAfter: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestRegistrationInsertCapacity(t *testing.T) {
	ctx := context.Background()
	s := NewRegistrationStore()
	seedRegistration(t, s, "reg-1", "ev-1", "user-a", 2)
	seedRegistration(t, s, "reg-2", "ev-1", "user-b", 2)

	_, err := s.Insert(ctx, model.Registration{
		ID: "reg-3", EventID: "ev-1", UserID: "user-c",
		Status: model.StatusRegistered, RegisteredAt: base,
	}, 2)
	assert.ErrorIs(t, err, store.ErrCapacity)

	// Cancelling frees a seat.
	_, err = s.UpdateStatus(ctx, "reg-1", model.StatusRegistered, model.StatusCancelled, base)
	require.NoError(t, err)
	_, err = s.Insert(ctx, model.Registration{
		ID: "reg-3", EventID: "ev-1", UserID: "user-c",
		Status: model.StatusRegistered, RegisteredAt: base,
	}, 2)
	require.NoError(t, err)
}

func TestRegistrationInsertDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewRegistrationStore()
	seedRegistration(t, s, "reg-1", "ev-1", "user-a", 5)

	_, err := s.Insert(ctx, model.Registration{
		ID: "reg-2", EventID: "ev-1", UserID: "user-a",
		Status: model.StatusRegistered, RegisteredAt: base,
	}, 5)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	// A different event is fine.
	_, err = s.Insert(ctx, model.Registration{
		ID: "reg-3", EventID: "ev-2", UserID: "user-a",
		Status: model.StatusRegistered, RegisteredAt: base,
	}, 5)
	require.NoError(t, err)
}

func TestRegistrationUpdateStatusStamps(t *testing.T) {
	ctx := context.Background()
	s := NewRegistrationStore()
	seedRegistration(t, s, "reg-1", "ev-1", "user-a", 5)

	in := base.Add(time.Hour)
	reg, err := s.UpdateStatus(ctx, "reg-1", model.StatusRegistered, model.StatusCheckedIn, in)
	require.NoError(t, err)
	require.NotNil(t, reg.CheckedInAt)
	assert.True(t, reg.CheckedInAt.Equal(in))
	assert.Nil(t, reg.CheckedOutAt)

	out := in.Add(30 * time.Minute)
	reg, err = s.UpdateStatus(ctx, "reg-1", model.StatusCheckedIn, model.StatusCheckedOut, out)
	require.NoError(t, err)
	require.NotNil(t, reg.CheckedOutAt)
	assert.True(t, reg.CheckedOutAt.Equal(out))
	// The check-in stamp survives later transitions.
	require.NotNil(t, reg.CheckedInAt)
	assert.True(t, reg.CheckedInAt.Equal(in))

	_, err = s.UpdateStatus(ctx, "reg-1", model.StatusRegistered, model.StatusCheckedIn, out)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestFavoriteInsertDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewFavoriteStore()
	require.NoError(t, s.Insert(ctx, model.Favorite{ID: "fav-1", UserID: "user-a", EventID: "ev-1", CreatedAt: base}))

	err := s.Insert(ctx, model.Favorite{ID: "fav-2", UserID: "user-a", EventID: "ev-1", CreatedAt: base})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	// Same event, different user is fine.
	require.NoError(t, s.Insert(ctx, model.Favorite{ID: "fav-3", UserID: "user-b", EventID: "ev-1", CreatedAt: base}))
}

func TestFavoriteDelete(t *testing.T) {
	ctx := context.Background()
	s := NewFavoriteStore()
	require.NoError(t, s.Insert(ctx, model.Favorite{ID: "fav-1", UserID: "user-a", EventID: "ev-1", CreatedAt: base}))

	require.NoError(t, s.Delete(ctx, "user-a", "ev-1"))
	assert.ErrorIs(t, s.Delete(ctx, "user-a", "ev-1"), store.ErrNotFound)

	ok, err := s.Exists(ctx, "user-a", "ev-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFavoriteListByUser(t *testing.T) {
	ctx := context.Background()
	s := NewFavoriteStore()
	require.NoError(t, s.Insert(ctx, model.Favorite{ID: "fav-2", UserID: "user-a", EventID: "ev-2", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, s.Insert(ctx, model.Favorite{ID: "fav-1", UserID: "user-a", EventID: "ev-1", CreatedAt: base}))
	require.NoError(t, s.Insert(ctx, model.Favorite{ID: "fav-3", UserID: "user-b", EventID: "ev-1", CreatedAt: base}))

	favs, err := s.ListByUser(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, "ev-1", favs[0].EventID, "oldest first")
	assert.Equal(t, "ev-2", favs[1].EventID)
}
