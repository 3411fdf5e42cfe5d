package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly/internal/apperr"
)

func TestAddFavorite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.approvedEvent(t, 10)

	t.Run("bookmark an event", func(t *testing.T) {
		fav, err := f.favorites.Add(ctx, alice, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, fav.UserID)
		assert.Equal(t, ev.ID, fav.EventID)
		assert.Equal(t, f.clock, fav.CreatedAt)
	})

	t.Run("bookmarking twice is a conflict", func(t *testing.T) {
		_, err := f.favorites.Add(ctx, alice, ev.ID)
		require.ErrorIs(t, err, apperr.New(apperr.KindConflict, ""))
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := f.favorites.Add(ctx, alice, "no-such-event")
		require.ErrorIs(t, err, apperr.New(apperr.KindNotFound, ""))
	})

	t.Run("bookmarks are per user", func(t *testing.T) {
		_, err := f.favorites.Add(ctx, bob, ev.ID)
		require.NoError(t, err)
	})
}

func TestRemoveFavorite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.approvedEvent(t, 10)
	_, err := f.favorites.Add(ctx, alice, ev.ID)
	require.NoError(t, err)

	require.NoError(t, f.favorites.Remove(ctx, alice, ev.ID))

	t.Run("removing twice", func(t *testing.T) {
		err := f.favorites.Remove(ctx, alice, ev.ID)
		require.ErrorIs(t, err, apperr.New(apperr.KindNotFound, ""))
	})

	t.Run("cannot remove another user's bookmark", func(t *testing.T) {
		_, err := f.favorites.Add(ctx, bob, ev.ID)
		require.NoError(t, err)
		err = f.favorites.Remove(ctx, alice, ev.ID)
		require.ErrorIs(t, err, apperr.New(apperr.KindNotFound, ""))
	})
}

func TestMyFavorites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.approvedEvent(t, 10)
	second := f.approvedEvent(t, 5)

	_, err := f.favorites.Add(ctx, alice, first.ID)
	require.NoError(t, err)
	f.advance(time.Minute)
	_, err = f.favorites.Add(ctx, alice, second.ID)
	require.NoError(t, err)

	views, err := f.favorites.ListMine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, first.ID, views[0].EventID, "oldest bookmark first")
	assert.Equal(t, first.Title, views[0].Event.Title)
	assert.Equal(t, second.ID, views[1].EventID)

	t.Run("bookmarks of deleted events are dropped", func(t *testing.T) {
		require.NoError(t, f.events.Delete(ctx, second.ID))
		views, err := f.favorites.ListMine(ctx, alice)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, first.ID, views[0].EventID)
	})

	t.Run("other users see nothing", func(t *testing.T) {
		views, err := f.favorites.ListMine(ctx, bob)
		require.NoError(t, err)
		assert.Empty(t, views)
	})
}

func TestIsFavorite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.approvedEvent(t, 10)

	ok, err := f.favorites.IsFavorite(ctx, alice, ev.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.favorites.Add(ctx, alice, ev.ID)
	require.NoError(t, err)

	ok, err = f.favorites.IsFavorite(ctx, alice, ev.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.favorites.IsFavorite(ctx, bob, ev.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
