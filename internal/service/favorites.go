package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/gatherly/internal/apperr"
	"github.com/gatherly/gatherly/internal/model"
	"github.com/gatherly/gatherly/internal/store"
)

// Favorites manages per-user event bookmarks. A favorite is independent of
// registration state: bookmarking grants nothing and expires nothing.
type Favorites struct {
	events store.EventStore
	favs   store.FavoriteStore
	now    func() time.Time
}

// NewFavorites constructs a Favorites service.
func NewFavorites(events store.EventStore, favs store.FavoriteStore) *Favorites {
	return &Favorites{events: events, favs: favs, now: time.Now}
}

// Add bookmarks an event for the caller. The event must exist; bookmarking
// twice is a conflict.
func (f *Favorites) Add(ctx context.Context, caller model.Caller, eventID string) (*model.Favorite, error) {
	if _, err := f.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "event not found")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	fav := model.Favorite{
		ID:        uuid.New().String(),
		UserID:    caller.ID,
		EventID:   eventID,
		CreatedAt: f.now(),
	}
	if err := f.favs.Insert(ctx, fav); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.New(apperr.KindConflict, "event is already a favorite")
		}
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return &fav, nil
}

// Remove deletes the caller's bookmark for the event.
func (f *Favorites) Remove(ctx context.Context, caller model.Caller, eventID string) error {
	if err := f.favs.Delete(ctx, caller.ID, eventID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "favorite not found")
		}
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// ListMine returns the caller's bookmarks joined with their events, oldest
// first. Bookmarks whose event has been deleted are dropped from the view.
func (f *Favorites) ListMine(ctx context.Context, caller model.Caller) ([]model.FavoriteView, error) {
	favs, err := f.favs.ListByUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	views := make([]model.FavoriteView, 0, len(favs))
	for _, fav := range favs {
		ev, err := f.events.GetByID(ctx, fav.EventID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		views = append(views, model.FavoriteView{Favorite: fav, Event: ev})
	}
	return views, nil
}

// IsFavorite reports whether the caller has bookmarked the event.
func (f *Favorites) IsFavorite(ctx context.Context, caller model.Caller, eventID string) (bool, error) {
	ok, err := f.favs.Exists(ctx, caller.ID, eventID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return ok, nil
}
