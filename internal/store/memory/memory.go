// Package memory provides mutex-guarded in-memory store implementations.
// They honor the same conditional-write semantics as the postgres stores and
// back the unit tests plus the local development mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gatherly/gatherly/internal/model"
	"github.com/gatherly/gatherly/internal/store"
)

// EventStore keeps events in a map guarded by a single mutex.
type EventStore struct {
	mu     sync.RWMutex
	events map[string]model.Event
}

// NewEventStore constructs an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[string]model.Event)}
}

func (s *EventStore) Insert(_ context.Context, ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = ev
	return nil
}

func (s *EventStore) GetByID(_ context.Context, id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, store.ErrNotFound
	}
	return ev, nil
}

func (s *EventStore) List(_ context.Context, f store.EventFilter) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Event
	for _, ev := range s.events {
		if f.Status != "" && ev.Status != f.Status {
			continue
		}
		if f.Category != "" && !strings.EqualFold(ev.Category, f.Category) {
			continue
		}
		if f.Location != "" && !strings.Contains(strings.ToLower(ev.Location), strings.ToLower(f.Location)) {
			continue
		}
		if f.OwnerID != "" && ev.OwnerID != f.OwnerID {
			continue
		}
		if !f.StartsAfter.IsZero() && !ev.DateStart.After(f.StartsAfter) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateStart.Before(out[j].DateStart) })
	return out, nil
}

func (s *EventStore) Update(_ context.Context, ev model.Event, expect model.EventStatus) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.events[ev.ID]
	if !ok {
		return model.Event{}, store.ErrNotFound
	}
	if cur.Status != expect {
		return model.Event{}, store.ErrConflict
	}
	s.events[ev.ID] = ev
	return ev, nil
}

func (s *EventStore) UpdateStatus(_ context.Context, id string, expect, next model.EventStatus, reason string, at time.Time) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, store.ErrNotFound
	}
	if ev.Status != expect {
		return model.Event{}, store.ErrConflict
	}
	ev.Status = next
	ev.RejectionReason = reason
	ev.UpdatedAt = at
	s.events[id] = ev
	return ev, nil
}

func (s *EventStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// RegistrationStore keeps ledger rows in a map guarded by a single mutex, so
// the insert-with-capacity-check and the status-guarded updates are atomic
// by construction.
type RegistrationStore struct {
	mu   sync.RWMutex
	regs map[string]model.Registration
}

// NewRegistrationStore constructs an empty RegistrationStore.
func NewRegistrationStore() *RegistrationStore {
	return &RegistrationStore{regs: make(map[string]model.Registration)}
}

func (s *RegistrationStore) Insert(_ context.Context, reg model.Registration, capacity int) (model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := 0
	for _, r := range s.regs {
		if r.EventID != reg.EventID || !r.Status.Active() {
			continue
		}
		if r.UserID == reg.UserID {
			return model.Registration{}, store.ErrDuplicate
		}
		active++
	}
	if active >= capacity {
		return model.Registration{}, store.ErrCapacity
	}
	s.regs[reg.ID] = reg
	return reg, nil
}

func (s *RegistrationStore) GetByID(_ context.Context, id string) (model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.regs[id]
	if !ok {
		return model.Registration{}, store.ErrNotFound
	}
	return reg, nil
}

func (s *RegistrationStore) ListByEvent(_ context.Context, eventID string) ([]model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Registration
	for _, r := range s.regs {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (s *RegistrationStore) ListByUser(_ context.Context, userID string) ([]model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Registration
	for _, r := range s.regs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (s *RegistrationStore) CountActive(_ context.Context, eventID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.regs {
		if r.EventID == eventID && r.Status.Active() {
			n++
		}
	}
	return n, nil
}

func (s *RegistrationStore) UpdateStatus(_ context.Context, id string, expect, next model.RegistrationStatus, at time.Time) (model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[id]
	if !ok {
		return model.Registration{}, store.ErrNotFound
	}
	if reg.Status != expect {
		return model.Registration{}, store.ErrConflict
	}
	reg.Status = next
	stamp := at
	switch next {
	case model.StatusCheckedIn:
		reg.CheckedInAt = &stamp
	case model.StatusCheckedOut:
		reg.CheckedOutAt = &stamp
	case model.StatusCancelled:
		reg.CancelledAt = &stamp
	}
	s.regs[id] = reg
	return reg, nil
}

// FavoriteStore keeps bookmarks in a map guarded by a single mutex.
type FavoriteStore struct {
	mu   sync.RWMutex
	favs map[string]model.Favorite
}

// NewFavoriteStore constructs an empty FavoriteStore.
func NewFavoriteStore() *FavoriteStore {
	return &FavoriteStore{favs: make(map[string]model.Favorite)}
}

func (s *FavoriteStore) Insert(_ context.Context, fav model.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favs {
		if f.UserID == fav.UserID && f.EventID == fav.EventID {
			return store.ErrDuplicate
		}
	}
	s.favs[fav.ID] = fav
	return nil
}

func (s *FavoriteStore) Delete(_ context.Context, userID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.favs {
		if f.UserID == userID && f.EventID == eventID {
			delete(s.favs, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *FavoriteStore) ListByUser(_ context.Context, userID string) ([]model.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Favorite
	for _, f := range s.favs {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *FavoriteStore) Exists(_ context.Context, userID, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.favs {
		if f.UserID == userID && f.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}
