// Package store declares the persistence contracts for the attendance core.
// Implementations must provide single-row conditional writes (update where
// status = expected, else fail) and an insert that re-checks capacity and
// duplicates atomically; everything above this package relies on those
// guarantees instead of application-level locks.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/gatherly/gatherly/internal/model"
)

// Sentinel errors returned by stores. Services translate them into the
// domain error taxonomy.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional write finds the row in a
	// different state than expected.
	ErrConflict = errors.New("conflict")
	// ErrDuplicate is returned when a user already holds a non-cancelled
	// registration for the event.
	ErrDuplicate = errors.New("duplicate registration")
	// ErrCapacity is returned when an insert would exceed the event's
	// participant limit.
	ErrCapacity = errors.New("capacity exceeded")
)

// EventFilter narrows event listings. Zero values mean "any".
type EventFilter struct {
	Status   model.EventStatus
	Category string
	Location string
	OwnerID  string
	// StartsAfter keeps only events starting strictly after this instant.
	StartsAfter time.Time
}

// EventStore persists events. UpdateStatus is the optimistic moderation
// guard: it only applies when the stored status matches expect.
type EventStore interface {
	Insert(ctx context.Context, ev model.Event) error
	GetByID(ctx context.Context, id string) (model.Event, error)
	List(ctx context.Context, f EventFilter) ([]model.Event, error)
	// Update persists edited details, guarded by the expected current status.
	Update(ctx context.Context, ev model.Event, expect model.EventStatus) (model.Event, error)
	// UpdateStatus transitions expect -> next in one conditional write.
	// The reason is persisted for rejections and cleared otherwise.
	UpdateStatus(ctx context.Context, id string, expect, next model.EventStatus, reason string, at time.Time) (model.Event, error)
	Delete(ctx context.Context, id string) error
}

// FavoriteStore persists event bookmarks. At most one favorite exists per
// (user, event) pair.
type FavoriteStore interface {
	// Insert creates the favorite, or returns ErrDuplicate when the user
	// already bookmarked the event.
	Insert(ctx context.Context, fav model.Favorite) error
	// Delete removes the user's favorite for the event, or ErrNotFound.
	Delete(ctx context.Context, userID, eventID string) error
	ListByUser(ctx context.Context, userID string) ([]model.Favorite, error)
	Exists(ctx context.Context, userID, eventID string) (bool, error)
}

// RegistrationStore persists the ledger. Insert and UpdateStatus carry the
// concurrency guarantees the ledger and scan gateway are built on.
type RegistrationStore interface {
	// Insert creates the registration only if the user holds no non-cancelled
	// registration for the event and the non-cancelled count stays within
	// capacity. Both checks and the insert happen atomically.
	Insert(ctx context.Context, reg model.Registration, capacity int) (model.Registration, error)
	GetByID(ctx context.Context, id string) (model.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]model.Registration, error)
	// CountActive returns the number of non-cancelled registrations.
	CountActive(ctx context.Context, eventID string) (int, error)
	// UpdateStatus transitions expect -> next and stamps the timestamp column
	// matching next (checked_in_at, checked_out_at or cancelled_at) with at.
	// Returns ErrConflict when the stored status differs from expect.
	UpdateStatus(ctx context.Context, id string, expect, next model.RegistrationStatus, at time.Time) (model.Registration, error)
}
