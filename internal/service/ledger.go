package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/gatherly/internal/apperr"
	"github.com/gatherly/gatherly/internal/audit"
	"github.com/gatherly/gatherly/internal/metrics"
	"github.com/gatherly/gatherly/internal/model"
	"github.com/gatherly/gatherly/internal/store"
)

// Ledger owns the registration lifecycle. Capacity and duplicate checks run
// inside the store's atomic insert, so concurrent registrations racing for
// the last slot admit exactly one attendee.
type Ledger struct {
	events store.EventStore
	regs   store.RegistrationStore
	audit  *audit.Recorder
	stats  *metrics.Metrics
	now    func() time.Time
}

// NewLedger constructs a Ledger. recorder and stats may be nil.
func NewLedger(events store.EventStore, regs store.RegistrationStore, recorder *audit.Recorder, stats *metrics.Metrics) *Ledger {
	return &Ledger{events: events, regs: regs, audit: recorder, stats: stats, now: time.Now}
}

// Register creates a REGISTERED ledger entry for the caller, provided the
// event is open for registration, the caller holds no non-cancelled
// registration for it, and capacity allows one more.
func (l *Ledger) Register(ctx context.Context, caller model.Caller, eventID string) (*model.Registration, error) {
	ev, err := l.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "event not found")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	now := l.now()
	if !ev.OpenForRegistration(now) {
		return nil, apperr.WithState(apperr.KindState, "event is not open for registration", string(ev.Status))
	}

	reg := model.Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		UserID:       caller.ID,
		UserName:     caller.Name,
		UserEmail:    caller.Email,
		Status:       model.StatusRegistered,
		RegisteredAt: now,
	}
	created, err := l.regs.Insert(ctx, reg, ev.MaxParticipants)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, apperr.New(apperr.KindAlreadyRegistered, "already registered for this event")
		case errors.Is(err, store.ErrCapacity):
			l.stats.IncCapacityRejection()
			return nil, apperr.New(apperr.KindCapacityExceeded, "event is full")
		case errors.Is(err, store.ErrNotFound):
			return nil, apperr.New(apperr.KindNotFound, "event not found")
		default:
			return nil, fmt.Errorf("register: %w", err)
		}
	}
	l.stats.IncRegistration()
	l.audit.Record(ctx, caller.ID, audit.ActionRegistered, created.ID, "event="+eventID)
	return &created, nil
}

// Cancel transitions a registration to CANCELLED. Allowed only from
// REGISTERED or CHECKED_IN, and only for the registrant, the event's
// organizer, or an admin.
func (l *Ledger) Cancel(ctx context.Context, caller model.Caller, registrationID string) (*model.Registration, error) {
	reg, err := l.regs.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "registration not found")
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	ev, err := l.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if caller.ID != reg.UserID && caller.ID != ev.OwnerID && !caller.IsAdmin() {
		return nil, apperr.New(apperr.KindPermission, "caller may not cancel this registration")
	}

	updated, err := l.transition(ctx, reg, model.StatusCancelled, func(r model.Registration) error {
		if !r.Cancellable() {
			return apperr.WithState(apperr.KindState, "registration cannot be cancelled", string(r.Status))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.audit.Record(ctx, caller.ID, audit.ActionCancelled, registrationID, "")
	return updated, nil
}

// SweepNoShows marks every still-REGISTERED entry of an ended event as
// NO_SHOW. Idempotent: rows already in a terminal state are left alone, and
// rows that transition concurrently are skipped without error.
func (l *Ledger) SweepNoShows(ctx context.Context, caller model.Caller, eventID string) (int, error) {
	ev, err := l.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, apperr.New(apperr.KindNotFound, "event not found")
		}
		return 0, fmt.Errorf("get event: %w", err)
	}
	if caller.ID != ev.OwnerID && !caller.IsAdmin() {
		return 0, apperr.New(apperr.KindPermission, "only the organizer can sweep no-shows")
	}
	if !ev.Ended(l.now()) {
		return 0, apperr.New(apperr.KindState, "event has not ended yet")
	}

	regs, err := l.regs.ListByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("list registrations: %w", err)
	}
	swept := 0
	for _, reg := range regs {
		if reg.Status != model.StatusRegistered {
			continue
		}
		_, err := l.regs.UpdateStatus(ctx, reg.ID, model.StatusRegistered, model.StatusNoShow, l.now())
		if err != nil {
			if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
				continue
			}
			return swept, fmt.Errorf("sweep no-shows: %w", err)
		}
		swept++
	}
	if swept > 0 {
		l.audit.Record(ctx, caller.ID, audit.ActionNoShowSweep, eventID, fmt.Sprintf("swept=%d", swept))
	}
	return swept, nil
}

// ListMine returns the caller's registrations, oldest first.
func (l *Ledger) ListMine(ctx context.Context, caller model.Caller) ([]model.Registration, error) {
	return l.regs.ListByUser(ctx, caller.ID)
}

// transition applies a status-guarded update with exactly one retry when the
// optimistic guard trips: the row is re-read, the precondition re-evaluated
// against the fresh state, and the write attempted once more.
func (l *Ledger) transition(ctx context.Context, reg model.Registration, next model.RegistrationStatus, check func(model.Registration) error) (*model.Registration, error) {
	for attempt := 0; ; attempt++ {
		if err := check(reg); err != nil {
			return nil, err
		}
		updated, err := l.regs.UpdateStatus(ctx, reg.ID, reg.Status, next, l.now())
		if err == nil {
			return &updated, nil
		}
		if !errors.Is(err, store.ErrConflict) || attempt > 0 {
			if errors.Is(err, store.ErrConflict) {
				return nil, apperr.WithState(apperr.KindConflict, "registration changed concurrently", string(reg.Status))
			}
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.New(apperr.KindNotFound, "registration not found")
			}
			return nil, fmt.Errorf("update registration: %w", err)
		}
		reg, err = l.regs.GetByID(ctx, reg.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.New(apperr.KindNotFound, "registration not found")
			}
			return nil, fmt.Errorf("reload registration: %w", err)
		}
	}
}
