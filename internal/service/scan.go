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
	"github.com/gatherly/gatherly/internal/ticket"
)

// Gate is the scan gateway: one physical action (presenting a ticket)
// advances the attendee exactly one step along
// REGISTERED -> CHECKED_IN -> CHECKED_OUT. Each transition is guarded by
// the expected prior state, so duplicate scans race safely: one scan wins,
// the other observes the post-transition state and gets a structured error
// instead of applying a second transition.
type Gate struct {
	events store.EventStore
	regs   store.RegistrationStore
	issuer *ticket.Issuer
	audit  *audit.Recorder
	stats  *metrics.Metrics
	now    func() time.Time
}

// NewGate constructs a Gate. recorder and stats may be nil.
func NewGate(events store.EventStore, regs store.RegistrationStore, issuer *ticket.Issuer, recorder *audit.Recorder, stats *metrics.Metrics) *Gate {
	return &Gate{events: events, regs: regs, issuer: issuer, audit: recorder, stats: stats, now: time.Now}
}

// Scan resolves the presented code (raw registration id or signed ticket
// token), verifies the caller may operate this event's gate, and toggles the
// registration one step. When eventID is non-empty the registration must
// belong to that event.
//
// The status-keyed conditional update is retried exactly once on conflict;
// a second conflict surfaces to the caller, who may safely retry because
// the guard makes the toggle idempotent per state.
func (g *Gate) Scan(ctx context.Context, caller model.Caller, presented, eventID string) (*model.Registration, error) {
	regID, err := g.resolve(presented)
	if err != nil {
		g.stats.IncScan("invalid_token")
		return nil, err
	}

	reg, err := g.regs.GetByID(ctx, regID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.stats.IncScan("not_found")
			return nil, apperr.New(apperr.KindNotFound, "registration not found")
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if eventID != "" && reg.EventID != eventID {
		g.stats.IncScan("event_mismatch")
		return nil, apperr.New(apperr.KindEventMismatch, "registration does not belong to this event")
	}
	if err := g.authorize(ctx, caller, reg.EventID); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		next, err := nextScanStatus(reg.Status)
		if err != nil {
			g.stats.IncScan("rejected")
			return nil, err
		}
		updated, err := g.regs.UpdateStatus(ctx, reg.ID, reg.Status, next, g.now())
		if err == nil {
			g.recordScan(ctx, caller, &updated)
			return &updated, nil
		}
		if !errors.Is(err, store.ErrConflict) || attempt > 0 {
			if errors.Is(err, store.ErrConflict) {
				g.stats.IncScan("conflict")
				return nil, apperr.WithState(apperr.KindConflict, "registration changed concurrently", string(reg.Status))
			}
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.New(apperr.KindNotFound, "registration not found")
			}
			return nil, fmt.Errorf("apply scan transition: %w", err)
		}
		// The guard tripped; re-read and re-evaluate against the fresh state.
		reg, err = g.regs.GetByID(ctx, reg.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.New(apperr.KindNotFound, "registration not found")
			}
			return nil, fmt.Errorf("reload registration: %w", err)
		}
		// A concurrent scan already applied the transition we intended:
		// surface it as a harmless duplicate, never toggle a second step.
		if reg.Status == next {
			g.stats.IncScan("duplicate")
			return nil, apperr.WithState(apperr.KindConflict, "scan already processed", string(reg.Status))
		}
	}
}

// CheckIn is the direct row action for operators: REGISTERED -> CHECKED_IN
// only, no toggle.
func (g *Gate) CheckIn(ctx context.Context, caller model.Caller, registrationID string) (*model.Registration, error) {
	return g.manual(ctx, caller, registrationID, model.StatusRegistered, model.StatusCheckedIn,
		"participant is not in registered status")
}

// CheckOut is the direct row action for operators: CHECKED_IN -> CHECKED_OUT
// only, no toggle.
func (g *Gate) CheckOut(ctx context.Context, caller model.Caller, registrationID string) (*model.Registration, error) {
	return g.manual(ctx, caller, registrationID, model.StatusCheckedIn, model.StatusCheckedOut,
		"participant is not checked in")
}

func (g *Gate) manual(ctx context.Context, caller model.Caller, registrationID string, expect, next model.RegistrationStatus, stateMsg string) (*model.Registration, error) {
	reg, err := g.regs.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "registration not found")
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if err := g.authorize(ctx, caller, reg.EventID); err != nil {
		return nil, err
	}
	if reg.Status != expect {
		return nil, apperr.WithState(apperr.KindState, stateMsg, string(reg.Status))
	}
	updated, err := g.regs.UpdateStatus(ctx, registrationID, expect, next, g.now())
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.WithState(apperr.KindConflict, "registration changed concurrently", string(reg.Status))
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "registration not found")
		}
		return nil, fmt.Errorf("apply manual transition: %w", err)
	}
	g.recordScan(ctx, caller, &updated)
	return &updated, nil
}

// resolve turns the presented code into a registration id. A well-formed
// UUID is treated as a raw id; anything else must be a valid signed token.
func (g *Gate) resolve(presented string) (string, error) {
	if presented == "" {
		return "", apperr.New(apperr.KindInvalidToken, "no code presented")
	}
	if _, err := uuid.Parse(presented); err == nil {
		return presented, nil
	}
	regID, err := g.issuer.Decode(presented)
	if err != nil {
		return "", apperr.New(apperr.KindInvalidToken, "unrecognized ticket token")
	}
	return regID, nil
}

// authorize allows only the event's organizer or an admin through the gate.
func (g *Gate) authorize(ctx context.Context, caller model.Caller, eventID string) error {
	ev, err := g.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "event not found")
		}
		return fmt.Errorf("get event: %w", err)
	}
	if ev.OwnerID != caller.ID && !caller.IsAdmin() {
		return apperr.New(apperr.KindPermission, "only the organizer can scan tickets for this event")
	}
	return nil
}

func (g *Gate) recordScan(ctx context.Context, caller model.Caller, reg *model.Registration) {
	switch reg.Status {
	case model.StatusCheckedIn:
		g.stats.IncScan("checked_in")
		g.audit.Record(ctx, caller.ID, audit.ActionCheckedIn, reg.ID, "event="+reg.EventID)
	case model.StatusCheckedOut:
		g.stats.IncScan("checked_out")
		g.audit.Record(ctx, caller.ID, audit.ActionCheckedOut, reg.ID, "event="+reg.EventID)
	}
}

// nextScanStatus dispatches the toggle by current status.
func nextScanStatus(current model.RegistrationStatus) (model.RegistrationStatus, error) {
	switch current {
	case model.StatusRegistered:
		return model.StatusCheckedIn, nil
	case model.StatusCheckedIn:
		return model.StatusCheckedOut, nil
	case model.StatusCheckedOut:
		return "", apperr.WithState(apperr.KindAlreadyCheckedOut, "attendee already checked out", string(current))
	default:
		return "", apperr.WithState(apperr.KindIneligible, "registration is not eligible for admission", string(current))
	}
}
