// Package service implements the domain operations: the event catalog and
// moderation gate, the registration ledger, the scan gateway and the
// history projections. Services validate and authorize, then lean on the
// store layer's conditional writes for every state transition.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/gatherly/internal/apperr"
	"github.com/gatherly/gatherly/internal/audit"
	"github.com/gatherly/gatherly/internal/metrics"
	"github.com/gatherly/gatherly/internal/model"
	"github.com/gatherly/gatherly/internal/store"
)

// Catalog owns event metadata, capacity and publication state. It is the
// single authority for "is this event open for registration".
type Catalog struct {
	events store.EventStore
	regs   store.RegistrationStore
	audit  *audit.Recorder
	stats  *metrics.Metrics
	now    func() time.Time
}

// NewCatalog constructs a Catalog. recorder and stats may be nil.
func NewCatalog(events store.EventStore, regs store.RegistrationStore, recorder *audit.Recorder, stats *metrics.Metrics) *Catalog {
	return &Catalog{events: events, regs: regs, audit: recorder, stats: stats, now: time.Now}
}

// CreateDraft validates the fields and stores a new DRAFT event owned by
// the caller. Only organizers and admins may create events.
func (c *Catalog) CreateDraft(ctx context.Context, caller model.Caller, req model.CreateEventRequest) (*model.Event, error) {
	if caller.Role != model.RoleEventOwner && !caller.IsAdmin() {
		return nil, apperr.New(apperr.KindPermission, "only organizers can create events")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, apperr.New(apperr.KindValidation, "title is required")
	}
	if req.MaxParticipants <= 0 {
		return nil, apperr.New(apperr.KindValidation, "max_participants must be a positive integer")
	}
	if !req.DateEnd.After(req.DateStart) {
		return nil, apperr.New(apperr.KindValidation, "date_end must be after date_start")
	}

	now := c.now()
	ev := model.Event{
		ID:              uuid.New().String(),
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Location:        req.Location,
		DateStart:       req.DateStart,
		DateEnd:         req.DateEnd,
		MaxParticipants: req.MaxParticipants,
		Status:          model.EventDraft,
		OwnerID:         caller.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.events.Insert(ctx, ev); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return &ev, nil
}

// UpdateDetails applies edits while the event is DRAFT or REJECTED. Editing
// a rejected event returns it to DRAFT so it can be resubmitted.
func (c *Catalog) UpdateDetails(ctx context.Context, caller model.Caller, eventID string, req model.UpdateEventRequest) (*model.Event, error) {
	ev, err := c.getOwned(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if ev.Status != model.EventDraft && ev.Status != model.EventRejected {
		return nil, apperr.WithState(apperr.KindState, "only draft or rejected events can be edited", string(ev.Status))
	}

	expect := ev.Status
	if req.Title != nil {
		ev.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		ev.Description = *req.Description
	}
	if req.Category != nil {
		ev.Category = *req.Category
	}
	if req.Location != nil {
		ev.Location = *req.Location
	}
	if req.DateStart != nil {
		ev.DateStart = *req.DateStart
	}
	if req.DateEnd != nil {
		ev.DateEnd = *req.DateEnd
	}
	if req.MaxParticipants != nil {
		ev.MaxParticipants = *req.MaxParticipants
	}
	if ev.Title == "" {
		return nil, apperr.New(apperr.KindValidation, "title is required")
	}
	if ev.MaxParticipants <= 0 {
		return nil, apperr.New(apperr.KindValidation, "max_participants must be a positive integer")
	}
	if !ev.DateEnd.After(ev.DateStart) {
		return nil, apperr.New(apperr.KindValidation, "date_end must be after date_start")
	}

	ev.Status = model.EventDraft
	ev.RejectionReason = ""
	ev.UpdatedAt = c.now()

	updated, err := c.events.Update(ctx, ev, expect)
	if err != nil {
		return nil, c.translate(err, string(expect), "update event")
	}
	return &updated, nil
}

// Delete removes an event that has no non-cancelled registrations.
func (c *Catalog) Delete(ctx context.Context, caller model.Caller, eventID string) error {
	if _, err := c.getOwned(ctx, caller, eventID); err != nil {
		return err
	}
	active, err := c.regs.CountActive(ctx, eventID)
	if err != nil {
		return fmt.Errorf("count registrations: %w", err)
	}
	if active > 0 {
		return apperr.New(apperr.KindState, "event has active registrations and cannot be deleted")
	}
	if err := c.events.Delete(ctx, eventID); err != nil {
		return c.translate(err, "", "delete event")
	}
	return nil
}

// Submit moves a DRAFT event into the moderation queue.
func (c *Catalog) Submit(ctx context.Context, caller model.Caller, eventID string) (*model.Event, error) {
	ev, err := c.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, c.translate(err, "", "get event")
	}
	if ev.OwnerID != caller.ID {
		return nil, apperr.New(apperr.KindPermission, "only the owning organizer can submit an event")
	}
	if ev.Status != model.EventDraft {
		return nil, apperr.WithState(apperr.KindState, "only draft events can be submitted", string(ev.Status))
	}
	updated, err := c.events.UpdateStatus(ctx, eventID, model.EventDraft, model.EventPending, "", c.now())
	if err != nil {
		return nil, c.translate(err, string(ev.Status), "submit event")
	}
	c.audit.Record(ctx, caller.ID, audit.ActionEventSubmitted, eventID, "")
	return &updated, nil
}

// Approve publishes a PENDING event. Moderator only.
func (c *Catalog) Approve(ctx context.Context, caller model.Caller, eventID string) (*model.Event, error) {
	return c.moderate(ctx, caller, eventID, model.EventApproved, "")
}

// Reject declines a PENDING event with a reason. Moderator only.
func (c *Catalog) Reject(ctx context.Context, caller model.Caller, eventID, reason string) (*model.Event, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.New(apperr.KindValidation, "rejection reason is required")
	}
	return c.moderate(ctx, caller, eventID, model.EventRejected, reason)
}

func (c *Catalog) moderate(ctx context.Context, caller model.Caller, eventID string, next model.EventStatus, reason string) (*model.Event, error) {
	if !caller.IsAdmin() {
		return nil, apperr.New(apperr.KindPermission, "only moderators can approve or reject events")
	}
	ev, err := c.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, c.translate(err, "", "get event")
	}
	if ev.Status != model.EventPending {
		return nil, apperr.WithState(apperr.KindState, "event is not pending moderation", string(ev.Status))
	}
	updated, err := c.events.UpdateStatus(ctx, eventID, model.EventPending, next, reason, c.now())
	if err != nil {
		return nil, c.translate(err, string(ev.Status), "moderate event")
	}
	if next == model.EventApproved {
		c.stats.IncModeration("approved")
		c.audit.Record(ctx, caller.ID, audit.ActionEventApproved, eventID, "")
	} else {
		c.stats.IncModeration("rejected")
		c.audit.Record(ctx, caller.ID, audit.ActionEventRejected, eventID, reason)
	}
	return &updated, nil
}

// IsOpenForRegistration reports whether the event is APPROVED and has not
// started yet.
func (c *Catalog) IsOpenForRegistration(ctx context.Context, eventID string) (bool, error) {
	ev, err := c.events.GetByID(ctx, eventID)
	if err != nil {
		return false, c.translate(err, "", "get event")
	}
	return ev.OpenForRegistration(c.now()), nil
}

// GetEvent returns a single event by id.
func (c *Catalog) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	ev, err := c.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, c.translate(err, "", "get event")
	}
	return &ev, nil
}

// ListPublished returns upcoming approved events, optionally narrowed by
// category and location.
func (c *Catalog) ListPublished(ctx context.Context, category, location string) ([]model.Event, error) {
	return c.events.List(ctx, store.EventFilter{
		Status:      model.EventApproved,
		Category:    category,
		Location:    location,
		StartsAfter: c.now(),
	})
}

// ListByOwner returns the caller's events; admins see everything.
func (c *Catalog) ListByOwner(ctx context.Context, caller model.Caller) ([]model.Event, error) {
	f := store.EventFilter{OwnerID: caller.ID}
	if caller.IsAdmin() {
		f.OwnerID = ""
	}
	return c.events.List(ctx, f)
}

// ListPending returns the moderation queue. Moderator only.
func (c *Catalog) ListPending(ctx context.Context, caller model.Caller) ([]model.Event, error) {
	if !caller.IsAdmin() {
		return nil, apperr.New(apperr.KindPermission, "only moderators can view the moderation queue")
	}
	return c.events.List(ctx, store.EventFilter{Status: model.EventPending})
}

func (c *Catalog) getOwned(ctx context.Context, caller model.Caller, eventID string) (model.Event, error) {
	ev, err := c.events.GetByID(ctx, eventID)
	if err != nil {
		return model.Event{}, c.translate(err, "", "get event")
	}
	if ev.OwnerID != caller.ID && !caller.IsAdmin() {
		return model.Event{}, apperr.New(apperr.KindPermission, "caller does not own this event")
	}
	return ev, nil
}

func (c *Catalog) translate(err error, state, op string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.New(apperr.KindNotFound, "event not found")
	case errors.Is(err, store.ErrConflict):
		return apperr.WithState(apperr.KindConflict, "event changed concurrently", state)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
