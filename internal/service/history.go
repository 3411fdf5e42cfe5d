package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherly/gatherly/internal/apperr"
	"github.com/gatherly/gatherly/internal/audit"
	"github.com/gatherly/gatherly/internal/model"
	"github.com/gatherly/gatherly/internal/store"
)

// History serves the read-only projections over the ledger: participant
// lists, the timestamp-trail history, and status aggregates. Every response
// is computed from a single store read per request, never from a cache, so
// it cannot serve state staler than the query itself.
type History struct {
	events store.EventStore
	regs   store.RegistrationStore
	trail  *audit.Recorder
}

// NewHistory constructs a History service. trail may be nil when no audit
// trail is kept.
func NewHistory(events store.EventStore, regs store.RegistrationStore, trail *audit.Recorder) *History {
	return &History{events: events, regs: regs, trail: trail}
}

// ListParticipants returns all registrations for the event, for the live
// organizer dashboard. Search and filtering happen client-side.
func (h *History) ListParticipants(ctx context.Context, caller model.Caller, eventID string) ([]model.Registration, error) {
	if _, err := h.authorize(ctx, caller, eventID); err != nil {
		return nil, err
	}
	regs, err := h.regs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return regs, nil
}

// ListHistory returns the full timestamp trail per registration, shaped for
// audit and export.
func (h *History) ListHistory(ctx context.Context, caller model.Caller, eventID string) ([]model.HistoryRecord, error) {
	regs, err := h.ListParticipants(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	records := make([]model.HistoryRecord, 0, len(regs))
	for _, reg := range regs {
		records = append(records, model.HistoryRecord{
			ID:           reg.ID,
			EventID:      reg.EventID,
			UserID:       reg.UserID,
			UserName:     reg.UserName,
			UserEmail:    reg.UserEmail,
			Status:       reg.Status,
			RegisteredAt: reg.RegisteredAt,
			CheckedInAt:  reg.CheckedInAt,
			CheckedOutAt: reg.CheckedOutAt,
			CancelledAt:  reg.CancelledAt,
		})
	}
	return records, nil
}

// CountByStatus aggregates registrations per status from one read, so the
// totals can never disagree with a participant list rendered alongside.
func (h *History) CountByStatus(ctx context.Context, caller model.Caller, eventID string) (map[model.RegistrationStatus]int, error) {
	regs, err := h.ListParticipants(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	return countByStatus(regs), nil
}

// LivePresence summarises the venue state for the organizer dashboard.
func (h *History) LivePresence(ctx context.Context, caller model.Caller, eventID string) (*model.LivePresence, error) {
	regs, err := h.ListParticipants(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	counts := countByStatus(regs)
	total := 0
	for status, n := range counts {
		if status.Active() {
			total += n
		}
	}
	present := counts[model.StatusCheckedIn]
	out := counts[model.StatusCheckedOut]
	return &model.LivePresence{
		TotalRegistered:  total,
		CurrentlyPresent: present,
		CheckedOut:       out,
		NotArrived:       total - present - out,
	}, nil
}

// Analytics computes the per-event fill and attendance summary.
func (h *History) Analytics(ctx context.Context, caller model.Caller, eventID string) (*model.EventAnalytics, error) {
	ev, err := h.authorize(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	regs, err := h.regs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	counts := countByStatus(regs)
	total := 0
	for status, n := range counts {
		if status.Active() {
			total += n
		}
	}
	fillRate := 0.0
	if ev.MaxParticipants > 0 {
		fillRate = float64(total) / float64(ev.MaxParticipants)
	}
	return &model.EventAnalytics{
		EventID:            ev.ID,
		EventTitle:         ev.Title,
		DateStart:          ev.DateStart,
		DateEnd:            ev.DateEnd,
		Location:           ev.Location,
		MaxParticipants:    ev.MaxParticipants,
		TotalRegistrations: total,
		CheckedInCount:     counts[model.StatusCheckedIn],
		CheckedOutCount:    counts[model.StatusCheckedOut],
		NoShowCount:        counts[model.StatusNoShow],
		FillRate:           fillRate,
	}, nil
}

// Dashboard aggregates fill and attendance across an organizer's events.
// Organizers see their own events; an admin may target another user's
// dashboard via userID, or pass an empty userID to cover every event.
func (h *History) Dashboard(ctx context.Context, caller model.Caller, userID string) (*model.OwnerDashboard, error) {
	filter := store.EventFilter{OwnerID: caller.ID}
	if caller.IsAdmin() {
		filter.OwnerID = userID
	} else if userID != "" && userID != caller.ID {
		return nil, apperr.New(apperr.KindPermission, "cannot view another organizer's dashboard")
	}
	events, err := h.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	dash := &model.OwnerDashboard{Events: make([]model.DashboardEventStats, 0, len(events))}
	for _, ev := range events {
		regs, err := h.regs.ListByEvent(ctx, ev.ID)
		if err != nil {
			return nil, fmt.Errorf("list registrations: %w", err)
		}
		counts := countByStatus(regs)
		active := 0
		for status, n := range counts {
			if status.Active() {
				active += n
			}
		}
		fillRate := 0.0
		if ev.MaxParticipants > 0 {
			fillRate = float64(active) / float64(ev.MaxParticipants)
		}
		dash.TotalEvents++
		dash.TotalRegistrations += active
		dash.TotalCheckedIn += counts[model.StatusCheckedIn] + counts[model.StatusCheckedOut]
		dash.Events = append(dash.Events, model.DashboardEventStats{
			EventID:         ev.ID,
			Title:           ev.Title,
			Status:          ev.Status,
			Registrations:   active,
			MaxParticipants: ev.MaxParticipants,
			FillRate:        fillRate,
		})
	}
	return dash, nil
}

// PlatformAnalytics totals events and registrations across the whole
// platform, broken down by status. Admin only.
func (h *History) PlatformAnalytics(ctx context.Context, caller model.Caller) (*model.GlobalAnalytics, error) {
	if !caller.IsAdmin() {
		return nil, apperr.New(apperr.KindPermission, "only moderators can view platform analytics")
	}
	events, err := h.events.List(ctx, store.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := &model.GlobalAnalytics{
		EventsByStatus:        make(map[model.EventStatus]int),
		RegistrationsByStatus: make(map[model.RegistrationStatus]int),
	}
	for _, ev := range events {
		out.TotalEvents++
		out.EventsByStatus[ev.Status]++
		regs, err := h.regs.ListByEvent(ctx, ev.ID)
		if err != nil {
			return nil, fmt.Errorf("list registrations: %w", err)
		}
		for _, reg := range regs {
			out.TotalRegistrations++
			out.RegistrationsByStatus[reg.Status]++
		}
	}
	return out, nil
}

// AuditTrail returns the moderation trail for one event, oldest first.
// Visible to the organizer and moderators, like the other projections.
func (h *History) AuditTrail(ctx context.Context, caller model.Caller, eventID string) ([]audit.Record, error) {
	if _, err := h.authorize(ctx, caller, eventID); err != nil {
		return nil, err
	}
	if h.trail == nil {
		return []audit.Record{}, nil
	}
	records, err := h.trail.List(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list audit trail: %w", err)
	}
	return records, nil
}

func (h *History) authorize(ctx context.Context, caller model.Caller, eventID string) (model.Event, error) {
	ev, err := h.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Event{}, apperr.New(apperr.KindNotFound, "event not found")
		}
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	if ev.OwnerID != caller.ID && !caller.IsAdmin() {
		return model.Event{}, apperr.New(apperr.KindPermission, "only the organizer can view participants")
	}
	return ev, nil
}

func countByStatus(regs []model.Registration) map[model.RegistrationStatus]int {
	counts := make(map[model.RegistrationStatus]int)
	for _, reg := range regs {
		counts[reg.Status]++
	}
	return counts
}
