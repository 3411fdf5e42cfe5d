// Package audit captures the append-only trail of moderation and admission
// actions. Records are emitted from domain services and never rewritten, so
// the log stays usable for moderation review and post-event analysis.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the services.
const (
	ActionEventSubmitted = "event.submitted"
	ActionEventApproved  = "event.approved"
	ActionEventRejected  = "event.rejected"
	ActionRegistered     = "registration.created"
	ActionCancelled      = "registration.cancelled"
	ActionCheckedIn      = "registration.checked_in"
	ActionCheckedOut     = "registration.checked_out"
	ActionNoShowSweep    = "registration.no_show_sweep"
)

// Record is one append-only audit entry. Subject is the event or
// registration id the action applied to.
type Record struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists audit records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	ListBySubject(ctx context.Context, subject string) ([]Record, error)
}

// Recorder emits audit records. Failures are logged and swallowed: an audit
// write must never fail the admission or moderation action it describes.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder constructs a Recorder over the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record appends one entry. Safe to call on a nil Recorder.
func (r *Recorder) Record(ctx context.Context, actorID, action, subject, detail string) {
	if r == nil {
		return
	}
	rec := Record{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Action:    action,
		Subject:   subject,
		Detail:    detail,
		CreatedAt: r.now(),
	}
	if err := r.store.Append(ctx, rec); err != nil {
		log.Printf("audit append failed (action=%s subject=%s): %v", action, subject, err)
	}
}

// List returns the trail for one subject, oldest first.
func (r *Recorder) List(ctx context.Context, subject string) ([]Record, error) {
	return r.store.ListBySubject(ctx, subject)
}
