// Package model defines the core domain types for the event attendance system.
package model

import "time"

// Role identifies the kind of caller supplied by the upstream auth layer.
type Role string

const (
	RoleUser       Role = "USER"
	RoleEventOwner Role = "EVENT_OWNER"
	RoleAdmin      Role = "ADMIN"
)

// Caller is the per-request identity handed to us by the auth layer.
// The core never verifies credentials itself.
type Caller struct {
	ID    string
	Role  Role
	Name  string
	Email string
}

// IsAdmin reports whether the caller holds the moderator role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// EventStatus is the moderation lifecycle state of an event.
type EventStatus string

const (
	EventDraft    EventStatus = "DRAFT"
	EventPending  EventStatus = "PENDING"
	EventApproved EventStatus = "APPROVED"
	EventRejected EventStatus = "REJECTED"
)

// Event represents an organizer-owned event with a finite capacity.
type Event struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	Location        string      `json:"location"`
	DateStart       time.Time   `json:"date_start"`
	DateEnd         time.Time   `json:"date_end"`
	MaxParticipants int         `json:"max_participants"`
	Status          EventStatus `json:"status"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	OwnerID         string      `json:"owner_id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OpenForRegistration reports whether registrations may be created:
// the event is approved and has not started yet.
func (e *Event) OpenForRegistration(now time.Time) bool {
	return e.Status == EventApproved && now.Before(e.DateStart)
}

// Ended reports whether the event is over.
func (e *Event) Ended(now time.Time) bool {
	return !now.Before(e.DateEnd)
}

// RegistrationStatus is the lifecycle state of an attendee's registration.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "REGISTERED"
	StatusCheckedIn  RegistrationStatus = "CHECKED_IN"
	StatusCheckedOut RegistrationStatus = "CHECKED_OUT"
	StatusCancelled  RegistrationStatus = "CANCELLED"
	StatusNoShow     RegistrationStatus = "NO_SHOW"
)

// Active reports whether the status counts against event capacity.
func (s RegistrationStatus) Active() bool {
	return s != StatusCancelled
}

// Terminal reports whether no further transitions are allowed.
func (s RegistrationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusNoShow || s == StatusCheckedOut
}

// Registration is the per-user, per-event ledger entry. It is mutated only
// through ledger and scan operations, never directly.
type Registration struct {
	ID           string             `json:"id"`
	EventID      string             `json:"event_id"`
	UserID       string             `json:"user_id"`
	UserName     string             `json:"user_name"`
	UserEmail    string             `json:"user_email"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
	CheckedInAt  *time.Time         `json:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time         `json:"checked_out_at,omitempty"`
	CancelledAt  *time.Time         `json:"cancelled_at,omitempty"`
}

// Cancellable reports whether a cancel is allowed from the current status.
func (r *Registration) Cancellable() bool {
	return r.Status == StatusRegistered || r.Status == StatusCheckedIn
}

// HistoryRecord is the audit/export shape of a registration: the full
// timestamp trail plus denormalized user display fields. It is a read-only
// projection rebuilt from the ledger on every query.
type HistoryRecord struct {
	ID           string             `json:"id"`
	EventID      string             `json:"event_id"`
	UserID       string             `json:"user_id"`
	UserName     string             `json:"user_name"`
	UserEmail    string             `json:"user_email"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
	CheckedInAt  *time.Time         `json:"checked_in_at"`
	CheckedOutAt *time.Time         `json:"checked_out_at"`
	CancelledAt  *time.Time         `json:"cancelled_at"`
}

// LivePresence summarises who is in the venue right now.
type LivePresence struct {
	TotalRegistered  int `json:"total_registered"`
	CurrentlyPresent int `json:"currently_present"`
	CheckedOut       int `json:"checked_out"`
	NotArrived       int `json:"not_arrived"`
}

// EventAnalytics is the per-event fill and attendance summary.
type EventAnalytics struct {
	EventID            string    `json:"event_id"`
	EventTitle         string    `json:"event_title"`
	DateStart          time.Time `json:"date_start"`
	DateEnd            time.Time `json:"date_end"`
	Location           string    `json:"location"`
	MaxParticipants    int       `json:"max_participants"`
	TotalRegistrations int       `json:"total_registrations"`
	CheckedInCount     int       `json:"checked_in_count"`
	CheckedOutCount    int       `json:"checked_out_count"`
	NoShowCount        int       `json:"no_show_count"`
	FillRate           float64   `json:"fill_rate"`
}

// Favorite is a user's bookmark on an event. Bookmarks carry no lifecycle:
// they exist or they don't, independent of registration state.
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteView is a favorite joined with its event for listing.
type FavoriteView struct {
	Favorite
	Event Event `json:"event"`
}

// DashboardEventStats is one event's row in the organizer dashboard.
type DashboardEventStats struct {
	EventID         string      `json:"event_id"`
	Title           string      `json:"title"`
	Status          EventStatus `json:"status"`
	Registrations   int         `json:"registrations"`
	MaxParticipants int         `json:"max_participants"`
	FillRate        float64     `json:"fill_rate"`
}

// OwnerDashboard aggregates an organizer's events with their attendance
// totals.
type OwnerDashboard struct {
	TotalEvents        int                   `json:"total_events"`
	TotalRegistrations int                   `json:"total_registrations"`
	TotalCheckedIn     int                   `json:"total_checked_in"`
	Events             []DashboardEventStats `json:"events"`
}

// GlobalAnalytics is the platform-wide roll-up served to moderators.
type GlobalAnalytics struct {
	TotalEvents           int                        `json:"total_events"`
	TotalRegistrations    int                        `json:"total_registrations"`
	EventsByStatus        map[EventStatus]int        `json:"events_by_status"`
	RegistrationsByStatus map[RegistrationStatus]int `json:"registrations_by_status"`
}

// CreateEventRequest is the payload for creating a draft event.
type CreateEventRequest struct {
	Title           string    `json:"title" validate:"required,max=200"`
	Description     string    `json:"description"`
	Category        string    `json:"category" validate:"required"`
	Location        string    `json:"location" validate:"required"`
	DateStart       time.Time `json:"date_start" validate:"required"`
	DateEnd         time.Time `json:"date_end" validate:"required"`
	MaxParticipants int       `json:"max_participants" validate:"required,gt=0"`
}

// UpdateEventRequest carries partial edits to a draft or rejected event.
type UpdateEventRequest struct {
	Title           *string    `json:"title" validate:"omitempty,max=200"`
	Description     *string    `json:"description"`
	Category        *string    `json:"category"`
	Location        *string    `json:"location"`
	DateStart       *time.Time `json:"date_start"`
	DateEnd         *time.Time `json:"date_end"`
	MaxParticipants *int       `json:"max_participants" validate:"omitempty,gt=0"`
}

// RejectEventRequest carries the moderator's rejection reason.
type RejectEventRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ScanRequest is the payload presented by a scanning client. Code is either
// a raw registration id or a signed ticket token decoded from a QR symbol.
type ScanRequest struct {
	Code    string `json:"code" validate:"required"`
	EventID string `json:"event_id"`
}

// TicketResponse wraps an issued ticket token.
type TicketResponse struct {
	RegistrationID string `json:"registration_id"`
	Token          string `json:"token"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	State string `json:"state,omitempty"`
}
