// Package postgres implements the store contracts on PostgreSQL using pgx
// directly (no ORM). Every state transition is a single conditional UPDATE
// keyed on the expected current status, so optimistic-concurrency races are
// detected at the row, not in application code.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/gatherly/internal/model"
	"github.com/gatherly/gatherly/internal/store"
)

const eventColumns = `id, title, description, category, location, date_start, date_end,
	max_participants, status, COALESCE(rejection_reason, ''), owner_id, created_at, updated_at`

// EventStore handles persistence for events.
type EventStore struct {
	db *pgxpool.Pool
}

// NewEventStore constructs an EventStore.
func NewEventStore(db *pgxpool.Pool) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(row pgx.Row) (model.Event, error) {
	var ev model.Event
	err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Category, &ev.Location,
		&ev.DateStart, &ev.DateEnd, &ev.MaxParticipants, &ev.Status, &ev.RejectionReason,
		&ev.OwnerID, &ev.CreatedAt, &ev.UpdatedAt)
	return ev, err
}

func (s *EventStore) Insert(ctx context.Context, ev model.Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, title, description, category, location, date_start, date_end,
		 max_participants, status, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ev.ID, ev.Title, ev.Description, ev.Category, ev.Location, ev.DateStart, ev.DateEnd,
		ev.MaxParticipants, ev.Status, ev.OwnerID, ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *EventStore) GetByID(ctx context.Context, id string) (model.Event, error) {
	ev, err := scanEvent(s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, store.ErrNotFound
		}
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

func (s *EventStore) List(ctx context.Context, f store.EventFilter) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != "" {
		query += ` AND status = ` + arg(f.Status)
	}
	if f.Category != "" {
		query += ` AND LOWER(category) = LOWER(` + arg(f.Category) + `)`
	}
	if f.Location != "" {
		query += ` AND location ILIKE '%' || ` + arg(f.Location) + ` || '%'`
	}
	if f.OwnerID != "" {
		query += ` AND owner_id = ` + arg(f.OwnerID)
	}
	if !f.StartsAfter.IsZero() {
		query += ` AND date_start > ` + arg(f.StartsAfter)
	}
	query += ` ORDER BY date_start ASC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *EventStore) Update(ctx context.Context, ev model.Event, expect model.EventStatus) (model.Event, error) {
	updated, err := scanEvent(s.db.QueryRow(ctx,
		`UPDATE events
		 SET title = $1, description = $2, category = $3, location = $4,
		     date_start = $5, date_end = $6, max_participants = $7,
		     status = $8, rejection_reason = NULLIF($9, ''), updated_at = $10
		 WHERE id = $11 AND status = $12
		 RETURNING `+eventColumns,
		ev.Title, ev.Description, ev.Category, ev.Location, ev.DateStart, ev.DateEnd,
		ev.MaxParticipants, ev.Status, ev.RejectionReason, ev.UpdatedAt, ev.ID, expect,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, s.missOrConflict(ctx, ev.ID)
		}
		return model.Event{}, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

func (s *EventStore) UpdateStatus(ctx context.Context, id string, expect, next model.EventStatus, reason string, at time.Time) (model.Event, error) {
	ev, err := scanEvent(s.db.QueryRow(ctx,
		`UPDATE events
		 SET status = $1, rejection_reason = NULLIF($2, ''), updated_at = $3
		 WHERE id = $4 AND status = $5
		 RETURNING `+eventColumns,
		next, reason, at, id, expect,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, s.missOrConflict(ctx, id)
		}
		return model.Event{}, fmt.Errorf("update event status: %w", err)
	}
	return ev, nil
}

func (s *EventStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// missOrConflict distinguishes a missing row from a failed status guard.
func (s *EventStore) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check event exists: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrConflict
}
