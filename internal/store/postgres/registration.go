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

const registrationColumns = `id, event_id, user_id, user_name, user_email, status,
	registered_at, checked_in_at, checked_out_at, cancelled_at`

// RegistrationStore handles persistence for the registration ledger.
type RegistrationStore struct {
	db *pgxpool.Pool
}

// NewRegistrationStore constructs a RegistrationStore.
func NewRegistrationStore(db *pgxpool.Pool) *RegistrationStore {
	return &RegistrationStore{db: db}
}

func scanRegistration(row pgx.Row) (model.Registration, error) {
	var reg model.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.UserName, &reg.UserEmail,
		&reg.Status, &reg.RegisteredAt, &reg.CheckedInAt, &reg.CheckedOutAt, &reg.CancelledAt)
	return reg, err
}

// Insert performs the concurrency-safe registration inside a transaction.
//
// SELECT ... FOR UPDATE acquires a row-level lock on the event row, which
// serialises concurrent attempts against the same event: the duplicate check,
// the capacity count and the insert below all happen while the lock is held,
// so two goroutines racing for the last slot cannot both pass the count.
func (s *RegistrationStore) Insert(ctx context.Context, reg model.Registration, capacity int) (model.Registration, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return model.Registration{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked string
	err = tx.QueryRow(ctx,
		`SELECT id FROM events WHERE id = $1 FOR UPDATE`, reg.EventID,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Registration{}, store.ErrNotFound
		}
		return model.Registration{}, fmt.Errorf("lock event row: %w", err)
	}

	var dupCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE event_id = $1 AND user_id = $2 AND status <> $3`,
		reg.EventID, reg.UserID, model.StatusCancelled,
	).Scan(&dupCount)
	if err != nil {
		return model.Registration{}, fmt.Errorf("check duplicate: %w", err)
	}
	if dupCount > 0 {
		err = store.ErrDuplicate
		return model.Registration{}, err
	}

	var active int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status <> $2`,
		reg.EventID, model.StatusCancelled,
	).Scan(&active)
	if err != nil {
		return model.Registration{}, fmt.Errorf("count active registrations: %w", err)
	}
	if active >= capacity {
		err = store.ErrCapacity
		return model.Registration{}, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, event_id, user_id, user_name, user_email, status, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		reg.ID, reg.EventID, reg.UserID, reg.UserName, reg.UserEmail, reg.Status, reg.RegisteredAt,
	)
	if err != nil {
		return model.Registration{}, fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return model.Registration{}, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, nil
}

func (s *RegistrationStore) GetByID(ctx context.Context, id string) (model.Registration, error) {
	reg, err := scanRegistration(s.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Registration{}, store.ErrNotFound
		}
		return model.Registration{}, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (s *RegistrationStore) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	return s.list(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE event_id = $1 ORDER BY registered_at ASC`, eventID)
}

func (s *RegistrationStore) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	return s.list(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE user_id = $1 ORDER BY registered_at ASC`, userID)
}

func (s *RegistrationStore) list(ctx context.Context, query string, arg any) ([]model.Registration, error) {
	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (s *RegistrationStore) CountActive(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status <> $2`,
		eventID, model.StatusCancelled,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active registrations: %w", err)
	}
	return n, nil
}

// UpdateStatus applies the expected-state guard in one conditional UPDATE
// and stamps the timestamp column matching the new status. A row that is no
// longer in the expected status yields ErrConflict, never a silent write.
func (s *RegistrationStore) UpdateStatus(ctx context.Context, id string, expect, next model.RegistrationStatus, at time.Time) (model.Registration, error) {
	reg, err := scanRegistration(s.db.QueryRow(ctx,
		`UPDATE registrations
		 SET status = $1,
		     checked_in_at  = CASE WHEN $1 = 'CHECKED_IN'  THEN $2 ELSE checked_in_at  END,
		     checked_out_at = CASE WHEN $1 = 'CHECKED_OUT' THEN $2 ELSE checked_out_at END,
		     cancelled_at   = CASE WHEN $1 = 'CANCELLED'   THEN $2 ELSE cancelled_at   END
		 WHERE id = $3 AND status = $4
		 RETURNING `+registrationColumns,
		next, at, id, expect,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Registration{}, s.missOrConflict(ctx, id)
		}
		return model.Registration{}, fmt.Errorf("update registration status: %w", err)
	}
	return reg, nil
}

func (s *RegistrationStore) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check registration exists: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrConflict
}
