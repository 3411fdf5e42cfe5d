package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/gatherly/internal/model"
	"github.com/gatherly/gatherly/internal/store"
)

// FavoriteStore handles persistence for event bookmarks.
type FavoriteStore struct {
	db *pgxpool.Pool
}

// NewFavoriteStore constructs a FavoriteStore.
func NewFavoriteStore(db *pgxpool.Pool) *FavoriteStore {
	return &FavoriteStore{db: db}
}

func (s *FavoriteStore) Insert(ctx context.Context, fav model.Favorite) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO favorites (id, user_id, event_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		fav.ID, fav.UserID, fav.EventID, fav.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on (user_id, event_id).
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

func (s *FavoriteStore) Delete(ctx context.Context, userID, eventID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *FavoriteStore) ListByUser(ctx context.Context, userID string) ([]model.Favorite, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, event_id, created_at FROM favorites
		 WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var favs []model.Favorite
	for rows.Next() {
		var fav model.Favorite
		if err := rows.Scan(&fav.ID, &fav.UserID, &fav.EventID, &fav.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favs = append(favs, fav)
	}
	return favs, rows.Err()
}

func (s *FavoriteStore) Exists(ctx context.Context, userID, eventID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite exists: %w", err)
	}
	return exists, nil
}
