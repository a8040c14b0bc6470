package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/talentline/apiserver/types"
)

// FavoriteRepository handles persistence for saved jobs.
type FavoriteRepository struct {
	db *sql.DB
}

func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Add(ctx context.Context, fav types.Favorite) (types.Favorite, error) {
	fav.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO favorites (id, user_id, job_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, fav.ID, fav.UserID, fav.JobID, fav.CreatedAt); err != nil {
		return types.Favorite{}, mapWriteError(err)
	}
	return fav, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, jobID string) error {
	const query = `DELETE FROM favorites WHERE user_id = $1 AND job_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, jobID)
	if err != nil {
		return mapWriteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]types.Favorite, error) {
	const query = `
		SELECT id, user_id, job_id, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favorites := []types.Favorite{}
	for rows.Next() {
		var fav types.Favorite
		if err := rows.Scan(&fav.ID, &fav.UserID, &fav.JobID, &fav.CreatedAt); err != nil {
			return nil, err
		}
		favorites = append(favorites, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return favorites, nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, jobID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND job_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, jobID).Scan(&exists); err != nil {
		if errors.Is(mapReadError(err), ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}
