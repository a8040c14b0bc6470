package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/talentline/apiserver/types"
)

// ResumeRepository handles persistence for resume metadata.
type ResumeRepository struct {
	db *sql.DB
}

func NewResumeRepository(db *sql.DB) *ResumeRepository {
	return &ResumeRepository{db: db}
}

func (r *ResumeRepository) Create(ctx context.Context, resume types.Resume) (types.Resume, error) {
	resume.UploadedAt = time.Now().UTC()

	const query = `
		INSERT INTO resumes (id, user_id, filename, object_key, file_size, content_type, is_primary, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		resume.ID,
		resume.UserID,
		resume.Filename,
		resume.ObjectKey,
		resume.FileSize,
		resume.ContentType,
		resume.IsPrimary,
		resume.UploadedAt,
	); err != nil {
		return types.Resume{}, mapWriteError(err)
	}
	return resume, nil
}

func (r *ResumeRepository) Get(ctx context.Context, id string) (types.Resume, error) {
	const query = `
		SELECT id, user_id, filename, object_key, file_size, content_type, is_primary, uploaded_at
		FROM resumes
		WHERE id = $1`
	resume, err := scanResume(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.Resume{}, mapReadError(err)
	}
	return resume, nil
}

func (r *ResumeRepository) ListByUser(ctx context.Context, userID string) ([]types.Resume, error) {
	const query = `
		SELECT id, user_id, filename, object_key, file_size, content_type, is_primary, uploaded_at
		FROM resumes
		WHERE user_id = $1
		ORDER BY uploaded_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resumes := []types.Resume{}
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, resume)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return resumes, nil
}

// SetPrimary makes id the only primary resume of userID.
func (r *ResumeRepository) SetPrimary(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE resumes SET is_primary = FALSE WHERE user_id = $1 AND is_primary`, userID); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `UPDATE resumes SET is_primary = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
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
	return tx.Commit()
}

func (r *ResumeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM resumes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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

func scanResume(row rowScanner) (types.Resume, error) {
	var resume types.Resume
	err := row.Scan(
		&resume.ID,
		&resume.UserID,
		&resume.Filename,
		&resume.ObjectKey,
		&resume.FileSize,
		&resume.ContentType,
		&resume.IsPrimary,
		&resume.UploadedAt,
	)
	return resume, err
}
