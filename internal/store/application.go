package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/talentline/apiserver/types"
)

const applicationSelect = `
		SELECT a.id, a.job_id, a.candidate_id, a.status, a.cover_letter, a.resume_url,
			a.additional_notes, a.applied_at, a.updated_at, j.title, j.company
		FROM applications a
		JOIN jobs j ON j.id = a.job_id`

// ApplicationRepository handles persistence for job applications.
type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts an application. A second application by the same candidate
// to the same job yields ErrConflict.
func (r *ApplicationRepository) Create(ctx context.Context, app types.Application) (types.Application, error) {
	now := time.Now().UTC()
	app.AppliedAt = now
	app.UpdatedAt = now

	const query = `
		INSERT INTO applications (id, job_id, candidate_id, status, cover_letter, resume_url,
			additional_notes, applied_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		app.ID,
		app.JobID,
		app.CandidateID,
		app.Status,
		app.CoverLetter,
		app.ResumeURL,
		app.AdditionalNotes,
		app.AppliedAt,
		app.UpdatedAt,
	); err != nil {
		return types.Application{}, mapWriteError(err)
	}
	return app, nil
}

func (r *ApplicationRepository) Get(ctx context.Context, id string) (types.Application, error) {
	app, err := scanApplication(r.db.QueryRowContext(ctx, applicationSelect+` WHERE a.id = $1`, id))
	if err != nil {
		return types.Application{}, mapReadError(err)
	}
	return app, nil
}

func (r *ApplicationRepository) ListByCandidate(ctx context.Context, candidateID string) ([]types.Application, error) {
	return r.list(ctx, applicationSelect+` WHERE a.candidate_id = $1 ORDER BY a.applied_at DESC`, candidateID)
}

func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID string) ([]types.Application, error) {
	return r.list(ctx, applicationSelect+` WHERE a.job_id = $1 ORDER BY a.applied_at DESC`, jobID)
}

// UpdateStatus sets status and notes and returns the stored row.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status types.ApplicationStatus, notes string) (types.Application, error) {
	const query = `
		UPDATE applications
		SET status = $1,
			additional_notes = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, notes, time.Now().UTC(), id)
	if err != nil {
		return types.Application{}, mapWriteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Application{}, err
	}
	if affected == 0 {
		return types.Application{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *ApplicationRepository) list(ctx context.Context, query string, arg string) ([]types.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []types.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return apps, nil
}

func scanApplication(row rowScanner) (types.Application, error) {
	var app types.Application
	err := row.Scan(
		&app.ID,
		&app.JobID,
		&app.CandidateID,
		&app.Status,
		&app.CoverLetter,
		&app.ResumeURL,
		&app.AdditionalNotes,
		&app.AppliedAt,
		&app.UpdatedAt,
		&app.JobTitle,
		&app.CompanyName,
	)
	return app, err
}
