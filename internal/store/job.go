package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/talentline/apiserver/types"
)

const jobColumns = `id, title, company, location, salary, description, requirements, employment_type,
		remote, status, employer_id, skills_required, benefits, application_deadline, created_at, updated_at`

// JobRepository handles persistence for job postings.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// List returns a page of jobs matching filter, newest first, and the total
// number of matches.
func (r *JobRepository) List(ctx context.Context, filter types.JobFilter, offset, limit int) ([]types.Job, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	where, args := jobWhere(filter)

	countQuery := `SELECT COUNT(1) FROM jobs` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM jobs%s ORDER BY created_at DESC, id OFFSET $%d LIMIT $%d`,
		jobColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := make([]types.Job, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (types.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.Job{}, mapReadError(err)
	}
	return job, nil
}

func (r *JobRepository) Create(ctx context.Context, job types.Job) (types.Job, error) {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.SkillsRequired == nil {
		job.SkillsRequired = []string{}
	}

	skillsJSON, err := json.Marshal(job.SkillsRequired)
	if err != nil {
		return types.Job{}, err
	}

	const query = `
		INSERT INTO jobs (id, title, company, location, salary, description, requirements,
			employment_type, remote, status, employer_id, skills_required, benefits,
			application_deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.Title,
		job.Company,
		job.Location,
		job.Salary,
		job.Description,
		job.Requirements,
		job.EmploymentType,
		job.Remote,
		job.Status,
		job.EmployerID,
		skillsJSON,
		job.Benefits,
		job.ApplicationDeadline,
		job.CreatedAt,
		job.UpdatedAt,
	); err != nil {
		return types.Job{}, mapWriteError(err)
	}
	return job, nil
}

func (r *JobRepository) Update(ctx context.Context, job types.Job) (types.Job, error) {
	job.UpdatedAt = time.Now().UTC()
	if job.SkillsRequired == nil {
		job.SkillsRequired = []string{}
	}

	skillsJSON, err := json.Marshal(job.SkillsRequired)
	if err != nil {
		return types.Job{}, err
	}

	const query = `
		UPDATE jobs
		SET title = $1,
			company = $2,
			location = $3,
			salary = $4,
			description = $5,
			requirements = $6,
			employment_type = $7,
			remote = $8,
			status = $9,
			skills_required = $10,
			benefits = $11,
			application_deadline = $12,
			updated_at = $13
		WHERE id = $14`
	result, err := r.db.ExecContext(
		ctx,
		query,
		job.Title,
		job.Company,
		job.Location,
		job.Salary,
		job.Description,
		job.Requirements,
		job.EmploymentType,
		job.Remote,
		job.Status,
		skillsJSON,
		job.Benefits,
		job.ApplicationDeadline,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return types.Job{}, mapWriteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Job{}, err
	}
	if affected == 0 {
		return types.Job{}, ErrNotFound
	}
	return job, nil
}

func (r *JobRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM jobs WHERE id = $1`
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

// jobWhere renders filter as a WHERE clause with positional arguments.
func jobWhere(filter types.JobFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if v := strings.TrimSpace(filter.Title); v != "" {
		add("title ILIKE $%d", "%"+escapeLike(v)+"%")
	}
	if v := strings.TrimSpace(filter.Company); v != "" {
		add("company ILIKE $%d", "%"+escapeLike(v)+"%")
	}
	if v := strings.TrimSpace(filter.Location); v != "" {
		add("location ILIKE $%d", "%"+escapeLike(v)+"%")
	}
	if filter.EmploymentType != "" {
		add("employment_type = $%d", string(filter.EmploymentType))
	}
	if filter.Remote != nil {
		add("remote = $%d", *filter.Remote)
	}
	if v := strings.TrimSpace(filter.Skill); v != "" {
		add("EXISTS (SELECT 1 FROM jsonb_array_elements_text(skills_required) s WHERE s ILIKE $%d)", escapeLike(v))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.EmployerID != "" {
		add("employer_id = $%d", filter.EmployerID)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (types.Job, error) {
	var (
		job        types.Job
		skillsJSON []byte
		deadline   sql.NullTime
	)
	if err := row.Scan(
		&job.ID,
		&job.Title,
		&job.Company,
		&job.Location,
		&job.Salary,
		&job.Description,
		&job.Requirements,
		&job.EmploymentType,
		&job.Remote,
		&job.Status,
		&job.EmployerID,
		&skillsJSON,
		&job.Benefits,
		&deadline,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return types.Job{}, err
	}

	_ = json.Unmarshal(skillsJSON, &job.SkillsRequired)
	if job.SkillsRequired == nil {
		job.SkillsRequired = []string{}
	}
	if deadline.Valid {
		t := deadline.Time
		job.ApplicationDeadline = &t
	}
	return job, nil
}
