package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/talentline/apiserver/types"
)

// JobStore defines persistence operations for jobs.
type JobStore interface {
	List(ctx context.Context, filter types.JobFilter, offset, limit int) ([]types.Job, int, error)
	Get(ctx context.Context, id string) (types.Job, error)
	Create(ctx context.Context, job types.Job) (types.Job, error)
	Update(ctx context.Context, job types.Job) (types.Job, error)
	Delete(ctx context.Context, id string) error
}

// JobInput carries the fields of a new posting.
type JobInput struct {
	Title               string
	Company             string
	Location            string
	Salary              string
	Description         string
	Requirements        string
	EmploymentType      string
	Remote              bool
	SkillsRequired      []string
	Benefits            string
	ApplicationDeadline *time.Time
}

// JobPatch carries a partial update; nil fields are left unchanged.
type JobPatch struct {
	Title               *string
	Company             *string
	Location            *string
	Salary              *string
	Description         *string
	Requirements        *string
	EmploymentType      *string
	Remote              *bool
	Status              *string
	SkillsRequired      []string
	Benefits            *string
	ApplicationDeadline *time.Time
}

// JobService encapsulates job posting use-cases.
type JobService struct {
	jobs  JobStore
	newID func() string
}

func NewJobService(jobs JobStore) *JobService {
	return &JobService{jobs: jobs, newID: uuid.NewString}
}

// List returns a page of jobs. Only active jobs are listed unless the
// filter names a status.
func (s *JobService) List(ctx context.Context, filter types.JobFilter, offset, limit int) ([]types.Job, int, error) {
	if filter.Status == "" {
		filter.Status = types.JobActive
	} else if !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown job status %q", ErrValidation, filter.Status)
	}
	offset, limit = clampPage(offset, limit)
	jobs, total, err := s.jobs.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, storeError(ctx, "jobs.list", err)
	}
	return jobs, total, nil
}

// ListMine returns every posting owned by employer regardless of status.
func (s *JobService) ListMine(ctx context.Context, employer types.PublicUser, offset, limit int) ([]types.Job, int, error) {
	if employer.Role != types.RoleEmployer {
		return nil, 0, ErrForbidden
	}
	offset, limit = clampPage(offset, limit)
	jobs, total, err := s.jobs.List(ctx, types.JobFilter{EmployerID: employer.ID}, offset, limit)
	if err != nil {
		return nil, 0, storeError(ctx, "jobs.list_mine", err)
	}
	return jobs, total, nil
}

func (s *JobService) Get(ctx context.Context, id string) (types.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return types.Job{}, storeError(ctx, "jobs.get", err)
	}
	return job, nil
}

// Create publishes a new active posting owned by employer.
func (s *JobService) Create(ctx context.Context, employer types.PublicUser, in JobInput) (types.Job, error) {
	if employer.Role != types.RoleEmployer {
		return types.Job{}, ErrForbidden
	}

	employment := types.EmploymentFullTime
	if strings.TrimSpace(in.EmploymentType) != "" {
		parsed, ok := types.ParseEmploymentType(in.EmploymentType)
		if !ok {
			return types.Job{}, fmt.Errorf("%w: unknown employment type %q", ErrValidation, in.EmploymentType)
		}
		employment = parsed
	}

	job := types.Job{
		ID:                  s.newID(),
		Title:               strings.TrimSpace(in.Title),
		Company:             strings.TrimSpace(in.Company),
		Location:            strings.TrimSpace(in.Location),
		Salary:              strings.TrimSpace(in.Salary),
		Description:         strings.TrimSpace(in.Description),
		Requirements:        in.Requirements,
		EmploymentType:      employment,
		Remote:              in.Remote,
		Status:              types.JobActive,
		EmployerID:          employer.ID,
		SkillsRequired:      cleanSkills(in.SkillsRequired),
		Benefits:            in.Benefits,
		ApplicationDeadline: in.ApplicationDeadline,
	}
	if err := validateJob(job); err != nil {
		return types.Job{}, err
	}

	created, err := s.jobs.Create(ctx, job)
	if err != nil {
		return types.Job{}, storeError(ctx, "jobs.create", err)
	}
	return created, nil
}

// Update applies patch to a posting owned by employer.
func (s *JobService) Update(ctx context.Context, employer types.PublicUser, id string, patch JobPatch) (types.Job, error) {
	job, err := s.owned(ctx, employer, id)
	if err != nil {
		return types.Job{}, err
	}

	setString(&job.Title, patch.Title)
	setString(&job.Company, patch.Company)
	setString(&job.Location, patch.Location)
	setString(&job.Salary, patch.Salary)
	setString(&job.Description, patch.Description)
	if patch.Requirements != nil {
		job.Requirements = *patch.Requirements
	}
	if patch.Benefits != nil {
		job.Benefits = *patch.Benefits
	}
	if patch.EmploymentType != nil {
		parsed, ok := types.ParseEmploymentType(*patch.EmploymentType)
		if !ok {
			return types.Job{}, fmt.Errorf("%w: unknown employment type %q", ErrValidation, *patch.EmploymentType)
		}
		job.EmploymentType = parsed
	}
	if patch.Remote != nil {
		job.Remote = *patch.Remote
	}
	if patch.Status != nil {
		status := types.JobStatus(strings.ToLower(strings.TrimSpace(*patch.Status)))
		if !status.Valid() {
			return types.Job{}, fmt.Errorf("%w: unknown job status %q", ErrValidation, *patch.Status)
		}
		job.Status = status
	}
	if patch.SkillsRequired != nil {
		job.SkillsRequired = cleanSkills(patch.SkillsRequired)
	}
	if patch.ApplicationDeadline != nil {
		job.ApplicationDeadline = patch.ApplicationDeadline
	}
	if err := validateJob(job); err != nil {
		return types.Job{}, err
	}

	updated, err := s.jobs.Update(ctx, job)
	if err != nil {
		return types.Job{}, storeError(ctx, "jobs.update", err)
	}
	return updated, nil
}

func (s *JobService) Delete(ctx context.Context, employer types.PublicUser, id string) error {
	if _, err := s.owned(ctx, employer, id); err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		return storeError(ctx, "jobs.delete", err)
	}
	return nil
}

// owned loads a job and checks that employer posted it.
func (s *JobService) owned(ctx context.Context, employer types.PublicUser, id string) (types.Job, error) {
	if employer.Role != types.RoleEmployer {
		return types.Job{}, ErrForbidden
	}
	job, err := s.Get(ctx, id)
	if err != nil {
		return types.Job{}, err
	}
	if job.EmployerID != employer.ID {
		return types.Job{}, ErrForbidden
	}
	return job, nil
}

func validateJob(job types.Job) error {
	required := []struct {
		name, value string
	}{
		{"title", job.Title},
		{"company", job.Company},
		{"location", job.Location},
		{"salary", job.Salary},
		{"description", job.Description},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, f.name)
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill)
	}
	return out
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return offset, limit
}
