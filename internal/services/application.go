package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/talentline/apiserver/internal/logging"
	"github.com/talentline/apiserver/types"
)

// ApplicationStore defines persistence operations for applications.
// Create returns store.ErrConflict when the candidate already applied.
type ApplicationStore interface {
	Create(ctx context.Context, app types.Application) (types.Application, error)
	Get(ctx context.Context, id string) (types.Application, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]types.Application, error)
	ListByJob(ctx context.Context, jobID string) ([]types.Application, error)
	UpdateStatus(ctx context.Context, id string, status types.ApplicationStatus, notes string) (types.Application, error)
}

// EventPublisher delivers application events to a message queue.
// *mq.MQ satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

type ApplicationInput struct {
	JobID           string
	CoverLetter     string
	ResumeURL       string
	AdditionalNotes string
}

// ApplicationPatch changes an application's status and/or notes.
type ApplicationPatch struct {
	Status *string
	Notes  *string
}

// ApplicationService encapsulates the candidate application workflow.
type ApplicationService struct {
	apps      ApplicationStore
	jobs      JobStore
	publisher EventPublisher
	channel   string
	newID     func() string
	now       func() time.Time
}

// NewApplicationService builds the service. publisher may be nil, in which
// case no events are emitted.
func NewApplicationService(apps ApplicationStore, jobs JobStore, publisher EventPublisher, channel string) *ApplicationService {
	return &ApplicationService{
		apps:      apps,
		jobs:      jobs,
		publisher: publisher,
		channel:   channel,
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Apply submits candidate's application to an active job.
func (s *ApplicationService) Apply(ctx context.Context, candidate types.PublicUser, in ApplicationInput) (types.Application, error) {
	if candidate.Role != types.RoleCandidate {
		return types.Application{}, ErrForbidden
	}
	jobID := strings.TrimSpace(in.JobID)
	if jobID == "" {
		return types.Application{}, fmt.Errorf("%w: job_id is required", ErrValidation)
	}

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return types.Application{}, storeError(ctx, "applications.job", err)
	}
	if job.Status != types.JobActive {
		return types.Application{}, fmt.Errorf("%w: job is not accepting applications", ErrValidation)
	}
	if job.ApplicationDeadline != nil && s.now().After(*job.ApplicationDeadline) {
		return types.Application{}, fmt.Errorf("%w: application deadline has passed", ErrValidation)
	}

	now := s.now()
	app := types.Application{
		ID:              s.newID(),
		JobID:           job.ID,
		CandidateID:     candidate.ID,
		Status:          types.ApplicationSubmitted,
		CoverLetter:     in.CoverLetter,
		ResumeURL:       in.ResumeURL,
		AdditionalNotes: in.AdditionalNotes,
		AppliedAt:       now,
		UpdatedAt:       now,
	}
	created, err := s.apps.Create(ctx, app)
	if err != nil {
		return types.Application{}, storeError(ctx, "applications.create", err)
	}
	created.JobTitle = job.Title
	created.CompanyName = job.Company

	s.publish(ctx, types.EventApplicationSubmitted, created)
	return created, nil
}

// Mine lists the candidate's own applications.
func (s *ApplicationService) Mine(ctx context.Context, candidate types.PublicUser) ([]types.Application, error) {
	if candidate.Role != types.RoleCandidate {
		return nil, ErrForbidden
	}
	apps, err := s.apps.ListByCandidate(ctx, candidate.ID)
	if err != nil {
		return nil, storeError(ctx, "applications.mine", err)
	}
	return apps, nil
}

// ForJob lists applications to a job; only the employer who posted it may.
func (s *ApplicationService) ForJob(ctx context.Context, employer types.PublicUser, jobID string) ([]types.Application, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, storeError(ctx, "applications.job", err)
	}
	if employer.Role != types.RoleEmployer || job.EmployerID != employer.ID {
		return nil, ErrForbidden
	}
	apps, err := s.apps.ListByJob(ctx, jobID)
	if err != nil {
		return nil, storeError(ctx, "applications.for_job", err)
	}
	return apps, nil
}

// Get returns an application to its applicant or to the job's employer.
func (s *ApplicationService) Get(ctx context.Context, user types.PublicUser, id string) (types.Application, error) {
	app, _, err := s.load(ctx, user, id)
	return app, err
}

// UpdateStatus moves an application through the workflow. The owning
// employer may set any status and notes; the applicant may only withdraw.
func (s *ApplicationService) UpdateStatus(ctx context.Context, user types.PublicUser, id string, patch ApplicationPatch) (types.Application, error) {
	app, isOwner, err := s.load(ctx, user, id)
	if err != nil {
		return types.Application{}, err
	}

	status := app.Status
	if patch.Status != nil {
		status = types.ApplicationStatus(strings.ToLower(strings.TrimSpace(*patch.Status)))
		if !status.Valid() {
			return types.Application{}, fmt.Errorf("%w: unknown application status %q", ErrValidation, *patch.Status)
		}
	}
	notes := app.AdditionalNotes
	if patch.Notes != nil {
		notes = *patch.Notes
	}

	if !isOwner {
		if patch.Notes != nil || status != types.ApplicationWithdrawn {
			return types.Application{}, ErrForbidden
		}
	}

	updated, err := s.apps.UpdateStatus(ctx, id, status, notes)
	if err != nil {
		return types.Application{}, storeError(ctx, "applications.update", err)
	}
	if updated.Status != app.Status {
		s.publish(ctx, types.EventApplicationStatusChanged, updated)
	}
	return updated, nil
}

// load fetches an application and reports whether user owns its job.
// Users who are neither applicant nor job owner get ErrForbidden.
func (s *ApplicationService) load(ctx context.Context, user types.PublicUser, id string) (types.Application, bool, error) {
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return types.Application{}, false, storeError(ctx, "applications.get", err)
	}
	if app.CandidateID == user.ID {
		return app, false, nil
	}
	if user.Role == types.RoleEmployer {
		job, err := s.jobs.Get(ctx, app.JobID)
		if err != nil {
			return types.Application{}, false, storeError(ctx, "applications.job", err)
		}
		if job.EmployerID == user.ID {
			return app, true, nil
		}
	}
	return types.Application{}, false, ErrForbidden
}

// publish emits an application event. Delivery failures are logged only;
// the application change has already been committed.
func (s *ApplicationService) publish(ctx context.Context, eventType string, app types.Application) {
	if s.publisher == nil {
		return
	}
	logger := logging.FromContext(ctx)

	event := types.ApplicationEvent{
		Type:          eventType,
		ApplicationID: app.ID,
		JobID:         app.JobID,
		CandidateID:   app.CandidateID,
		Status:        app.Status,
		OccurredAt:    s.now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to encode application event", "type", eventType, "error", err)
		return
	}
	id, err := s.publisher.Publish(ctx, s.channel, data, map[string]string{"type": eventType})
	if err != nil {
		logger.Error("failed to publish application event", "type", eventType, "application_id", app.ID, "error", err)
		return
	}
	logger.Debug("application event published", "type", eventType, "message_id", id)
}
