package types

import "time"

// ApplicationStatus tracks a candidate's progress through hiring.
type ApplicationStatus string

const (
	ApplicationSubmitted          ApplicationStatus = "submitted"
	ApplicationUnderReview        ApplicationStatus = "under_review"
	ApplicationInterviewScheduled ApplicationStatus = "interview_scheduled"
	ApplicationInterviewed        ApplicationStatus = "interviewed"
	ApplicationAccepted           ApplicationStatus = "accepted"
	ApplicationRejected           ApplicationStatus = "rejected"
	ApplicationWithdrawn          ApplicationStatus = "withdrawn"
)

// ApplicationStatuses lists every status in workflow order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationSubmitted,
	ApplicationUnderReview,
	ApplicationInterviewScheduled,
	ApplicationInterviewed,
	ApplicationAccepted,
	ApplicationRejected,
	ApplicationWithdrawn,
}

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Application is a candidate's submission to a job.
type Application struct {
	// ID is the unique identifier of the application (UUID string).
	ID string `json:"id" db:"id"`

	// JobID references the job applied to.
	JobID string `json:"job_id" db:"job_id"`

	// CandidateID references the applying user.
	CandidateID string `json:"candidate_id" db:"candidate_id"`

	Status          ApplicationStatus `json:"status" db:"status"`
	CoverLetter     string            `json:"cover_letter,omitempty" db:"cover_letter"`
	ResumeURL       string            `json:"resume_url,omitempty" db:"resume_url"`
	AdditionalNotes string            `json:"additional_notes,omitempty" db:"additional_notes"`

	AppliedAt time.Time `json:"applied_at" db:"applied_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// JobTitle and CompanyName are joined from the job for convenience.
	JobTitle    string `json:"job_title,omitempty" db:"-"`
	CompanyName string `json:"company_name,omitempty" db:"-"`
}

// ApplicationEvent is published to the message queue whenever an
// application is created or changes status.
type ApplicationEvent struct {
	Type          string            `json:"type"`
	ApplicationID string            `json:"application_id"`
	JobID         string            `json:"job_id"`
	CandidateID   string            `json:"candidate_id"`
	Status        ApplicationStatus `json:"status"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

const (
	EventApplicationSubmitted     = "application.submitted"
	EventApplicationStatusChanged = "application.status_changed"
)
