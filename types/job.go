package types

import (
	"strings"
	"time"
)

// EmploymentType is the kind of engagement a job offers.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "Full-time"
	EmploymentPartTime   EmploymentType = "Part-time"
	EmploymentContract   EmploymentType = "Contract"
	EmploymentFreelance  EmploymentType = "Freelance"
	EmploymentInternship EmploymentType = "Internship"
)

var employmentTypes = []EmploymentType{
	EmploymentFullTime,
	EmploymentPartTime,
	EmploymentContract,
	EmploymentFreelance,
	EmploymentInternship,
}

// ParseEmploymentType matches raw against the known employment types,
// ignoring case, spaces, dashes and underscores, so "full_time",
// "FULL TIME" and "Full-time" are all accepted.
func ParseEmploymentType(raw string) (EmploymentType, bool) {
	key := employmentKey(raw)
	if key == "" {
		return "", false
	}
	for _, et := range employmentTypes {
		if employmentKey(string(et)) == key {
			return et, true
		}
	}
	return "", false
}

func employmentKey(s string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

// JobStatus is the publication state of a job.
type JobStatus string

const (
	JobActive JobStatus = "active"
	JobClosed JobStatus = "closed"
	JobDraft  JobStatus = "draft"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobActive, JobClosed, JobDraft:
		return true
	}
	return false
}

// Job represents a posting created by an employer.
type Job struct {
	// ID is the unique identifier of the job (UUID string).
	ID string `json:"id" db:"id"`

	// Title is the position name.
	Title string `json:"title" db:"title"`

	// Company is the hiring organisation's display name.
	Company string `json:"company" db:"company"`

	// Location is a free-form place description.
	Location string `json:"location" db:"location"`

	// Salary is a free-form compensation description (e.g. "$120k-$140k").
	Salary string `json:"salary" db:"salary"`

	// Description is the full posting text.
	Description string `json:"description" db:"description"`

	Requirements   string         `json:"requirements,omitempty" db:"requirements"`
	EmploymentType EmploymentType `json:"employment_type" db:"employment_type"`
	Remote         bool           `json:"remote" db:"remote"`
	Status         JobStatus      `json:"status" db:"status"`

	// EmployerID references the user that owns the posting.
	EmployerID string `json:"employer_id" db:"employer_id"`

	// SkillsRequired is stored as a JSON array.
	SkillsRequired []string `json:"skills_required" db:"skills_required"`

	Benefits            string     `json:"benefits,omitempty" db:"benefits"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty" db:"application_deadline"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// JobFilter narrows a job listing. Zero values mean "no constraint".
type JobFilter struct {
	Title          string
	Company        string
	Location       string
	EmploymentType EmploymentType
	Remote         *bool
	Skill          string
	Status         JobStatus
	EmployerID     string
}
