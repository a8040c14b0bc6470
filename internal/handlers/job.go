package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/talentline/apiserver/internal/services"
	"github.com/talentline/apiserver/types"
)

// JobHandler provides HTTP handlers for job postings.
type JobHandler struct {
	jobs *services.JobService
	apps *services.ApplicationService
}

func NewJobHandler(jobs *services.JobService, apps *services.ApplicationService) *JobHandler {
	return &JobHandler{jobs: jobs, apps: apps}
}

// JobRouter registers job routes on the given router.
func JobRouter(r chi.Router, jobs *services.JobService, apps *services.ApplicationService, requireAuth func(http.Handler) http.Handler) {
	handler := NewJobHandler(jobs, apps)
	employerOnly := RequireRole(types.RoleEmployer)

	r.Get("/", handler.ListJobs)
	r.With(requireAuth, employerOnly).Post("/", handler.CreateJob)
	r.With(requireAuth, employerOnly).Get("/mine", handler.ListMyJobs)
	r.Route("/{jobID}", func(r chi.Router) {
		r.Get("/", handler.GetJob)
		r.With(requireAuth, employerOnly).Put("/", handler.UpdateJob)
		r.With(requireAuth, employerOnly).Delete("/", handler.DeleteJob)
		r.With(requireAuth, employerOnly).Get("/applications", handler.ListJobApplications)
	})
}

func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	filter, err := parseJobFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	items, total, err := h.jobs.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[types.Job]{Items: items, Page: page, Limit: limit, Total: total})
}

func (h *JobHandler) ListMyJobs(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	items, total, err := h.jobs.ListMine(r.Context(), user, offset, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[types.Job]{Items: items, Page: page, Limit: limit, Total: total})
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req JobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := h.jobs.Create(r.Context(), user, services.JobInput{
		Title:               req.Title,
		Company:             req.Company,
		Location:            req.Location,
		Salary:              req.Salary,
		Description:         req.Description,
		Requirements:        req.Requirements,
		EmploymentType:      req.EmploymentType,
		Remote:              req.Remote,
		SkillsRequired:      req.SkillsRequired,
		Benefits:            req.Benefits,
		ApplicationDeadline: req.ApplicationDeadline,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (h *JobHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req JobUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := h.jobs.Update(r.Context(), user, chi.URLParam(r, "jobID"), services.JobPatch{
		Title:               req.Title,
		Company:             req.Company,
		Location:            req.Location,
		Salary:              req.Salary,
		Description:         req.Description,
		Requirements:        req.Requirements,
		EmploymentType:      req.EmploymentType,
		Remote:              req.Remote,
		Status:              req.Status,
		SkillsRequired:      req.SkillsRequired,
		Benefits:            req.Benefits,
		ApplicationDeadline: req.ApplicationDeadline,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	if err := h.jobs.Delete(r.Context(), user, chi.URLParam(r, "jobID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JobHandler) ListJobApplications(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	apps, err := h.apps.ForJob(r.Context(), user, chi.URLParam(r, "jobID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// JobRequest is the payload for creating a job.
type JobRequest struct {
	Title               string     `json:"title"`
	Company             string     `json:"company"`
	Location            string     `json:"location"`
	Salary              string     `json:"salary"`
	Description         string     `json:"description"`
	Requirements        string     `json:"requirements"`
	EmploymentType      string     `json:"employment_type"`
	Remote              bool       `json:"remote"`
	SkillsRequired      []string   `json:"skills_required"`
	Benefits            string     `json:"benefits"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
}

// JobUpdateRequest is the payload for updating a job. Omitted fields keep
// their current value.
type JobUpdateRequest struct {
	Title               *string    `json:"title"`
	Company             *string    `json:"company"`
	Location            *string    `json:"location"`
	Salary              *string    `json:"salary"`
	Description         *string    `json:"description"`
	Requirements        *string    `json:"requirements"`
	EmploymentType      *string    `json:"employment_type"`
	Remote              *bool      `json:"remote"`
	Status              *string    `json:"status"`
	SkillsRequired      []string   `json:"skills_required"`
	Benefits            *string    `json:"benefits"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
}

func parseJobFilter(r *http.Request) (types.JobFilter, error) {
	q := r.URL.Query()
	filter := types.JobFilter{
		Title:    q.Get("title"),
		Company:  q.Get("company"),
		Location: q.Get("location"),
		Skill:    q.Get("skill"),
		Status:   types.JobStatus(strings.ToLower(strings.TrimSpace(q.Get("status")))),
	}

	if raw := strings.TrimSpace(q.Get("employment_type")); raw != "" {
		et, ok := types.ParseEmploymentType(raw)
		if !ok {
			return types.JobFilter{}, errInvalidParam("employment_type")
		}
		filter.EmploymentType = et
	}
	if raw := strings.TrimSpace(q.Get("remote")); raw != "" {
		remote, err := strconv.ParseBool(raw)
		if err != nil {
			return types.JobFilter{}, errInvalidParam("remote")
		}
		filter.Remote = &remote
	}
	return filter, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string {
	return "invalid " + string(e)
}
