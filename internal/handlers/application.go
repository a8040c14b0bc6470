package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/talentline/apiserver/internal/services"
	"github.com/talentline/apiserver/types"
)

type ApplicationHandler struct {
	apps *services.ApplicationService
}

// ApplicationRouter registers application routes. Every route requires a
// signed-in user.
func ApplicationRouter(r chi.Router, apps *services.ApplicationService, requireAuth func(http.Handler) http.Handler) {
	handler := &ApplicationHandler{apps: apps}
	candidateOnly := RequireRole(types.RoleCandidate)

	r.Use(requireAuth)
	r.With(candidateOnly).Post("/", handler.Apply)
	r.With(candidateOnly).Get("/mine", handler.ListMine)
	r.Get("/{applicationID}", handler.Get)
	r.Patch("/{applicationID}", handler.UpdateStatus)
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req ApplicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	app, err := h.apps.Apply(r.Context(), user, services.ApplicationInput{
		JobID:           req.JobID,
		CoverLetter:     req.CoverLetter,
		ResumeURL:       req.ResumeURL,
		AdditionalNotes: req.AdditionalNotes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	apps, err := h.apps.Mine(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	app, err := h.apps.Get(r.Context(), user, chi.URLParam(r, "applicationID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req ApplicationUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	app, err := h.apps.UpdateStatus(r.Context(), user, chi.URLParam(r, "applicationID"), services.ApplicationPatch{
		Status: req.Status,
		Notes:  req.AdditionalNotes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

type ApplicationRequest struct {
	JobID           string `json:"job_id"`
	CoverLetter     string `json:"cover_letter"`
	ResumeURL       string `json:"resume_url"`
	AdditionalNotes string `json:"additional_notes"`
}

type ApplicationUpdateRequest struct {
	Status          *string `json:"status"`
	AdditionalNotes *string `json:"additional_notes"`
}
