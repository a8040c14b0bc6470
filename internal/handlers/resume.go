package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/talentline/apiserver/internal/logging"
	"github.com/talentline/apiserver/internal/services"
)

const (
	formFieldFile       = "file"
	maxMultipartMemory  = 8 << 20
	multipartOverhead   = 1 << 20
	defaultResumeMaxLen = 10 << 20
)

type ResumeHandler struct {
	resumes  *services.ResumeService
	maxBytes int64
}

// ResumeRouter registers resume routes for the signed-in user. Uploads
// larger than maxBytes are rejected before they reach storage.
func ResumeRouter(r chi.Router, resumes *services.ResumeService, maxBytes int64, requireAuth func(http.Handler) http.Handler) {
	if maxBytes <= 0 {
		maxBytes = defaultResumeMaxLen
	}
	handler := &ResumeHandler{resumes: resumes, maxBytes: maxBytes}

	r.Use(requireAuth)
	r.Get("/", handler.List)
	r.Post("/", handler.Upload)
	r.Route("/{resumeID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Get("/download", handler.Download)
		r.Put("/primary", handler.SetPrimary)
		r.Delete("/", handler.Delete)
	})
}

func (h *ResumeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "validation_error", "resume is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "validation_error", "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "file is required")
		return
	}
	defer file.Close()

	resume, err := h.resumes.Upload(r.Context(), user.ID, services.ResumeUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resume)
}

func (h *ResumeHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	resumes, err := h.resumes.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resumes)
}

func (h *ResumeHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	resume, err := h.resumes.Get(r.Context(), user.ID, chi.URLParam(r, "resumeID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resume)
}

func (h *ResumeHandler) Download(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	resume, body, err := h.resumes.Open(r.Context(), user.ID, chi.URLParam(r, "resumeID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", resume.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": resume.Filename}))
	if resume.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(resume.FileSize, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		logging.FromContext(r.Context()).Warn("resume download interrupted", "resume_id", resume.ID, "error", err)
	}
}

func (h *ResumeHandler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	resume, err := h.resumes.SetPrimary(r.Context(), user.ID, chi.URLParam(r, "resumeID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resume)
}

func (h *ResumeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	if err := h.resumes.Delete(r.Context(), user.ID, chi.URLParam(r, "resumeID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
