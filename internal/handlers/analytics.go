package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/talentline/apiserver/internal/services"
)

// AnalyticsRouter registers the aggregate dashboards.
func AnalyticsRouter(r chi.Router, analytics *services.AnalyticsService, requireAuth func(http.Handler) http.Handler) {
	r.Use(requireAuth)

	r.Get("/jobs", func(w http.ResponseWriter, r *http.Request) {
		out, err := analytics.Jobs(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
	r.Get("/applications", func(w http.ResponseWriter, r *http.Request) {
		out, err := analytics.Applications(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
	r.Get("/users", func(w http.ResponseWriter, r *http.Request) {
		out, err := analytics.Users(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
}
