package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/talentline/apiserver/internal/services"
)

type FavoriteHandler struct {
	favorites *services.FavoriteService
}

// FavoriteRouter registers saved-job routes for the signed-in user.
func FavoriteRouter(r chi.Router, favorites *services.FavoriteService, requireAuth func(http.Handler) http.Handler) {
	handler := &FavoriteHandler{favorites: favorites}

	r.Use(requireAuth)
	r.Get("/", handler.List)
	r.Post("/", handler.Add)
	r.Delete("/{jobID}", handler.Remove)
	r.Get("/check/{jobID}", handler.Check)
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	favs, err := h.favorites.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favs)
}

func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req FavoriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fav, err := h.favorites.Add(r.Context(), user.ID, req.JobID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	if err := h.favorites.Remove(r.Context(), user.ID, chi.URLParam(r, "jobID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Removed from favorites"})
}

func (h *FavoriteHandler) Check(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	ok, err := h.favorites.IsFavorite(r.Context(), user.ID, chi.URLParam(r, "jobID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": ok})
}

type FavoriteRequest struct {
	JobID string `json:"job_id"`
}
