package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/talentline/apiserver/types"
)

// FavoriteStore defines persistence operations for saved jobs.
type FavoriteStore interface {
	Add(ctx context.Context, fav types.Favorite) (types.Favorite, error)
	Remove(ctx context.Context, userID, jobID string) error
	ListByUser(ctx context.Context, userID string) ([]types.Favorite, error)
	Exists(ctx context.Context, userID, jobID string) (bool, error)
}

// FavoriteService manages the jobs a user has saved.
type FavoriteService struct {
	favorites FavoriteStore
	jobs      JobStore
	newID     func() string
	now       func() time.Time
}

func NewFavoriteService(favorites FavoriteStore, jobs JobStore) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		jobs:      jobs,
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Add saves jobID for userID. Saving the same job twice is ErrConflict.
func (s *FavoriteService) Add(ctx context.Context, userID, jobID string) (types.Favorite, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return types.Favorite{}, fmt.Errorf("%w: job_id is required", ErrValidation)
	}
	if _, err := s.jobs.Get(ctx, jobID); err != nil {
		return types.Favorite{}, storeError(ctx, "favorites.job", err)
	}

	fav, err := s.favorites.Add(ctx, types.Favorite{
		ID:        s.newID(),
		UserID:    userID,
		JobID:     jobID,
		CreatedAt: s.now(),
	})
	if err != nil {
		return types.Favorite{}, storeError(ctx, "favorites.add", err)
	}
	return fav, nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, jobID string) error {
	if err := s.favorites.Remove(ctx, userID, jobID); err != nil {
		return storeError(ctx, "favorites.remove", err)
	}
	return nil
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]types.Favorite, error) {
	favs, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError(ctx, "favorites.list", err)
	}
	return favs, nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID, jobID string) (bool, error) {
	ok, err := s.favorites.Exists(ctx, userID, jobID)
	if err != nil {
		return false, storeError(ctx, "favorites.exists", err)
	}
	return ok, nil
}
