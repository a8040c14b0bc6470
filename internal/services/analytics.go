package services

import (
	"context"

	"github.com/talentline/apiserver/types"
)

type AnalyticsStore interface {
	Jobs(ctx context.Context) (types.JobAnalytics, error)
	Applications(ctx context.Context) (types.ApplicationAnalytics, error)
	Users(ctx context.Context) (types.UserAnalytics, error)
}

// AnalyticsService exposes aggregate counts over the job board.
type AnalyticsService struct {
	store AnalyticsStore
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

func (s *AnalyticsService) Jobs(ctx context.Context) (types.JobAnalytics, error) {
	out, err := s.store.Jobs(ctx)
	if err != nil {
		return types.JobAnalytics{}, storeError(ctx, "analytics.jobs", err)
	}
	return out, nil
}

func (s *AnalyticsService) Applications(ctx context.Context) (types.ApplicationAnalytics, error) {
	out, err := s.store.Applications(ctx)
	if err != nil {
		return types.ApplicationAnalytics{}, storeError(ctx, "analytics.applications", err)
	}
	return out, nil
}

func (s *AnalyticsService) Users(ctx context.Context) (types.UserAnalytics, error) {
	out, err := s.store.Users(ctx)
	if err != nil {
		return types.UserAnalytics{}, storeError(ctx, "analytics.users", err)
	}
	return out, nil
}
