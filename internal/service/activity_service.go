package service

import (
	"context"
	"net/url"

	"github.com/spec-kit/miniticker/internal/domain"
)

// ActivityService wraps the /api/activity endpoints.
type ActivityService struct {
	backend Backend
}

// ActivityDependencies encapsulates requirements for activity service.
type ActivityDependencies struct {
	Backend Backend
}

// NewActivityService builds the service.
func NewActivityService(deps ActivityDependencies) *ActivityService {
	return &ActivityService{backend: deps.Backend}
}

// Mine returns the feed of the signed-in user.
func (s *ActivityService) Mine(ctx context.Context) ([]domain.ActivityItem, error) {
	var env listEnvelope[domain.ActivityItem]
	if err := s.backend.Get(ctx, "/api/activity/mine", nil, &env); err != nil {
		return nil, err
	}
	return env.list(), nil
}

// Global returns the system wide feed, optionally narrowed to an area or a user.
func (s *ActivityService) Global(ctx context.Context, areaID, userID string) ([]domain.ActivityItem, error) {
	query := url.Values{}
	if areaID != "" {
		query.Set("areaId", areaID)
	}
	if userID != "" {
		query.Set("userId", userID)
	}
	var env listEnvelope[domain.ActivityItem]
	if err := s.backend.Get(ctx, "/api/activity/global", query, &env); err != nil {
		return nil, err
	}
	return env.list(), nil
}

// Stats returns the dashboard report of a period ("hoy", "esta-semana",
// "este-mes", ...), optionally for one area.
func (s *ActivityService) Stats(ctx context.Context, periodo, areaID string) (*domain.DashboardStats, error) {
	query := url.Values{"periodo": {periodo}}
	if areaID != "" {
		query.Set("areaId", areaID)
	}
	var stats domain.DashboardStats
	if err := s.backend.Get(ctx, "/api/activity/stats", query, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
