package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/repository"
)

// MetricsService maintains authority performance counters. Updates are
// single-statement SQL increments so concurrent resolutions on the same
// authority never lose a count. When an update is missed, Rebuild
// re-derives everything from the issue table.
type MetricsService struct {
	authorities repository.AuthorityRepository
	logger      *zap.Logger
}

// NewMetricsService creates the service.
func NewMetricsService(authorities repository.AuthorityRepository, logger *zap.Logger) *MetricsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsService{authorities: authorities, logger: logger}
}

// OnAssigned records a new assignment against the authority.
func (s *MetricsService) OnAssigned(ctx context.Context, authorityID string) error {
	return s.authorities.IncrementAssigned(ctx, authorityID)
}

// OnResolved records a resolution and refreshes the average resolution
// time.
func (s *MetricsService) OnResolved(ctx context.Context, authorityID string) error {
	return s.authorities.RecordResolution(ctx, authorityID)
}

// Rebuild recomputes all counters for an authority from raw issues.
func (s *MetricsService) Rebuild(ctx context.Context, authorityID string) error {
	s.logger.Info("rebuilding authority metrics", zap.String("authority_id", authorityID))
	return s.authorities.RebuildMetrics(ctx, authorityID)
}
