package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// AuthorityService exposes read access to the jurisdiction directory.
type AuthorityService struct {
	authorities repository.AuthorityRepository
	metrics     *MetricsService
}

// NewAuthorityService creates the service.
func NewAuthorityService(authorities repository.AuthorityRepository, metrics *MetricsService) *AuthorityService {
	return &AuthorityService{authorities: authorities, metrics: metrics}
}

// GetAuthority loads one directory entry.
func (s *AuthorityService) GetAuthority(ctx context.Context, id string) (*domain.Authority, error) {
	authority, err := s.authorities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("authority", map[string]any{"authority_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return authority, nil
}

// ListAuthorities returns directory entries matching the filter.
func (s *AuthorityService) ListAuthorities(ctx context.Context, filter repository.AuthorityFilter) ([]domain.Authority, error) {
	authorities, err := s.authorities.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return authorities, nil
}

// RebuildMetrics re-derives the authority's performance counters.
func (s *AuthorityService) RebuildMetrics(ctx context.Context, id string) (*domain.Authority, error) {
	if err := s.metrics.Rebuild(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("authority", map[string]any{"authority_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return s.GetAuthority(ctx, id)
}
