package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	citizens   repository.CitizenRepository
	operators  repository.OperatorRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	CitizenRepo  repository.CitizenRepository
	OperatorRepo repository.OperatorRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		citizens:   deps.CitizenRepo,
		operators:  deps.OperatorRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// RegisterCitizen creates a new reporter account.
func (s *AuthService) RegisterCitizen(ctx context.Context, name, email, password string) (*domain.Citizen, string, time.Time, error) {
	if _, err := s.citizens.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	citizen := &domain.Citizen{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.CitizenStatusActive,
	}
	if err := s.citizens.Create(ctx, citizen); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(citizen.ID, domain.SubjectTypeCitizen, nil)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return citizen, token, exp, nil
}

// LoginCitizen authenticates a reporter.
func (s *AuthService) LoginCitizen(ctx context.Context, email, password string) (*domain.Citizen, string, time.Time, error) {
	citizen, err := s.citizens.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(citizen.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(citizen.ID, domain.SubjectTypeCitizen, nil)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return citizen, token, exp, nil
}

// LoginOperator authenticates an admin or authority operator and returns
// a role-bearing token.
func (s *AuthService) LoginOperator(ctx context.Context, email, password string) (*domain.Operator, string, time.Time, error) {
	operator, err := s.operators.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !operator.Active {
		return nil, "", time.Time{}, apperrors.NewForbidden("operator deactivated")
	}
	if err := auth.ComparePassword(operator.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(operator.ID, domain.SubjectTypeOperator, &operator.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return operator, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
