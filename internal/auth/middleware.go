package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	Citizen     *domain.Citizen
	Operator    *domain.Operator
	Role        *domain.OperatorRole
}

// Actor converts the principal to a timeline actor.
func (p *Principal) Actor() domain.Actor {
	switch p.SubjectType {
	case domain.SubjectTypeCitizen:
		return domain.Actor{Type: domain.SubjectTypeCitizen, ID: p.Citizen.ID}
	case domain.SubjectTypeOperator:
		return domain.Actor{Type: domain.SubjectTypeOperator, ID: p.Operator.ID}
	}
	return domain.SystemActor()
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens    *TokenManager
	citizens  repository.CitizenRepository
	operators repository.OperatorRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, citizens repository.CitizenRepository, operators repository.OperatorRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, citizens: citizens, operators: operators}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{SubjectType: claims.Subject, Role: claims.Role}

	switch claims.Subject {
	case domain.SubjectTypeCitizen:
		citizen, err := m.citizens.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewUnauthorized("citizen not found")
			}
			return apperrors.MapError(err)
		}
		if citizen.Status != domain.CitizenStatusActive {
			return apperrors.NewForbidden("account suspended")
		}
		principal.Citizen = citizen
	case domain.SubjectTypeOperator:
		operator, err := m.operators.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewUnauthorized("operator not found")
			}
			return apperrors.MapError(err)
		}
		if !operator.Active {
			return apperrors.NewForbidden("operator deactivated")
		}
		principal.Operator = operator
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
