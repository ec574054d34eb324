package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// RequireCitizen ensures a CITIZEN is authenticated.
func RequireCitizen() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeCitizen {
			return fiber.NewError(http.StatusForbidden, "citizen required")
		}
		return c.Next()
	}
}

// RequireOperatorRole ensures the operator principal has one of the allowed roles.
func RequireOperatorRole(allowed ...domain.OperatorRole) fiber.Handler {
	allowedSet := make(map[domain.OperatorRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeOperator || principal.Operator == nil {
			return fiber.NewError(http.StatusForbidden, "operator role required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Operator.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (citizen or operator).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
