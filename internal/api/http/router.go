package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Accounts        *handlers.AccountsHandler
	Issues          *handlers.IssuesHandler
	AdminIssues     *handlers.AdminIssuesHandler
	AuthorityIssues *handlers.AuthorityIssuesHandler
	AuthMiddleware  *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/citizens/register", cfg.Accounts.RegisterCitizen)
	authGroup.Post("/citizens/login", cfg.Accounts.LoginCitizen)
	authGroup.Post("/operators/login", cfg.Accounts.LoginOperator)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle, auth.RequireCitizen())
	issues.Post("", cfg.Issues.SubmitIssue)
	issues.Get("", cfg.Issues.ListIssues)
	issues.Get("/:id", cfg.Issues.GetIssue)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireOperatorRole(domain.OperatorRoleAdmin))
	admin.Get("/issues", cfg.AdminIssues.ListIssues)
	admin.Get("/issues/:id", cfg.AdminIssues.GetIssue)
	admin.Post("/issues/:id/verify", cfg.AdminIssues.VerifyIssue)
	admin.Post("/issues/:id/reject", cfg.AdminIssues.RejectIssue)
	admin.Post("/issues/:id/assign", cfg.AdminIssues.AssignIssue)
	admin.Post("/issues/:id/close", cfg.AdminIssues.CloseIssue)
	admin.Get("/authorities", cfg.AdminIssues.ListAuthorities)
	admin.Get("/authorities/find", cfg.AdminIssues.FindAuthority)
	admin.Post("/authorities/:id/metrics/rebuild", cfg.AdminIssues.RebuildAuthorityMetrics)

	authority := app.Group("/authority", cfg.AuthMiddleware.Handle, auth.RequireOperatorRole(domain.OperatorRoleAuthority))
	authority.Get("/issues", cfg.AuthorityIssues.ListIssues)
	authority.Get("/issues/:id", cfg.AuthorityIssues.GetIssue)
	authority.Post("/issues/:id/start", cfg.AuthorityIssues.StartWork)
	authority.Post("/issues/:id/resolve", cfg.AuthorityIssues.ResolveIssue)
}
