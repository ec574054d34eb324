package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// AuthorityIssuesHandler exposes the work queue for authority operators.
type AuthorityIssuesHandler struct {
	lifecycle *service.LifecycleService
	issues    *service.IssueService
}

// NewAuthorityIssuesHandler constructs handler.
func NewAuthorityIssuesHandler(lifecycle *service.LifecycleService, issues *service.IssueService) *AuthorityIssuesHandler {
	return &AuthorityIssuesHandler{lifecycle: lifecycle, issues: issues}
}

// ListIssues GET /authority/issues.
func (h *AuthorityIssuesHandler) ListIssues(c *fiber.Ctx) error {
	authorityID, err := requireAuthorityOperator(c)
	if err != nil {
		return err
	}
	var statuses []domain.IssueStatus
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			statuses = append(statuses, domain.IssueStatus(strings.TrimSpace(part)))
		}
	}
	limit, offset := parsePagination(c)
	issues, err := h.issues.ListAuthorityIssues(c.Context(), authorityID, statuses, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		items = append(items, issueSummary(&issues[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetIssue GET /authority/issues/:id.
func (h *AuthorityIssuesHandler) GetIssue(c *fiber.Ctx) error {
	authorityID, err := requireAuthorityOperator(c)
	if err != nil {
		return err
	}
	detail, err := h.issues.GetIssue(c.Context(), c.Params("id"), "")
	if err != nil {
		return err
	}
	if detail.Issue.AssignedAuthorityID == nil || *detail.Issue.AssignedAuthorityID != authorityID {
		return apperrors.NewForbidden("issue is not assigned to this authority")
	}
	return c.JSON(fiber.Map{"data": issueDetail(detail.Issue, detail.Timeline)})
}

// StartWork POST /authority/issues/:id/start.
func (h *AuthorityIssuesHandler) StartWork(c *fiber.Ctx) error {
	authorityID, err := requireAuthorityOperator(c)
	if err != nil {
		return err
	}
	principal, _ := auth.PrincipalFromContext(c)
	issue, err := h.lifecycle.StartWork(c.Context(), principal.Actor(), c.Params("id"), authorityID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// ResolveIssue POST /authority/issues/:id/resolve.
func (h *AuthorityIssuesHandler) ResolveIssue(c *fiber.Ctx) error {
	authorityID, err := requireAuthorityOperator(c)
	if err != nil {
		return err
	}
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.ResolveIssueRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.lifecycle.ResolveIssue(c.Context(), principal.Actor(), c.Params("id"), authorityID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

func requireAuthorityOperator(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Operator == nil {
		return "", apperrors.NewUnauthorized("operator required")
	}
	if principal.Operator.Role != domain.OperatorRoleAuthority || principal.Operator.AuthorityID == nil {
		return "", apperrors.NewForbidden("authority operator required")
	}
	return *principal.Operator.AuthorityID, nil
}
