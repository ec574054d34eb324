package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssuesHandler manages citizen-facing issue endpoints.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issueService}
}

// SubmitIssue POST /issues.
func (h *IssuesHandler) SubmitIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	var req dto.SubmitIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.issues.SubmitIssue(c.Context(), service.SubmitIssueInput{
		ReporterID:  principal.Citizen.ID,
		Department:  req.Department,
		Title:       req.Title,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueSummary(issue)})
}

// ListIssues GET /issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	limit, offset := parsePagination(c)
	issues, err := h.issues.ListReporterIssues(c.Context(), principal.Citizen.ID, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		items = append(items, issueSummary(&issues[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetIssue GET /issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	detail, err := h.issues.GetIssue(c.Context(), c.Params("id"), principal.Citizen.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueDetail(detail.Issue, detail.Timeline)})
}

func parsePagination(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}

func parseInt(val string, fallback int) int {
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
