package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// AdminIssuesHandler exposes moderation and assignment endpoints.
type AdminIssuesHandler struct {
	lifecycle   *service.LifecycleService
	issues      *service.IssueService
	authorities *service.AuthorityService
}

// NewAdminIssuesHandler constructs handler.
func NewAdminIssuesHandler(lifecycle *service.LifecycleService, issues *service.IssueService, authorities *service.AuthorityService) *AdminIssuesHandler {
	return &AdminIssuesHandler{lifecycle: lifecycle, issues: issues, authorities: authorities}
}

// ListIssues GET /admin/issues.
func (h *AdminIssuesHandler) ListIssues(c *fiber.Ctx) error {
	filter := parseAdminIssueQuery(c)
	issues, err := h.issues.ListIssues(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		items = append(items, issueSummary(&issues[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetIssue GET /admin/issues/:id.
func (h *AdminIssuesHandler) GetIssue(c *fiber.Ctx) error {
	detail, err := h.issues.GetIssue(c.Context(), c.Params("id"), "")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueDetail(detail.Issue, detail.Timeline)})
}

// VerifyIssue POST /admin/issues/:id/verify.
func (h *AdminIssuesHandler) VerifyIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.VerifyIssueRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.lifecycle.VerifyIssue(c.Context(), principal.Actor(), c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	data := fiber.Map{"issue": issueSummary(result.Issue)}
	if result.Authority != nil {
		data["assigned_authority"] = authorityResponse(result.Authority)
		data["matched_level"] = result.MatchedLevel
	}
	return c.JSON(fiber.Map{"data": data})
}

// RejectIssue POST /admin/issues/:id/reject.
func (h *AdminIssuesHandler) RejectIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.RejectIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason required", nil)
	}

	issue, err := h.lifecycle.RejectIssue(c.Context(), principal.Actor(), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// AssignIssue POST /admin/issues/:id/assign.
func (h *AdminIssuesHandler) AssignIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.AssignIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AuthorityID == "" {
		return apperrors.NewValidationError("authority_id required", nil)
	}

	issue, err := h.lifecycle.AssignIssue(c.Context(), principal.Actor(), c.Params("id"), req.AuthorityID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// CloseIssue POST /admin/issues/:id/close.
func (h *AdminIssuesHandler) CloseIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.CloseIssueRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.lifecycle.CloseIssue(c.Context(), principal.Actor(), c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// FindAuthority GET /admin/authorities/find.
func (h *AdminIssuesHandler) FindAuthority(c *fiber.Ctx) error {
	department := domain.Department(c.Query("department"))
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		return apperrors.NewValidationError("lat and lng required", nil)
	}

	result, area, err := h.lifecycle.FindAuthority(c.Context(), department, lat, lng)
	if err != nil {
		return err
	}
	response := dto.FindAuthorityResponse{Area: adminAreaResponse(area)}
	if result != nil {
		response.Authority = authorityResponse(result.Authority)
		response.MatchedLevel = string(result.Level)
		response.CrossState = result.CrossState
	}
	return c.JSON(fiber.Map{"data": response})
}

// ListAuthorities GET /admin/authorities.
func (h *AdminIssuesHandler) ListAuthorities(c *fiber.Ctx) error {
	filter := repository.AuthorityFilter{}
	if department := c.Query("department"); department != "" {
		dep := domain.Department(department)
		filter.Department = &dep
	}
	if state := c.Query("state"); state != "" {
		filter.State = &state
	}
	if status := c.Query("status"); status != "" {
		st := domain.AuthorityStatus(status)
		filter.Status = &st
	}
	filter.Limit, filter.Offset = parsePagination(c)

	authorities, err := h.authorities.ListAuthorities(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]*dto.AuthorityResponse, 0, len(authorities))
	for i := range authorities {
		items = append(items, authorityResponse(&authorities[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// RebuildAuthorityMetrics POST /admin/authorities/:id/metrics/rebuild.
func (h *AdminIssuesHandler) RebuildAuthorityMetrics(c *fiber.Ctx) error {
	authority, err := h.authorities.RebuildMetrics(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authorityResponse(authority)})
}

func parseAdminIssueQuery(c *fiber.Ctx) repository.IssueFilter {
	filter := repository.IssueFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.IssueStatus(strings.TrimSpace(part)))
		}
	}
	if department := c.Query("department"); department != "" {
		dep := domain.Department(department)
		filter.Department = &dep
	}
	if state := c.Query("state"); state != "" {
		filter.State = &state
	}
	if from := parseQueryTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseQueryTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	filter.Limit, filter.Offset = parsePagination(c)
	return filter
}

func parseQueryTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &parsed
}
