package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/geo"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssueService handles submission and read access for reported issues.
type IssueService struct {
	issues     repository.IssueRepository
	timeline   repository.TimelineRepository
	validator  AIValidator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IssueDependencies bundles collaborators for issue intake and reads.
type IssueDependencies struct {
	IssueRepo    repository.IssueRepository
	TimelineRepo repository.TimelineRepository
	Validator    AIValidator
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewIssueService creates the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		issues:     deps.IssueRepo,
		timeline:   deps.TimelineRepo,
		validator:  deps.Validator,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// SubmitIssueInput carries a citizen's report.
type SubmitIssueInput struct {
	ReporterID  string
	Department  domain.Department
	Title       string
	Description string
	Latitude    float64
	Longitude   float64
}

// SubmitIssue validates a report, attaches the advisory AI verdict and
// persists the issue as pending with its initial timeline entry.
func (s *IssueService) SubmitIssue(ctx context.Context, input SubmitIssueInput) (*domain.Issue, error) {
	if err := validateSubmission(input); err != nil {
		return nil, err
	}

	issue := &domain.Issue{
		ExternalKey: generateIssueKey(),
		ReporterID:  input.ReporterID,
		Department:  input.Department,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Location: domain.Location{
			Latitude:  input.Latitude,
			Longitude: input.Longitude,
		},
		Status: domain.IssueStatusPending,
	}

	// Advisory only. A validator outage must not block submission.
	review, err := s.validator.ValidateReport(ctx, issue.Department, issue.Title, issue.Description)
	if err != nil {
		s.logger.Warn("AI validation unavailable, submitting without verdict", zap.Error(err))
	} else {
		issue.AIReview = review
	}

	submitted := &domain.TimelineEntry{
		Action: domain.ActionSubmitted,
		Actor:  domain.Actor{Type: domain.SubjectTypeCitizen, ID: input.ReporterID},
		Notes:  "issue submitted",
	}
	if err := s.issues.Create(ctx, issue, submitted); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventIssueSubmitted,
		IssueID: issue.ID,
		Actor:   submitted.Actor,
		Payload: events.IssueSubmittedPayload{
			Department: issue.Department,
			Title:      issue.Title,
			Latitude:   issue.Location.Latitude,
			Longitude:  issue.Location.Longitude,
		},
	})
	return issue, nil
}

// IssueDetail couples an issue with its full audit trail.
type IssueDetail struct {
	Issue    *domain.Issue
	Timeline []domain.TimelineEntry
}

// GetIssue loads an issue and its timeline. When requesterID is
// non-empty the issue must belong to that reporter.
func (s *IssueService) GetIssue(ctx context.Context, issueID, requesterID string) (*IssueDetail, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	if requesterID != "" && issue.ReporterID != requesterID {
		return nil, apperrors.NewForbidden("issue belongs to another reporter")
	}

	timeline, err := s.timeline.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &IssueDetail{Issue: issue, Timeline: timeline}, nil
}

// ListIssues returns issues matching the filter.
func (s *IssueService) ListIssues(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	issues, err := s.issues.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// ListReporterIssues returns the citizen's own reports.
func (s *IssueService) ListReporterIssues(ctx context.Context, reporterID string, limit, offset int) ([]domain.Issue, error) {
	return s.ListIssues(ctx, repository.IssueFilter{
		ReporterID: &reporterID,
		Limit:      limit,
		Offset:     offset,
	})
}

// ListAuthorityIssues returns issues assigned to the given authority.
func (s *IssueService) ListAuthorityIssues(ctx context.Context, authorityID string, statuses []domain.IssueStatus, limit, offset int) ([]domain.Issue, error) {
	return s.ListIssues(ctx, repository.IssueFilter{
		AuthorityID: &authorityID,
		Statuses:    statuses,
		Limit:       limit,
		Offset:      offset,
	})
}

func (s *IssueService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}

func validateSubmission(input SubmitIssueInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.Title) == "" {
		details["title"] = "required"
	}
	if strings.TrimSpace(input.Description) == "" {
		details["description"] = "required"
	}
	if !domain.ValidDepartment(input.Department) {
		details["department"] = "unknown department"
	}
	if err := geo.ValidateCoordinates(input.Latitude, input.Longitude); err != nil {
		details["location"] = "coordinates out of range"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid issue submission", details)
	}
	return nil
}

func generateIssueKey() string {
	return "CIV-" + strings.ToUpper(uuid.NewString()[:8])
}
