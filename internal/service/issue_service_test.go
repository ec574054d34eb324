package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

type fakeTimelineRepo struct {
	issues *fakeIssueRepo
}

func (r *fakeTimelineRepo) ListByIssue(_ context.Context, issueID string) ([]domain.TimelineEntry, error) {
	return r.issues.timeline[issueID], nil
}

type fakeValidator struct {
	review *domain.AIReview
	err    error
}

func (v *fakeValidator) ValidateReport(_ context.Context, _ domain.Department, _, _ string) (*domain.AIReview, error) {
	return v.review, v.err
}

func newTestIssueService(issues *fakeIssueRepo, validator AIValidator) *IssueService {
	return NewIssueService(IssueDependencies{
		IssueRepo:    issues,
		TimelineRepo: &fakeTimelineRepo{issues: issues},
		Validator:    validator,
		Logger:       zap.NewNop(),
	})
}

func validSubmission() SubmitIssueInput {
	return SubmitIssueInput{
		ReporterID:  "citizen-1",
		Department:  domain.DepartmentWaterSupply,
		Title:       "Broken water pipe",
		Description: "Water leaking onto the street for two days",
		Latitude:    17.38,
		Longitude:   78.48,
	}
}

func TestSubmitIssueCreatesPendingWithAudit(t *testing.T) {
	issues := newFakeIssueRepo()
	svc := newTestIssueService(issues, &fakeValidator{review: &domain.AIReview{Valid: true, Category: "water_supply", Confidence: 0.9}})

	issue, err := svc.SubmitIssue(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.Equal(t, domain.IssueStatusPending, issue.Status)
	assert.True(t, strings.HasPrefix(issue.ExternalKey, "CIV-"))
	require.NotNil(t, issue.AIReview)
	assert.InDelta(t, 0.9, issue.AIReview.Confidence, 0.001)

	timeline := issues.timeline[issue.ID]
	require.Len(t, timeline, 1)
	assert.Equal(t, domain.ActionSubmitted, timeline[0].Action)
	assert.Equal(t, domain.SubjectTypeCitizen, timeline[0].Actor.Type)
	assert.Equal(t, "citizen-1", timeline[0].Actor.ID)
}

func TestSubmitIssueToleratesValidatorOutage(t *testing.T) {
	issues := newFakeIssueRepo()
	svc := newTestIssueService(issues, &fakeValidator{err: errors.New("model unavailable")})

	issue, err := svc.SubmitIssue(context.Background(), validSubmission())
	require.NoError(t, err, "validator outage must not block submission")
	assert.Nil(t, issue.AIReview)
	assert.Equal(t, domain.IssueStatusPending, issue.Status)
}

func TestSubmitIssueValidation(t *testing.T) {
	svc := newTestIssueService(newFakeIssueRepo(), &fakeValidator{})

	input := validSubmission()
	input.Title = "  "
	input.Department = "plumbing"
	input.Latitude = 95

	_, err := svc.SubmitIssue(context.Background(), input)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	domainErr := apperrors.ToDomainError(err)
	assert.Contains(t, domainErr.Details, "title")
	assert.Contains(t, domainErr.Details, "department")
	assert.Contains(t, domainErr.Details, "location")
}

func TestGetIssueEnforcesOwnership(t *testing.T) {
	issues := newFakeIssueRepo()
	issues.seed(pendingIssue("issue-1"))
	svc := newTestIssueService(issues, &fakeValidator{})

	detail, err := svc.GetIssue(context.Background(), "issue-1", "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, "issue-1", detail.Issue.ID)
	require.Len(t, detail.Timeline, 1)

	_, err = svc.GetIssue(context.Background(), "issue-1", "citizen-2")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestGetIssueNotFound(t *testing.T) {
	svc := newTestIssueService(newFakeIssueRepo(), &fakeValidator{})

	_, err := svc.GetIssue(context.Background(), "missing", "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
