package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/assignment"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// LocationResolver maps coordinates to an administrative area.
type LocationResolver interface {
	Resolve(ctx context.Context, lat, lng float64) (*domain.AdminArea, error)
}

// LifecycleService applies issue state-machine transitions. Every
// transition appends exactly one timeline entry; illegal transitions
// abort with zero mutation.
type LifecycleService struct {
	issues      repository.IssueRepository
	authorities repository.AuthorityRepository
	locations   LocationResolver
	resolver    *assignment.Resolver
	metrics     *MetricsService
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// LifecycleDependencies bundles collaborators for the lifecycle engine.
type LifecycleDependencies struct {
	IssueRepo     repository.IssueRepository
	AuthorityRepo repository.AuthorityRepository
	Locations     LocationResolver
	Resolver      *assignment.Resolver
	Metrics       *MetricsService
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewLifecycleService creates the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		issues:      deps.IssueRepo,
		authorities: deps.AuthorityRepo,
		locations:   deps.Locations,
		resolver:    deps.Resolver,
		metrics:     deps.Metrics,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

var allowedTransitions = map[domain.IssueStatus][]domain.IssueStatus{
	domain.IssueStatusPending:    {domain.IssueStatusVerified, domain.IssueStatusRejected},
	domain.IssueStatusVerified:   {domain.IssueStatusAssigned},
	domain.IssueStatusAssigned:   {domain.IssueStatusInProgress},
	domain.IssueStatusInProgress: {domain.IssueStatusResolved},
	domain.IssueStatusResolved:   {domain.IssueStatusClosed},
	domain.IssueStatusRejected:   {},
	domain.IssueStatusClosed:     {},
}

func isValidTransition(current, next domain.IssueStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// VerifyResult is the outcome of the verify operation.
type VerifyResult struct {
	Issue        *domain.Issue
	Authority    *domain.Authority
	MatchedLevel string
}

// VerifyIssue moves a pending issue to verified and attempts
// auto-assignment in the same call. An unresolved location or an empty
// cascade is a success path: the issue stays verified, flagged for
// manual assignment.
func (s *LifecycleService) VerifyIssue(ctx context.Context, actor domain.Actor, issueID, notes string) (*VerifyResult, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTransition(issue, domain.IssueStatusVerified); err != nil {
		return nil, err
	}

	area := issue.Location.Area
	locationNote := ""
	if area == nil {
		area, err = s.locations.Resolve(ctx, issue.Location.Latitude, issue.Location.Longitude)
		switch {
		case err == nil:
			issue.Location.Area = area
		case apperrors.HasCode(err, apperrors.CodeLocationUnresolved):
			area = nil
			locationNote = "location could not be resolved"
		default:
			return nil, apperrors.MapError(err)
		}
	}

	var cascade *assignment.Result
	if area != nil {
		cascade, err = s.resolver.Resolve(ctx, issue.Department, area)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	if cascade == nil {
		// Degraded path: verified but unassigned, awaiting manual pick.
		issue.Status = domain.IssueStatusVerified
		issue.ManualAssignRequired = true
		reason := "no active authority available"
		if locationNote != "" {
			reason = locationNote
		}
		entry := s.newEntry(issue, actor, joinNotes(notes, reason+"; manual assignment required"))
		if err := s.applyTransition(ctx, issue, entry); err != nil {
			return nil, err
		}
		s.publish(ctx, events.Event{
			Type:    events.EventIssueVerified,
			IssueID: issue.ID,
			Actor:   actor,
			Payload: events.IssueVerifiedPayload{ManualAssignRequired: true, Notes: entry.Notes},
		})
		return &VerifyResult{Issue: issue}, nil
	}

	issue.Status = domain.IssueStatusVerified
	issue.ManualAssignRequired = false
	verifiedEntry := s.newEntry(issue, actor, notes)
	if err := s.applyTransition(ctx, issue, verifiedEntry); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventIssueVerified,
		IssueID: issue.ID,
		Actor:   actor,
		Payload: events.IssueVerifiedPayload{Notes: notes},
	})

	if err := s.assign(ctx, domain.SystemActor(), issue, cascade.Authority, string(cascade.Level), cascade.CrossState); err != nil {
		return nil, err
	}
	return &VerifyResult{Issue: issue, Authority: cascade.Authority, MatchedLevel: string(cascade.Level)}, nil
}

// RejectIssue moves a pending issue to the terminal rejected state.
// A reason is required.
func (s *LifecycleService) RejectIssue(ctx context.Context, actor domain.Actor, issueID, reason string) (*domain.Issue, error) {
	if reason == "" {
		return nil, apperrors.NewValidationError("rejection reason required", nil)
	}
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTransition(issue, domain.IssueStatusRejected); err != nil {
		return nil, err
	}

	issue.Status = domain.IssueStatusRejected
	entry := s.newEntry(issue, actor, reason)
	if err := s.applyTransition(ctx, issue, entry); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventIssueRejected,
		IssueID: issue.ID,
		Actor:   actor,
		Payload: events.IssueRejectedPayload{Reason: reason},
	})
	return issue, nil
}

// AssignIssue manually assigns a verified issue to a chosen authority.
func (s *LifecycleService) AssignIssue(ctx context.Context, actor domain.Actor, issueID, authorityID string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTransition(issue, domain.IssueStatusAssigned); err != nil {
		return nil, err
	}

	authority, err := s.authorities.GetByID(ctx, authorityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("authority", map[string]any{"authority_id": authorityID})
		}
		return nil, apperrors.MapError(err)
	}
	if !authority.Active() {
		return nil, apperrors.NewConflict("authority not active", map[string]any{"authority_id": authorityID})
	}

	if err := s.assign(ctx, actor, issue, authority, "manual", false); err != nil {
		return nil, err
	}
	return issue, nil
}

// StartWork moves an assigned issue to in_progress, recording when the
// responsible authority began work.
func (s *LifecycleService) StartWork(ctx context.Context, actor domain.Actor, issueID, authorityID string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTransition(issue, domain.IssueStatusInProgress); err != nil {
		return nil, err
	}
	if err := s.ensureAssignedTo(issue, authorityID); err != nil {
		return nil, err
	}

	now := time.Now()
	issue.Status = domain.IssueStatusInProgress
	issue.WorkStartedAt = &now
	entry := s.newEntry(issue, actor, "work started")
	if err := s.applyTransition(ctx, issue, entry); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventWorkStarted,
		IssueID: issue.ID,
		Actor:   actor,
		Payload: events.WorkStartedPayload{AuthorityID: authorityID, WorkStartedAt: now},
	})
	return issue, nil
}

// ResolveIssue marks an in-progress issue resolved and computes the
// actual resolution time. Metrics failures never roll the transition
// back; counters are corrected by re-derivation.
func (s *LifecycleService) ResolveIssue(ctx context.Context, actor domain.Actor, issueID, authorityID, notes string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTransition(issue, domain.IssueStatusResolved); err != nil {
		return nil, err
	}
	if err := s.ensureAssignedTo(issue, authorityID); err != nil {
		return nil, err
	}

	now := time.Now()
	mins := resolutionMinutes(issue.CreatedAt, issue.WorkStartedAt, now)

	issue.Status = domain.IssueStatusResolved
	issue.ResolvedAt = &now
	issue.ActualResolutionMins = &mins
	entry := s.newEntry(issue, actor, joinNotes(notes, fmt.Sprintf("resolved in %d min", mins)))
	if err := s.applyTransition(ctx, issue, entry); err != nil {
		return nil, err
	}

	if err := s.metrics.OnResolved(ctx, authorityID); err != nil {
		s.logger.Error("metrics update failed after resolution; transition stands",
			zap.String("authority_id", authorityID), zap.Error(err))
	}
	s.publish(ctx, events.Event{
		Type:    events.EventIssueResolved,
		IssueID: issue.ID,
		Actor:   actor,
		Payload: events.IssueResolvedPayload{AuthorityID: authorityID, ResolvedAt: now, ResolutionMins: mins},
	})
	return issue, nil
}

// CloseIssue moves a resolved issue to the terminal closed state.
func (s *LifecycleService) CloseIssue(ctx context.Context, actor domain.Actor, issueID, notes string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTransition(issue, domain.IssueStatusClosed); err != nil {
		return nil, err
	}

	issue.Status = domain.IssueStatusClosed
	entry := s.newEntry(issue, actor, notes)
	if err := s.applyTransition(ctx, issue, entry); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventIssueClosed,
		IssueID: issue.ID,
		Actor:   actor,
		Payload: events.IssueClosedPayload{Notes: notes},
	})
	return issue, nil
}

// FindAuthority resolves coordinates and walks the cascade without
// touching any issue; used for the directory preview endpoint. An empty
// cascade reports NO_AUTHORITY_AVAILABLE instead of the silent
// manual-assignment degradation the verify path uses.
func (s *LifecycleService) FindAuthority(ctx context.Context, department domain.Department, lat, lng float64) (*assignment.Result, *domain.AdminArea, error) {
	if department == "" {
		return nil, nil, apperrors.NewValidationError("department required", nil)
	}
	area, err := s.locations.Resolve(ctx, lat, lng)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.resolver.Resolve(ctx, department, area)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if result == nil {
		return nil, area, apperrors.NewNoAuthorityAvailable(string(department))
	}
	return result, area, nil
}

// assign applies the verified -> assigned transition and updates the
// authority's assignment counter.
func (s *LifecycleService) assign(ctx context.Context, actor domain.Actor, issue *domain.Issue, authority *domain.Authority, level string, crossState bool) error {
	issue.Status = domain.IssueStatusAssigned
	issue.AssignedAuthorityID = &authority.ID
	issue.MatchedLevel = &level
	issue.ManualAssignRequired = false

	note := fmt.Sprintf("assigned to %s (%s match)", authority.Name, level)
	if crossState {
		note += "; cross-jurisdiction fallback"
	}
	entry := s.newEntry(issue, actor, note)
	if err := s.applyTransition(ctx, issue, entry); err != nil {
		return err
	}

	if err := s.metrics.OnAssigned(ctx, authority.ID); err != nil {
		s.logger.Error("metrics update failed after assignment; transition stands",
			zap.String("authority_id", authority.ID), zap.Error(err))
	}
	s.publish(ctx, events.Event{
		Type:    events.EventIssueAssigned,
		IssueID: issue.ID,
		Actor:   actor,
		Payload: events.IssueAssignedPayload{
			AuthorityID:   authority.ID,
			AuthorityName: authority.Name,
			MatchedLevel:  level,
			CrossState:    crossState,
		},
	})
	return nil
}

func (s *LifecycleService) getIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

func (s *LifecycleService) ensureTransition(issue *domain.Issue, next domain.IssueStatus) error {
	if !isValidTransition(issue.Status, next) {
		return apperrors.NewInvalidTransition(string(issue.Status), string(next),
			map[string]any{"issue_id": issue.ID})
	}
	return nil
}

func (s *LifecycleService) ensureAssignedTo(issue *domain.Issue, authorityID string) error {
	if issue.AssignedAuthorityID == nil || *issue.AssignedAuthorityID != authorityID {
		return apperrors.NewForbidden("issue is not assigned to this authority")
	}
	return nil
}

func (s *LifecycleService) applyTransition(ctx context.Context, issue *domain.Issue, entry *domain.TimelineEntry) error {
	if err := s.issues.ApplyTransition(ctx, issue, entry); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewConflict("issue was modified concurrently",
				map[string]any{"issue_id": issue.ID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *LifecycleService) newEntry(issue *domain.Issue, actor domain.Actor, notes string) *domain.TimelineEntry {
	return &domain.TimelineEntry{
		IssueID: issue.ID,
		Action:  domain.ActionForStatus(issue.Status),
		Actor:   actor,
		Notes:   notes,
	}
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// resolutionMinutes computes elapsed minutes between work start (or
// creation, whichever is later) and resolution, rounded, never negative.
func resolutionMinutes(createdAt time.Time, workStartedAt *time.Time, resolvedAt time.Time) int64 {
	base := createdAt
	if workStartedAt != nil && workStartedAt.After(base) {
		base = *workStartedAt
	}
	elapsed := resolvedAt.Sub(base)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed.Round(time.Minute) / time.Minute)
}

func joinNotes(notes, extra string) string {
	if notes == "" {
		return extra
	}
	if extra == "" {
		return notes
	}
	return notes + "; " + extra
}
