package handlers

import (
	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/domain"
)

func issueSummary(issue *domain.Issue) dto.IssueSummary {
	return dto.IssueSummary{
		ID:                   issue.ID,
		ExternalKey:          issue.ExternalKey,
		Department:           issue.Department,
		Title:                issue.Title,
		Status:               issue.Status,
		Latitude:             issue.Location.Latitude,
		Longitude:            issue.Location.Longitude,
		Area:                 adminAreaResponse(issue.Location.Area),
		AssignedAuthorityID:  issue.AssignedAuthorityID,
		MatchedLevel:         issue.MatchedLevel,
		ManualAssignRequired: issue.ManualAssignRequired,
		CreatedAt:            issue.CreatedAt,
		UpdatedAt:            issue.UpdatedAt,
	}
}

func issueDetail(issue *domain.Issue, timeline []domain.TimelineEntry) dto.IssueDetailResponse {
	detail := dto.IssueDetailResponse{
		IssueSummary:         issueSummary(issue),
		Description:          issue.Description,
		WorkStartedAt:        issue.WorkStartedAt,
		ResolvedAt:           issue.ResolvedAt,
		ActualResolutionMins: issue.ActualResolutionMins,
		Timeline:             make([]dto.TimelineEntryResponse, 0, len(timeline)),
	}
	if issue.AIReview != nil {
		detail.AIReview = &dto.AIReviewResponse{
			Valid:      issue.AIReview.Valid,
			Category:   issue.AIReview.Category,
			Confidence: issue.AIReview.Confidence,
		}
	}
	for _, entry := range timeline {
		detail.Timeline = append(detail.Timeline, dto.TimelineEntryResponse{
			ID:        entry.ID,
			Action:    string(entry.Action),
			ActorType: string(entry.Actor.Type),
			ActorID:   entry.Actor.ID,
			Notes:     entry.Notes,
			CreatedAt: entry.CreatedAt,
		})
	}
	return detail
}

func adminAreaResponse(area *domain.AdminArea) *dto.AdminAreaResponse {
	if area == nil {
		return nil
	}
	return &dto.AdminAreaResponse{
		State:        area.State,
		District:     area.District,
		Municipality: area.Municipality,
		Pincode:      area.Pincode,
		Source:       string(area.Source),
	}
}

func authorityResponse(authority *domain.Authority) *dto.AuthorityResponse {
	if authority == nil {
		return nil
	}
	district, _ := authority.Jurisdiction.District()
	municipality, _ := authority.Jurisdiction.Municipality()
	return &dto.AuthorityResponse{
		ID:           authority.ID,
		Name:         authority.Name,
		Department:   authority.Department,
		Level:        string(authority.Jurisdiction.Level()),
		State:        authority.Jurisdiction.State(),
		District:     district,
		Municipality: municipality,
		Status:       authority.Status,
		Metrics: dto.AuthorityMetrics{
			TotalAssignedIssues:   authority.Metrics.TotalAssignedIssues,
			ResolvedIssues:        authority.Metrics.ResolvedIssues,
			AverageResolutionMins: authority.Metrics.AverageResolutionMins,
			Rating:                authority.Metrics.Rating,
		},
		CreatedAt: authority.CreatedAt,
	}
}
