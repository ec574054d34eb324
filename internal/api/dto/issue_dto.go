package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// SubmitIssueRequest payload.
type SubmitIssueRequest struct {
	Department  domain.Department `json:"department"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
}

// VerifyIssueRequest payload for the admin verify endpoint.
type VerifyIssueRequest struct {
	Notes string `json:"notes"`
}

// RejectIssueRequest payload. Reason is mandatory.
type RejectIssueRequest struct {
	Reason string `json:"reason"`
}

// AssignIssueRequest payload for manual assignment.
type AssignIssueRequest struct {
	AuthorityID string `json:"authority_id"`
}

// ResolveIssueRequest payload.
type ResolveIssueRequest struct {
	Notes string `json:"notes"`
}

// CloseIssueRequest payload.
type CloseIssueRequest struct {
	Notes string `json:"notes"`
}

// AdminAreaResponse is the resolved administrative hierarchy.
type AdminAreaResponse struct {
	State        string `json:"state"`
	District     string `json:"district"`
	Municipality string `json:"municipality,omitempty"`
	Pincode      string `json:"pincode,omitempty"`
	Source       string `json:"source"`
}

// AIReviewResponse is the advisory validation verdict.
type AIReviewResponse struct {
	Valid      bool    `json:"valid"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// IssueSummary response.
type IssueSummary struct {
	ID                   string             `json:"id"`
	ExternalKey          string             `json:"external_key"`
	Department           domain.Department  `json:"department"`
	Title                string             `json:"title"`
	Status               domain.IssueStatus `json:"status"`
	Latitude             float64            `json:"latitude"`
	Longitude            float64            `json:"longitude"`
	Area                 *AdminAreaResponse `json:"area,omitempty"`
	AssignedAuthorityID  *string            `json:"assigned_authority_id,omitempty"`
	MatchedLevel         *string            `json:"matched_level,omitempty"`
	ManualAssignRequired bool               `json:"manual_assign_required"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// IssueDetailResponse provides the full issue with its audit trail.
type IssueDetailResponse struct {
	IssueSummary
	Description          string                  `json:"description"`
	AIReview             *AIReviewResponse       `json:"ai_review,omitempty"`
	WorkStartedAt        *time.Time              `json:"work_started_at,omitempty"`
	ResolvedAt           *time.Time              `json:"resolved_at,omitempty"`
	ActualResolutionMins *int64                  `json:"actual_resolution_mins,omitempty"`
	Timeline             []TimelineEntryResponse `json:"timeline"`
}

// TimelineEntryResponse represents one audit record.
type TimelineEntryResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	ActorType string    `json:"actor_type"`
	ActorID   string    `json:"actor_id"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
