package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// AuthorityResponse describes one directory entry.
type AuthorityResponse struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Department   domain.Department      `json:"department"`
	Level        string                 `json:"level"`
	State        string                 `json:"state"`
	District     string                 `json:"district,omitempty"`
	Municipality string                 `json:"municipality,omitempty"`
	Status       domain.AuthorityStatus `json:"status"`
	Metrics      AuthorityMetrics       `json:"metrics"`
	CreatedAt    time.Time              `json:"created_at"`
}

// AuthorityMetrics carries the derived performance counters.
type AuthorityMetrics struct {
	TotalAssignedIssues   int64   `json:"total_assigned_issues"`
	ResolvedIssues        int64   `json:"resolved_issues"`
	AverageResolutionMins float64 `json:"average_resolution_mins"`
	Rating                float64 `json:"rating"`
}

// FindAuthorityResponse is the cascade preview result.
type FindAuthorityResponse struct {
	Authority    *AuthorityResponse `json:"authority"`
	MatchedLevel string             `json:"matched_level,omitempty"`
	CrossState   bool               `json:"cross_state,omitempty"`
	Area         *AdminAreaResponse `json:"area"`
}
