package events

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueSubmitted EventType = "issue_submitted"
	EventIssueVerified  EventType = "issue_verified"
	EventIssueRejected  EventType = "issue_rejected"
	EventIssueAssigned  EventType = "issue_assigned"
	EventWorkStarted    EventType = "work_started"
	EventIssueResolved  EventType = "issue_resolved"
	EventIssueClosed    EventType = "issue_closed"
)

// Event represents a domain event emitted by lifecycle services.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	IssueID   string       `json:"issue_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// IssueSubmittedPayload payload.
type IssueSubmittedPayload struct {
	Department domain.Department `json:"department"`
	Title      string            `json:"title"`
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
}

// IssueVerifiedPayload payload.
type IssueVerifiedPayload struct {
	ManualAssignRequired bool   `json:"manual_assign_required"`
	Notes                string `json:"notes,omitempty"`
}

// IssueRejectedPayload payload.
type IssueRejectedPayload struct {
	Reason string `json:"reason"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	AuthorityID   string `json:"authority_id"`
	AuthorityName string `json:"authority_name"`
	MatchedLevel  string `json:"matched_level"`
	CrossState    bool   `json:"cross_state,omitempty"`
}

// WorkStartedPayload payload.
type WorkStartedPayload struct {
	AuthorityID   string    `json:"authority_id"`
	WorkStartedAt time.Time `json:"work_started_at"`
}

// IssueResolvedPayload payload.
type IssueResolvedPayload struct {
	AuthorityID    string    `json:"authority_id"`
	ResolvedAt     time.Time `json:"resolved_at"`
	ResolutionMins int64     `json:"resolution_mins"`
}

// IssueClosedPayload payload.
type IssueClosedPayload struct {
	Notes string `json:"notes,omitempty"`
}
