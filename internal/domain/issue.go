package domain

import "time"

// IssueStatus enumerates lifecycle states for reported issues.
type IssueStatus string

const (
	IssueStatusPending    IssueStatus = "PENDING"
	IssueStatusVerified   IssueStatus = "VERIFIED"
	IssueStatusRejected   IssueStatus = "REJECTED"
	IssueStatusAssigned   IssueStatus = "ASSIGNED"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusResolved   IssueStatus = "RESOLVED"
	IssueStatusClosed     IssueStatus = "CLOSED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s IssueStatus) IsTerminal() bool {
	return s == IssueStatusRejected || s == IssueStatusClosed
}

// TimelineAction labels an audit-trail entry. Actions mirror the status
// the transition produced, except the initial submission entry.
type TimelineAction string

const (
	ActionSubmitted  TimelineAction = "SUBMITTED"
	ActionVerified   TimelineAction = TimelineAction(IssueStatusVerified)
	ActionRejected   TimelineAction = TimelineAction(IssueStatusRejected)
	ActionAssigned   TimelineAction = TimelineAction(IssueStatusAssigned)
	ActionInProgress TimelineAction = TimelineAction(IssueStatusInProgress)
	ActionResolved   TimelineAction = TimelineAction(IssueStatusResolved)
	ActionClosed     TimelineAction = TimelineAction(IssueStatusClosed)
)

// ActionForStatus maps a status to the timeline action recorded when an
// issue enters it.
func ActionForStatus(status IssueStatus) TimelineAction {
	if status == IssueStatusPending {
		return ActionSubmitted
	}
	return TimelineAction(status)
}

// TimelineEntry is an immutable audit record of one transition. Seq is
// a monotonic per-table sequence; it orders entries even when two
// appends share a created_at timestamp.
type TimelineEntry struct {
	ID        string
	IssueID   string
	Seq       int64
	Action    TimelineAction
	Actor     Actor
	Notes     string
	CreatedAt time.Time
}

// AreaSource records which resolution path produced an AdminArea.
type AreaSource string

const (
	AreaSourceLocal AreaSource = "local"
	AreaSourceAPI   AreaSource = "api"
)

// AdminArea is a normalized administrative hierarchy for a coordinate.
// State and District are always populated; Municipality and Pincode are
// best effort.
type AdminArea struct {
	State        string
	District     string
	Municipality string
	Pincode      string
	Source       AreaSource
}

// Location couples raw coordinates with their resolved admin fields.
type Location struct {
	Latitude  float64
	Longitude float64
	Area      *AdminArea
}

// AIReview is the opaque validity signal supplied by the AI validation
// collaborator at submission time. It is stored as-is, never recomputed.
type AIReview struct {
	Valid      bool
	Category   string
	Confidence float64
}

// Issue is the aggregate for a reported civic issue.
type Issue struct {
	ID                   string
	ExternalKey          string
	ReporterID           string
	Department           Department
	Title                string
	Description          string
	Location             Location
	AIReview             *AIReview
	Status               IssueStatus
	AssignedAuthorityID  *string
	MatchedLevel         *string
	ManualAssignRequired bool
	WorkStartedAt        *time.Time
	ResolvedAt           *time.Time
	ActualResolutionMins *int64
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Assigned reports whether the issue currently has a responsible authority.
func (i *Issue) Assigned() bool {
	return i.AssignedAuthorityID != nil
}
