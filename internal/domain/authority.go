package domain

import "time"

// Department categorizes issues and scopes authorities.
type Department string

const (
	DepartmentRoadMaintenance Department = "road_maintenance"
	DepartmentWaterSupply     Department = "water_supply"
	DepartmentSanitation      Department = "sanitation"
	DepartmentElectricity     Department = "electricity"
	DepartmentStreetLighting  Department = "street_lighting"
	DepartmentDrainage        Department = "drainage"
	DepartmentOther           Department = "other"
)

// ValidDepartment reports whether the value is a known department.
func ValidDepartment(d Department) bool {
	switch d {
	case DepartmentRoadMaintenance, DepartmentWaterSupply, DepartmentSanitation,
		DepartmentElectricity, DepartmentStreetLighting, DepartmentDrainage, DepartmentOther:
		return true
	}
	return false
}

// AuthorityStatus enumerates operational states for an authority.
type AuthorityStatus string

const (
	AuthorityStatusActive    AuthorityStatus = "ACTIVE"
	AuthorityStatusInactive  AuthorityStatus = "INACTIVE"
	AuthorityStatusSuspended AuthorityStatus = "SUSPENDED"
)

// PerformanceMetrics is a derived view over an authority's resolved
// issues. It is reconstructable at any time from the raw issue set.
type PerformanceMetrics struct {
	TotalAssignedIssues   int64
	ResolvedIssues        int64
	AverageResolutionMins float64
	Rating                float64
}

// Authority is a department-specific entity issues are assigned to.
type Authority struct {
	ID           string
	Name         string
	Department   Department
	Jurisdiction Jurisdiction
	Status       AuthorityStatus
	Metrics      PerformanceMetrics
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the authority can receive assignments.
func (a *Authority) Active() bool {
	return a.Status == AuthorityStatusActive
}
