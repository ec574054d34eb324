package domain

import "time"

// CitizenStatus represents lifecycle states for a reporting citizen.
type CitizenStatus string

const (
	CitizenStatusActive    CitizenStatus = "ACTIVE"
	CitizenStatusSuspended CitizenStatus = "SUSPENDED"
)

// Citizen is the domain model for end-users who report issues.
type Citizen struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       CitizenStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OperatorRole enumerates internal operator roles.
type OperatorRole string

const (
	OperatorRoleAuthority OperatorRole = "AUTHORITY"
	OperatorRoleAdmin     OperatorRole = "ADMIN"
)

// Operator models an authority staff member or a platform admin.
type Operator struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         OperatorRole
	AuthorityID  *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
