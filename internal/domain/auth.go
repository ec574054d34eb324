package domain

import "time"

// SubjectType differentiates citizen vs operator tokens.
type SubjectType string

const (
	SubjectTypeCitizen  SubjectType = "CITIZEN"
	SubjectTypeOperator SubjectType = "OPERATOR"
	SubjectTypeSystem   SubjectType = "SYSTEM"
)

// Actor identifies who caused a transition or event.
type Actor struct {
	Type SubjectType
	ID   string
}

// SystemActor is used for transitions the engine performs on its own,
// such as auto-assignment during verification.
func SystemActor() Actor {
	return Actor{Type: SubjectTypeSystem, ID: "system"}
}

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *OperatorRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
