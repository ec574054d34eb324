package domain

import "fmt"

// JurisdictionLevel identifies how specific a jurisdiction is.
type JurisdictionLevel string

const (
	JurisdictionLevelState        JurisdictionLevel = "STATE"
	JurisdictionLevelDistrict     JurisdictionLevel = "DISTRICT"
	JurisdictionLevelMunicipality JurisdictionLevel = "MUNICIPALITY"
)

// Jurisdiction is the administrative scope an authority is responsible for.
// The zero value is invalid; use the level constructors so that
// municipality implies district implies state by construction.
type Jurisdiction struct {
	level        JurisdictionLevel
	state        string
	district     string
	municipality string
}

// StateJurisdiction builds a state-wide jurisdiction.
func StateJurisdiction(state string) (Jurisdiction, error) {
	if state == "" {
		return Jurisdiction{}, fmt.Errorf("jurisdiction: state required")
	}
	return Jurisdiction{level: JurisdictionLevelState, state: state}, nil
}

// DistrictJurisdiction builds a district-level jurisdiction.
func DistrictJurisdiction(state, district string) (Jurisdiction, error) {
	if state == "" || district == "" {
		return Jurisdiction{}, fmt.Errorf("jurisdiction: state and district required")
	}
	return Jurisdiction{level: JurisdictionLevelDistrict, state: state, district: district}, nil
}

// MunicipalityJurisdiction builds a municipality-level jurisdiction.
func MunicipalityJurisdiction(state, district, municipality string) (Jurisdiction, error) {
	if state == "" || district == "" || municipality == "" {
		return Jurisdiction{}, fmt.Errorf("jurisdiction: state, district and municipality required")
	}
	return Jurisdiction{
		level:        JurisdictionLevelMunicipality,
		state:        state,
		district:     district,
		municipality: municipality,
	}, nil
}

// JurisdictionFromParts rebuilds a jurisdiction from nullable storage
// columns, rejecting shapes that violate the hierarchy invariant
// (a municipality without a district, a district without a state).
func JurisdictionFromParts(state string, district, municipality *string) (Jurisdiction, error) {
	switch {
	case municipality != nil && *municipality != "":
		if district == nil || *district == "" {
			return Jurisdiction{}, fmt.Errorf("jurisdiction: municipality %q without district", *municipality)
		}
		return MunicipalityJurisdiction(state, *district, *municipality)
	case district != nil && *district != "":
		return DistrictJurisdiction(state, *district)
	default:
		return StateJurisdiction(state)
	}
}

// Level reports how specific the jurisdiction is.
func (j Jurisdiction) Level() JurisdictionLevel {
	return j.level
}

// State returns the state the jurisdiction belongs to.
func (j Jurisdiction) State() string {
	return j.state
}

// District returns the district and whether one is set.
func (j Jurisdiction) District() (string, bool) {
	return j.district, j.district != ""
}

// Municipality returns the municipality and whether one is set.
func (j Jurisdiction) Municipality() (string, bool) {
	return j.municipality, j.municipality != ""
}

// Validate checks a jurisdiction loaded from storage.
func (j Jurisdiction) Validate() error {
	switch j.level {
	case JurisdictionLevelState:
		if j.state == "" {
			return fmt.Errorf("jurisdiction: state required")
		}
	case JurisdictionLevelDistrict:
		if j.state == "" || j.district == "" {
			return fmt.Errorf("jurisdiction: district level requires state and district")
		}
	case JurisdictionLevelMunicipality:
		if j.state == "" || j.district == "" || j.municipality == "" {
			return fmt.Errorf("jurisdiction: municipality level requires state, district and municipality")
		}
	default:
		return fmt.Errorf("jurisdiction: unknown level %q", j.level)
	}
	return nil
}

func (j Jurisdiction) String() string {
	switch j.level {
	case JurisdictionLevelMunicipality:
		return fmt.Sprintf("%s, %s, %s", j.municipality, j.district, j.state)
	case JurisdictionLevelDistrict:
		return fmt.Sprintf("%s, %s", j.district, j.state)
	default:
		return j.state
	}
}
