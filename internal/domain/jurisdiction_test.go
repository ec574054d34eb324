package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJurisdictionConstructors(t *testing.T) {
	j, err := MunicipalityJurisdiction("Telangana", "Hyderabad", "Secunderabad")
	require.NoError(t, err)
	assert.Equal(t, JurisdictionLevelMunicipality, j.Level())
	assert.Equal(t, "Telangana", j.State())
	district, ok := j.District()
	require.True(t, ok)
	assert.Equal(t, "Hyderabad", district)
	municipality, ok := j.Municipality()
	require.True(t, ok)
	assert.Equal(t, "Secunderabad", municipality)

	j, err = StateJurisdiction("Kerala")
	require.NoError(t, err)
	assert.Equal(t, JurisdictionLevelState, j.Level())
	_, ok = j.District()
	assert.False(t, ok)
	_, ok = j.Municipality()
	assert.False(t, ok)
}

func TestJurisdictionConstructorsRejectMissingParts(t *testing.T) {
	_, err := StateJurisdiction("")
	assert.Error(t, err)

	_, err = DistrictJurisdiction("Kerala", "")
	assert.Error(t, err)

	_, err = MunicipalityJurisdiction("Kerala", "", "Kochi")
	assert.Error(t, err)
}

func TestJurisdictionFromParts(t *testing.T) {
	district := "Pune"
	municipality := "Pimpri-Chinchwad"

	j, err := JurisdictionFromParts("Maharashtra", &district, &municipality)
	require.NoError(t, err)
	assert.Equal(t, JurisdictionLevelMunicipality, j.Level())

	j, err = JurisdictionFromParts("Maharashtra", &district, nil)
	require.NoError(t, err)
	assert.Equal(t, JurisdictionLevelDistrict, j.Level())

	j, err = JurisdictionFromParts("Maharashtra", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, JurisdictionLevelState, j.Level())

	// municipality without district violates the hierarchy
	_, err = JurisdictionFromParts("Maharashtra", nil, &municipality)
	assert.Error(t, err)
}

func TestActionForStatus(t *testing.T) {
	assert.Equal(t, ActionSubmitted, ActionForStatus(IssueStatusPending))
	assert.Equal(t, ActionVerified, ActionForStatus(IssueStatusVerified))
	assert.Equal(t, ActionResolved, ActionForStatus(IssueStatusResolved))
}

func TestIssueStatusIsTerminal(t *testing.T) {
	assert.True(t, IssueStatusRejected.IsTerminal())
	assert.True(t, IssueStatusClosed.IsTerminal())
	assert.False(t, IssueStatusResolved.IsTerminal())
	assert.False(t, IssueStatusPending.IsTerminal())
}
