package assignment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

func ratedAuthority(id, state, district, municipality string, rating, avgMins float64) *domain.Authority {
	authority := authorityIn(id, state, district, municipality)
	authority.Metrics.Rating = rating
	authority.Metrics.AverageResolutionMins = avgMins
	return authority
}

func TestMemoryDirectoryPrefersHigherRating(t *testing.T) {
	dir := NewMemoryDirectory(
		ratedAuthority("slow-team", "Telangana", "Hyderabad", "", 4.2, 60),
		ratedAuthority("good-team", "Telangana", "Hyderabad", "", 4.8, 180),
	)
	resolver := NewResolver(dir, true)

	result, err := resolver.Resolve(context.Background(), domain.DepartmentRoadMaintenance, telanganaArea(""))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "good-team", result.Authority.ID, "rating outranks resolution speed")
	assert.Equal(t, MatchLevelDistrict, result.Level)
}

func TestMemoryDirectoryRatingTieBreaksOnResolutionSpeed(t *testing.T) {
	dir := NewMemoryDirectory(
		ratedAuthority("slow", "Telangana", "Hyderabad", "", 4.5, 120),
		ratedAuthority("fast", "Telangana", "Hyderabad", "", 4.5, 45),
	)

	authority, err := dir.FindExact(context.Background(), domain.DepartmentRoadMaintenance, "Telangana", "Hyderabad", "")
	require.NoError(t, err)
	require.NotNil(t, authority)
	assert.Equal(t, "fast", authority.ID)
}

func TestMemoryDirectoryFullTieBreaksOnID(t *testing.T) {
	dir := NewMemoryDirectory(
		ratedAuthority("auth-b", "Telangana", "Hyderabad", "", 4.5, 60),
		ratedAuthority("auth-a", "Telangana", "Hyderabad", "", 4.5, 60),
	)

	authority, err := dir.FindExact(context.Background(), domain.DepartmentRoadMaintenance, "Telangana", "Hyderabad", "")
	require.NoError(t, err)
	require.NotNil(t, authority)
	assert.Equal(t, "auth-a", authority.ID, "identical metrics must still pick deterministically")
}

func TestMemoryDirectorySkipsInactiveAuthorities(t *testing.T) {
	suspended := ratedAuthority("suspended", "Telangana", "Hyderabad", "", 5.0, 10)
	suspended.Status = domain.AuthorityStatusSuspended
	dir := NewMemoryDirectory(
		suspended,
		ratedAuthority("active", "Telangana", "Hyderabad", "", 3.0, 300),
	)

	authority, err := dir.FindExact(context.Background(), domain.DepartmentRoadMaintenance, "Telangana", "Hyderabad", "")
	require.NoError(t, err)
	require.NotNil(t, authority)
	assert.Equal(t, "active", authority.ID)
}

func TestMemoryDirectoryExactTupleDoesNotWidenScope(t *testing.T) {
	dir := NewMemoryDirectory(
		ratedAuthority("municipal", "Telangana", "Hyderabad", "GHMC", 4.9, 30),
	)

	// A district-level lookup must not pick a municipality authority.
	authority, err := dir.FindExact(context.Background(), domain.DepartmentRoadMaintenance, "Telangana", "Hyderabad", "")
	require.NoError(t, err)
	assert.Nil(t, authority)

	authority, err = dir.FindAnyActive(context.Background(), domain.DepartmentRoadMaintenance)
	require.NoError(t, err)
	require.NotNil(t, authority)
	assert.Equal(t, "municipal", authority.ID)
}
