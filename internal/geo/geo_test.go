package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

var hyderabadPoint = AdminPoint{
	ID:           "p1",
	Name:         "Hyderabad GPO",
	State:        "Telangana",
	District:     "Hyderabad",
	Municipality: "GHMC",
	Pincode:      "500001",
	Latitude:     17.3850,
	Longitude:    78.4867,
}

type fakeGeocoder struct {
	result *GeocodeResult
	err    error
	calls  int
}

func (f *fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (*GeocodeResult, error) {
	f.calls++
	return f.result, f.err
}

func TestIndexNearestWithinRadius(t *testing.T) {
	idx := NewIndex([]AdminPoint{hyderabadPoint}, 10)

	// ~1km away from the indexed point
	point, ok := idx.Nearest(17.3900, 78.4900)
	require.True(t, ok)
	assert.Equal(t, "Telangana", point.State)

	// Chennai is far outside the 10km radius
	_, ok = idx.Nearest(13.0827, 80.2707)
	assert.False(t, ok)
}

func TestCanonicalState(t *testing.T) {
	assert.Equal(t, "Telangana", CanonicalState("ts"))
	assert.Equal(t, "Andhra Pradesh", CanonicalState("Andhra Pradesh"))
	assert.Equal(t, "Delhi", CanonicalState("NCT of Delhi"))
	assert.Equal(t, "Tamil Nadu", CanonicalState(" tamilnadu "))
	assert.Equal(t, "Goa", CanonicalState("GOA"))
}

func TestCanonicalDistrict(t *testing.T) {
	assert.Equal(t, "Hyderabad", CanonicalDistrict("  HYDERABAD "))
	assert.Equal(t, "North Goa", CanonicalDistrict("north goa"))
}

func TestResolverRejectsInvalidCoordinates(t *testing.T) {
	resolver := NewResolver(NewIndex(nil, 10), nil, nil, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), 91, 0)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestResolverPrefersLocalIndex(t *testing.T) {
	geocoder := &fakeGeocoder{}
	resolver := NewResolver(NewIndex([]AdminPoint{hyderabadPoint}, 10), geocoder, nil, zap.NewNop())

	area, err := resolver.Resolve(context.Background(), 17.3850, 78.4867)
	require.NoError(t, err)
	assert.Equal(t, domain.AreaSourceLocal, area.Source)
	assert.Equal(t, "Telangana", area.State)
	assert.Equal(t, "Hyderabad", area.District)
	assert.Equal(t, 0, geocoder.calls, "local hit must not call the geocoder")
}

func TestResolverFallsBackToGeocoder(t *testing.T) {
	geocoder := &fakeGeocoder{result: &GeocodeResult{
		State:    "ts",
		District: "rangareddy",
		Pincode:  "501510",
	}}
	resolver := NewResolver(NewIndex(nil, 10), geocoder, nil, zap.NewNop())

	area, err := resolver.Resolve(context.Background(), 17.2, 78.3)
	require.NoError(t, err)
	assert.Equal(t, domain.AreaSourceAPI, area.Source)
	assert.Equal(t, "Telangana", area.State, "alias must be canonicalized")
	assert.Equal(t, "Rangareddy", area.District)
	assert.Equal(t, 1, geocoder.calls)
}

func TestResolverNeverReturnsPartialArea(t *testing.T) {
	geocoder := &fakeGeocoder{result: &GeocodeResult{State: "Telangana"}}
	resolver := NewResolver(NewIndex(nil, 10), geocoder, nil, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), 17.2, 78.3)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLocationUnresolved))
}

func TestResolverMapsGeocoderTimeoutToUnresolved(t *testing.T) {
	geocoder := &fakeGeocoder{err: apperrors.NewCollaboratorTimeout("geocoder", nil)}
	resolver := NewResolver(NewIndex(nil, 10), geocoder, nil, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), 17.2, 78.3)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLocationUnresolved))
}

func TestResolverWithoutGeocoderIsUnresolved(t *testing.T) {
	resolver := NewResolver(NewIndex(nil, 10), nil, nil, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), 17.2, 78.3)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLocationUnresolved))
}
