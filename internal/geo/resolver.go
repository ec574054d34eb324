package geo

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// Resolver maps raw coordinates to a normalized administrative hierarchy.
// It tries the local geospatial index first and only then the external
// geocoding collaborator. It never returns a partial record: callers get
// either a full best-effort AdminArea or an explicit failure.
type Resolver struct {
	index    *Index
	geocoder Geocoder
	cache    *GeocodeCache
	logger   *zap.Logger
}

// NewResolver wires the two-tier resolution strategy.
func NewResolver(index *Index, geocoder Geocoder, cache *GeocodeCache, logger *zap.Logger) *Resolver {
	return &Resolver{index: index, geocoder: geocoder, cache: cache, logger: logger}
}

// Resolve maps coordinates to an AdminArea.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64) (*domain.AdminArea, error) {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	if r.index != nil {
		if point, ok := r.index.Nearest(lat, lng); ok {
			return &domain.AdminArea{
				State:        point.State,
				District:     point.District,
				Municipality: point.Municipality,
				Pincode:      point.Pincode,
				Source:       domain.AreaSourceLocal,
			}, nil
		}
	}

	result, cached := r.cache.Get(ctx, lat, lng)
	if !cached {
		if r.geocoder == nil {
			return nil, apperrors.NewUnresolvedLocation(map[string]any{"lat": lat, "lng": lng})
		}
		fetched, err := r.geocoder.ReverseGeocode(ctx, lat, lng)
		if err != nil {
			if apperrors.HasCode(err, apperrors.CodeCollaboratorTimeout) {
				r.logger.Warn("geocoder timed out", zap.Float64("lat", lat), zap.Float64("lng", lng))
				return nil, apperrors.NewUnresolvedLocation(map[string]any{"reason": "geocoder timeout"})
			}
			if apperrors.HasCode(err, apperrors.CodeLocationUnresolved) {
				return nil, err
			}
			r.logger.Warn("geocoder call failed", zap.Error(err))
			return nil, apperrors.NewUnresolvedLocation(map[string]any{"reason": "geocoder failure"})
		}
		result = fetched
		r.cache.Set(ctx, lat, lng, result)
	}

	area := canonicalize(result)
	if area == nil {
		return nil, apperrors.NewUnresolvedLocation(map[string]any{"lat": lat, "lng": lng})
	}
	return area, nil
}

// ValidateCoordinates rejects malformed input before any lookup.
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apperrors.NewValidationError("invalid coordinates",
			map[string]any{"lat": lat, "lng": lng})
	}
	return nil
}

// canonicalize applies the alias table and title-casing. A result
// missing state or district does not qualify as a full record.
func canonicalize(result *GeocodeResult) *domain.AdminArea {
	if result == nil {
		return nil
	}
	state := CanonicalState(result.State)
	district := CanonicalDistrict(result.District)
	if state == "" || district == "" {
		return nil
	}
	return &domain.AdminArea{
		State:        state,
		District:     district,
		Municipality: strings.TrimSpace(result.Municipality),
		Pincode:      strings.TrimSpace(result.Pincode),
		Source:       domain.AreaSourceAPI,
	}
}
