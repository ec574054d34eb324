package assignment

import (
	"context"
	"sort"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// MemoryDirectory is a Directory over an in-memory authority set. It
// applies the same ranking as the SQL directory: rating descending,
// then average resolution minutes ascending, then ID. Only active
// authorities are considered. Intended for tests and seeded setups.
type MemoryDirectory struct {
	authorities []*domain.Authority
}

// NewMemoryDirectory builds a directory over the given authorities.
func NewMemoryDirectory(authorities ...*domain.Authority) *MemoryDirectory {
	d := &MemoryDirectory{}
	d.Add(authorities...)
	return d
}

// Add registers additional authorities.
func (d *MemoryDirectory) Add(authorities ...*domain.Authority) {
	d.authorities = append(d.authorities, authorities...)
}

// FindExact matches the full (department, state, district, municipality)
// tuple; an empty district/municipality matches authorities whose
// jurisdiction has no such level, mirroring the NULL semantics of the
// SQL directory.
func (d *MemoryDirectory) FindExact(_ context.Context, department domain.Department, state, district, municipality string) (*domain.Authority, error) {
	return d.best(func(a *domain.Authority) bool {
		if a.Department != department || a.Jurisdiction.State() != state {
			return false
		}
		authorityDistrict, _ := a.Jurisdiction.District()
		if authorityDistrict != district {
			return false
		}
		authorityMunicipality, _ := a.Jurisdiction.Municipality()
		return authorityMunicipality == municipality
	}), nil
}

// FindAnyActive is the jurisdiction-agnostic global fallback, ranked the
// same way.
func (d *MemoryDirectory) FindAnyActive(_ context.Context, department domain.Department) (*domain.Authority, error) {
	return d.best(func(a *domain.Authority) bool {
		return a.Department == department
	}), nil
}

func (d *MemoryDirectory) best(match func(*domain.Authority) bool) *domain.Authority {
	var candidates []*domain.Authority
	for _, a := range d.authorities {
		if a.Active() && match(a) {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return ranksBefore(candidates[i], candidates[j])
	})
	return candidates[0]
}

// ranksBefore orders a before b: higher rating first, faster average
// resolution next, lower ID as the final tie-break so the result is
// stable for unchanged data.
func ranksBefore(a, b *domain.Authority) bool {
	if a.Metrics.Rating != b.Metrics.Rating {
		return a.Metrics.Rating > b.Metrics.Rating
	}
	if a.Metrics.AverageResolutionMins != b.Metrics.AverageResolutionMins {
		return a.Metrics.AverageResolutionMins < b.Metrics.AverageResolutionMins
	}
	return a.ID < b.ID
}
