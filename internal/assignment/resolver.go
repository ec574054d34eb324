// Package assignment picks the single most appropriate authority for an
// issue through a hierarchical jurisdiction cascade. The resolver is
// side-effect-free: it never mutates issue or authority state.
package assignment

import (
	"context"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// MatchLevel reports which cascade step produced the match.
type MatchLevel string

const (
	MatchLevelMunicipality MatchLevel = "municipality"
	MatchLevelDistrict     MatchLevel = "district"
	MatchLevelState        MatchLevel = "state"
	MatchLevelGlobal       MatchLevel = "global"
)

// Directory is the read-only query surface over authority records.
// Implementations return only active authorities, ranked by rating
// descending, then average resolution time ascending, and must be
// deterministic for unchanged data.
type Directory interface {
	// FindExact matches the full (department, state, district,
	// municipality) tuple; empty district/municipality mean the level is
	// not part of the tuple.
	FindExact(ctx context.Context, department domain.Department, state, district, municipality string) (*domain.Authority, error)
	// FindAnyActive is the jurisdiction-agnostic global fallback.
	FindAnyActive(ctx context.Context, department domain.Department) (*domain.Authority, error)
}

// Result is a successful cascade outcome.
type Result struct {
	Authority *domain.Authority
	Level     MatchLevel
	// CrossState marks a global-fallback match registered in a state
	// other than the issue's resolved state.
	CrossState bool
}

// Resolver walks the cascade most specific to least specific.
type Resolver struct {
	directory       Directory
	allowCrossState bool
}

// NewResolver builds a resolver. allowCrossState governs whether the
// global fallback may match an authority outside the issue's state.
func NewResolver(directory Directory, allowCrossState bool) *Resolver {
	return &Resolver{directory: directory, allowCrossState: allowCrossState}
}

// Resolve walks municipality -> district -> state -> global fallback,
// each level attempted only if the previous returned nothing. A nil
// Result with a nil error is the valid "no authority currently
// available" outcome, which requires manual admin assignment.
func (r *Resolver) Resolve(ctx context.Context, department domain.Department, area *domain.AdminArea) (*Result, error) {
	if area != nil {
		if area.Municipality != "" {
			authority, err := r.directory.FindExact(ctx, department, area.State, area.District, area.Municipality)
			if err != nil {
				return nil, err
			}
			if authority != nil {
				return &Result{Authority: authority, Level: MatchLevelMunicipality}, nil
			}
		}

		authority, err := r.directory.FindExact(ctx, department, area.State, area.District, "")
		if err != nil {
			return nil, err
		}
		if authority != nil {
			return &Result{Authority: authority, Level: MatchLevelDistrict}, nil
		}

		authority, err = r.directory.FindExact(ctx, department, area.State, "", "")
		if err != nil {
			return nil, err
		}
		if authority != nil {
			return &Result{Authority: authority, Level: MatchLevelState}, nil
		}
	}

	authority, err := r.directory.FindAnyActive(ctx, department)
	if err != nil {
		return nil, err
	}
	if authority == nil {
		return nil, nil
	}

	crossState := area != nil && authority.Jurisdiction.State() != area.State
	if crossState && !r.allowCrossState {
		return nil, nil
	}
	return &Result{Authority: authority, Level: MatchLevelGlobal, CrossState: crossState}, nil
}
