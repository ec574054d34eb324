package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// AuthorityFilter defines query params for authority listing.
type AuthorityFilter struct {
	Department *domain.Department
	State      *string
	Status     *domain.AuthorityStatus
	Limit      int
	Offset     int
}

// AuthorityRepository serves the jurisdiction directory queries and the
// atomic metrics counter updates. Directory lookups never create or
// deactivate authorities.
type AuthorityRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Authority, error)
	List(ctx context.Context, filter AuthorityFilter) ([]domain.Authority, error)
	// FindExact matches (department, state, district, municipality);
	// empty district/municipality match NULL columns. Returns nil when
	// no active authority matches.
	FindExact(ctx context.Context, department domain.Department, state, district, municipality string) (*domain.Authority, error)
	// FindAnyActive is the global fallback, ranked like FindExact.
	FindAnyActive(ctx context.Context, department domain.Department) (*domain.Authority, error)
	// IncrementAssigned bumps total_assigned_issues with a single SQL
	// increment; safe under concurrent assignments.
	IncrementAssigned(ctx context.Context, authorityID string) error
	// RecordResolution bumps resolved_issues and recomputes the average
	// resolution time over all of the authority's resolved issues.
	RecordResolution(ctx context.Context, authorityID string) error
	// RebuildMetrics re-derives every counter from the raw issue set.
	RebuildMetrics(ctx context.Context, authorityID string) error
}

type authorityRepository struct {
	pool *pgxpool.Pool
}

// NewAuthorityRepository instantiates the repository.
func NewAuthorityRepository(pool *pgxpool.Pool) AuthorityRepository {
	return &authorityRepository{pool: pool}
}

const authorityColumns = `id, name, department, state, district, municipality, status,
        total_assigned_issues, resolved_issues, average_resolution_mins, rating, created_at, updated_at`

// Ranking: rating desc, then resolution speed, then id so results stay
// deterministic when both tie.
const authorityRanking = `ORDER BY rating DESC, average_resolution_mins ASC, id ASC`

func (r *authorityRepository) GetByID(ctx context.Context, id string) (*domain.Authority, error) {
	query := fmt.Sprintf(`SELECT %s FROM authorities WHERE id=$1`, authorityColumns)
	return scanAuthority(r.pool.QueryRow(ctx, query, id))
}

func (r *authorityRepository) FindExact(ctx context.Context, department domain.Department, state, district, municipality string) (*domain.Authority, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM authorities
        WHERE department=$1 AND status=$2 AND state=$3
          AND district IS NOT DISTINCT FROM NULLIF($4,'')
          AND municipality IS NOT DISTINCT FROM NULLIF($5,'')
        %s LIMIT 1`, authorityColumns, authorityRanking)

	authority, err := scanAuthority(r.pool.QueryRow(ctx, query,
		department, domain.AuthorityStatusActive, state, district, municipality))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return authority, nil
}

func (r *authorityRepository) FindAnyActive(ctx context.Context, department domain.Department) (*domain.Authority, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM authorities
        WHERE department=$1 AND status=$2
        %s LIMIT 1`, authorityColumns, authorityRanking)

	authority, err := scanAuthority(r.pool.QueryRow(ctx, query, department, domain.AuthorityStatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return authority, nil
}

func (r *authorityRepository) List(ctx context.Context, filter AuthorityFilter) ([]domain.Authority, error) {
	query := fmt.Sprintf(`SELECT %s FROM authorities`, authorityColumns)
	args := []any{}
	clauses := []string{}

	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.State != nil {
		args = append(args, *filter.State)
		clauses = append(clauses, fmt.Sprintf("state=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY name ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Authority
	for rows.Next() {
		authority, err := scanAuthority(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *authority)
	}
	return result, rows.Err()
}

func (r *authorityRepository) IncrementAssigned(ctx context.Context, authorityID string) error {
	const query = `
        UPDATE authorities
        SET total_assigned_issues = total_assigned_issues + 1, updated_at = NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, authorityID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *authorityRepository) RecordResolution(ctx context.Context, authorityID string) error {
	// Full recompute of the mean over resolved issues; acceptable at
	// expected volume. Candidate for an incremental mean later.
	const query = `
        UPDATE authorities
        SET resolved_issues = resolved_issues + 1,
            average_resolution_mins = (
                SELECT COALESCE(AVG(actual_resolution_mins), 0) FROM issues
                WHERE assigned_authority_id = $1 AND actual_resolution_mins IS NOT NULL),
            updated_at = NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, authorityID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *authorityRepository) RebuildMetrics(ctx context.Context, authorityID string) error {
	const query = `
        UPDATE authorities
        SET total_assigned_issues = (
                SELECT COUNT(*) FROM issues WHERE assigned_authority_id = $1),
            resolved_issues = (
                SELECT COUNT(*) FROM issues
                WHERE assigned_authority_id = $1 AND actual_resolution_mins IS NOT NULL),
            average_resolution_mins = (
                SELECT COALESCE(AVG(actual_resolution_mins), 0) FROM issues
                WHERE assigned_authority_id = $1 AND actual_resolution_mins IS NOT NULL),
            updated_at = NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, authorityID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAuthority(row rowScanner) (*domain.Authority, error) {
	var (
		authority              domain.Authority
		state                  string
		district, municipality *string
	)
	if err := row.Scan(
		&authority.ID,
		&authority.Name,
		&authority.Department,
		&state,
		&district,
		&municipality,
		&authority.Status,
		&authority.Metrics.TotalAssignedIssues,
		&authority.Metrics.ResolvedIssues,
		&authority.Metrics.AverageResolutionMins,
		&authority.Metrics.Rating,
		&authority.CreatedAt,
		&authority.UpdatedAt,
	); err != nil {
		return nil, err
	}

	jurisdiction, err := domain.JurisdictionFromParts(state, district, municipality)
	if err != nil {
		return nil, fmt.Errorf("authority %s: %w", authority.ID, err)
	}
	authority.Jurisdiction = jurisdiction
	return &authority, nil
}
