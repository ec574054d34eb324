package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// ErrVersionConflict signals a concurrent transition on the same issue.
var ErrVersionConflict = errors.New("issue version conflict")

// IssueFilter captures listing parameters.
type IssueFilter struct {
	ReporterID  *string
	Department  *domain.Department
	State       *string
	Statuses    []domain.IssueStatus
	AuthorityID *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// IssueRepository encapsulates issue persistence. Transition writes pair
// the issue update with its timeline append in one transaction so a
// failed transition leaves no partial mutation.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue, submitted *domain.TimelineEntry) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	ApplyTransition(ctx context.Context, issue *domain.Issue, entry *domain.TimelineEntry) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates the repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, external_key, reporter_id, department, title, description,
        latitude, longitude, area_state, area_district, area_municipality, area_pincode, area_source,
        ai_valid, ai_category, ai_confidence,
        status, assigned_authority_id, matched_level, manual_assign_required,
        work_started_at, resolved_at, actual_resolution_mins, version, created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue, submitted *domain.TimelineEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO issues (external_key, reporter_id, department, title, description,
            latitude, longitude, area_state, area_district, area_municipality, area_pincode, area_source,
            ai_valid, ai_category, ai_confidence, status, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,1)
        RETURNING id, created_at, updated_at`

	var (
		areaState, areaDistrict, areaMunicipality, areaPincode, areaSource *string
		aiValid                                                           *bool
		aiCategory                                                        *string
		aiConfidence                                                      *float64
	)
	if area := issue.Location.Area; area != nil {
		areaState = &area.State
		areaDistrict = &area.District
		areaMunicipality = nullable(area.Municipality)
		areaPincode = nullable(area.Pincode)
		source := string(area.Source)
		areaSource = &source
	}
	if review := issue.AIReview; review != nil {
		aiValid = &review.Valid
		aiCategory = &review.Category
		aiConfidence = &review.Confidence
	}

	if err := tx.QueryRow(ctx, query,
		issue.ExternalKey,
		issue.ReporterID,
		issue.Department,
		issue.Title,
		issue.Description,
		issue.Location.Latitude,
		issue.Location.Longitude,
		areaState,
		areaDistrict,
		areaMunicipality,
		areaPincode,
		areaSource,
		aiValid,
		aiCategory,
		aiConfidence,
		issue.Status,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt); err != nil {
		return err
	}
	issue.Version = 1

	submitted.IssueID = issue.ID
	if err := insertTimelineEntry(ctx, tx, submitted); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1`, issueColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanIssue(row)
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	base := fmt.Sprintf(`SELECT %s FROM issues`, issueColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.State != nil {
		args = append(args, *filter.State)
		clauses = append(clauses, fmt.Sprintf("area_state=$%d", len(args)))
	}
	if filter.AuthorityID != nil {
		args = append(args, *filter.AuthorityID)
		clauses = append(clauses, fmt.Sprintf("assigned_authority_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}

func (r *issueRepository) ApplyTransition(ctx context.Context, issue *domain.Issue, entry *domain.TimelineEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE issues SET status=$1, assigned_authority_id=$2, matched_level=$3, manual_assign_required=$4,
            area_state=$5, area_district=$6, area_municipality=$7, area_pincode=$8, area_source=$9,
            work_started_at=$10, resolved_at=$11, actual_resolution_mins=$12,
            version=version+1, updated_at=NOW()
        WHERE id=$13 AND version=$14
        RETURNING updated_at`

	var (
		areaState, areaDistrict, areaMunicipality, areaPincode, areaSource *string
	)
	if area := issue.Location.Area; area != nil {
		areaState = &area.State
		areaDistrict = &area.District
		areaMunicipality = nullable(area.Municipality)
		areaPincode = nullable(area.Pincode)
		source := string(area.Source)
		areaSource = &source
	}

	if err := tx.QueryRow(ctx, query,
		issue.Status,
		issue.AssignedAuthorityID,
		issue.MatchedLevel,
		issue.ManualAssignRequired,
		areaState,
		areaDistrict,
		areaMunicipality,
		areaPincode,
		areaSource,
		issue.WorkStartedAt,
		issue.ResolvedAt,
		issue.ActualResolutionMins,
		issue.ID,
		issue.Version,
	).Scan(&issue.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionConflict
		}
		return err
	}
	issue.Version++

	entry.IssueID = issue.ID
	if err := insertTimelineEntry(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertTimelineEntry(ctx context.Context, tx pgx.Tx, entry *domain.TimelineEntry) error {
	const query = `
        INSERT INTO issue_timeline (issue_id, action, actor_type, actor_id, notes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, seq, created_at`
	return tx.QueryRow(ctx, query,
		entry.IssueID,
		entry.Action,
		entry.Actor.Type,
		entry.Actor.ID,
		entry.Notes,
	).Scan(&entry.ID, &entry.Seq, &entry.CreatedAt)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*domain.Issue, error) {
	var (
		issue                                                             domain.Issue
		areaState, areaDistrict, areaMunicipality, areaPincode, areaSource *string
		aiValid                                                           *bool
		aiCategory                                                        *string
		aiConfidence                                                      *float64
	)
	if err := row.Scan(
		&issue.ID,
		&issue.ExternalKey,
		&issue.ReporterID,
		&issue.Department,
		&issue.Title,
		&issue.Description,
		&issue.Location.Latitude,
		&issue.Location.Longitude,
		&areaState,
		&areaDistrict,
		&areaMunicipality,
		&areaPincode,
		&areaSource,
		&aiValid,
		&aiCategory,
		&aiConfidence,
		&issue.Status,
		&issue.AssignedAuthorityID,
		&issue.MatchedLevel,
		&issue.ManualAssignRequired,
		&issue.WorkStartedAt,
		&issue.ResolvedAt,
		&issue.ActualResolutionMins,
		&issue.Version,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if areaState != nil && areaDistrict != nil {
		area := &domain.AdminArea{State: *areaState, District: *areaDistrict}
		if areaMunicipality != nil {
			area.Municipality = *areaMunicipality
		}
		if areaPincode != nil {
			area.Pincode = *areaPincode
		}
		if areaSource != nil {
			area.Source = domain.AreaSource(*areaSource)
		}
		issue.Location.Area = area
	}
	if aiValid != nil {
		review := &domain.AIReview{Valid: *aiValid}
		if aiCategory != nil {
			review.Category = *aiCategory
		}
		if aiConfidence != nil {
			review.Confidence = *aiConfidence
		}
		issue.AIReview = review
	}
	return &issue, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
