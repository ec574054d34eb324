package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// TimelineRepository reads the append-only audit trail. Appends happen
// inside the issue repository's transition transaction, never here.
type TimelineRepository interface {
	ListByIssue(ctx context.Context, issueID string) ([]domain.TimelineEntry, error)
}

type timelineRepository struct {
	pool *pgxpool.Pool
}

// NewTimelineRepository builds the repository.
func NewTimelineRepository(pool *pgxpool.Pool) TimelineRepository {
	return &timelineRepository{pool: pool}
}

func (r *timelineRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.TimelineEntry, error) {
	// seq is monotonic per append; created_at can tie when two entries
	// of one transition land in the same instant.
	const query = `
        SELECT id, issue_id, seq, action, actor_type, actor_id, notes, created_at
        FROM issue_timeline WHERE issue_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TimelineEntry
	for rows.Next() {
		var entry domain.TimelineEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.IssueID,
			&entry.Seq,
			&entry.Action,
			&entry.Actor.Type,
			&entry.Actor.ID,
			&entry.Notes,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
