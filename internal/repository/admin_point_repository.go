package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/geo"
)

// AdminPointRepository loads the tagged administrative points backing
// the local geospatial index.
type AdminPointRepository interface {
	ListAll(ctx context.Context) ([]geo.AdminPoint, error)
}

type adminPointRepository struct {
	pool *pgxpool.Pool
}

// NewAdminPointRepository builds the repository.
func NewAdminPointRepository(pool *pgxpool.Pool) AdminPointRepository {
	return &adminPointRepository{pool: pool}
}

func (r *adminPointRepository) ListAll(ctx context.Context) ([]geo.AdminPoint, error) {
	const query = `
        SELECT id, name, state, district, COALESCE(municipality, ''), COALESCE(pincode, ''), latitude, longitude
        FROM admin_points`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []geo.AdminPoint
	for rows.Next() {
		var point geo.AdminPoint
		if err := rows.Scan(
			&point.ID,
			&point.Name,
			&point.State,
			&point.District,
			&point.Municipality,
			&point.Pincode,
			&point.Latitude,
			&point.Longitude,
		); err != nil {
			return nil, err
		}
		result = append(result, point)
	}
	return result, rows.Err()
}
