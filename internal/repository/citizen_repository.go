package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CitizenRepository handles persistence for reporting citizens.
type CitizenRepository interface {
	Create(ctx context.Context, citizen *domain.Citizen) error
	GetByID(ctx context.Context, id string) (*domain.Citizen, error)
	GetByEmail(ctx context.Context, email string) (*domain.Citizen, error)
}

type citizenRepository struct {
	pool *pgxpool.Pool
}

// NewCitizenRepository instantiates the repository.
func NewCitizenRepository(pool *pgxpool.Pool) CitizenRepository {
	return &citizenRepository{pool: pool}
}

func (r *citizenRepository) Create(ctx context.Context, citizen *domain.Citizen) error {
	const query = `
        INSERT INTO citizens (name, email, password_hash, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		citizen.Name,
		citizen.Email,
		citizen.PasswordHash,
		citizen.Status,
	).Scan(&citizen.ID, &citizen.CreatedAt, &citizen.UpdatedAt)
}

func (r *citizenRepository) GetByID(ctx context.Context, id string) (*domain.Citizen, error) {
	const query = `
        SELECT id, name, email, password_hash, status, created_at, updated_at
        FROM citizens WHERE id=$1`
	return r.fetch(ctx, query, id)
}

func (r *citizenRepository) GetByEmail(ctx context.Context, email string) (*domain.Citizen, error) {
	const query = `
        SELECT id, name, email, password_hash, status, created_at, updated_at
        FROM citizens WHERE email=$1`
	return r.fetch(ctx, query, email)
}

func (r *citizenRepository) fetch(ctx context.Context, query string, arg any) (*domain.Citizen, error) {
	var citizen domain.Citizen
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&citizen.ID,
		&citizen.Name,
		&citizen.Email,
		&citizen.PasswordHash,
		&citizen.Status,
		&citizen.CreatedAt,
		&citizen.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &citizen, nil
}
