package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// OperatorRepository handles persistence for admins and authority staff.
type OperatorRepository interface {
	Create(ctx context.Context, operator *domain.Operator) error
	GetByID(ctx context.Context, id string) (*domain.Operator, error)
	GetByEmail(ctx context.Context, email string) (*domain.Operator, error)
}

type operatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository instantiates the repository.
func NewOperatorRepository(pool *pgxpool.Pool) OperatorRepository {
	return &operatorRepository{pool: pool}
}

func (r *operatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	const query = `
        INSERT INTO operators (name, email, password_hash, role, authority_id, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		operator.Name,
		operator.Email,
		operator.PasswordHash,
		operator.Role,
		operator.AuthorityID,
		operator.Active,
	).Scan(&operator.ID, &operator.CreatedAt, &operator.UpdatedAt)
}

func (r *operatorRepository) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	const query = `
        SELECT id, name, email, password_hash, role, authority_id, active_flag, created_at, updated_at
        FROM operators WHERE id=$1`
	return r.fetch(ctx, query, id)
}

func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	const query = `
        SELECT id, name, email, password_hash, role, authority_id, active_flag, created_at, updated_at
        FROM operators WHERE email=$1`
	return r.fetch(ctx, query, email)
}

func (r *operatorRepository) fetch(ctx context.Context, query string, arg any) (*domain.Operator, error) {
	var operator domain.Operator
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&operator.ID,
		&operator.Name,
		&operator.Email,
		&operator.PasswordHash,
		&operator.Role,
		&operator.AuthorityID,
		&operator.Active,
		&operator.CreatedAt,
		&operator.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &operator, nil
}
