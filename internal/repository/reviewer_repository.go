package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/triage-service/internal/domain"
)

// ReviewerRepository defines persistence access for dashboard reviewers.
type ReviewerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Reviewer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Reviewer, error)
}

type reviewerRepository struct {
	pool *pgxpool.Pool
}

// NewReviewerRepository returns a Postgres-backed implementation.
func NewReviewerRepository(pool *pgxpool.Pool) ReviewerRepository {
	return &reviewerRepository{pool: pool}
}

func (r *reviewerRepository) GetByID(ctx context.Context, id string) (*domain.Reviewer, error) {
	const query = `
        SELECT id, name, email, password_hash, is_active, created_at, updated_at
        FROM reviewers WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *reviewerRepository) GetByEmail(ctx context.Context, email string) (*domain.Reviewer, error) {
	const query = `
        SELECT id, name, email, password_hash, is_active, created_at, updated_at
        FROM reviewers WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *reviewerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Reviewer, error) {
	var reviewer domain.Reviewer
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&reviewer.ID,
		&reviewer.Name,
		&reviewer.Email,
		&reviewer.PasswordHash,
		&reviewer.IsActive,
		&reviewer.CreatedAt,
		&reviewer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &reviewer, nil
}
