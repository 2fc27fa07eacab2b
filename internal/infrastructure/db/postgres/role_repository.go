package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/99minutos/identity-service/internal/core/domain"
)

type PostgresRoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{pool: pool}
}

func (r *PostgresRoleRepository) FindByName(ctx context.Context, name domain.Role) (*domain.RoleRecord, error) {
	var rec domain.RoleRecord
	var n string
	err := r.pool.QueryRow(ctx, `SELECT name, description FROM roles WHERE name = $1`, string(name)).
		Scan(&n, &rec.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	rec.Name = domain.Role(n)
	return &rec, nil
}

func (r *PostgresRoleRepository) Ensure(ctx context.Context, role domain.RoleRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		string(role.Name), role.Description,
	)
	if err != nil {
		return fmt.Errorf("ensure role: %w", err)
	}
	return nil
}
