package data

// Package data provides database repositories for the campus auth system.

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusware/campus-ui-api/internal/domain/model"
	apperrors "github.com/campusware/campus-ui-api/internal/errors"
)

// TenantRepo provides read access to the tenant directory.
type TenantRepo struct {
	pool *pgxpool.Pool
}

// NewTenantRepo creates a new TenantRepo.
func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{pool: pool}
}

// GetByID retrieves a tenant by ID.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	if id == "" {
		return nil, apperrors.Validation("tenant ID is required")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, tier, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer rows.Close()

	tenant, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Tenant])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("tenant %q not found", id)
		}
		return nil, apperrors.MapDBError(err)
	}
	return &tenant, nil
}

// List retrieves tenants ordered by name, for admin views.
func (r *TenantRepo) List(ctx context.Context, limit, offset int) ([]model.Tenant, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, tier, created_at, updated_at
		FROM tenants
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer rows.Close()

	tenants, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Tenant])
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return tenants, nil
}
