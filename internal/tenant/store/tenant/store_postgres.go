package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"atrium/internal/tenant/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists tenants in the tenants table. Name uniqueness is
// enforced by the DB constraint, not application logic.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, address, industry, phone, logo_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		tenant.ID.String(), tenant.Name, tenant.Address, tenant.Industry,
		tenant.Phone, tenant.LogoURL, string(tenant.Status), tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	query := `
		SELECT id, name, address, industry, phone, logo_url, status, created_at, updated_at
		FROM tenants WHERE id = $1
	`
	return scanTenant(s.pool.QueryRow(ctx, query, tenantID.String()))
}

func (s *PostgresStore) List(ctx context.Context, status models.TenantStatus) ([]*models.Tenant, error) {
	query := `
		SELECT id, name, address, industry, phone, logo_url, status, created_at, updated_at
		FROM tenants
		WHERE ($1 = '' OR status = $1)
		ORDER BY name
	`
	rows, err := s.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tenant)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, address = $3, industry = $4, phone = $5, logo_url = $6,
		    status = $7, updated_at = $8
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		tenant.ID.String(), tenant.Name, tenant.Address, tenant.Industry,
		tenant.Phone, tenant.LogoURL, string(tenant.Status), tenant.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var (
		rawID  string
		status string
		tenant models.Tenant
	)
	err := row.Scan(&rawID, &tenant.Name, &tenant.Address, &tenant.Industry,
		&tenant.Phone, &tenant.LogoURL, &status, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	parsed, err := id.ParseTenantID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse tenant id: %w", err)
	}
	tenant.ID = parsed
	tenant.Status = models.TenantStatus(status)
	return &tenant, nil
}
