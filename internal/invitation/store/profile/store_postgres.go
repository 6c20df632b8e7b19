package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atrium/internal/invitation/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

// Postgres persists profiles keyed by (principal_id, tenant_id).
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Upsert reconciles the profile row with ON CONFLICT DO UPDATE. Last writer
// wins by contract; the redeemer's write must land regardless of whether an
// out-of-band skeleton row beat it there.
func (s *Postgres) Upsert(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (principal_id, tenant_id, email, first_name, last_name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (principal_id, tenant_id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = EXCLUDED.role,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query,
		p.PrincipalID.String(), p.TenantID.String(), p.Email,
		p.FirstName, p.LastName, string(p.Role), p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *Postgres) FindByPrincipalAndTenant(ctx context.Context, principalID id.PrincipalID, tenantID id.TenantID) (*models.Profile, error) {
	query := `
		SELECT principal_id, tenant_id, email, first_name, last_name, role, status, created_at, updated_at
		FROM profiles WHERE principal_id = $1 AND tenant_id = $2
	`
	return scanProfile(s.pool.QueryRow(ctx, query, principalID.String(), tenantID.String()))
}

func (s *Postgres) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Profile, error) {
	query := `
		SELECT principal_id, tenant_id, email, first_name, last_name, role, status, created_at, updated_at
		FROM profiles WHERE tenant_id = $1 ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteByPrincipal(ctx context.Context, principalID id.PrincipalID) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM profiles WHERE principal_id = $1`, principalID.String(),
	); err != nil {
		return fmt.Errorf("delete profiles: %w", err)
	}
	return nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var (
		rawPrincipal string
		rawTenant    string
		role         string
		p            models.Profile
	)
	err := row.Scan(&rawPrincipal, &rawTenant, &p.Email, &p.FirstName, &p.LastName,
		&role, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	parsedPrincipal, err := id.ParsePrincipalID(rawPrincipal)
	if err != nil {
		return nil, fmt.Errorf("parse profile principal id: %w", err)
	}
	parsedTenant, err := id.ParseTenantID(rawTenant)
	if err != nil {
		return nil, fmt.Errorf("parse profile tenant id: %w", err)
	}
	p.PrincipalID = parsedPrincipal
	p.TenantID = parsedTenant
	p.Role = id.Role(role)
	return &p, nil
}
