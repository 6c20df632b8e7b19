package delegation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atrium/internal/invitation/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

// Postgres persists delegations in the delegations table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const delegationColumns = `id, principal_id, tenant_id, email, role, status, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, d *models.Delegation) error {
	query := `
		INSERT INTO delegations (id, principal_id, tenant_id, email, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		d.ID.String(), principalParam(d.PrincipalID), d.TenantID.String(),
		d.Email, string(d.Role), string(d.Status), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create delegation: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, delegationID id.DelegationID) (*models.Delegation, error) {
	query := `SELECT ` + delegationColumns + ` FROM delegations WHERE id = $1`
	return scanDelegation(s.pool.QueryRow(ctx, query, delegationID.String()))
}

func (s *Postgres) FindInvitedByTenantAndEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.Delegation, error) {
	query := `
		SELECT ` + delegationColumns + ` FROM delegations
		WHERE tenant_id = $1 AND email = $2 AND status = 'invited'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanDelegation(s.pool.QueryRow(ctx, query, tenantID.String(), email))
}

// FindActiveByPrincipal returns the active grant for a principal. Login uses
// it to resolve the caller's tenant and role.
func (s *Postgres) FindActiveByPrincipal(ctx context.Context, principalID id.PrincipalID) (*models.Delegation, error) {
	query := `
		SELECT ` + delegationColumns + ` FROM delegations
		WHERE principal_id = $1 AND status = 'active'
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return scanDelegation(s.pool.QueryRow(ctx, query, principalID.String()))
}

func (s *Postgres) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Delegation, error) {
	query := `SELECT ` + delegationColumns + ` FROM delegations WHERE tenant_id = $1 ORDER BY created_at`
	rows, err := s.pool.Query(ctx, query, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("list delegations: %w", err)
	}
	defer rows.Close()

	var out []*models.Delegation
	for rows.Next() {
		d, err := scanDelegation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Activate binds the principal to the pending grant for (tenantID, email)
// and flips it active, in one statement. Duplicate pending invitations are
// allowed, so the update is pinned to the newest invited row; the others
// stay invited and expire with their tokens.
func (s *Postgres) Activate(ctx context.Context, tenantID id.TenantID, email string, principalID id.PrincipalID, now time.Time) (*models.Delegation, error) {
	query := `
		UPDATE delegations
		SET status = 'active', principal_id = $3, updated_at = $4
		WHERE id = (
			SELECT id FROM delegations
			WHERE tenant_id = $1 AND email = $2 AND status = 'invited'
			ORDER BY created_at DESC
			LIMIT 1
		)
		RETURNING ` + delegationColumns
	return scanDelegation(s.pool.QueryRow(ctx, query, tenantID.String(), email, principalID.String(), now))
}

func (s *Postgres) Update(ctx context.Context, d *models.Delegation) error {
	query := `
		UPDATE delegations
		SET principal_id = $2, email = $3, role = $4, status = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		d.ID.String(), principalParam(d.PrincipalID), d.Email,
		string(d.Role), string(d.Status), d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update delegation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, delegationID id.DelegationID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM delegations WHERE id = $1`, delegationID.String())
	if err != nil {
		return fmt.Errorf("delete delegation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func principalParam(principalID *id.PrincipalID) any {
	if principalID == nil {
		return nil
	}
	return principalID.String()
}

func scanDelegation(row pgx.Row) (*models.Delegation, error) {
	var (
		rawID        string
		rawPrincipal *string
		rawTenant    string
		role         string
		status       string
		d            models.Delegation
	)
	err := row.Scan(&rawID, &rawPrincipal, &rawTenant, &d.Email, &role, &status,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan delegation: %w", err)
	}

	parsedID, err := id.ParseDelegationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse delegation id: %w", err)
	}
	parsedTenant, err := id.ParseTenantID(rawTenant)
	if err != nil {
		return nil, fmt.Errorf("parse delegation tenant id: %w", err)
	}
	d.ID = parsedID
	d.TenantID = parsedTenant
	d.Role = id.Role(role)
	d.Status = models.DelegationStatus(status)
	if rawPrincipal != nil {
		parsedPrincipal, err := id.ParsePrincipalID(*rawPrincipal)
		if err != nil {
			return nil, fmt.Errorf("parse delegation principal id: %w", err)
		}
		d.PrincipalID = &parsedPrincipal
	}
	return &d, nil
}
