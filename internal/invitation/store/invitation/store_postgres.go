package invitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"atrium/internal/invitation/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists invitations. Token uniqueness rides on the DB unique
// constraint; single-use rides on the conditional UPDATE in Consume.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (id, token, email, tenant_id, role, created_at, expires_at, consumed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
	`
	_, err := s.pool.Exec(ctx, query,
		inv.ID.String(), inv.Token, inv.Email, inv.TenantID.String(),
		string(inv.Role), inv.IssuedAt, inv.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

func (s *Postgres) FindByToken(ctx context.Context, token string) (*models.Invitation, error) {
	query := `
		SELECT id, token, email, tenant_id, role, created_at, expires_at, consumed_at
		FROM invitations WHERE token = $1
	`
	return scanInvitation(s.pool.QueryRow(ctx, query, token))
}

// Consume flips consumed_at from NULL to now in one conditional UPDATE. Zero
// rows affected means the token either does not exist or was already
// consumed; a second read disambiguates.
func (s *Postgres) Consume(ctx context.Context, token string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE invitations SET consumed_at = $2
		WHERE token = $1 AND consumed_at IS NULL
	`, token, now)
	if err != nil {
		return fmt.Errorf("consume invitation: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invitations WHERE token = $1)`, token,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check invitation existence: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrAlreadyUsed
}

func (s *Postgres) FindPendingByTenantAndEmail(ctx context.Context, tenantID id.TenantID, email string, now time.Time) ([]*models.Invitation, error) {
	query := `
		SELECT id, token, email, tenant_id, role, created_at, expires_at, consumed_at
		FROM invitations
		WHERE tenant_id = $1 AND email = $2 AND consumed_at IS NULL AND expires_at > $3
	`
	rows, err := s.pool.Query(ctx, query, tenantID.String(), email, now)
	if err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}
	defer rows.Close()

	var out []*models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var (
		rawID     string
		rawTenant string
		role      string
		inv       models.Invitation
	)
	err := row.Scan(&rawID, &inv.Token, &inv.Email, &rawTenant, &role,
		&inv.IssuedAt, &inv.ExpiresAt, &inv.ConsumedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan invitation: %w", err)
	}

	parsedID, err := id.ParseInvitationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse invitation id: %w", err)
	}
	parsedTenant, err := id.ParseTenantID(rawTenant)
	if err != nil {
		return nil, fmt.Errorf("parse invitation tenant id: %w", err)
	}
	inv.ID = parsedID
	inv.TenantID = parsedTenant
	inv.Role = id.Role(role)
	return &inv, nil
}
