package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/email"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/secrets"
)

const uniqueViolation = "23505"

// PostgresDirectory stores principals in the principals table.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed principal directory.
func NewPostgres(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

func (d *PostgresDirectory) Create(ctx context.Context, address, credential string) (id.PrincipalID, error) {
	hash, err := secrets.HashCredential(credential)
	if err != nil {
		return id.PrincipalID{}, err
	}

	principalID := id.NewPrincipalID()
	query := `
		INSERT INTO principals (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = d.pool.Exec(ctx, query, principalID.String(), email.Normalize(address), hash, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return id.PrincipalID{}, sentinel.ErrConflict
		}
		return id.PrincipalID{}, fmt.Errorf("create principal: %w", err)
	}
	return principalID, nil
}

func (d *PostgresDirectory) Delete(ctx context.Context, principalID id.PrincipalID) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM principals WHERE id = $1`, principalID.String())
	if err != nil {
		return fmt.Errorf("delete principal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (d *PostgresDirectory) Authenticate(ctx context.Context, address, credential string) (*Principal, error) {
	principal, err := d.FindByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if err := secrets.VerifyCredential(credential, principal.passwordHash); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return principal, nil
}

func (d *PostgresDirectory) FindByEmail(ctx context.Context, address string) (*Principal, error) {
	query := `SELECT id, email, password_hash, created_at FROM principals WHERE email = $1`
	return d.scanPrincipal(d.pool.QueryRow(ctx, query, email.Normalize(address)))
}

func (d *PostgresDirectory) FindByID(ctx context.Context, principalID id.PrincipalID) (*Principal, error) {
	query := `SELECT id, email, password_hash, created_at FROM principals WHERE id = $1`
	return d.scanPrincipal(d.pool.QueryRow(ctx, query, principalID.String()))
}

func (d *PostgresDirectory) scanPrincipal(row pgx.Row) (*Principal, error) {
	var (
		rawID     string
		principal Principal
	)
	err := row.Scan(&rawID, &principal.Email, &principal.passwordHash, &principal.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan principal: %w", err)
	}
	parsed, err := id.ParsePrincipalID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse principal id: %w", err)
	}
	principal.ID = parsed
	return &principal, nil
}
