package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "atrium/pkg/domain"
)

// Postgres persists revocations in the principal_revocations table. The
// fallback when no Redis is configured; expired rows are filtered on read
// rather than reaped.
type Postgres struct {
	db    *sql.DB
	clock func() time.Time
}

type PostgresOption func(*Postgres)

// WithPostgresClock sets the clock function. Test hook.
func WithPostgresClock(clock func() time.Time) PostgresOption {
	return func(l *Postgres) { l.clock = clock }
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *Postgres {
	l := &Postgres{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Postgres) Revoke(ctx context.Context, principalID id.PrincipalID, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	now := l.clock()
	query := `
		INSERT INTO principal_revocations (principal_id, revoked_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (principal_id) DO UPDATE SET
			revoked_at = EXCLUDED.revoked_at,
			expires_at = EXCLUDED.expires_at
	`
	if _, err := l.db.ExecContext(ctx, query, principalID.String(), now, now.Add(ttl)); err != nil {
		return fmt.Errorf("revoke principal: %w", err)
	}
	return nil
}

func (l *Postgres) IsRevoked(ctx context.Context, principalID id.PrincipalID) (bool, error) {
	var expiresAt time.Time
	err := l.db.QueryRowContext(ctx,
		`SELECT expires_at FROM principal_revocations WHERE principal_id = $1`,
		principalID.String(),
	).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check principal revocation: %w", err)
	}
	return l.clock().Before(expiresAt), nil
}
