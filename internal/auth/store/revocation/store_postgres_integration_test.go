//go:build integration

package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "atrium/pkg/domain"
	"atrium/pkg/testutil/containers"
)

type PostgresListSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	now      time.Time
	list     *Postgres
}

func TestPostgresListSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresListSuite))
}

func (s *PostgresListSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
}

func (s *PostgresListSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "principal_revocations"))
	s.now = time.Now()
	s.list = NewPostgres(s.postgres.DB, WithPostgresClock(func() time.Time { return s.now }))
}

func (s *PostgresListSuite) TestRevokeAndCheck() {
	ctx := context.Background()
	principalID := id.NewPrincipalID()

	revoked, err := s.list.IsRevoked(ctx, principalID)
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.list.Revoke(ctx, principalID, time.Hour))

	revoked, err = s.list.IsRevoked(ctx, principalID)
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *PostgresListSuite) TestRevokeIsIdempotentUpsert() {
	ctx := context.Background()
	principalID := id.NewPrincipalID()

	s.Require().NoError(s.list.Revoke(ctx, principalID, time.Minute))
	s.Require().NoError(s.list.Revoke(ctx, principalID, time.Hour), "re-revoking extends, never conflicts")

	s.now = s.now.Add(30 * time.Minute)
	revoked, err := s.list.IsRevoked(ctx, principalID)
	s.Require().NoError(err)
	s.True(revoked, "the longer TTL from the second revoke wins")
}

func (s *PostgresListSuite) TestExpiredRowsReadAsNotRevoked() {
	ctx := context.Background()
	principalID := id.NewPrincipalID()

	s.Require().NoError(s.list.Revoke(ctx, principalID, time.Hour))
	s.now = s.now.Add(2 * time.Hour)

	revoked, err := s.list.IsRevoked(ctx, principalID)
	s.Require().NoError(err)
	s.False(revoked)
}
