//go:build integration

package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/testutil/containers"
)

type PostgresDirectorySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	dir      *PostgresDirectory
}

func TestPostgresDirectorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresDirectorySuite))
}

func (s *PostgresDirectorySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.dir = NewPostgres(s.postgres.Pool)
}

func (s *PostgresDirectorySuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "principals")
	s.Require().NoError(err)
}

func (s *PostgresDirectorySuite) TestCreateAuthenticateDelete() {
	ctx := context.Background()

	principalID, err := s.dir.Create(ctx, "a@x.com", "Secret123!")
	s.Require().NoError(err)

	principal, err := s.dir.Authenticate(ctx, "a@x.com", "Secret123!")
	s.Require().NoError(err)
	s.Equal(principalID, principal.ID)

	s.Require().NoError(s.dir.Delete(ctx, principalID))

	_, err = s.dir.Authenticate(ctx, "a@x.com", "Secret123!")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *PostgresDirectorySuite) TestUniqueEmailConstraint() {
	ctx := context.Background()

	_, err := s.dir.Create(ctx, "dup@x.com", "Secret123!")
	s.Require().NoError(err)

	_, err = s.dir.Create(ctx, "dup@x.com", "Other456!")
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresDirectorySuite) TestDeleteUnknown() {
	ctx := context.Background()

	principal, err := s.dir.Create(ctx, "known@x.com", "Secret123!")
	s.Require().NoError(err)
	s.Require().NoError(s.dir.Delete(ctx, principal))

	s.Require().ErrorIs(s.dir.Delete(ctx, principal), sentinel.ErrNotFound)
}
