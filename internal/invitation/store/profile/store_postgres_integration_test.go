//go:build integration

package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"atrium/internal/invitation/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres    *containers.PostgresContainer
	store       *Postgres
	tenantID    id.TenantID
	principalID id.PrincipalID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx,
		"rooms", "profiles", "delegations", "invitations", "principals", "tenants"))

	s.tenantID = id.NewTenantID()
	_, err := s.postgres.Pool.Exec(ctx,
		`INSERT INTO tenants (id, name, created_at, updated_at) VALUES ($1, $2, now(), now())`,
		s.tenantID.String(), "Acme")
	s.Require().NoError(err)

	s.principalID = id.NewPrincipalID()
	_, err = s.postgres.Pool.Exec(ctx,
		`INSERT INTO principals (id, email, password_hash, created_at) VALUES ($1, $2, 'x', now())`,
		s.principalID.String(), "worker@acme.test")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newProfile(firstName string) *models.Profile {
	now := time.Now()
	return &models.Profile{
		PrincipalID: s.principalID,
		TenantID:    s.tenantID,
		Email:       "worker@acme.test",
		FirstName:   firstName,
		LastName:    "Lovelace",
		Role:        id.RoleEmployee,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TestUpsertReconciles verifies last-writer-wins: a second write for the same
// (principal, tenant) pair replaces the row instead of conflicting.
func (s *PostgresStoreSuite) TestUpsertReconciles() {
	ctx := context.Background()
	s.Require().NoError(s.store.Upsert(ctx, s.newProfile("Skeleton")))
	s.Require().NoError(s.store.Upsert(ctx, s.newProfile("Ada")))

	found, err := s.store.FindByPrincipalAndTenant(ctx, s.principalID, s.tenantID)
	s.Require().NoError(err)
	s.Equal("Ada", found.FirstName)
	s.Equal(id.RoleEmployee, found.Role)

	listed, err := s.store.ListByTenant(ctx, s.tenantID)
	s.Require().NoError(err)
	s.Len(listed, 1)
}

func (s *PostgresStoreSuite) TestDeleteByPrincipal() {
	ctx := context.Background()
	s.Require().NoError(s.store.Upsert(ctx, s.newProfile("Ada")))

	s.Require().NoError(s.store.DeleteByPrincipal(ctx, s.principalID))

	_, err := s.store.FindByPrincipalAndTenant(ctx, s.principalID, s.tenantID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.DeleteByPrincipal(ctx, s.principalID),
		"deleting an absent principal is not an error")
}
