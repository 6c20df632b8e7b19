//go:build integration

package delegation

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
	postgres *containers.PostgresContainer
	store    *Postgres
	tenantID id.TenantID
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
}

func (s *PostgresStoreSuite) seedPrincipal(email string) id.PrincipalID {
	principalID := id.NewPrincipalID()
	_, err := s.postgres.Pool.Exec(context.Background(),
		`INSERT INTO principals (id, email, password_hash, created_at) VALUES ($1, $2, 'x', now())`,
		principalID.String(), email)
	s.Require().NoError(err)
	return principalID
}

func (s *PostgresStoreSuite) TestLifecycleRoundTrip() {
	ctx := context.Background()
	d := models.NewDelegation(s.tenantID, "worker@acme.test", id.RoleEmployee, time.Now())
	s.Require().NoError(s.store.Create(ctx, d))

	found, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.DelegationInvited, found.Status)
	s.Nil(found.PrincipalID)

	principalID := s.seedPrincipal("worker@acme.test")
	activated, err := s.store.Activate(ctx, s.tenantID, "worker@acme.test", principalID, time.Now())
	s.Require().NoError(err)
	s.Equal(d.ID, activated.ID)
	s.Equal(models.DelegationActive, activated.Status)
	s.Require().NotNil(activated.PrincipalID)
	s.Equal(principalID, *activated.PrincipalID)

	// Activate targets rows in invited state only; repeating it finds none.
	_, err = s.store.Activate(ctx, s.tenantID, "worker@acme.test", principalID, time.Now())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestActivateWithDuplicatePending() {
	ctx := context.Background()
	base := time.Now()

	older := models.NewDelegation(s.tenantID, "worker@acme.test", id.RoleEmployee, base.Add(-time.Hour))
	s.Require().NoError(s.store.Create(ctx, older))
	newer := models.NewDelegation(s.tenantID, "worker@acme.test", id.RoleEmployee, base)
	s.Require().NoError(s.store.Create(ctx, newer))

	principalID := s.seedPrincipal("worker@acme.test")
	activated, err := s.store.Activate(ctx, s.tenantID, "worker@acme.test", principalID, time.Now())
	s.Require().NoError(err)
	s.Equal(newer.ID, activated.ID, "newest invited grant wins")

	remaining, err := s.store.FindByID(ctx, older.ID)
	s.Require().NoError(err)
	s.Equal(models.DelegationInvited, remaining.Status, "older duplicate stays invited")
	s.Nil(remaining.PrincipalID)

	listed, err := s.store.ListByTenant(ctx, s.tenantID)
	s.Require().NoError(err)
	active := 0
	for _, d := range listed {
		if d.Status == models.DelegationActive {
			active++
		}
	}
	s.Equal(1, active, "exactly one grant activates per redemption")
}

func (s *PostgresStoreSuite) TestDeleteIsHard() {
	ctx := context.Background()
	d := models.NewDelegation(s.tenantID, "worker@acme.test", id.RoleEmployee, time.Now())
	s.Require().NoError(s.store.Create(ctx, d))

	s.Require().NoError(s.store.Delete(ctx, d.ID))

	_, err := s.store.FindByID(ctx, d.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	listed, err := s.store.ListByTenant(ctx, s.tenantID)
	s.Require().NoError(err)
	s.Empty(listed, "listings reflect removal immediately")
}
