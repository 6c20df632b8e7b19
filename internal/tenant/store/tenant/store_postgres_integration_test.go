//go:build integration

package tenant

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"atrium/internal/tenant/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
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
	err := s.postgres.TruncateTables(context.Background(),
		"rooms", "profiles", "delegations", "invitations", "tenants")
	s.Require().NoError(err)
}

func newTestTenant(name string) *models.Tenant {
	now := time.Now()
	return &models.Tenant{
		ID:        id.NewTenantID(),
		Name:      name,
		Status:    models.TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	tenant := newTestTenant("Acme")
	tenant.Industry = "Coworking"

	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, tenant))

	found, err := s.store.FindByID(ctx, tenant.ID)
	s.Require().NoError(err)
	s.Equal("Acme", found.Name)
	s.Equal("Coworking", found.Industry)
	s.Equal(models.TenantStatusActive, found.Status)
}

func (s *PostgresStoreSuite) TestCaseInsensitiveNameConstraint() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, newTestTenant("Acme")))
	s.Require().ErrorIs(s.store.CreateIfNameAvailable(ctx, newTestTenant("ACME")), sentinel.ErrConflict)
}

// TestConcurrentUniqueNameViolation verifies that concurrent creation
// attempts with the same name result in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentUniqueNameViolation() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.CreateIfNameAvailable(ctx, newTestTenant("Contested"))
			switch {
			case err == nil:
				successCount.Add(1)
			case s.ErrorIs(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

func (s *PostgresStoreSuite) TestListAndUpdate() {
	ctx := context.Background()
	one := newTestTenant("One")
	two := newTestTenant("Two")
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, one))
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, two))

	two.Status = models.TenantStatusInactive
	two.UpdatedAt = time.Now()
	s.Require().NoError(s.store.Update(ctx, two))

	inactive, err := s.store.List(ctx, models.TenantStatusInactive)
	s.Require().NoError(err)
	s.Require().Len(inactive, 1)
	s.Equal(two.ID, inactive[0].ID)

	all, err := s.store.List(ctx, "")
	s.Require().NoError(err)
	s.Len(all, 2)
}
