package invitation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"atrium/internal/invitation/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/secrets"
)

type InvitationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InvitationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestInvitationStoreSuite(t *testing.T) {
	suite.Run(t, new(InvitationStoreSuite))
}

func (s *InvitationStoreSuite) newInvitation(email string, tenantID id.TenantID) *models.Invitation {
	token, err := secrets.GenerateToken()
	s.Require().NoError(err)
	inv, err := models.NewInvitation(token, email, id.RoleEmployee, tenantID, time.Now())
	s.Require().NoError(err)
	return inv
}

func (s *InvitationStoreSuite) TestCreateAndFind() {
	inv := s.newInvitation("worker@acme.test", id.NewTenantID())
	s.Require().NoError(s.store.Create(s.ctx, inv))

	found, err := s.store.FindByToken(s.ctx, inv.Token)
	s.Require().NoError(err)
	s.Equal(inv.Email, found.Email)
	s.Nil(found.ConsumedAt)

	s.Run("unknown token is ErrNotFound", func() {
		_, err := s.store.FindByToken(s.ctx, "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate token is ErrConflict", func() {
		dup := s.newInvitation("other@acme.test", id.NewTenantID())
		dup.Token = inv.Token
		s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})
}

func (s *InvitationStoreSuite) TestConsume() {
	inv := s.newInvitation("worker@acme.test", id.NewTenantID())
	s.Require().NoError(s.store.Create(s.ctx, inv))

	now := time.Now()
	s.Require().NoError(s.store.Consume(s.ctx, inv.Token, now))

	found, err := s.store.FindByToken(s.ctx, inv.Token)
	s.Require().NoError(err)
	s.Require().NotNil(found.ConsumedAt)
	s.WithinDuration(now, *found.ConsumedAt, time.Second)

	s.Run("second consume is ErrAlreadyUsed", func() {
		s.Require().ErrorIs(s.store.Consume(s.ctx, inv.Token, time.Now()), sentinel.ErrAlreadyUsed)
	})

	s.Run("unknown token is ErrNotFound", func() {
		s.Require().ErrorIs(s.store.Consume(s.ctx, "missing", time.Now()), sentinel.ErrNotFound)
	})
}

// TestConsumeConcurrent pins the single-use contract: of N concurrent
// consumers exactly one succeeds.
func (s *InvitationStoreSuite) TestConsumeConcurrent() {
	inv := s.newInvitation("raced@acme.test", id.NewTenantID())
	s.Require().NoError(s.store.Create(s.ctx, inv))

	const goroutines = 32
	results := make(chan error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.store.Consume(s.ctx, inv.Token, time.Now())
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, used int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case s.ErrorIs(err, sentinel.ErrAlreadyUsed):
			used++
		}
	}
	s.Equal(1, succeeded)
	s.Equal(goroutines-1, used)
}

func (s *InvitationStoreSuite) TestFindPendingByTenantAndEmail() {
	tenantID := id.NewTenantID()
	now := time.Now()

	pending := s.newInvitation("worker@acme.test", tenantID)
	s.Require().NoError(s.store.Create(s.ctx, pending))

	consumed := s.newInvitation("worker@acme.test", tenantID)
	s.Require().NoError(s.store.Create(s.ctx, consumed))
	s.Require().NoError(s.store.Consume(s.ctx, consumed.Token, now))

	expired := s.newInvitation("worker@acme.test", tenantID)
	expired.ExpiresAt = now.Add(-time.Hour)
	s.Require().NoError(s.store.Create(s.ctx, expired))

	otherTenant := s.newInvitation("worker@acme.test", id.NewTenantID())
	s.Require().NoError(s.store.Create(s.ctx, otherTenant))

	found, err := s.store.FindPendingByTenantAndEmail(s.ctx, tenantID, "worker@acme.test", now)
	s.Require().NoError(err)
	s.Require().Len(found, 1, "consumed, expired and foreign-tenant rows are filtered out")
	s.Equal(pending.Token, found[0].Token)
}
