package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"atrium/internal/tenant/models"
	tenantstore "atrium/internal/tenant/store/tenant"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/audit"
	auditmemory "atrium/pkg/platform/audit/store/memory"
	"atrium/pkg/platform/audit/publisher"
)

type TenantServiceSuite struct {
	suite.Suite
	service *Service
	store   *tenantstore.InMemory
	audit   *auditmemory.InMemoryStore
	ctx     context.Context
}

func (s *TenantServiceSuite) SetupTest() {
	s.store = tenantstore.NewInMemory()
	s.audit = auditmemory.NewInMemoryStore()
	s.service = New(s.store, WithAuditPublisher(publisher.NewPublisher(s.audit)))
	s.ctx = context.Background()
}

func TestTenantServiceSuite(t *testing.T) {
	suite.Run(t, new(TenantServiceSuite))
}

func (s *TenantServiceSuite) TestCreateTenant() {
	s.Run("creates an active tenant and audits it", func() {
		tenant, err := s.service.CreateTenant(s.ctx, CreateTenantRequest{
			Name:     "  Acme  ",
			Industry: "Manufacturing",
		})
		s.Require().NoError(err)
		s.Equal("Acme", tenant.Name)
		s.Equal(models.TenantStatusActive, tenant.Status)

		events, err := s.audit.ListByAction(s.ctx, audit.EventTenantCreated)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(tenant.ID, events[0].TenantID)
	})

	s.Run("empty name is a validation error", func() {
		_, err := s.service.CreateTenant(s.ctx, CreateTenantRequest{Name: "   "})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("duplicate name is a conflict", func() {
		_, err := s.service.CreateTenant(s.ctx, CreateTenantRequest{Name: "Acme"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *TenantServiceSuite) TestGetTenant() {
	created, err := s.service.CreateTenant(s.ctx, CreateTenantRequest{Name: "Acme"})
	s.Require().NoError(err)

	found, err := s.service.GetTenant(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)

	_, err = s.service.GetTenant(s.ctx, id.NewTenantID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *TenantServiceSuite) TestListTenants() {
	_, err := s.service.CreateTenant(s.ctx, CreateTenantRequest{Name: "One"})
	s.Require().NoError(err)
	two, err := s.service.CreateTenant(s.ctx, CreateTenantRequest{Name: "Two"})
	s.Require().NoError(err)
	_, err = s.service.DeactivateTenant(s.ctx, two.ID)
	s.Require().NoError(err)

	inactive, err := s.service.ListTenants(s.ctx, "inactive")
	s.Require().NoError(err)
	s.Require().Len(inactive, 1)
	s.Equal(two.ID, inactive[0].ID)

	_, err = s.service.ListTenants(s.ctx, "bogus")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *TenantServiceSuite) TestUpdateTenant() {
	created, err := s.service.CreateTenant(s.ctx, CreateTenantRequest{Name: "Acme"})
	s.Require().NoError(err)

	newPhone := "+1 555 0101"
	updated, err := s.service.UpdateTenant(s.ctx, created.ID, UpdateTenantRequest{Phone: &newPhone})
	s.Require().NoError(err)
	s.Equal(newPhone, updated.Phone)
	s.Equal("Acme", updated.Name, "unset fields stay unchanged")

	empty := "  "
	_, err = s.service.UpdateTenant(s.ctx, created.ID, UpdateTenantRequest{Name: &empty})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *TenantServiceSuite) TestDeactivateReactivate() {
	created, err := s.service.CreateTenant(s.ctx, CreateTenantRequest{Name: "Acme"})
	s.Require().NoError(err)

	deactivated, err := s.service.DeactivateTenant(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.TenantStatusInactive, deactivated.Status)

	s.Run("double deactivate conflicts", func() {
		_, err := s.service.DeactivateTenant(s.ctx, created.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	reactivated, err := s.service.ReactivateTenant(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.TenantStatusActive, reactivated.Status)
}
