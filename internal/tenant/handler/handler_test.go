package handler

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"atrium/internal/tenant/models"
	"atrium/internal/tenant/service"
	tenantstore "atrium/internal/tenant/store/tenant"
	"atrium/pkg/testutil"
)

type TenantHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func (s *TenantHandlerSuite) SetupTest() {
	svc := service.New(tenantstore.NewInMemory())
	h := New(svc, slog.New(slog.DiscardHandler))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func TestTenantHandlerSuite(t *testing.T) {
	suite.Run(t, new(TenantHandlerSuite))
}

func (s *TenantHandlerSuite) createTenant(name string) *models.Tenant {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/companies", map[string]string{
		"name":     name,
		"industry": "Coworking",
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return testutil.DecodeResponse[models.Tenant](s.T(), rr)
}

func (s *TenantHandlerSuite) TestCreateAndGet() {
	created := s.createTenant("Acme")
	s.Equal("Acme", created.Name)

	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/admin/companies/"+created.ID.String()))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	got := testutil.DecodeResponse[models.Tenant](s.T(), rr)
	s.Equal(created.ID, got.ID)
}

func (s *TenantHandlerSuite) TestCreateValidation() {
	rr := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/companies", map[string]string{"name": ""}))
	testutil.AssertErrorCode(s.T(), rr, http.StatusBadRequest, "invalid_input")

	rr = testutil.DoRequest(s.router,
		testutil.NewRequestWithBody(s.T(), http.MethodPost, "/admin/companies", "{not json"))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *TenantHandlerSuite) TestDuplicateNameConflicts() {
	s.createTenant("Acme")
	rr := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/companies", map[string]string{"name": "Acme"}))
	testutil.AssertErrorCode(s.T(), rr, http.StatusConflict, "conflict")
}

func (s *TenantHandlerSuite) TestList() {
	s.createTenant("Beta")
	s.createTenant("Alpha")

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/companies"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	tenants := testutil.DecodeResponse[[]models.Tenant](s.T(), rr)
	s.Require().Len(*tenants, 2)
	s.Equal("Alpha", (*tenants)[0].Name, "sorted by name")
}

func (s *TenantHandlerSuite) TestUpdate() {
	created := s.createTenant("Acme")

	rr := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPatch, "/admin/companies/"+created.ID.String(),
			map[string]string{"address": "1 Main St"}))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	got := testutil.DecodeResponse[models.Tenant](s.T(), rr)
	s.Equal("1 Main St", got.Address)
}

func (s *TenantHandlerSuite) TestDeactivateReactivate() {
	created := s.createTenant("Acme")

	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodPost, "/admin/companies/"+created.ID.String()+"/deactivate"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	got := testutil.DecodeResponse[models.Tenant](s.T(), rr)
	s.Equal(models.TenantStatusInactive, got.Status)

	rr = testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodPost, "/admin/companies/"+created.ID.String()+"/reactivate"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *TenantHandlerSuite) TestBadTenantID() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/companies/not-a-uuid"))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}
