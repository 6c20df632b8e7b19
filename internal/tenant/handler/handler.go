// Package handler wires tenant administration endpoints to the tenant
// service. All routes here are system-admin gated by the router.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atrium/internal/tenant/models"
	"atrium/internal/tenant/service"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/httputil"
	"atrium/pkg/requestcontext"
)

// Service is the tenant operations surface the handler needs.
type Service interface {
	CreateTenant(ctx context.Context, req service.CreateTenantRequest) (*models.Tenant, error)
	GetTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	ListTenants(ctx context.Context, status string) ([]*models.Tenant, error)
	UpdateTenant(ctx context.Context, tenantID id.TenantID, req service.UpdateTenantRequest) (*models.Tenant, error)
	DeactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	ReactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
}

// Handler serves tenant administration endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts tenant endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/companies", h.HandleCreate)
	r.Get("/admin/companies", h.HandleList)
	r.Get("/admin/companies/{tenantID}", h.HandleGet)
	r.Patch("/admin/companies/{tenantID}", h.HandleUpdate)
	r.Post("/admin/companies/{tenantID}/deactivate", h.HandleDeactivate)
	r.Post("/admin/companies/{tenantID}/reactivate", h.HandleReactivate)
}

type createRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Industry string `json:"industry"`
	Phone    string `json:"phone"`
	LogoURL  string `json:"logo_url"`
}

type updateRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Industry *string `json:"industry"`
	Phone    *string `json:"phone"`
	LogoURL  *string `json:"logo_url"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[createRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := h.service.CreateTenant(ctx, service.CreateTenantRequest{
		Name:     req.Name,
		Address:  req.Address,
		Industry: req.Industry,
		Phone:    req.Phone,
		LogoURL:  req.LogoURL,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "tenant creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "tenant created",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenant.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, tenant)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.service.ListTenants(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if tenants == nil {
		tenants = []*models.Tenant{}
	}
	httputil.WriteJSON(w, http.StatusOK, tenants)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tenant, err := h.service.GetTenant(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tenant)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[updateRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := h.service.UpdateTenant(ctx, tenantID, service.UpdateTenantRequest{
		Name:     req.Name,
		Address:  req.Address,
		Industry: req.Industry,
		Phone:    req.Phone,
		LogoURL:  req.LogoURL,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tenant)
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.DeactivateTenant)
}

func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ReactivateTenant)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, id.TenantID) (*models.Tenant, error),
) {
	ctx := r.Context()

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tenant, err := fn(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "tenant status changed",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenant.ID,
		"status", tenant.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, tenant)
}
