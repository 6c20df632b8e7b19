// Package handler exposes the employee roster to tenant admins. Inviting a
// new employee is the invitation handler's job; this surface lists, re-roles
// and removes.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atrium/internal/employee/service"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/httputil"
	"atrium/pkg/requestcontext"
)

// Service is the roster surface the handler needs.
type Service interface {
	List(ctx context.Context, tenantID id.TenantID) ([]*service.Employee, error)
	ChangeRole(ctx context.Context, tenantID id.TenantID, delegationID id.DelegationID, role id.Role) (*service.Employee, error)
	Remove(ctx context.Context, tenantID id.TenantID, delegationID id.DelegationID) error
}

// Handler serves employee roster endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts roster endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/employees", h.HandleList)
	r.Patch("/employees/{delegationID}", h.HandleChangeRole)
	r.Delete("/employees/{delegationID}", h.HandleRemove)
}

type changeRoleRequest struct {
	Role id.Role `json:"role"`
}

func sessionTenant(ctx context.Context) (id.TenantID, error) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		return id.TenantID{}, dErrors.New(dErrors.CodeForbidden, "no tenant scope on session")
	}
	return tenantID, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := sessionTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	employees, err := h.service.List(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if employees == nil {
		employees = []*service.Employee{}
	}
	httputil.WriteJSON(w, http.StatusOK, employees)
}

func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, delegationID, err := h.scope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[changeRoleRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	employee, err := h.service.ChangeRole(ctx, tenantID, delegationID, req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employee)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, delegationID, err := h.scope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Remove(ctx, tenantID, delegationID); err != nil {
		h.logger.ErrorContext(ctx, "employee removal failed",
			"request_id", requestcontext.RequestID(ctx),
			"delegation_id", delegationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scope(r *http.Request) (id.TenantID, id.DelegationID, error) {
	tenantID, err := sessionTenant(r.Context())
	if err != nil {
		return id.TenantID{}, id.DelegationID{}, err
	}
	delegationID, err := id.ParseDelegationID(chi.URLParam(r, "delegationID"))
	if err != nil {
		return id.TenantID{}, id.DelegationID{}, err
	}
	return tenantID, delegationID, nil
}
