// Package handler exposes the invitation lifecycle over HTTP. Issuance and
// revocation are admin-gated by the router; redemption is public because the
// invitee has no session yet.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"atrium/internal/invitation/service"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/httputil"
	"atrium/pkg/requestcontext"
)

// Service is the lifecycle surface the handler needs.
type Service interface {
	Issue(ctx context.Context, req service.IssueRequest) (*service.IssueResult, error)
	Redeem(ctx context.Context, req service.RedeemRequest) (*service.RedeemResult, error)
	Revoke(ctx context.Context, delegationID id.DelegationID) error
}

// Handler serves invitation lifecycle endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterProtected mounts the admin-gated endpoints.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/invitations", h.HandleIssue)
	r.Delete("/delegations/{delegationID}", h.HandleRevoke)
}

// RegisterPublic mounts redemption, reachable without a session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/register", h.HandleRedeem)
}

type issueRequest struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type issueResponse struct {
	DelegationID     id.DelegationID `json:"delegation_id"`
	ExpiresAt        time.Time       `json:"expires_at"`
	EmailSent        bool            `json:"email_sent"`
	DuplicatePending bool            `json:"duplicate_pending,omitempty"`
}

func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[issueRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenantID, err := h.resolveTenant(ctx, req.TenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Issue(ctx, service.IssueRequest{
		TenantID: tenantID,
		Email:    req.Email,
		Role:     id.Role(req.Role),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "invitation issuance failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	// The raw token travels by email only; the API response never carries it.
	httputil.WriteJSON(w, http.StatusCreated, issueResponse{
		DelegationID:     result.DelegationID,
		ExpiresAt:        result.ExpiresAt,
		EmailSent:        result.EmailSent,
		DuplicatePending: result.DuplicatePending,
	})
}

// resolveTenant scopes issuance. System admins name any tenant in the body;
// everyone else is pinned to the tenant on their session.
func (h *Handler) resolveTenant(ctx context.Context, raw string) (id.TenantID, error) {
	if requestcontext.Role(ctx) == id.RoleSystemAdmin && raw != "" {
		return id.ParseTenantID(raw)
	}
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		return id.TenantID{}, dErrors.New(dErrors.CodeForbidden, "no tenant scope on session")
	}
	if raw != "" {
		parsed, err := id.ParseTenantID(raw)
		if err != nil {
			return id.TenantID{}, err
		}
		if parsed != tenantID {
			return id.TenantID{}, dErrors.New(dErrors.CodeForbidden, "cannot invite into another tenant")
		}
	}
	return tenantID, nil
}

type redeemRequest struct {
	Token     string `json:"token"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[redeemRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Redeem(ctx, service.RedeemRequest{
		Token:      req.Token,
		Credential: req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "invitation redemption failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "invitation redeemed",
		"request_id", requestcontext.RequestID(ctx),
		"principal_id", result.PrincipalID,
		"tenant_id", result.TenantID,
	)
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	delegationID, err := id.ParseDelegationID(chi.URLParam(r, "delegationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Revoke(ctx, delegationID); err != nil {
		h.logger.ErrorContext(ctx, "revocation failed",
			"request_id", requestcontext.RequestID(ctx),
			"delegation_id", delegationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
