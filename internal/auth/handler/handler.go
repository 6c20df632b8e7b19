// Package handler exposes the login surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atrium/internal/auth/service"
	"atrium/pkg/platform/httputil"
	"atrium/pkg/requestcontext"
)

// Service is the auth surface the handler needs.
type Service interface {
	Login(ctx context.Context, req service.LoginRequest) (*service.LoginResult, error)
	Whoami(ctx context.Context) (*service.Session, error)
}

// Handler serves authentication endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts login, reachable without a session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// RegisterProtected mounts the endpoints that need a valid session.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/auth/me", h.HandleWhoami)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[loginRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(ctx, service.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleWhoami(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Whoami(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

// clientIP prefers the proxy-supplied header; the API sits behind a load
// balancer in every non-dev deployment.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
