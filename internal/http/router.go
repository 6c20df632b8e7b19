// Package httpapi assembles the HTTP surface: middleware stack, public
// routes, and the role-gated admin groups. Handlers stay thin; this package
// only decides who may reach them.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformmetrics "atrium/internal/platform/metrics"
	id "atrium/pkg/domain"
	authmw "atrium/pkg/platform/middleware/auth"
	"atrium/pkg/platform/middleware/metadata"
	request "atrium/pkg/platform/middleware/request"
	"atrium/pkg/platform/middleware/requesttime"
)

// Registrar mounts routes on a router group.
type Registrar interface {
	Register(r chi.Router)
}

// SplitRegistrar mounts routes that are partly public, partly authenticated.
type SplitRegistrar interface {
	RegisterPublic(r chi.Router)
	RegisterProtected(r chi.Router)
}

// Deps carries everything the router needs. All handlers are required; nil
// Metrics disables HTTP instrumentation (tests).
type Deps struct {
	Logger         *slog.Logger
	Metrics        *platformmetrics.Metrics
	AllowedOrigins []string

	TokenValidator authmw.TokenValidator
	Revocations    authmw.RevocationChecker

	Auth        SplitRegistrar
	Invitations SplitRegistrar
	Tenants     Registrar
	Rooms       Registrar
	Employees   Registrar
}

// New builds the application router.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public surface: login and invitation redemption. Everything else
	// requires a bearer token.
	r.Group(func(r chi.Router) {
		d.Auth.RegisterPublic(r)
		d.Invitations.RegisterPublic(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.TokenValidator, d.Revocations, d.Logger))

		d.Auth.RegisterProtected(r)

		// Tenant administration is operator-only.
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRole(d.Logger, id.RoleSystemAdmin))
			d.Tenants.Register(r)
		})

		// Invitations: system admins invite into any tenant, tenant admins
		// into their own. The handler enforces the tenant pinning.
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRole(d.Logger, id.RoleSystemAdmin, id.RoleAdmin))
			d.Invitations.RegisterProtected(r)
		})

		// Tenant-scoped administration.
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRole(d.Logger, id.RoleAdmin))
			d.Rooms.Register(r)
			d.Employees.Register(r)
		})
	})

	return r
}
