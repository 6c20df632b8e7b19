// Package service orchestrates tenant lifecycle management.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tenantmetrics "atrium/internal/tenant/metrics"
	"atrium/internal/tenant/models"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/audit"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/requestcontext"
)

// TenantStore is the persistence surface the service needs.
type TenantStore interface {
	CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	List(ctx context.Context, status models.TenantStatus) ([]*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
}

// AuditPublisher records tenant lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates tenant management.
type Service struct {
	tenants        TenantStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *tenantmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(tenants TenantStore, opts ...Option) *Service {
	s := &Service{tenants: tenants, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTenantRequest carries the fields of a new tenant organization.
type CreateTenantRequest struct {
	Name     string
	Address  string
	Industry string
	Phone    string
	LogoURL  string
}

func (s *Service) CreateTenant(ctx context.Context, req CreateTenantRequest) (*models.Tenant, error) {
	tenant, err := models.NewTenant(id.NewTenantID(), req.Name, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, err.Error())
		}
		return nil, err
	}
	tenant.Address = strings.TrimSpace(req.Address)
	tenant.Industry = strings.TrimSpace(req.Industry)
	tenant.Phone = strings.TrimSpace(req.Phone)
	tenant.LogoURL = strings.TrimSpace(req.LogoURL)

	if err := s.tenants.CreateIfNameAvailable(ctx, tenant); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "tenant name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tenant")
	}

	s.emitAudit(ctx, audit.EventTenantCreated, tenant.ID)
	if s.metrics != nil {
		s.metrics.TenantsCreated.Inc()
	}
	return tenant, nil
}

func (s *Service) GetTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	start := time.Now()
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	if s.metrics != nil {
		s.metrics.ObserveGetTenant(start)
	}
	return tenant, nil
}

// ListTenants returns tenants, optionally filtered by status. An empty
// rawStatus returns all; an unknown one is a validation error.
func (s *Service) ListTenants(ctx context.Context, rawStatus string) ([]*models.Tenant, error) {
	status := models.TenantStatus(rawStatus)
	if rawStatus != "" && !status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown tenant status %q", rawStatus)
	}
	tenants, err := s.tenants.List(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tenants")
	}
	return tenants, nil
}

// UpdateTenantRequest updates mutable tenant fields. Nil means unchanged.
type UpdateTenantRequest struct {
	Name     *string
	Address  *string
	Industry *string
	Phone    *string
	LogoURL  *string
}

func (s *Service) UpdateTenant(ctx context.Context, tenantID id.TenantID, req UpdateTenantRequest) (*models.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant name cannot be empty")
		}
		tenant.Name = name
	}
	if req.Address != nil {
		tenant.Address = strings.TrimSpace(*req.Address)
	}
	if req.Industry != nil {
		tenant.Industry = strings.TrimSpace(*req.Industry)
	}
	if req.Phone != nil {
		tenant.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.LogoURL != nil {
		tenant.LogoURL = strings.TrimSpace(*req.LogoURL)
	}
	tenant.UpdatedAt = requestcontext.Now(ctx)

	if err := s.tenants.Update(ctx, tenant); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "tenant name must be unique")
		}
		return nil, wrapTenantErr(err)
	}

	s.emitAudit(ctx, audit.EventTenantUpdated, tenant.ID)
	return tenant, nil
}

func (s *Service) DeactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	if err := tenant.Deactivate(requestcontext.Now(ctx)); err != nil {
		return nil, dErrors.New(dErrors.CodeConflict, err.Error())
	}
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, wrapTenantErr(err)
	}

	s.emitAudit(ctx, audit.EventTenantDeactivated, tenant.ID)
	if s.metrics != nil {
		s.metrics.TenantsDeactivated.Inc()
	}
	return tenant, nil
}

func (s *Service) ReactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	if err := tenant.Reactivate(requestcontext.Now(ctx)); err != nil {
		return nil, dErrors.New(dErrors.CodeConflict, err.Error())
	}
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, wrapTenantErr(err)
	}

	s.emitAudit(ctx, audit.EventTenantReactivated, tenant.ID)
	return tenant, nil
}

func (s *Service) emitAudit(ctx context.Context, action audit.AuditEvent, tenantID id.TenantID) {
	requestID := requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, string(action),
		"tenant_id", tenantID,
		"request_id", requestID,
		"log_type", "audit",
	)
	if s.auditPublisher == nil {
		return
	}
	actorID := ""
	if actor := requestcontext.PrincipalID(ctx); !actor.IsNil() {
		actorID = actor.String()
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		TenantID:  tenantID,
		Action:    string(action),
		ActorID:   actorID,
		RequestID: requestID,
	})
}

func wrapTenantErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
}
