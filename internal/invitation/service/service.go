// Package service orchestrates the invitation-based credential lifecycle:
// issuing single-use tenant-role invitations, redeeming them into live
// principals, and revoking access in a way that provably blocks login.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	invmetrics "atrium/internal/invitation/metrics"
	"atrium/internal/invitation/models"
	"atrium/internal/notify"
	tenantmodels "atrium/internal/tenant/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/audit"
	"atrium/pkg/requestcontext"
)

// InvitationStore persists single-use tokens. Consume is the storage-level
// compare-and-swap carrying the single-use guarantee.
type InvitationStore interface {
	Create(ctx context.Context, inv *models.Invitation) error
	FindByToken(ctx context.Context, token string) (*models.Invitation, error)
	Consume(ctx context.Context, token string, now time.Time) error
	FindPendingByTenantAndEmail(ctx context.Context, tenantID id.TenantID, email string, now time.Time) ([]*models.Invitation, error)
}

// DelegationStore persists role grants.
type DelegationStore interface {
	Create(ctx context.Context, d *models.Delegation) error
	FindByID(ctx context.Context, delegationID id.DelegationID) (*models.Delegation, error)
	FindInvitedByTenantAndEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.Delegation, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Delegation, error)
	Activate(ctx context.Context, tenantID id.TenantID, email string, principalID id.PrincipalID, now time.Time) (*models.Delegation, error)
	Update(ctx context.Context, d *models.Delegation) error
	Delete(ctx context.Context, delegationID id.DelegationID) error
}

// ProfileStore persists the denormalized display projection.
type ProfileStore interface {
	Upsert(ctx context.Context, p *models.Profile) error
	FindByPrincipalAndTenant(ctx context.Context, principalID id.PrincipalID, tenantID id.TenantID) (*models.Profile, error)
	DeleteByPrincipal(ctx context.Context, principalID id.PrincipalID) error
}

// Directory is the slice of the principal directory the lifecycle needs.
type Directory interface {
	Create(ctx context.Context, email, credential string) (id.PrincipalID, error)
	Delete(ctx context.Context, principalID id.PrincipalID) error
}

// Dispatcher delivers invitation email, best-effort.
type Dispatcher interface {
	SendInvite(ctx context.Context, msg notify.InviteMessage) error
}

// TenantDirectory resolves tenants for issuance validation. Satisfied by the
// tenant stores.
type TenantDirectory interface {
	FindByID(ctx context.Context, tenantID id.TenantID) (*tenantmodels.Tenant, error)
}

// SessionRevoker invalidates already-issued credentials for a principal.
// Revocation pushes deleted principals here so live JWTs die immediately.
type SessionRevoker interface {
	RevokePrincipal(ctx context.Context, principalID id.PrincipalID) error
}

// AuditPublisher records lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service implements the lifecycle operations.
type Service struct {
	invitations InvitationStore
	delegations DelegationStore
	profiles    ProfileStore
	directory   Directory
	dispatcher  Dispatcher
	tenants     TenantDirectory

	sessions       SessionRevoker
	ttl            time.Duration
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *invmetrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *invmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithSessionRevoker(revoker SessionRevoker) Option {
	return func(s *Service) { s.sessions = revoker }
}

// WithInvitationTTL overrides how long issued tokens stay redeemable.
func WithInvitationTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New constructs the lifecycle service.
func New(
	invitations InvitationStore,
	delegations DelegationStore,
	profiles ProfileStore,
	directory Directory,
	dispatcher Dispatcher,
	tenants TenantDirectory,
	opts ...Option,
) *Service {
	s := &Service{
		invitations: invitations,
		delegations: delegations,
		profiles:    profiles,
		directory:   directory,
		dispatcher:  dispatcher,
		tenants:     tenants,
		ttl:         models.InvitationTTL,
		logger:      slog.Default(),
		tracer:      otel.Tracer("atrium/invitation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	if event.ActorID == "" {
		if actor := requestcontext.PrincipalID(ctx); !actor.IsNil() {
			event.ActorID = actor.String()
		}
	}
	if s.auditPublisher != nil {
		_ = s.auditPublisher.Emit(ctx, event)
	}
}

func (s *Service) countRedemption(outcome string) {
	if s.metrics != nil {
		s.metrics.RedemptionsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countRevocation(outcome string) {
	if s.metrics != nil {
		s.metrics.RevocationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countCritical() {
	if s.metrics != nil {
		s.metrics.CriticalFailures.Inc()
	}
}
