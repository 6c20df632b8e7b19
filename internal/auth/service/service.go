// Package service implements the login surface: credential verification
// against the principal directory, token minting, and the forensic audit
// trail around both.
package service

import (
	"context"
	"log/slog"
	"time"

	"atrium/internal/auth/device"
	"atrium/internal/directory"
	invmodels "atrium/internal/invitation/models"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/email"
	"atrium/pkg/platform/audit"
	"atrium/pkg/requestcontext"
)

// Directory is the slice of the principal directory login needs.
type Directory interface {
	Authenticate(ctx context.Context, address, credential string) (*directory.Principal, error)
	FindByID(ctx context.Context, principalID id.PrincipalID) (*directory.Principal, error)
}

// GrantSource resolves the caller's tenant and role from their active grant.
type GrantSource interface {
	FindActiveByPrincipal(ctx context.Context, principalID id.PrincipalID) (*invmodels.Delegation, error)
}

// ProfileSource resolves display data for the authenticated caller.
type ProfileSource interface {
	FindByPrincipalAndTenant(ctx context.Context, principalID id.PrincipalID, tenantID id.TenantID) (*invmodels.Profile, error)
}

// TokenMinter signs access tokens.
type TokenMinter interface {
	Generate(principalID id.PrincipalID, tenantID id.TenantID, role id.Role) (string, error)
	TTL() time.Duration
}

// AuditPublisher records login events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service implements login and session introspection.
type Service struct {
	directory Directory
	grants    GrantSource
	profiles  ProfileSource
	tokens    TokenMinter

	systemAdmins   map[string]struct{}
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// WithSystemAdmins marks the bootstrap operator emails. They log in without
// any delegation and get the system_admin role, unscoped to a tenant.
func WithSystemAdmins(emails []string) Option {
	return func(s *Service) {
		for _, addr := range emails {
			normalized := email.Normalize(addr)
			if normalized != "" {
				s.systemAdmins[normalized] = struct{}{}
			}
		}
	}
}

func New(dir Directory, grants GrantSource, profiles ProfileSource, tokens TokenMinter, opts ...Option) *Service {
	s := &Service{
		directory:    dir,
		grants:       grants,
		profiles:     profiles,
		tokens:       tokens,
		systemAdmins: make(map[string]struct{}),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	if s.auditPublisher != nil {
		_ = s.auditPublisher.Emit(ctx, event)
	}
}

// LoginRequest carries credentials plus the forensic context of the attempt.
type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IP        string
}

// LoginResult is the minted session.
type LoginResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	PrincipalID id.PrincipalID `json:"principal_id"`
	TenantID    *id.TenantID   `json:"tenant_id,omitempty"`
	Role        id.Role        `json:"role"`
}

// Login verifies credentials and mints an access token. Both outcomes land
// in the audit trail with the device name and IP of the attempt.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	deviceName := device.ParseUserAgent(req.UserAgent)
	normalized := email.Normalize(req.Email)

	principal, err := s.directory.Authenticate(ctx, normalized, req.Password)
	if err != nil {
		s.emitAudit(ctx, audit.Event{
			Email:    normalized,
			Action:   string(audit.EventLoginFailed),
			Decision: "denied",
			Reason:   "invalid credentials",
			Device:   deviceName,
			IP:       req.IP,
		})
		// Unknown email and wrong password are indistinguishable on purpose.
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	role, tenantID, err := s.resolveAccess(ctx, principal)
	if err != nil {
		s.emitAudit(ctx, audit.Event{
			PrincipalID: principal.ID,
			Email:       normalized,
			Action:      string(audit.EventLoginFailed),
			Decision:    "denied",
			Reason:      "no active access",
			Device:      deviceName,
			IP:          req.IP,
		})
		return nil, err
	}

	var scope id.TenantID
	if tenantID != nil {
		scope = *tenantID
	}
	token, err := s.tokens.Generate(principal.ID, scope, role)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "login succeeded",
		"request_id", requestcontext.RequestID(ctx),
		"principal_id", principal.ID,
		"role", role,
		"device", deviceName,
	)
	s.emitAudit(ctx, audit.Event{
		PrincipalID: principal.ID,
		TenantID:    scope,
		Email:       normalized,
		Subject:     principal.ID.String(),
		Action:      string(audit.EventLoginSucceeded),
		Decision:    "granted",
		Device:      deviceName,
		IP:          req.IP,
	})

	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
		PrincipalID: principal.ID,
		TenantID:    tenantID,
		Role:        role,
	}, nil
}

// resolveAccess maps a principal to its role and tenant scope. Bootstrap
// operators carry no delegation; everyone else must hold an active grant.
func (s *Service) resolveAccess(ctx context.Context, principal *directory.Principal) (id.Role, *id.TenantID, error) {
	if _, ok := s.systemAdmins[principal.Email]; ok {
		return id.RoleSystemAdmin, nil, nil
	}

	grant, err := s.grants.FindActiveByPrincipal(ctx, principal.ID)
	if err != nil {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "no active access for this account")
	}
	tenantID := grant.TenantID
	return grant.Role, &tenantID, nil
}

// Session describes the authenticated caller for GET /auth/me.
type Session struct {
	PrincipalID id.PrincipalID     `json:"principal_id"`
	Email       string             `json:"email"`
	Role        id.Role            `json:"role"`
	TenantID    *id.TenantID       `json:"tenant_id,omitempty"`
	Profile     *invmodels.Profile `json:"profile,omitempty"`
}

// Whoami resolves the caller from the request context. The profile is
// best-effort display data; its absence never fails the call.
func (s *Service) Whoami(ctx context.Context) (*Session, error) {
	principalID := requestcontext.PrincipalID(ctx)
	if principalID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}

	principal, err := s.directory.FindByID(ctx, principalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "account no longer exists")
	}

	session := &Session{
		PrincipalID: principal.ID,
		Email:       principal.Email,
		Role:        requestcontext.Role(ctx),
	}
	if tenantID := requestcontext.TenantID(ctx); !tenantID.IsNil() {
		session.TenantID = &tenantID
		if profile, err := s.profiles.FindByPrincipalAndTenant(ctx, principalID, tenantID); err == nil {
			session.Profile = profile
		}
	}
	return session, nil
}
