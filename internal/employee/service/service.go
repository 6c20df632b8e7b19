// Package service implements the employee roster: the tenant-admin view over
// delegations joined with profiles. Invites go through the invitation
// service; removal delegates to the access revoker so the full teardown
// contract applies.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	invmodels "atrium/internal/invitation/models"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/requestcontext"
)

// DelegationStore is the slice of delegation storage the roster needs.
type DelegationStore interface {
	FindByID(ctx context.Context, delegationID id.DelegationID) (*invmodels.Delegation, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*invmodels.Delegation, error)
	Update(ctx context.Context, d *invmodels.Delegation) error
}

// ProfileStore is the slice of profile storage the roster needs.
type ProfileStore interface {
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*invmodels.Profile, error)
	FindByPrincipalAndTenant(ctx context.Context, principalID id.PrincipalID, tenantID id.TenantID) (*invmodels.Profile, error)
	Upsert(ctx context.Context, p *invmodels.Profile) error
}

// AccessRevoker tears down an employee's access end to end.
type AccessRevoker interface {
	Revoke(ctx context.Context, delegationID id.DelegationID) error
}

// Service implements roster operations.
type Service struct {
	delegations DelegationStore
	profiles    ProfileStore
	revoker     AccessRevoker
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(delegations DelegationStore, profiles ProfileStore, revoker AccessRevoker, opts ...Option) *Service {
	s := &Service{
		delegations: delegations,
		profiles:    profiles,
		revoker:     revoker,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Employee is one roster row: the grant plus whatever display data exists.
// Pending invitees have no principal and no profile yet.
type Employee struct {
	DelegationID id.DelegationID            `json:"delegation_id"`
	PrincipalID  *id.PrincipalID            `json:"principal_id,omitempty"`
	Email        string                     `json:"email"`
	Role         id.Role                    `json:"role"`
	Status       invmodels.DelegationStatus `json:"status"`
	FirstName    string                     `json:"first_name,omitempty"`
	LastName     string                     `json:"last_name,omitempty"`
	InvitedAt    time.Time                  `json:"invited_at"`
}

// List returns the tenant's roster, pending invitees included.
func (s *Service) List(ctx context.Context, tenantID id.TenantID) ([]*Employee, error) {
	delegations, err := s.delegations.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDependency, "failed to list delegations")
	}
	profiles, err := s.profiles.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDependency, "failed to list profiles")
	}

	byPrincipal := make(map[id.PrincipalID]*invmodels.Profile, len(profiles))
	for _, p := range profiles {
		byPrincipal[p.PrincipalID] = p
	}

	out := make([]*Employee, 0, len(delegations))
	for _, d := range delegations {
		employee := &Employee{
			DelegationID: d.ID,
			PrincipalID:  d.PrincipalID,
			Email:        d.Email,
			Role:         d.Role,
			Status:       d.Status,
			InvitedAt:    d.CreatedAt,
		}
		if d.PrincipalID != nil {
			if p, ok := byPrincipal[*d.PrincipalID]; ok {
				employee.FirstName = p.FirstName
				employee.LastName = p.LastName
			}
		}
		out = append(out, employee)
	}
	return out, nil
}

// ChangeRole moves an employee between the delegable roles. The profile
// projection follows the grant.
func (s *Service) ChangeRole(ctx context.Context, tenantID id.TenantID, delegationID id.DelegationID, role id.Role) (*Employee, error) {
	if !role.IsDelegable() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "role %q cannot be delegated", role)
	}

	delegation, err := s.findScoped(ctx, tenantID, delegationID)
	if err != nil {
		return nil, err
	}

	delegation.Role = role
	delegation.UpdatedAt = requestcontext.Now(ctx)
	if err := s.delegations.Update(ctx, delegation); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDependency, "failed to update delegation")
	}

	employee := &Employee{
		DelegationID: delegation.ID,
		PrincipalID:  delegation.PrincipalID,
		Email:        delegation.Email,
		Role:         delegation.Role,
		Status:       delegation.Status,
		InvitedAt:    delegation.CreatedAt,
	}
	if delegation.PrincipalID != nil {
		if profile, err := s.profiles.FindByPrincipalAndTenant(ctx, *delegation.PrincipalID, tenantID); err == nil {
			profile.Role = role
			profile.UpdatedAt = delegation.UpdatedAt
			if err := s.profiles.Upsert(ctx, profile); err != nil {
				s.logger.WarnContext(ctx, "profile role sync failed",
					"request_id", requestcontext.RequestID(ctx),
					"delegation_id", delegationID,
					"error", err,
				)
			}
			employee.FirstName = profile.FirstName
			employee.LastName = profile.LastName
		}
	}
	return employee, nil
}

// Remove revokes the employee's access entirely.
func (s *Service) Remove(ctx context.Context, tenantID id.TenantID, delegationID id.DelegationID) error {
	if _, err := s.findScoped(ctx, tenantID, delegationID); err != nil {
		return err
	}
	return s.revoker.Revoke(ctx, delegationID)
}

// findScoped enforces tenant ownership; a foreign delegation reads as not
// found.
func (s *Service) findScoped(ctx context.Context, tenantID id.TenantID, delegationID id.DelegationID) (*invmodels.Delegation, error) {
	delegation, err := s.delegations.FindByID(ctx, delegationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeDependency, "failed to load delegation")
	}
	if delegation.TenantID != tenantID {
		return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
	}
	return delegation, nil
}
