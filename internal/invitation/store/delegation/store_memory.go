// Package delegation provides storage for role grants.
package delegation

import (
	"context"
	"sort"
	"sync"
	"time"

	"atrium/internal/invitation/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

// InMemory keeps delegations in memory for tests and development.
type InMemory struct {
	mu   sync.Mutex
	byID map[id.DelegationID]*models.Delegation
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.DelegationID]*models.Delegation)}
}

func (s *InMemory) Create(_ context.Context, d *models.Delegation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[d.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := cloneDelegation(d)
	s.byID[d.ID] = copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, delegationID id.DelegationID) (*models.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, exists := s.byID[delegationID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return cloneDelegation(d), nil
}

// FindInvitedByTenantAndEmail returns the pending grant for the pair, if any.
func (s *InMemory) FindInvitedByTenantAndEmail(_ context.Context, tenantID id.TenantID, email string) (*models.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.byID {
		if d.TenantID == tenantID && d.Email == email && d.Status == models.DelegationInvited {
			return cloneDelegation(d), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// FindActiveByPrincipal returns the active grant bound to a principal.
func (s *InMemory) FindActiveByPrincipal(_ context.Context, principalID id.PrincipalID) (*models.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.byID {
		if d.PrincipalID != nil && *d.PrincipalID == principalID && d.Status == models.DelegationActive {
			return cloneDelegation(d), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Delegation
	for _, d := range s.byID {
		if d.TenantID == tenantID {
			out = append(out, cloneDelegation(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Activate flips the pending grant for (tenantID, email) to active and binds
// the principal. With duplicate pending invitations the newest invited grant
// wins, matching the Postgres implementation; the others stay invited.
// ErrNotFound when no invited grant matches.
func (s *InMemory) Activate(_ context.Context, tenantID id.TenantID, email string, principalID id.PrincipalID, now time.Time) (*models.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newest *models.Delegation
	for _, d := range s.byID {
		if d.TenantID != tenantID || d.Email != email || d.Status != models.DelegationInvited {
			continue
		}
		if newest == nil || d.CreatedAt.After(newest.CreatedAt) {
			newest = d
		}
	}
	if newest == nil {
		return nil, sentinel.ErrNotFound
	}
	newest.Status = models.DelegationActive
	newest.PrincipalID = &principalID
	newest.UpdatedAt = now
	return cloneDelegation(newest), nil
}

func (s *InMemory) Update(_ context.Context, d *models.Delegation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[d.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.byID[d.ID] = cloneDelegation(d)
	return nil
}

// Delete removes the grant row entirely (hard delete per the revocation
// contract: listings must immediately reflect removal).
func (s *InMemory) Delete(_ context.Context, delegationID id.DelegationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[delegationID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.byID, delegationID)
	return nil
}

func cloneDelegation(d *models.Delegation) *models.Delegation {
	copied := *d
	if d.PrincipalID != nil {
		pid := *d.PrincipalID
		copied.PrincipalID = &pid
	}
	return &copied
}
