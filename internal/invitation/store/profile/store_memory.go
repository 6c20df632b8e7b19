// Package profile provides storage for the denormalized display projection.
// Every write is a last-writer-wins upsert keyed by (principal, tenant)
// because the directory may create skeleton rows out-of-band.
package profile

import (
	"context"
	"sort"
	"sync"

	"atrium/internal/invitation/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

type key struct {
	principalID id.PrincipalID
	tenantID    id.TenantID
}

// InMemory keeps profiles in memory for tests and development.
type InMemory struct {
	mu        sync.Mutex
	profiles  map[key]*models.Profile
	deleteErr error
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[key]*models.Profile)}
}

// FailDeleteWith forces DeleteByPrincipal to return err. Test hook.
func (s *InMemory) FailDeleteWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr = err
}

// Upsert writes the profile, replacing any existing row for the same
// (principal, tenant) pair regardless of who created it.
func (s *InMemory) Upsert(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *p
	s.profiles[key{p.PrincipalID, p.TenantID}] = &copied
	return nil
}

func (s *InMemory) FindByPrincipalAndTenant(_ context.Context, principalID id.PrincipalID, tenantID id.TenantID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.profiles[key{principalID, tenantID}]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Profile
	for _, p := range s.profiles {
		if p.TenantID == tenantID {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteByPrincipal removes every profile row for the principal across
// tenants. Deleting a principal with no rows is not an error.
func (s *InMemory) DeleteByPrincipal(_ context.Context, principalID id.PrincipalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}
	for k := range s.profiles {
		if k.principalID == principalID {
			delete(s.profiles, k)
		}
	}
	return nil
}
