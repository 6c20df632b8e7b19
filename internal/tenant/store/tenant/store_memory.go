// Package tenant provides storage for tenant records.
package tenant

import (
	"context"
	"sort"
	"strings"
	"sync"

	"atrium/internal/tenant/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

// InMemory keeps tenants in memory for tests and development.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
}

func NewInMemory() *InMemory {
	return &InMemory{tenants: make(map[id.TenantID]*models.Tenant)}
}

// CreateIfNameAvailable inserts the tenant unless the name is taken
// (case-insensitive). Returns sentinel.ErrConflict on a duplicate.
func (s *InMemory) CreateIfNameAvailable(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lower := strings.ToLower(tenant.Name)
	for _, existing := range s.tenants {
		if strings.ToLower(existing.Name) == lower {
			return sentinel.ErrConflict
		}
	}
	copied := *tenant
	s.tenants[tenant.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, exists := s.tenants[tenantID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := *tenant
	return &copied, nil
}

// List returns tenants ordered by name. An empty status returns all.
func (s *InMemory) List(_ context.Context, status models.TenantStatus) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Tenant
	for _, tenant := range s.tenants {
		if status != "" && tenant.Status != status {
			continue
		}
		copied := *tenant
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[tenant.ID]; !exists {
		return sentinel.ErrNotFound
	}
	lower := strings.ToLower(tenant.Name)
	for otherID, existing := range s.tenants {
		if otherID != tenant.ID && strings.ToLower(existing.Name) == lower {
			return sentinel.ErrConflict
		}
	}
	copied := *tenant
	s.tenants[tenant.ID] = &copied
	return nil
}
