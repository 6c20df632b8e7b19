// Package invitation provides storage for single-use invitation tokens.
// The Consume primitive is the storage-level compare-and-swap that makes
// double redemption impossible without in-process locking.
package invitation

import (
	"context"
	"sync"
	"time"

	"atrium/internal/invitation/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

// InMemory keeps invitations in memory for tests and development.
type InMemory struct {
	mu      sync.Mutex
	byToken map[string]*models.Invitation
}

func NewInMemory() *InMemory {
	return &InMemory{byToken: make(map[string]*models.Invitation)}
}

// Create inserts an invitation. Token collisions return sentinel.ErrConflict,
// mirroring the DB unique constraint.
func (s *InMemory) Create(_ context.Context, inv *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byToken[inv.Token]; exists {
		return sentinel.ErrConflict
	}
	copied := *inv
	s.byToken[inv.Token] = &copied
	return nil
}

func (s *InMemory) FindByToken(_ context.Context, token string) (*models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, exists := s.byToken[token]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := *inv
	if inv.ConsumedAt != nil {
		at := *inv.ConsumedAt
		copied.ConsumedAt = &at
	}
	return &copied, nil
}

// Consume atomically sets ConsumedAt if and only if it is still unset. Of
// any number of concurrent calls with the same token exactly one succeeds;
// the rest observe ErrAlreadyUsed.
func (s *InMemory) Consume(_ context.Context, token string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, exists := s.byToken[token]
	if !exists {
		return sentinel.ErrNotFound
	}
	if inv.ConsumedAt != nil {
		return sentinel.ErrAlreadyUsed
	}
	inv.ConsumedAt = &now
	return nil
}

// FindPendingByTenantAndEmail returns unconsumed, unexpired invitations for
// the pair. Used to flag duplicate pending invites at issuance.
func (s *InMemory) FindPendingByTenantAndEmail(_ context.Context, tenantID id.TenantID, email string, now time.Time) ([]*models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Invitation
	for _, inv := range s.byToken {
		if inv.TenantID == tenantID && inv.Email == email && inv.ConsumedAt == nil && !inv.Expired(now) {
			copied := *inv
			out = append(out, &copied)
		}
	}
	return out, nil
}
