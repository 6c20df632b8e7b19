// Package room provides storage for tenant rooms.
package room

import (
	"context"
	"sort"
	"sync"

	"atrium/internal/room/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

// InMemory keeps rooms in memory for tests and development.
type InMemory struct {
	mu   sync.Mutex
	byID map[id.RoomID]*models.Room
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.RoomID]*models.Room)}
}

// Create inserts a room. A name already taken within the tenant is
// sentinel.ErrConflict, mirroring the DB unique constraint.
func (s *InMemory) Create(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byID {
		if existing.TenantID == room.TenantID && existing.Name == room.Name {
			return sentinel.ErrConflict
		}
	}
	copied := *room
	s.byID[room.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, roomID id.RoomID) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.byID[roomID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := *room
	return &copied, nil
}

func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Room
	for _, room := range s.byID {
		if room.TenantID == tenantID {
			copied := *room
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[room.ID]; !exists {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.byID {
		if existing.ID != room.ID && existing.TenantID == room.TenantID && existing.Name == room.Name {
			return sentinel.ErrConflict
		}
	}
	copied := *room
	s.byID[room.ID] = &copied
	return nil
}

func (s *InMemory) Delete(_ context.Context, roomID id.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[roomID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.byID, roomID)
	return nil
}
