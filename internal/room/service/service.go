// Package service implements room administration for tenant admins.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"atrium/internal/room/models"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/requestcontext"
)

// RoomStore persists rooms.
type RoomStore interface {
	Create(ctx context.Context, room *models.Room) error
	FindByID(ctx context.Context, roomID id.RoomID) (*models.Room, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Room, error)
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, roomID id.RoomID) error
}

// Service implements room CRUD scoped to a tenant.
type Service struct {
	store  RoomStore
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store RoomStore, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoomRequest carries the mutable room fields.
type CreateRoomRequest struct {
	Name          string
	Capacity      int
	Location      string
	AvailableFrom string
	AvailableTo   string
	Timezone      string
}

func (s *Service) CreateRoom(ctx context.Context, tenantID id.TenantID, req CreateRoomRequest) (*models.Room, error) {
	now := requestcontext.Now(ctx)
	room, err := models.NewRoom(tenantID, req.Name, req.Capacity, now)
	if err != nil {
		return nil, err
	}
	room.Location = strings.TrimSpace(req.Location)
	room.AvailableFrom = req.AvailableFrom
	room.AvailableTo = req.AvailableTo
	room.Timezone = req.Timezone
	if err := room.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, room); err != nil {
		return nil, wrapRoomErr(err, "failed to create room")
	}

	s.logger.InfoContext(ctx, "room created",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenantID,
		"room_id", room.ID,
	)
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, tenantID id.TenantID, roomID id.RoomID) (*models.Room, error) {
	return s.findScoped(ctx, tenantID, roomID)
}

func (s *Service) ListRooms(ctx context.Context, tenantID id.TenantID) ([]*models.Room, error) {
	rooms, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, wrapRoomErr(err, "failed to list rooms")
	}
	return rooms, nil
}

// UpdateRoomRequest updates only the fields that are set.
type UpdateRoomRequest struct {
	Name          *string
	Capacity      *int
	Location      *string
	AvailableFrom *string
	AvailableTo   *string
	Timezone      *string
}

func (s *Service) UpdateRoom(ctx context.Context, tenantID id.TenantID, roomID id.RoomID, req UpdateRoomRequest) (*models.Room, error) {
	room, err := s.findScoped(ctx, tenantID, roomID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		room.Name = strings.TrimSpace(*req.Name)
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Location != nil {
		room.Location = strings.TrimSpace(*req.Location)
	}
	if req.AvailableFrom != nil {
		room.AvailableFrom = *req.AvailableFrom
	}
	if req.AvailableTo != nil {
		room.AvailableTo = *req.AvailableTo
	}
	if req.Timezone != nil {
		room.Timezone = *req.Timezone
	}
	if err := room.Validate(); err != nil {
		return nil, err
	}
	room.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, room); err != nil {
		return nil, wrapRoomErr(err, "failed to update room")
	}
	return room, nil
}

func (s *Service) DeleteRoom(ctx context.Context, tenantID id.TenantID, roomID id.RoomID) error {
	if _, err := s.findScoped(ctx, tenantID, roomID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, roomID); err != nil {
		return wrapRoomErr(err, "failed to delete room")
	}
	s.logger.InfoContext(ctx, "room deleted",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenantID,
		"room_id", roomID,
	)
	return nil
}

// findScoped resolves a room and enforces tenant ownership. A foreign
// tenant's room reads as not found, never as forbidden, to avoid leaking
// room IDs across tenants.
func (s *Service) findScoped(ctx context.Context, tenantID id.TenantID, roomID id.RoomID) (*models.Room, error) {
	room, err := s.store.FindByID(ctx, roomID)
	if err != nil {
		return nil, wrapRoomErr(err, "failed to load room")
	}
	if room.TenantID != tenantID {
		return nil, dErrors.New(dErrors.CodeNotFound, "room not found")
	}
	return room, nil
}

func wrapRoomErr(err error, message string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "room not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "a room with this name already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeDependency, message)
	}
}
