// Package models defines rooms, the bookable spaces a tenant manages.
package models

import (
	"strings"
	"time"

	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
)

// Room is a bookable space owned by a tenant. Availability is a daily window
// in the room's own timezone, stored as HH:MM wall-clock strings.
type Room struct {
	ID            id.RoomID   `json:"id"`
	TenantID      id.TenantID `json:"tenant_id"`
	Name          string      `json:"name"`
	Capacity      int         `json:"capacity"`
	Location      string      `json:"location"`
	AvailableFrom string      `json:"available_from,omitempty"`
	AvailableTo   string      `json:"available_to,omitempty"`
	Timezone      string      `json:"timezone,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewRoom validates and constructs a room.
func NewRoom(tenantID id.TenantID, name string, capacity int, now time.Time) (*Room, error) {
	room := &Room{
		ID:        id.NewRoomID(),
		TenantID:  tenantID,
		Name:      strings.TrimSpace(name),
		Capacity:  capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := room.Validate(); err != nil {
		return nil, err
	}
	return room, nil
}

// Validate checks the room's invariants.
func (r *Room) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "room name is required")
	}
	if len(r.Name) > 128 {
		return dErrors.New(dErrors.CodeInvalidInput, "room name must be at most 128 characters")
	}
	if r.Capacity < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "capacity must not be negative")
	}
	if (r.AvailableFrom == "") != (r.AvailableTo == "") {
		return dErrors.New(dErrors.CodeInvalidInput, "availability window needs both ends")
	}
	if r.AvailableFrom != "" {
		if !validWallClock(r.AvailableFrom) || !validWallClock(r.AvailableTo) {
			return dErrors.New(dErrors.CodeInvalidInput, "availability times must be HH:MM")
		}
		if r.AvailableFrom >= r.AvailableTo {
			return dErrors.New(dErrors.CodeInvalidInput, "available_from must precede available_to")
		}
	}
	if r.Timezone != "" {
		if _, err := time.LoadLocation(r.Timezone); err != nil {
			return dErrors.Newf(dErrors.CodeInvalidInput, "unknown timezone %q", r.Timezone)
		}
	}
	return nil
}

// validWallClock accepts zero-padded 24h HH:MM. String comparison then
// matches chronological order.
func validWallClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}
