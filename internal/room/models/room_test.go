package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
)

func TestNewRoom(t *testing.T) {
	now := time.Now()

	t.Run("trims the name", func(t *testing.T) {
		room, err := NewRoom(id.NewTenantID(), "  Boardroom  ", 8, now)
		require.NoError(t, err)
		assert.Equal(t, "Boardroom", room.Name)
		assert.Equal(t, 8, room.Capacity)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewRoom(id.NewTenantID(), "   ", 8, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects negative capacity", func(t *testing.T) {
		_, err := NewRoom(id.NewTenantID(), "Boardroom", -1, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestRoomValidateAvailability(t *testing.T) {
	base := func() *Room {
		room, err := NewRoom(id.NewTenantID(), "Boardroom", 8, time.Now())
		require.NoError(t, err)
		return room
	}

	t.Run("accepts a well-formed window", func(t *testing.T) {
		room := base()
		room.AvailableFrom = "08:00"
		room.AvailableTo = "18:30"
		room.Timezone = "Europe/Berlin"
		assert.NoError(t, room.Validate())
	})

	t.Run("rejects a half-open window", func(t *testing.T) {
		room := base()
		room.AvailableFrom = "08:00"
		assert.True(t, dErrors.HasCode(room.Validate(), dErrors.CodeInvalidInput))
	})

	t.Run("rejects malformed times", func(t *testing.T) {
		room := base()
		room.AvailableFrom = "8am"
		room.AvailableTo = "18:00"
		assert.True(t, dErrors.HasCode(room.Validate(), dErrors.CodeInvalidInput))
	})

	t.Run("rejects an inverted window", func(t *testing.T) {
		room := base()
		room.AvailableFrom = "18:00"
		room.AvailableTo = "08:00"
		assert.True(t, dErrors.HasCode(room.Validate(), dErrors.CodeInvalidInput))
	})

	t.Run("rejects an unknown timezone", func(t *testing.T) {
		room := base()
		room.Timezone = "Mars/Olympus_Mons"
		assert.True(t, dErrors.HasCode(room.Validate(), dErrors.CodeInvalidInput))
	})
}
