package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	roomstore "atrium/internal/room/store/room"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
)

type RoomServiceSuite struct {
	suite.Suite
	service  *Service
	store    *roomstore.InMemory
	tenantID id.TenantID
	ctx      context.Context
}

func (s *RoomServiceSuite) SetupTest() {
	s.store = roomstore.NewInMemory()
	s.service = New(s.store)
	s.tenantID = id.NewTenantID()
	s.ctx = context.Background()
}

func TestRoomServiceSuite(t *testing.T) {
	suite.Run(t, new(RoomServiceSuite))
}

func (s *RoomServiceSuite) TestCreateRoom() {
	room, err := s.service.CreateRoom(s.ctx, s.tenantID, CreateRoomRequest{
		Name:          "Boardroom",
		Capacity:      8,
		Location:      "3rd floor",
		AvailableFrom: "08:00",
		AvailableTo:   "18:00",
		Timezone:      "Europe/Berlin",
	})
	s.Require().NoError(err)
	s.Equal(s.tenantID, room.TenantID)
	s.Equal("Boardroom", room.Name)

	s.Run("duplicate name within the tenant conflicts", func() {
		_, err := s.service.CreateRoom(s.ctx, s.tenantID, CreateRoomRequest{Name: "Boardroom"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("same name in another tenant is fine", func() {
		_, err := s.service.CreateRoom(s.ctx, id.NewTenantID(), CreateRoomRequest{Name: "Boardroom"})
		s.NoError(err)
	})

	s.Run("invalid availability is a validation error", func() {
		_, err := s.service.CreateRoom(s.ctx, s.tenantID, CreateRoomRequest{
			Name:          "Annex",
			AvailableFrom: "18:00",
			AvailableTo:   "08:00",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *RoomServiceSuite) TestTenantScoping() {
	room, err := s.service.CreateRoom(s.ctx, s.tenantID, CreateRoomRequest{Name: "Boardroom"})
	s.Require().NoError(err)

	s.Run("owner can read it", func() {
		found, err := s.service.GetRoom(s.ctx, s.tenantID, room.ID)
		s.Require().NoError(err)
		s.Equal(room.ID, found.ID)
	})

	s.Run("another tenant sees not found, not forbidden", func() {
		_, err := s.service.GetRoom(s.ctx, id.NewTenantID(), room.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("another tenant cannot delete it", func() {
		err := s.service.DeleteRoom(s.ctx, id.NewTenantID(), room.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RoomServiceSuite) TestUpdateRoom() {
	room, err := s.service.CreateRoom(s.ctx, s.tenantID, CreateRoomRequest{Name: "Boardroom", Capacity: 8})
	s.Require().NoError(err)

	capacity := 12
	location := "4th floor"
	updated, err := s.service.UpdateRoom(s.ctx, s.tenantID, room.ID, UpdateRoomRequest{
		Capacity: &capacity,
		Location: &location,
	})
	s.Require().NoError(err)
	s.Equal(12, updated.Capacity)
	s.Equal("4th floor", updated.Location)
	s.Equal("Boardroom", updated.Name, "unset fields stay unchanged")

	empty := " "
	_, err = s.service.UpdateRoom(s.ctx, s.tenantID, room.ID, UpdateRoomRequest{Name: &empty})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *RoomServiceSuite) TestListAndDelete() {
	_, err := s.service.CreateRoom(s.ctx, s.tenantID, CreateRoomRequest{Name: "Annex"})
	s.Require().NoError(err)
	room, err := s.service.CreateRoom(s.ctx, s.tenantID, CreateRoomRequest{Name: "Boardroom"})
	s.Require().NoError(err)

	rooms, err := s.service.ListRooms(s.ctx, s.tenantID)
	s.Require().NoError(err)
	s.Len(rooms, 2)

	s.Require().NoError(s.service.DeleteRoom(s.ctx, s.tenantID, room.ID))

	rooms, err = s.service.ListRooms(s.ctx, s.tenantID)
	s.Require().NoError(err)
	s.Len(rooms, 1)
}
