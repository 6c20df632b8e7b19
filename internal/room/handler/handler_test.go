package handler

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"atrium/internal/room/models"
	"atrium/internal/room/service"
	roomstore "atrium/internal/room/store/room"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/testutil"
)

type RoomHandlerSuite struct {
	suite.Suite
	router   chi.Router
	service  *service.Service
	tenantID id.TenantID
}

func (s *RoomHandlerSuite) SetupTest() {
	s.service = service.New(roomstore.NewInMemory())
	s.tenantID = id.NewTenantID()

	handler := New(s.service, slog.Default())
	s.router = chi.NewRouter()
	handler.Register(s.router)
}

func TestRoomHandlerSuite(t *testing.T) {
	suite.Run(t, new(RoomHandlerSuite))
}

func (s *RoomHandlerSuite) asAdmin(req *http.Request) *http.Request {
	return testutil.WithPrincipal(req, id.NewPrincipalID(), s.tenantID, id.RoleAdmin)
}

func (s *RoomHandlerSuite) createRoom(name string) *models.Room {
	room, err := s.service.CreateRoom(s.T().Context(), s.tenantID, service.CreateRoomRequest{
		Name: name, Capacity: 8,
	})
	s.Require().NoError(err)
	return room
}

func (s *RoomHandlerSuite) TestCreate() {
	req := s.asAdmin(testutil.NewJSONRequest(s.T(), http.MethodPost, "/rooms", map[string]any{
		"name":           "Boardroom",
		"capacity":       8,
		"available_from": "08:00",
		"available_to":   "18:00",
		"timezone":       "Europe/Berlin",
	}))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONContains(s.T(), rr, "name", "Boardroom")
	testutil.AssertJSONContains(s.T(), rr, "available_from", "08:00")

	s.Run("duplicate name conflicts", func() {
		rr := testutil.DoRequest(s.router, s.asAdmin(testutil.NewJSONRequest(s.T(),
			http.MethodPost, "/rooms", map[string]any{"name": "Boardroom"})))
		testutil.AssertErrorCode(s.T(), rr, http.StatusConflict, string(dErrors.CodeConflict))
	})

	s.Run("invalid availability rejected", func() {
		rr := testutil.DoRequest(s.router, s.asAdmin(testutil.NewJSONRequest(s.T(),
			http.MethodPost, "/rooms", map[string]any{
				"name":           "Annex",
				"available_from": "8am",
				"available_to":   "18:00",
			})))
		testutil.AssertErrorCode(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	s.Run("no tenant scope is forbidden", func() {
		req := testutil.WithPrincipal(
			testutil.NewJSONRequest(s.T(), http.MethodPost, "/rooms", map[string]any{"name": "Annex"}),
			id.NewPrincipalID(), id.TenantID{}, id.RoleSystemAdmin)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertErrorCode(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})
}

func (s *RoomHandlerSuite) TestGetAndList() {
	room := s.createRoom("Boardroom")

	rr := testutil.DoRequest(s.router, s.asAdmin(testutil.NewRequest(s.T(),
		http.MethodGet, "/rooms/"+room.ID.String())))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "name", "Boardroom")

	s.Run("list returns the tenant's rooms", func() {
		rr := testutil.DoRequest(s.router, s.asAdmin(testutil.NewRequest(s.T(), http.MethodGet, "/rooms")))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		rooms := testutil.DecodeResponse[[]*models.Room](s.T(), rr)
		s.Len(*rooms, 1)
	})

	s.Run("foreign tenant reads not found", func() {
		req := testutil.WithPrincipal(
			testutil.NewRequest(s.T(), http.MethodGet, "/rooms/"+room.ID.String()),
			id.NewPrincipalID(), id.NewTenantID(), id.RoleAdmin)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertErrorCode(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("garbage room ID is invalid input", func() {
		rr := testutil.DoRequest(s.router, s.asAdmin(testutil.NewRequest(s.T(),
			http.MethodGet, "/rooms/not-a-uuid")))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *RoomHandlerSuite) TestUpdateAndDelete() {
	room := s.createRoom("Boardroom")

	rr := testutil.DoRequest(s.router, s.asAdmin(testutil.NewJSONRequest(s.T(),
		http.MethodPatch, "/rooms/"+room.ID.String(), map[string]any{"capacity": 12})))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "capacity", float64(12))
	testutil.AssertJSONContains(s.T(), rr, "name", "Boardroom")

	rr = testutil.DoRequest(s.router, s.asAdmin(testutil.NewRequest(s.T(),
		http.MethodDelete, "/rooms/"+room.ID.String())))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = testutil.DoRequest(s.router, s.asAdmin(testutil.NewRequest(s.T(),
		http.MethodGet, "/rooms/"+room.ID.String())))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}
