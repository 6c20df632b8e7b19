// Package handler wires room administration to the room service. All routes
// are tenant-scoped: the tenant comes from the caller's session, never from
// the request body.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atrium/internal/room/models"
	"atrium/internal/room/service"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/httputil"
	"atrium/pkg/requestcontext"
)

// Service is the room operations surface the handler needs.
type Service interface {
	CreateRoom(ctx context.Context, tenantID id.TenantID, req service.CreateRoomRequest) (*models.Room, error)
	GetRoom(ctx context.Context, tenantID id.TenantID, roomID id.RoomID) (*models.Room, error)
	ListRooms(ctx context.Context, tenantID id.TenantID) ([]*models.Room, error)
	UpdateRoom(ctx context.Context, tenantID id.TenantID, roomID id.RoomID, req service.UpdateRoomRequest) (*models.Room, error)
	DeleteRoom(ctx context.Context, tenantID id.TenantID, roomID id.RoomID) error
}

// Handler serves room endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts room endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/rooms", h.HandleCreate)
	r.Get("/rooms", h.HandleList)
	r.Get("/rooms/{roomID}", h.HandleGet)
	r.Patch("/rooms/{roomID}", h.HandleUpdate)
	r.Delete("/rooms/{roomID}", h.HandleDelete)
}

type createRequest struct {
	Name          string `json:"name"`
	Capacity      int    `json:"capacity"`
	Location      string `json:"location"`
	AvailableFrom string `json:"available_from"`
	AvailableTo   string `json:"available_to"`
	Timezone      string `json:"timezone"`
}

type updateRequest struct {
	Name          *string `json:"name"`
	Capacity      *int    `json:"capacity"`
	Location      *string `json:"location"`
	AvailableFrom *string `json:"available_from"`
	AvailableTo   *string `json:"available_to"`
	Timezone      *string `json:"timezone"`
}

func sessionTenant(ctx context.Context) (id.TenantID, error) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		return id.TenantID{}, dErrors.New(dErrors.CodeForbidden, "no tenant scope on session")
	}
	return tenantID, nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := sessionTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[createRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	room, err := h.service.CreateRoom(ctx, tenantID, service.CreateRoomRequest{
		Name:          req.Name,
		Capacity:      req.Capacity,
		Location:      req.Location,
		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
		Timezone:      req.Timezone,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "room creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, room)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := sessionTenant(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rooms, err := h.service.ListRooms(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if rooms == nil {
		rooms = []*models.Room{}
	}
	httputil.WriteJSON(w, http.StatusOK, rooms)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, roomID, err := h.scope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	room, err := h.service.GetRoom(ctx, tenantID, roomID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, room)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, roomID, err := h.scope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[updateRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	room, err := h.service.UpdateRoom(ctx, tenantID, roomID, service.UpdateRoomRequest{
		Name:          req.Name,
		Capacity:      req.Capacity,
		Location:      req.Location,
		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
		Timezone:      req.Timezone,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, room)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, roomID, err := h.scope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteRoom(ctx, tenantID, roomID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scope(r *http.Request) (id.TenantID, id.RoomID, error) {
	tenantID, err := sessionTenant(r.Context())
	if err != nil {
		return id.TenantID{}, id.RoomID{}, err
	}
	roomID, err := id.ParseRoomID(chi.URLParam(r, "roomID"))
	if err != nil {
		return id.TenantID{}, id.RoomID{}, err
	}
	return tenantID, roomID, nil
}
