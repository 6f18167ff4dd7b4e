package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/threestones/internal/api/apierr"
	"github.com/mcoot/threestones/internal/api/response"
	"github.com/mcoot/threestones/internal/model"
)

// RoomLister reads the public view of rooms
type RoomLister interface {
	ListJoinable(ctx context.Context) []model.RoomSummary
	Summary(ctx context.Context, code model.RoomCode) (model.RoomSummary, error)
}

// RoomHandler handles read-only room endpoints. All room changes go over
// the websocket.
type RoomHandler struct {
	rooms RoomLister
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms RoomLister) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.RoomListFromModel(h.rooms.ListJoinable(r.Context())))
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["code"]
	if strings.TrimSpace(raw) == "" {
		response.Error(w, apierr.NewInvalidRequestError("room code is required"))
		return
	}

	summary, err := h.rooms.Summary(r.Context(), model.NormalizeRoomCode(raw))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(summary))
}
