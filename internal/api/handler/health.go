package handler

import (
	"net/http"

	"github.com/mcoot/threestones/internal/api/response"
)

// Counter reports a current count
type Counter func() int

// HealthHandler reports liveness with a few gauges
type HealthHandler struct {
	rooms       Counter
	connections Counter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(rooms, connections Counter) *HealthHandler {
	return &HealthHandler{rooms: rooms, connections: connections}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := response.Health{Status: "ok"}
	if h.rooms != nil {
		resp.Rooms = h.rooms()
	}
	if h.connections != nil {
		resp.Connections = h.connections()
	}
	response.JSON(w, http.StatusOK, resp)
}
