// Package ws serves the realtime websocket endpoint. Each connection gets a
// fresh id, a read loop that feeds the dispatcher, and a write loop that
// drains events queued by the hub.
package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/threestones/internal/model"
)

// Lifecycle is told when connections come and go
type Lifecycle interface {
	Connect(ctx context.Context, conn model.ConnID)
	Disconnect(ctx context.Context, conn model.ConnID)
}

// Handler upgrades HTTP requests to websocket connections
type Handler struct {
	hub        *Hub
	lifecycle  Lifecycle
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates a new Handler
func NewHandler(hub *Hub, lifecycle Lifecycle, dispatcher *Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		lifecycle:  lifecycle,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Any origin may connect
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// ServeWS handles GET /ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	id := model.ConnID(uuid.NewString())
	client := NewClient(id, conn, h.logger)

	// The connection outlives the upgrade request
	ctx := context.WithoutCancel(r.Context())

	h.hub.Register(client)
	h.lifecycle.Connect(ctx, id)

	go client.writePump()
	go func() {
		client.readPump(func(message []byte) {
			h.dispatcher.Dispatch(ctx, id, message)
		})
		h.hub.Unregister(client)
		h.lifecycle.Disconnect(ctx, id)
	}()
}
