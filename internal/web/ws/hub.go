package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/threestones/internal/model"
)

type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opSubscribe
	opUnsubscribe
	opSend
	opBroadcast
	opBroadcastAll
)

type op struct {
	kind    opKind
	client  *Client
	conn    model.ConnID
	room    model.RoomCode
	message []byte
}

// Hub owns every live connection and its room subscriptions. All operations
// are applied in call order on the Run goroutine, so a connection sees
// events in the order the rooms produced them.
type Hub struct {
	logger *slog.Logger

	// clients and rooms are written only by Run; mu lets readers count them
	mu      sync.RWMutex
	clients map[model.ConnID]*Client
	rooms   map[model.RoomCode]map[model.ConnID]*Client

	ops       chan op
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a new Hub. Call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With(slog.String("component", "ws")),
		clients: make(map[model.ConnID]*Client),
		rooms:   make(map[model.RoomCode]map[model.ConnID]*Client),
		ops:     make(chan op, 1024),
		done:    make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("ws hub started")
	for {
		select {
		case o := <-h.ops:
			h.apply(o)

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.rooms = make(map[model.RoomCode]map[model.ConnID]*Client)
			h.mu.Unlock()
			h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

func (h *Hub) apply(o op) {
	switch o.kind {
	case opRegister:
		h.mu.Lock()
		h.clients[o.client.id] = o.client
		clientCount := len(h.clients)
		h.mu.Unlock()
		h.logger.Info("ws client registered",
			slog.String("conn", string(o.client.id)),
			slog.Int("total_clients", clientCount))

	case opUnregister:
		h.mu.Lock()
		client, ok := h.clients[o.client.id]
		if !ok || client != o.client {
			h.mu.Unlock()
			return
		}
		delete(h.clients, client.id)
		for code := range client.rooms {
			h.leave(client.id, code)
		}
		close(client.send)
		clientCount := len(h.clients)
		h.mu.Unlock()
		h.logger.Info("ws client unregistered",
			slog.String("conn", string(client.id)),
			slog.Duration("connection_duration", time.Since(client.connectedAt)),
			slog.Int("total_clients", clientCount))

	case opSubscribe:
		h.mu.Lock()
		if client, ok := h.clients[o.conn]; ok {
			if h.rooms[o.room] == nil {
				h.rooms[o.room] = make(map[model.ConnID]*Client)
			}
			h.rooms[o.room][o.conn] = client
			client.rooms[o.room] = struct{}{}
		}
		h.mu.Unlock()

	case opUnsubscribe:
		h.mu.Lock()
		if client, ok := h.clients[o.conn]; ok {
			delete(client.rooms, o.room)
		}
		h.leave(o.conn, o.room)
		h.mu.Unlock()

	case opSend:
		if client, ok := h.clients[o.conn]; ok {
			h.deliver(client, o.message)
		}

	case opBroadcast:
		for _, client := range h.rooms[o.room] {
			h.deliver(client, o.message)
		}

	case opBroadcastAll:
		for _, client := range h.clients {
			h.deliver(client, o.message)
		}
	}
}

// leave requires mu to be held
func (h *Hub) leave(conn model.ConnID, code model.RoomCode) {
	members, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(h.rooms, code)
	}
}

func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.logger.Warn("ws message dropped - client buffer full",
			slog.String("conn", string(client.id)))
	}
}

func (h *Hub) enqueue(o op) {
	select {
	case h.ops <- o:
	case <-h.done:
	}
}

func (h *Hub) encode(event model.Event) ([]byte, bool) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ws failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
		return nil, false
	}
	return message, true
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.enqueue(op{kind: opRegister, client: client})
}

// Unregister removes a client from the hub and closes its send queue
func (h *Hub) Unregister(client *Client) {
	h.enqueue(op{kind: opUnregister, client: client})
}

// Subscribe adds a connection to a room's broadcast group
func (h *Hub) Subscribe(conn model.ConnID, code model.RoomCode) {
	h.enqueue(op{kind: opSubscribe, conn: conn, room: code})
}

// Unsubscribe removes a connection from a room's broadcast group
func (h *Hub) Unsubscribe(conn model.ConnID, code model.RoomCode) {
	h.enqueue(op{kind: opUnsubscribe, conn: conn, room: code})
}

// Send delivers an event to one connection. The event is encoded now, so
// later changes to its payload are not seen.
func (h *Hub) Send(conn model.ConnID, event model.Event) {
	if message, ok := h.encode(event); ok {
		h.enqueue(op{kind: opSend, conn: conn, message: message})
	}
}

// Broadcast delivers an event to every subscriber of a room
func (h *Hub) Broadcast(code model.RoomCode, event model.Event) {
	if message, ok := h.encode(event); ok {
		h.enqueue(op{kind: opBroadcast, room: code, message: message})
	}
}

// BroadcastAll delivers an event to every live connection
func (h *Hub) BroadcastAll(event model.Event) {
	if message, ok := h.encode(event); ok {
		h.enqueue(op{kind: opBroadcastAll, message: message})
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of connections subscribed to a room
func (h *Hub) RoomSize(code model.RoomCode) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}
