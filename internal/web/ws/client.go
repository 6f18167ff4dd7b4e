package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/threestones/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Send pings at this period; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size
	maxMessageSize = 8192

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one websocket connection
type Client struct {
	id          model.ConnID
	conn        *websocket.Conn
	send        chan []byte
	connectedAt time.Time
	logger      *slog.Logger

	// rooms is owned by the hub's Run goroutine
	rooms map[model.RoomCode]struct{}
}

// NewClient creates a new Client
func NewClient(id model.ConnID, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		id:          id,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
		logger:      logger.With(slog.String("conn", string(id))),
		rooms:       make(map[model.RoomCode]struct{}),
	}
}

// ID returns the connection id
func (c *Client) ID() model.ConnID {
	return c.id
}

// readPump hands every text frame to handle until the peer goes away
func (c *Client) readPump(handle func(message []byte)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("ws read error", slog.String("error", err.Error()))
			}
			return
		}
		if messageType == websocket.TextMessage {
			handle(message)
		}
	}
}

// writePump drains the send queue to the peer and keeps it alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("ws write failed", slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
