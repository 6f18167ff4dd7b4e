package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/threestones/internal/api/request"
)

// buildFrame validates a message typed on the command line and re-encodes it
func buildFrame(msgType string, data string) ([]byte, error) {
	env := request.Envelope{Type: request.Type(msgType)}
	if data != "" {
		if !json.Valid([]byte(data)) {
			return nil, fmt.Errorf("data for %s is not valid JSON", msgType)
		}
		env.Data = json.RawMessage(data)
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	msg, err := request.Decode(raw)
	if err != nil {
		return nil, err
	}
	return request.Encode(msg)
}

func sendFrame(conn *websocket.Conn, frame []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// streamEvents prints events until ctx ends, an event of type until arrives,
// or the server closes the connection. It reports whether until was seen.
func streamEvents(ctx context.Context, conn *websocket.Conn, out *Output, until string) (bool, error) {
	// Unblock ReadMessage when ctx ends
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return false, nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return false, nil
			}
			return false, fmt.Errorf("stream error: %w", err)
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			return false, fmt.Errorf("bad event from server: %w", err)
		}
		out.PrintEvent(event)

		if until != "" && event.Type == until {
			return true, nil
		}
	}
}
