package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == FormatJSON {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintEvent outputs one websocket event. JSON output is one event per line.
func (o *Output) PrintEvent(e Event) {
	if o.format == FormatJSON {
		data, _ := json.Marshal(e)
		_, _ = fmt.Fprintln(o.w, string(data))
		return
	}

	timestamp := e.Timestamp.Local().Format("15:04:05")
	data := string(e.Data)
	if len(data) > 120 {
		data = data[:120] + "..."
	}
	if e.RoomCode != "" {
		_, _ = fmt.Fprintf(o.w, "[%s] %s %s: %s\n", timestamp, e.RoomCode, e.Type, data)
	} else {
		_, _ = fmt.Fprintf(o.w, "[%s] %s: %s\n", timestamp, e.Type, data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == FormatJSON {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Room:
		o.printRoom(v)
	case RoomList:
		o.printRoomList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Room response type (matches API)
type Room struct {
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Players         int       `json:"players"`
	MaxPlayers      int       `json:"max_players"`
	HasPassword     bool      `json:"has_password"`
	Started         bool      `json:"started"`
	CreatorUsername string    `json:"creator_username,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// RoomList response type
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

// Event is one server-sent websocket event
type Event struct {
	Type      string          `json:"type"`
	RoomCode  string          `json:"roomCode,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func (o *Output) printRoom(r Room) {
	_, _ = fmt.Fprintf(o.w, "Room: %s (%s)\n", r.Name, r.Code)
	_, _ = fmt.Fprintf(o.w, "Players: %d/%d\n", r.Players, r.MaxPlayers)
	_, _ = fmt.Fprintf(o.w, "Password: %s\n", yesNo(r.HasPassword))
	_, _ = fmt.Fprintf(o.w, "Started: %s\n", yesNo(r.Started))
	if r.CreatorUsername != "" {
		_, _ = fmt.Fprintf(o.w, "Creator: %s\n", r.CreatorUsername)
	}
	_, _ = fmt.Fprintf(o.w, "Created: %s\n", r.CreatedAt.Local().Format(time.RFC3339))
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		_, _ = fmt.Fprintln(o.w, "No open rooms")
		return
	}
	_, _ = fmt.Fprintf(o.w, "Rooms (%d):\n", len(l.Rooms))
	for _, r := range l.Rooms {
		flags := ""
		if r.HasPassword {
			flags += " [locked]"
		}
		if r.Started {
			flags += " [playing]"
		}
		_, _ = fmt.Fprintf(o.w, "  - %s %s %d/%d%s\n", r.Code, r.Name, r.Players, r.MaxPlayers, flags)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Rooms: %d\n", h.Rooms)
	_, _ = fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
