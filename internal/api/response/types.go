package response

import (
	"time"

	"github.com/mcoot/threestones/internal/model"
)

// Room represents a lobby entry in API responses
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

// RoomFromModel converts model.RoomSummary
func RoomFromModel(s model.RoomSummary) Room {
	return Room{
		Code:            string(s.Code),
		Name:            s.Name,
		Players:         s.Players,
		MaxPlayers:      s.MaxPlayers,
		HasPassword:     s.HasPassword,
		Started:         s.Started,
		CreatorUsername: s.CreatorUsername,
		CreatedAt:       s.CreatedAt,
	}
}

// RoomList is the public lobby listing
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// RoomListFromModel converts a lobby listing
func RoomListFromModel(summaries []model.RoomSummary) RoomList {
	rooms := make([]Room, len(summaries))
	for i, s := range summaries {
		rooms[i] = RoomFromModel(s)
	}
	return RoomList{Rooms: rooms}
}

// Health is the response of the health check
type Health struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}
