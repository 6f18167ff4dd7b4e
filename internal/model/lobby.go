package model

import "time"

// RoomSummary is one row of the public lobby listing
type RoomSummary struct {
	Code            RoomCode  `json:"code"`
	Name            string    `json:"name"`
	Players         int       `json:"players"`
	MaxPlayers      int       `json:"maxPlayers"`
	HasPassword     bool      `json:"hasPassword"`
	Started         bool      `json:"started"`
	CreatorUserID   UserID    `json:"creatorUserId,omitempty"`
	CreatorUsername string    `json:"creatorUsername,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
