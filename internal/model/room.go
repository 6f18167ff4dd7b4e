package model

import (
	"strings"
	"time"
)

// RoomCode is the short human-readable identifier for joining a room
type RoomCode string

// NormalizeRoomCode trims and upper-cases a client-supplied code
func NormalizeRoomCode(s string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(s)))
}

// ConnID identifies a single live websocket connection
type ConnID string

// UserID is a registered user's primary key. Zero means a guest.
type UserID int64

// MaxPlayers is the fixed seat count of every room
const MaxPlayers = 2

// Color identifies one side of the board
type Color string

const (
	ColorOrange Color = "orange" // Creator's side, seated first
	ColorBlue   Color = "blue"
)

// Colors lists the sides in seating order
var Colors = []Color{ColorOrange, ColorBlue}

// Opponent returns the other side
func (c Color) Opponent() Color {
	if c == ColorOrange {
		return ColorBlue
	}
	return ColorOrange
}

// Valid reports whether c is one of the two sides
func (c Color) Valid() bool {
	return c == ColorOrange || c == ColorBlue
}

// Phase is the derived lifecycle stage of a room
type Phase string

const (
	PhaseWaitingForPlayer Phase = "waiting_for_player"
	PhaseAwaitingDice     Phase = "awaiting_dice"
	PhaseInProgress       Phase = "in_progress"
	PhaseGameOver         Phase = "game_over"
)

// Slot is one seat in a room. A slot is occupied while Conn is set;
// UserID and DisplayName survive a disconnect so the owner can reclaim it.
type Slot struct {
	Conn        ConnID
	UserID      UserID
	DisplayName string
}

// Occupied reports whether a connection currently holds the slot
func (s Slot) Occupied() bool {
	return s.Conn != ""
}

// Room is the authoritative in-memory state of one game room
type Room struct {
	Code           RoomCode
	Name           string
	PasswordDigest string
	Slots          map[Color]Slot
	Game           *GameState // nil until both seats have been filled
	Started        bool
	StartedAt      time.Time
	Dice           map[Color]int // Start-of-game rolls awaiting resolution
	CreatedAt      time.Time

	// Deletion authority, fixed at creation
	CreatorConn   ConnID
	CreatorUserID UserID
	CreatorName   string
}

// NewRoom creates an empty room
func NewRoom(code RoomCode, name string, createdAt time.Time) *Room {
	return &Room{
		Code:      code,
		Name:      name,
		Slots:     make(map[Color]Slot, MaxPlayers),
		Dice:      make(map[Color]int, MaxPlayers),
		CreatedAt: createdAt,
	}
}

// HasPassword reports whether joining requires a password
func (r *Room) HasPassword() bool {
	return r.PasswordDigest != ""
}

// Phase derives the room's lifecycle stage
func (r *Room) Phase() Phase {
	switch {
	case r.Game == nil:
		return PhaseWaitingForPlayer
	case r.Game.GameOver:
		return PhaseGameOver
	case r.Started:
		return PhaseInProgress
	default:
		return PhaseAwaitingDice
	}
}

// Slot returns the seat for a color
func (r *Room) Slot(c Color) Slot {
	return r.Slots[c]
}

// ColorOf returns the color held by conn, if any
func (r *Room) ColorOf(conn ConnID) (Color, bool) {
	if conn == "" {
		return "", false
	}
	for _, c := range Colors {
		if r.Slots[c].Conn == conn {
			return c, true
		}
	}
	return "", false
}

// OccupiedCount returns how many seats are held by a connection
func (r *Room) OccupiedCount() int {
	n := 0
	for _, c := range Colors {
		if r.Slots[c].Occupied() {
			n++
		}
	}
	return n
}

// FreeColor returns an unoccupied seat in seating order. Seats still held
// for an absent registered owner are only offered when nothing else is free.
func (r *Room) FreeColor() (Color, bool) {
	held := Color("")
	for _, c := range Colors {
		s := r.Slots[c]
		if s.Occupied() {
			continue
		}
		if s.UserID == 0 {
			return c, true
		}
		if held == "" {
			held = c
		}
	}
	return held, held != ""
}

// Full reports whether both seats are occupied
func (r *Room) Full() bool {
	return r.OccupiedCount() == MaxPlayers
}

// PlayerNames maps each occupied color to its display name
func (r *Room) PlayerNames() map[Color]string {
	names := make(map[Color]string, MaxPlayers)
	for _, c := range Colors {
		if s := r.Slots[c]; s.Occupied() {
			names[c] = s.DisplayName
		}
	}
	return names
}

// ResetGame discards any game in progress and pending dice
func (r *Room) ResetGame() {
	r.Game = nil
	r.Started = false
	r.StartedAt = time.Time{}
	r.Dice = make(map[Color]int, MaxPlayers)
}

// Record builds the persisted projection of the room
func (r *Room) Record() *RoomRecord {
	rec := &RoomRecord{
		Code:           r.Code,
		Name:           r.Name,
		PasswordDigest: r.PasswordDigest,
		CreatorUserID:  r.CreatorUserID,
		CreatorConn:    r.CreatorConn,
		Slots:          make(map[Color]SlotRecord, MaxPlayers),
		Started:        r.Started,
		StartedAt:      r.StartedAt,
		CreatedAt:      r.CreatedAt,
	}
	for _, c := range Colors {
		s := r.Slots[c]
		if s.Occupied() || s.UserID != 0 {
			rec.Slots[c] = SlotRecord{UserID: s.UserID, Conn: s.Conn}
		}
	}
	if r.Game != nil {
		rec.Game = r.Game.Clone()
		rec.GameOver = r.Game.GameOver
	}
	return rec
}

// SlotRecord is the persisted form of a seat
type SlotRecord struct {
	UserID UserID `json:"userId,omitempty"`
	Conn   ConnID `json:"conn,omitempty"`
}

// RoomRecord is the durable projection of a room used for recovery
type RoomRecord struct {
	Code           RoomCode             `json:"code"`
	Name           string               `json:"name"`
	PasswordDigest string               `json:"passwordDigest,omitempty"`
	CreatorUserID  UserID               `json:"creatorUserId,omitempty"`
	CreatorConn    ConnID               `json:"creatorConn,omitempty"`
	Slots          map[Color]SlotRecord `json:"slots"`
	Game           *GameState           `json:"gameState,omitempty"`
	Started        bool                 `json:"started"`
	StartedAt      time.Time            `json:"startedAt,omitzero"`
	GameOver       bool                 `json:"gameOver"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// Clone returns a deep copy of the record
func (r *RoomRecord) Clone() *RoomRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Slots = make(map[Color]SlotRecord, len(r.Slots))
	for c, s := range r.Slots {
		cp.Slots[c] = s
	}
	cp.Game = r.Game.Clone()
	return &cp
}

// Session binds a live connection to its current room and side
type Session struct {
	ConnID      ConnID
	DisplayName string
	RoomCode    RoomCode
	Color       Color
}
