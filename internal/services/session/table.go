package session

import (
	"sync"

	"github.com/mcoot/threestones/internal/model"
)

// Table tracks which room and side each live connection is bound to.
// Sessions are never persisted.
type Table struct {
	mu       sync.RWMutex
	sessions map[model.ConnID]model.Session
}

// NewTable creates an empty Table
func NewTable() *Table {
	return &Table{sessions: make(map[model.ConnID]model.Session)}
}

// Bind creates or replaces the session for a connection
func (t *Table) Bind(s model.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[s.ConnID] = s
}

// Get returns the session for a connection
func (t *Table) Get(conn model.ConnID) (model.Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[conn]
	return s, ok
}

// InRoom reports whether conn is bound to the given room
func (t *Table) InRoom(conn model.ConnID, code model.RoomCode) bool {
	s, ok := t.Get(conn)
	return ok && s.RoomCode == code
}

// Remove deletes a connection's session, returning what was removed
func (t *Table) Remove(conn model.ConnID) (model.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[conn]
	delete(t.sessions, conn)
	return s, ok
}

// RemoveIfInRoom deletes the session only if it is still bound to code
func (t *Table) RemoveIfInRoom(conn model.ConnID, code model.RoomCode) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[conn]
	if !ok || s.RoomCode != code {
		return false
	}
	delete(t.sessions, conn)
	return true
}

// Count returns the number of live sessions
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
