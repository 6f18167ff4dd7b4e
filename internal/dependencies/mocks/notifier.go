package mocks

import (
	"sync"

	"github.com/mcoot/threestones/internal/model"
)

// MockNotifier records events the way a hub would deliver them: a broadcast
// reaches the connections subscribed to the room at the time of the call.
type MockNotifier struct {
	mu            sync.Mutex
	subscriptions map[model.ConnID]map[model.RoomCode]bool
	delivered     map[model.ConnID][]model.Event
	broadcasts    map[model.RoomCode][]model.Event
	global        []model.Event
}

// NewMockNotifier creates a new MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		subscriptions: make(map[model.ConnID]map[model.RoomCode]bool),
		delivered:     make(map[model.ConnID][]model.Event),
		broadcasts:    make(map[model.RoomCode][]model.Event),
	}
}

func (n *MockNotifier) Send(conn model.ConnID, event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered[conn] = append(n.delivered[conn], event)
}

func (n *MockNotifier) Broadcast(code model.RoomCode, event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts[code] = append(n.broadcasts[code], event)
	for conn, rooms := range n.subscriptions {
		if rooms[code] {
			n.delivered[conn] = append(n.delivered[conn], event)
		}
	}
}

func (n *MockNotifier) BroadcastAll(event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.global = append(n.global, event)
}

func (n *MockNotifier) Subscribe(conn model.ConnID, code model.RoomCode) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscriptions[conn] == nil {
		n.subscriptions[conn] = make(map[model.RoomCode]bool)
	}
	n.subscriptions[conn][code] = true
}

func (n *MockNotifier) Unsubscribe(conn model.ConnID, code model.RoomCode) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subscriptions[conn], code)
}

// Subscribed reports whether conn currently receives broadcasts for code
func (n *MockNotifier) Subscribed(conn model.ConnID, code model.RoomCode) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.subscriptions[conn][code]
}

// Events returns everything delivered to conn, in order
func (n *MockNotifier) Events(conn model.ConnID) []model.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Event(nil), n.delivered[conn]...)
}

// EventsOfType returns the events of one type delivered to conn
func (n *MockNotifier) EventsOfType(conn model.ConnID, t model.EventType) []model.Event {
	var out []model.Event
	for _, ev := range n.Events(conn) {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Last returns the most recent event of type t delivered to conn
func (n *MockNotifier) Last(conn model.ConnID, t model.EventType) (model.Event, bool) {
	events := n.EventsOfType(conn, t)
	if len(events) == 0 {
		return model.Event{}, false
	}
	return events[len(events)-1], true
}

// Broadcasts returns every event broadcast to a room
func (n *MockNotifier) Broadcasts(code model.RoomCode) []model.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Event(nil), n.broadcasts[code]...)
}

// Global returns every event sent to all connections
func (n *MockNotifier) Global() []model.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Event(nil), n.global...)
}

// Reset forgets recorded events but keeps subscriptions
func (n *MockNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = make(map[model.ConnID][]model.Event)
	n.broadcasts = make(map[model.RoomCode][]model.Event)
	n.global = nil
}

// MockScheduler counts lobby refresh requests
type MockScheduler struct {
	mu    sync.Mutex
	calls int
}

func (s *MockScheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
}

// Calls returns how many refreshes were requested
func (s *MockScheduler) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
