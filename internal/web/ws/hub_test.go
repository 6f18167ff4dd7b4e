package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/testutil"
)

const markerType model.EventType = "marker"

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func newTestClient(id model.ConnID) *Client {
	return NewClient(id, nil, testutil.NopLogger())
}

func receive(t *testing.T, client *Client) model.EventType {
	t.Helper()
	select {
	case message, ok := <-client.send:
		require.True(t, ok, "send channel closed for %s", client.id)
		var event struct {
			Type model.EventType `json:"type"`
		}
		require.NoError(t, json.Unmarshal(message, &event))
		return event.Type
	case <-time.After(time.Second):
		t.Fatalf("no message for %s", client.id)
		return ""
	}
}

// expectNothing checks that no message is queued ahead of a marker. Hub
// operations apply in order, so the marker arrives after anything earlier.
func expectNothing(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	hub.Send(client.id, model.Event{Type: markerType})
	assert.Equal(t, markerType, receive(t, client))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := newRunningHub(t)
	client := newTestClient("conn-1")

	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	_, ok := <-client.send
	assert.False(t, ok, "send channel should be closed after unregister")
}

func TestHub_UnregisterUnknownClient(t *testing.T) {
	hub := newRunningHub(t)
	client := newTestClient("conn-1")

	hub.Unregister(client)
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	expectNothing(t, hub, client)
}

func TestHub_SendTargetsOneConnection(t *testing.T) {
	hub := newRunningHub(t)
	a := newTestClient("conn-a")
	b := newTestClient("conn-b")
	hub.Register(a)
	hub.Register(b)

	hub.Send(a.id, model.Event{Type: model.EventLobbyList})

	assert.Equal(t, model.EventLobbyList, receive(t, a))
	expectNothing(t, hub, b)
}

func TestHub_BroadcastReachesSubscribersOnly(t *testing.T) {
	hub := newRunningHub(t)
	a := newTestClient("conn-a")
	b := newTestClient("conn-b")
	outsider := newTestClient("conn-c")
	hub.Register(a)
	hub.Register(b)
	hub.Register(outsider)
	hub.Subscribe(a.id, "ROOM01")
	hub.Subscribe(b.id, "ROOM01")

	hub.Broadcast("ROOM01", model.Event{Type: model.EventPlayerJoined})

	assert.Equal(t, model.EventPlayerJoined, receive(t, a))
	assert.Equal(t, model.EventPlayerJoined, receive(t, b))
	expectNothing(t, hub, outsider)
	assert.Equal(t, 2, hub.RoomSize("ROOM01"))
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := newRunningHub(t)
	a := newTestClient("conn-a")
	hub.Register(a)
	hub.Subscribe(a.id, "ROOM01")
	hub.Unsubscribe(a.id, "ROOM01")

	hub.Broadcast("ROOM01", model.Event{Type: model.EventGameState})

	expectNothing(t, hub, a)
	assert.Equal(t, 0, hub.RoomSize("ROOM01"))
}

func TestHub_SubscribeUnknownConnectionIgnored(t *testing.T) {
	hub := newRunningHub(t)
	a := newTestClient("conn-a")
	hub.Register(a)

	hub.Subscribe("ghost", "ROOM01")
	expectNothing(t, hub, a)

	assert.Equal(t, 0, hub.RoomSize("ROOM01"))
}

func TestHub_UnregisterLeavesRooms(t *testing.T) {
	hub := newRunningHub(t)
	a := newTestClient("conn-a")
	b := newTestClient("conn-b")
	hub.Register(a)
	hub.Register(b)
	hub.Subscribe(a.id, "ROOM01")
	hub.Subscribe(b.id, "ROOM01")
	hub.Unregister(a)

	hub.Broadcast("ROOM01", model.Event{Type: model.EventPlayerLeft})

	assert.Equal(t, model.EventPlayerLeft, receive(t, b))
	waitFor(t, func() bool { return hub.RoomSize("ROOM01") == 1 })
}

func TestHub_BroadcastAll(t *testing.T) {
	hub := newRunningHub(t)
	a := newTestClient("conn-a")
	b := newTestClient("conn-b")
	hub.Register(a)
	hub.Register(b)
	hub.Subscribe(a.id, "ROOM01")

	hub.BroadcastAll(model.Event{Type: model.EventLobbyList})

	assert.Equal(t, model.EventLobbyList, receive(t, a))
	assert.Equal(t, model.EventLobbyList, receive(t, b))
}

func TestHub_PreservesOrder(t *testing.T) {
	hub := newRunningHub(t)
	a := newTestClient("conn-a")
	hub.Register(a)
	hub.Subscribe(a.id, "ROOM01")

	hub.Broadcast("ROOM01", model.Event{Type: model.EventDiceRoll})
	hub.Send(a.id, model.Event{Type: model.EventError})
	hub.Broadcast("ROOM01", model.Event{Type: model.EventDiceResult})
	hub.BroadcastAll(model.Event{Type: model.EventLobbyList})

	assert.Equal(t, model.EventDiceRoll, receive(t, a))
	assert.Equal(t, model.EventError, receive(t, a))
	assert.Equal(t, model.EventDiceResult, receive(t, a))
	assert.Equal(t, model.EventLobbyList, receive(t, a))
}

func TestHub_EncodesAtCallTime(t *testing.T) {
	hub := newRunningHub(t)
	a := newTestClient("conn-a")
	hub.Register(a)

	payload := &model.PlayersPayload{Players: map[model.Color]string{model.ColorOrange: "Alice"}}
	hub.Send(a.id, model.Event{Type: model.EventPlayerJoined, Payload: payload})
	payload.Players[model.ColorBlue] = "Bob"

	message := <-a.send
	assert.Contains(t, string(message), `"Alice"`)
	assert.NotContains(t, string(message), `"Bob"`)
}

func TestHub_DropsWhenBufferFull(t *testing.T) {
	hub := newRunningHub(t)
	a := newTestClient("conn-a")
	hub.Register(a)

	for i := 0; i < sendBufferSize+10; i++ {
		hub.Send(a.id, model.Event{Type: model.EventGameState})
	}
	waitFor(t, func() bool { return len(a.send) == sendBufferSize })

	// Draining one slot lets the next event through
	<-a.send
	hub.Send(a.id, model.Event{Type: markerType})
	waitFor(t, func() bool { return len(a.send) == sendBufferSize })

	var last model.EventType
	for len(a.send) > 0 {
		last = receive(t, a)
	}
	assert.Equal(t, markerType, last)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	a := newTestClient("conn-a")
	hub.Register(a)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Close()
	hub.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, ok := <-a.send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())

	// Calls after close return without blocking
	hub.Send(a.id, model.Event{Type: model.EventLobbyList})
}
