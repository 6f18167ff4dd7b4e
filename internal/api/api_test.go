package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/threestones/internal/api"
	"github.com/mcoot/threestones/internal/api/apierr"
	"github.com/mcoot/threestones/internal/api/request"
	"github.com/mcoot/threestones/internal/api/response"
	"github.com/mcoot/threestones/internal/factory"
	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/testutil"
)

// testServer holds a router over a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		Rooms:           app.Registry,
		RoomCount:       app.Registry.Count,
		ConnectionCount: app.Hub.ClientCount,
		WebSocket:       app.WSHandler.ServeWS,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) createRoom(t *testing.T, conn model.ConnID, code model.RoomCode, name, password string) {
	t.Helper()
	ts.app.MockRandom.QueueString(string(code))
	created, err := ts.app.Controller.CreateRoom(context.Background(), conn, "Alice", name, password)
	require.NoError(t, err)
	require.Equal(t, code, created)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	ts.createRoom(t, "conn-a", "ROOM01", "one", "")

	rr := ts.request(http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	health := decode[response.Health](t, rr)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Equal(t, 1, health.Rooms)
}

func TestListRoomsEmpty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms")
	assert.Equal(t, http.StatusOK, rr.Code)

	list := decode[response.RoomList](t, rr)
	assert.NotNil(t, list.Rooms)
	assert.Empty(t, list.Rooms)
}

func TestListRooms(t *testing.T) {
	ts := newTestServer(t)
	ts.createRoom(t, "conn-a", "ROOM01", "first", "")
	ts.app.MockClock.Advance(time.Minute)
	ts.createRoom(t, "conn-b", "ROOM02", "second", "secret")

	rr := ts.request(http.MethodGet, "/api/v1/rooms")
	require.Equal(t, http.StatusOK, rr.Code)

	list := decode[response.RoomList](t, rr)
	require.Len(t, list.Rooms, 2)

	// Newest first
	assert.Equal(t, "ROOM02", list.Rooms[0].Code)
	assert.True(t, list.Rooms[0].HasPassword)
	assert.Equal(t, "ROOM01", list.Rooms[1].Code)
	assert.False(t, list.Rooms[1].HasPassword)
	assert.Equal(t, 1, list.Rooms[1].Players)
	assert.Equal(t, model.MaxPlayers, list.Rooms[1].MaxPlayers)
}

func TestGetRoom(t *testing.T) {
	ts := newTestServer(t)
	ts.createRoom(t, "conn-a", "ROOM01", "first", "")

	rr := ts.request(http.MethodGet, "/api/v1/rooms/room01")
	require.Equal(t, http.StatusOK, rr.Code)

	room := decode[response.Room](t, rr)
	assert.Equal(t, "ROOM01", room.Code)
	assert.Equal(t, "first", room.Name)
	assert.False(t, room.Started)
}

func TestGetRoomNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/NOPE99")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	resp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeRoomNotFound, resp.Error.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"unknown api path", http.MethodGet, "/api/v1/lobbies", http.StatusNotFound, apierr.CodeNotFound},
		{"unknown root path", http.MethodGet, "/index.html", http.StatusNotFound, apierr.CodeNotFound},
		{"rooms are read-only", http.MethodPost, "/api/v1/rooms", http.StatusMethodNotAllowed, apierr.CodeMethodNotAllowed},
		{"room is read-only", http.MethodDelete, "/api/v1/rooms/ABC234", http.StatusMethodNotAllowed, apierr.CodeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(tt.method, tt.path)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantCode, decode[apierr.ErrorResponse](t, rr).Error.Code)
		})
	}
}

func TestWebSocketThroughRouter(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	t.Cleanup(server.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()

	frame, err := request.Encode(&request.GetLobbyListRequest{})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event model.Event
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, model.EventLobbyList, event.Type)

	require.Eventually(t, func() bool {
		rr := ts.request(http.MethodGet, "/api/v1/health")
		return decode[response.Health](t, rr).Connections == 1
	}, time.Second, 5*time.Millisecond)
}
