package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/threestones/internal/api/apierr"
	"github.com/mcoot/threestones/internal/api/handler"
	"github.com/mcoot/threestones/internal/api/response"
	"github.com/mcoot/threestones/internal/middleware"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger *slog.Logger
	Rooms  handler.RoomLister

	// RoomCount and ConnectionCount feed the health check (optional)
	RoomCount       handler.Counter
	ConnectionCount handler.Counter

	// WebSocket serves GET /ws
	WebSocket http.HandlerFunc
}

// NewRouter creates a new router with the websocket endpoint and the REST API
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	roomHandler := handler.NewRoomHandler(cfg.Rooms)
	healthHandler := handler.NewHealthHandler(cfg.RoomCount, cfg.ConnectionCount)

	// Logging wraps recovery so a recovered panic is still logged as a 500
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger, writePanic))

	// Realtime endpoint
	r.HandleFunc("/ws", cfg.WebSocket).Methods(http.MethodGet)

	// API subrouter
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}", roomHandler.Get).Methods(http.MethodGet)

	// mux resolves misses inside the subrouter, so both need the JSON handlers
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = http.HandlerFunc(writeNotFound)
		router.MethodNotAllowedHandler = http.HandlerFunc(writeMethodNotAllowed)
	}

	return r
}

func writeNotFound(w http.ResponseWriter, _ *http.Request) {
	response.Error(w, apierr.NewNotFoundError())
}

func writeMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	response.Error(w, apierr.NewMethodNotAllowedError())
}

// writePanic answers a recovered panic with the generic internal error body
func writePanic(w http.ResponseWriter, _ *http.Request, _ any) {
	response.Error(w, apierr.NewInternalError())
}
