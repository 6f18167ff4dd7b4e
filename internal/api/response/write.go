package response

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/threestones/internal/api/apierr"
)

// JSON writes a JSON response. Room state changes with every websocket
// message, so nothing here is cacheable.
func JSON(w http.ResponseWriter, status int, data any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes err as an error body with its mapped status
func Error(w http.ResponseWriter, err error) {
	JSON(w, apierr.Status(err), apierr.ErrorResponse{Error: apierr.FromError(err)})
}
