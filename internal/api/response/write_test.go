package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/threestones/internal/api/apierr"
	"github.com/mcoot/threestones/internal/model"
)

func TestJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, Health{Status: "ok", Rooms: 2})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"status":"ok","rooms":2,"connections":0}`, rr.Body.String())
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"room not found", model.ErrRoomNotFound, http.StatusNotFound, apierr.CodeRoomNotFound},
		{"invalid request", apierr.NewInvalidRequestError("room code is required"), http.StatusBadRequest, apierr.CodeInvalidRequest},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, apierr.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Error(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			var resp apierr.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotContains(t, resp.Error.Message, "disk")
		})
	}
}
