package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/threestones/internal/testutil"
)

type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	server, client := net.Pipe()
	_ = client.Close()
	return server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)), nil
}

func TestLogging_CapturesStatusAndSize(t *testing.T) {
	handler := Logging(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw, ok := w.(*ResponseWriter)
		require.True(t, ok)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
		assert.Equal(t, http.StatusTeapot, rw.Status())
		assert.Equal(t, 5, rw.Size())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestLogging_PassesHijackThrough(t *testing.T) {
	handler := Logging(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hijacker, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hijacker.Hijack()
		require.NoError(t, err)
		_ = conn.Close()
		assert.Equal(t, http.StatusSwitchingProtocols, w.(*ResponseWriter).Status())
	}))

	rec := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.True(t, rec.hijacked)
}

func TestLogging_HijackUnsupported(t *testing.T) {
	handler := Logging(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, err := w.(http.Hijacker).Hijack()
		assert.Error(t, err)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws", nil))
}

func TestRecovery_CallsPanicHandler(t *testing.T) {
	var recovered any
	handler := Recovery(testutil.NopLogger(), func(w http.ResponseWriter, r *http.Request, err any) {
		recovered = err
		w.WriteHeader(http.StatusInternalServerError)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "boom", recovered)
}

func TestRecovery_SkipsHijackedConnections(t *testing.T) {
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		_ = conn.Close()
		panic("after upgrade")
	})
	handler := Recovery(testutil.NopLogger(), func(w http.ResponseWriter, r *http.Request, err any) {
		called = true
	})(inner)
	stack := Logging(testutil.NopLogger())(handler)

	rec := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	stack.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.False(t, called)
}

func TestRecovery_RepanicsAbortHandler(t *testing.T) {
	called := false
	handler := Recovery(testutil.NopLogger(), func(w http.ResponseWriter, r *http.Request, err any) {
		called = true
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.False(t, called)
}
