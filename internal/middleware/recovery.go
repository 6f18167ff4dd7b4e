package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler writes the response for a request whose handler panicked
type PanicHandler func(w http.ResponseWriter, r *http.Request, err any)

// Recovery logs a handler panic and hands the response to onPanic. Panics
// with http.ErrAbortHandler are passed through so the server can abort the
// connection quietly.
func Recovery(logger *slog.Logger, onPanic PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				rw, wrapped := w.(*ResponseWriter)
				upgraded := wrapped && rw.hijacked
				logger.Error("panic recovered",
					slog.Any("error", v),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("upgraded", upgraded),
				)

				// the client is talking websocket now; no HTTP response is possible
				if upgraded {
					return
				}
				onPanic(w, r, v)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
