// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
)

// NopLogger returns a logger that discards everything
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestLogger returns a debug-level logger that writes through t.Log, so
// output only shows for failing or verbose tests
func TestLogger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(tbWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}
