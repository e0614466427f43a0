package testutil

import (
	"bytes"
	"log"
	"log/slog"
	"sync"
	"testing"
)

// NewTestLogger returns a debug-level logger that writes through t.Log,
// so log lines only show up for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(&testWriter{t: t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// SetDefaultLogger installs NewTestLogger(t) as the slog default for the
// duration of the test and restores the previous default on cleanup.
func SetDefaultLogger(t testing.TB) *slog.Logger {
	t.Helper()
	prev := slog.Default()
	// slog.SetDefault redirects the log package too; restore it separately
	// because putting back the default slog handler does not.
	prevOut, prevFlags := log.Writer(), log.Flags()

	logger := NewTestLogger(t)
	slog.SetDefault(logger)
	t.Cleanup(func() {
		slog.SetDefault(prev)
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return logger
}

type testWriter struct {
	mu sync.Mutex
	t  testing.TB
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.t.Helper()
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}
