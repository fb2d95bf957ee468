// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/atomicstack/billboard/internal/logging"
)

// DefaultWait bounds how long Receive waits before failing the test.
const DefaultWait = 2 * time.Second

// QuietLog points the shared log at a per-test file and restores the default
// destination afterwards. It returns the log path.
func QuietLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "billboard.log")
	logging.Configure(path)
	t.Cleanup(func() { logging.Configure("") })
	return path
}

// Receive returns the next value from ch, failing the test if ch is closed or
// nothing arrives within DefaultWait.
func Receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(DefaultWait):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}
