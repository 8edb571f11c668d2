package testsupport

import (
	"testing"

	"encore/internal/resume"
)

// NewStore opens a resume store in a fresh temp directory and registers
// cleanup with the test.
func NewStore(t testing.TB) *resume.Store {
	t.Helper()

	cfg := NewConfig(t)
	store, err := resume.Open(cfg)
	if err != nil {
		t.Fatalf("open resume store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
