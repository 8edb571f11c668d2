// Package testsupport provides shared helpers for package tests: configs
// seeded with unique temp directories and ready-to-use resume stores.
package testsupport

import (
	"path/filepath"
	"testing"

	"encore/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Engine.SocketDir = filepath.Join(base, "sockets")
	cfg.Logging.Format = "json"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCallbackURL sets the orchestrator callback endpoint on the test config.
func WithCallbackURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Notifier.CallbackURL = url
	}
}

// WithMaxRetries overrides the retry budget on the test config.
func WithMaxRetries(n int) ConfigOption {
	return func(c *config.Config) {
		c.Playback.MaxRetries = n
	}
}
