package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Engine contains configuration for the external playback engine.
type Engine struct {
	Kind           string `toml:"kind"`
	Binary         string `toml:"binary"`
	SocketDir      string `toml:"socket_dir"`
	StartupTimeout int    `toml:"startup_timeout"`
}

// Notifier contains configuration for the orchestrator callback channel.
type Notifier struct {
	CallbackURL       string `toml:"callback_url"`
	RequestTimeout    int    `toml:"request_timeout"`
	HeartbeatInterval int    `toml:"heartbeat_interval"`
}

// Resume contains configuration for resume-point persistence.
type Resume struct {
	SaveInterval       int     `toml:"save_interval"`
	CompletedThreshold float64 `toml:"completed_threshold"`
}

// Playback contains retry and completion tuning for the session controller.
// All durations are milliseconds.
type Playback struct {
	MaxRetries      int `toml:"max_retries"`
	RetryDelayMS    int `toml:"retry_delay_ms"`
	EndEpsilonMS    int `toml:"end_epsilon_ms"`
	NearEndWindowMS int `toml:"near_end_window_ms"`
	LoopWindowMS    int `toml:"loop_window_ms"`
	SkipAheadMS     int `toml:"skip_ahead_ms"`
	SkipAheadLoopMS int `toml:"skip_ahead_loop_ms"`
	CompletionGrace int `toml:"completion_grace_ms"`
}

// Catalog contains configuration for The Movie Database API, used only as a
// last-resort source when advancing past the final configured episode.
type Catalog struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Resolver contains configuration for the external stream-resolution service.
type Resolver struct {
	URL            string `toml:"url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for encore.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Engine   Engine   `toml:"engine"`
	Notifier Notifier `toml:"notifier"`
	Resume   Resume   `toml:"resume"`
	Playback Playback `toml:"playback"`
	Catalog  Catalog  `toml:"catalog"`
	Resolver Resolver `toml:"resolver"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/encore/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file.
// A missing file yields the defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("encore.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the controller needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Engine.SocketDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RetryDelay returns the delay between a classified retryable error and the
// scheduled resume call.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Playback.RetryDelayMS) * time.Millisecond
}

// EndEpsilon returns the position-to-duration proximity required before an
// engine terminal signal is trusted.
func (c *Config) EndEpsilon() time.Duration {
	return time.Duration(c.Playback.EndEpsilonMS) * time.Millisecond
}

// NearEndWindow returns the window before end-of-content in which format
// errors are treated as natural completion.
func (c *Config) NearEndWindow() time.Duration {
	return time.Duration(c.Playback.NearEndWindowMS) * time.Millisecond
}

// LoopWindow returns the position clustering distance that flags a retry loop.
func (c *Config) LoopWindow() time.Duration {
	return time.Duration(c.Playback.LoopWindowMS) * time.Millisecond
}

// SkipAhead returns the forward seek applied to mid-stream format errors.
func (c *Config) SkipAhead(loopSuspected bool) time.Duration {
	if loopSuspected {
		return time.Duration(c.Playback.SkipAheadLoopMS) * time.Millisecond
	}
	return time.Duration(c.Playback.SkipAheadMS) * time.Millisecond
}

// CompletionGrace returns the pause between movie completion and teardown.
func (c *Config) CompletionGrace() time.Duration {
	return time.Duration(c.Playback.CompletionGrace) * time.Millisecond
}

// SaveInterval returns the periodic resume-point persistence interval.
func (c *Config) SaveInterval() time.Duration {
	return time.Duration(c.Resume.SaveInterval) * time.Second
}

// HeartbeatInterval returns the progress reporting cadence.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Notifier.HeartbeatInterval) * time.Second
}

// NotifierTimeout returns the HTTP timeout for orchestrator callbacks.
func (c *Config) NotifierTimeout() time.Duration {
	return time.Duration(c.Notifier.RequestTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
