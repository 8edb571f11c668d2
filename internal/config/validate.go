package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateNotifier(); err != nil {
		return err
	}
	if err := c.validateResume(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	switch c.Engine.Kind {
	case "mpv":
	default:
		return fmt.Errorf("engine.kind: unsupported engine %q", c.Engine.Kind)
	}
	if c.Engine.StartupTimeout <= 0 {
		return errors.New("engine.startup_timeout must be positive")
	}
	return nil
}

func (c *Config) validateNotifier() error {
	if c.Notifier.CallbackURL != "" {
		parsed, err := url.Parse(c.Notifier.CallbackURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("notifier.callback_url: %q is not a valid URL", c.Notifier.CallbackURL)
		}
	}
	if c.Notifier.RequestTimeout <= 0 {
		return errors.New("notifier.request_timeout must be positive")
	}
	if c.Notifier.HeartbeatInterval <= 0 {
		return errors.New("notifier.heartbeat_interval must be positive")
	}
	return nil
}

func (c *Config) validateResume() error {
	if c.Resume.SaveInterval <= 0 {
		return errors.New("resume.save_interval must be positive")
	}
	if c.Resume.CompletedThreshold <= 0 || c.Resume.CompletedThreshold > 100 {
		return errors.New("resume.completed_threshold must be within (0, 100]")
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if c.Playback.MaxRetries < 0 {
		return errors.New("playback.max_retries must not be negative")
	}
	if err := ensurePositiveMap(map[string]int{
		"playback.retry_delay_ms":      c.Playback.RetryDelayMS,
		"playback.end_epsilon_ms":      c.Playback.EndEpsilonMS,
		"playback.near_end_window_ms":  c.Playback.NearEndWindowMS,
		"playback.loop_window_ms":      c.Playback.LoopWindowMS,
		"playback.skip_ahead_ms":       c.Playback.SkipAheadMS,
		"playback.skip_ahead_loop_ms":  c.Playback.SkipAheadLoopMS,
		"playback.completion_grace_ms": c.Playback.CompletionGrace,
	}); err != nil {
		return err
	}
	if c.Playback.EndEpsilonMS > c.Playback.NearEndWindowMS {
		return errors.New("playback.end_epsilon_ms must not exceed playback.near_end_window_ms")
	}
	return nil
}

func (c *Config) validateResolver() error {
	if c.Resolver.URL == "" {
		return nil
	}
	parsed, err := url.Parse(c.Resolver.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("resolver.url: %q is not a valid URL", c.Resolver.URL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
