package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeNotifier()
	c.normalizeCatalog()
	c.normalizeResolver()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Engine.SocketDir, err = expandPath(c.Engine.SocketDir); err != nil {
		return fmt.Errorf("engine.socket_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngine() {
	c.Engine.Kind = strings.ToLower(strings.TrimSpace(c.Engine.Kind))
	if c.Engine.Kind == "" {
		c.Engine.Kind = defaultEngineKind
	}
	c.Engine.Binary = strings.TrimSpace(c.Engine.Binary)
	if c.Engine.Binary == "" {
		c.Engine.Binary = c.Engine.Kind
	}
	if c.Engine.StartupTimeout <= 0 {
		c.Engine.StartupTimeout = defaultStartupTimeout
	}
}

func (c *Config) normalizeNotifier() {
	c.Notifier.CallbackURL = strings.TrimSpace(c.Notifier.CallbackURL)
	if c.Notifier.RequestTimeout <= 0 {
		c.Notifier.RequestTimeout = defaultRequestTimeout
	}
	if c.Notifier.HeartbeatInterval <= 0 {
		c.Notifier.HeartbeatInterval = defaultHeartbeatInterval
	}
}

func (c *Config) normalizeCatalog() {
	if c.Catalog.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.Catalog.APIKey = strings.TrimSpace(value)
		}
	}
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	c.Catalog.Language = strings.TrimSpace(c.Catalog.Language)
	if c.Catalog.Language == "" {
		c.Catalog.Language = defaultCatalogLanguage
	}
}

func (c *Config) normalizeResolver() {
	c.Resolver.URL = strings.TrimRight(strings.TrimSpace(c.Resolver.URL), "/")
	if c.Resolver.RequestTimeout <= 0 {
		c.Resolver.RequestTimeout = defaultResolverTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
