// Package config loads, validates, and normalizes the TOML configuration
// that drives encore: engine launch settings, the orchestrator callback
// endpoint, resume persistence, catalog credentials, and retry tuning.
package config
