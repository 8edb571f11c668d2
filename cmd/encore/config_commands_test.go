package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err = runCLI(t, configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// A second init without --overwrite refuses to clobber the file.
	_, _, err = runCLI(t, configPath, "config", "init", "--path", target)
	if err == nil {
		t.Fatal("want error when config file already exists")
	}

	if _, _, err := runCLI(t, configPath, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowPrintsJSON(t *testing.T) {
	out, _, err := runCLI(t, writeTestConfig(t), "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, `"Playback"`)
	requireContains(t, out, `"MaxRetries"`)
}
