package main

import (
	"context"
	"testing"
	"time"

	"encore/internal/config"
	"encore/internal/resume"
)

func seedResumePoint(t *testing.T, configPath, key string, pos time.Duration) {
	t.Helper()
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := resume.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	if err := store.Save(context.Background(), key, pos); err != nil {
		t.Fatalf("seed resume point: %v", err)
	}
}

func TestResumeListAndShow(t *testing.T) {
	configPath := writeTestConfig(t)
	key := "https://cdn.example.com/library/heat.1995.mkv"
	seedResumePoint(t, configPath, key, 42*time.Minute)

	out, _, err := runCLI(t, configPath, "resume", "list")
	if err != nil {
		t.Fatalf("resume list: %v", err)
	}
	requireContains(t, out, key)
	requireContains(t, out, "42m0s")

	out, _, err = runCLI(t, configPath, "resume", "show", key)
	if err != nil {
		t.Fatalf("resume show: %v", err)
	}
	requireContains(t, out, "Resume at 42m0s")
}

func TestResumeShowMissingKey(t *testing.T) {
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, configPath, "resume", "show", "https://example.com/unknown.mkv")
	if err != nil {
		t.Fatalf("resume show: %v", err)
	}
	requireContains(t, out, "No resume point")
}

func TestResumeClear(t *testing.T) {
	configPath := writeTestConfig(t)
	key := "https://cdn.example.com/library/show.s01e01.mkv"
	seedResumePoint(t, configPath, key, 5*time.Minute)

	out, _, err := runCLI(t, configPath, "resume", "clear", key)
	if err != nil {
		t.Fatalf("resume clear: %v", err)
	}
	requireContains(t, out, "Removed resume point")

	out, _, err = runCLI(t, configPath, "resume", "show", key)
	if err != nil {
		t.Fatalf("resume show after clear: %v", err)
	}
	requireContains(t, out, "No resume point")

	if _, _, err := runCLI(t, configPath, "resume", "clear"); err == nil {
		t.Fatal("want error when clear has neither key nor --all")
	}

	seedResumePoint(t, configPath, key, 5*time.Minute)
	out, _, err = runCLI(t, configPath, "resume", "clear", "--all")
	if err != nil {
		t.Fatalf("resume clear --all: %v", err)
	}
	requireContains(t, out, "Removed 1 resume point(s)")
}

func TestResumeListEmpty(t *testing.T) {
	out, _, err := runCLI(t, writeTestConfig(t), "resume", "list")
	if err != nil {
		t.Fatalf("resume list: %v", err)
	}
	requireContains(t, out, "No resume points stored")
}

func TestResumeListAlignsPositions(t *testing.T) {
	configPath := writeTestConfig(t)
	seedResumePoint(t, configPath, "https://cdn.example.com/library/heat.1995.mkv", 42*time.Minute)
	seedResumePoint(t, configPath, "https://cdn.example.com/library/clip.mkv", 5*time.Second)

	out, _, err := runCLI(t, configPath, "resume", "list")
	if err != nil {
		t.Fatalf("resume list: %v", err)
	}
	// The position column is right-aligned under its 8-wide header.
	requireContains(t, out, "      5s")
	requireContains(t, out, "   42m0s")
}
