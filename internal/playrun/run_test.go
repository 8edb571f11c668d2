package playrun

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"encore/internal/logging"
	"encore/internal/session"
	"encore/internal/testsupport"
)

func TestRunRequiresContentURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	_, err := Run(context.Background(), cfg, Options{})
	if err == nil {
		t.Fatal("want error for missing content url")
	}

	_, err = Run(context.Background(), nil, Options{Request: session.Request{ContentURL: "https://example.com/a.mkv"}})
	if err == nil {
		t.Fatal("want error for missing config")
	}
}

func TestCatalogClientsDisabledWithoutConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Catalog.APIKey = ""
	cfg.Resolver.URL = ""

	searcher, resolver := catalogClients(cfg, logging.NewNop())
	if searcher != nil || resolver != nil {
		t.Fatal("want both tier-3 collaborators disabled")
	}
}

func TestCatalogClientsEnabledWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Catalog.APIKey = "k"
	cfg.Resolver.URL = "https://resolver.example.com"

	searcher, resolver := catalogClients(cfg, logging.NewNop())
	if searcher == nil {
		t.Fatal("want a catalog searcher")
	}
	if resolver == nil {
		t.Fatal("want a stream resolver")
	}
}

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "encore-run.log")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}

	if err := ensureCurrentLogPointer(dir, target); err != nil {
		t.Fatalf("link pointer: %v", err)
	}

	resolved, err := os.Readlink(filepath.Join(dir, "encore.log"))
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if resolved != target {
		t.Fatalf("pointer = %s, want %s", resolved, target)
	}

	// Re-pointing replaces the existing link.
	if err := ensureCurrentLogPointer(dir, target); err != nil {
		t.Fatalf("re-link pointer: %v", err)
	}
}
