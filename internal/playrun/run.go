// Package playrun wires a full playback run: logger, instance lock,
// resume store, notifier, engine, catalog clients, and the session
// controller, then plays sessions until a terminal outcome with no
// follow-up remains.
package playrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"encore/internal/catalog"
	"encore/internal/config"
	"encore/internal/engine"
	"encore/internal/engine/mpv"
	"encore/internal/logging"
	"encore/internal/notify"
	"encore/internal/resume"
	"encore/internal/session"
)

// Options configures one invocation of the player runtime.
type Options struct {
	LogLevel    string
	CallbackURL string
	WantResult  bool

	// FollowNext keeps playing when the advance protocol resolves the
	// next episode's stream itself.
	FollowNext bool

	Request session.Request
}

// Run plays the requested content. It blocks until the final session
// terminates or a signal arrives, and returns the last session's
// outcome.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) (session.Outcome, error) {
	var outcome session.Outcome

	if cfg == nil {
		return outcome, fmt.Errorf("config is required")
	}
	if strings.TrimSpace(opts.Request.ContentURL) == "" {
		return outcome, fmt.Errorf("content url is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return outcome, err
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("encore-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return outcome, fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update encore.log link: %v\n", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.StateDir, "encore.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return outcome, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return outcome, fmt.Errorf("another encore instance holds %s", lock.Path())
	}
	defer lock.Unlock()

	store, err := resume.Open(cfg)
	if err != nil {
		logger.Error("open resume store", logging.Error(err))
		return outcome, err
	}
	defer store.Close()

	if strings.TrimSpace(opts.CallbackURL) != "" {
		cfg.Notifier.CallbackURL = opts.CallbackURL
	}
	notifier := notify.NewService(cfg)

	searcher, resolver := catalogClients(cfg, logger)

	req := opts.Request
	for {
		controller := session.NewController(session.Options{
			Config:     cfg,
			Store:      store,
			Notifier:   notifier,
			Engine:     newEngine(cfg, logger),
			Logger:     logger,
			Searcher:   searcher,
			Resolver:   resolver,
			WantResult: opts.WantResult,
		})

		outcome, err = controller.Run(signalCtx, req)
		if err != nil {
			return outcome, err
		}

		if outcome.Next == nil || !opts.FollowNext {
			return outcome, nil
		}
		if signalCtx.Err() != nil {
			return outcome, nil
		}

		logger.Info("continuing with next episode", logging.Args(
			logging.String(logging.FieldContentKey, outcome.Next.ContentURL),
		)...)
		req = *outcome.Next
	}
}

func newEngine(cfg *config.Config, logger *slog.Logger) engine.Engine {
	return mpv.New(mpv.Options{
		Binary:    cfg.Engine.Binary,
		SocketDir: cfg.Engine.SocketDir,
		Logger:    logger,
	})
}

// catalogClients builds the optional tier-3 advance collaborators.
// Missing configuration just disables the tier.
func catalogClients(cfg *config.Config, logger *slog.Logger) (catalog.Searcher, catalog.StreamResolver) {
	var searcher catalog.Searcher
	if strings.TrimSpace(cfg.Catalog.APIKey) != "" {
		client, err := catalog.New(cfg.Catalog.APIKey, cfg.Catalog.BaseURL, cfg.Catalog.Language)
		if err != nil {
			logger.Warn("catalog client unavailable", logging.Args(logging.Error(err))...)
		} else {
			searcher = client
		}
	}

	var resolver catalog.StreamResolver
	if strings.TrimSpace(cfg.Resolver.URL) != "" {
		r, err := catalog.NewResolver(cfg.Resolver.URL, time.Duration(cfg.Resolver.RequestTimeout)*time.Second)
		if err != nil {
			logger.Warn("stream resolver unavailable", logging.Args(logging.Error(err))...)
		} else {
			resolver = r
		}
	}

	return searcher, resolver
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "encore.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
