package session

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"encore/internal/catalog"
	"encore/internal/logging"
	"encore/internal/media"
	"encore/internal/notify"
)

// advancer walks the tiered next-episode protocol when an episode
// completes. Tiers run in order and the first one that produces a
// terminal output wins; every tier failing is a graceful ending, never
// an error.
type advancer struct {
	notifier   notify.Service
	searcher   catalog.Searcher
	resolver   catalog.StreamResolver
	wantResult bool
	notifyWait time.Duration
	logger     *slog.Logger
}

func (a *advancer) advance(ctx context.Context, sess *Session) (*notify.Result, *Request) {
	id := sess.Identity
	next := id.Episode + 1
	durMS := sess.Duration().Milliseconds()
	fullyWatched := &notify.Result{
		PositionMS: durMS,
		DurationMS: durMS,
		Season:     id.Season,
		Episode:    next,
	}

	// Tier 1: the orchestrator callback queues the next episode itself.
	// The HTTP call runs on a worker so cancellation still wins while a
	// slow endpoint is deciding.
	if a.notifier.Enabled() {
		errCh := make(chan error, 1)
		go func() {
			errCh <- a.notifier.NotifyNextEpisode(ctx, notify.Advance{
				Season:    id.Season,
				Episode:   next,
				ShowID:    id.ShowID,
				IMDBID:    id.IMDBID,
				SessionID: sess.ID,
			})
		}()
		var err error
		select {
		case err = <-errCh:
		case <-ctx.Done():
			err = ctx.Err()
		}
		if err == nil {
			a.logger.Info("next episode notified", logging.Args(
				logging.Int("season", id.Season),
				logging.Int("episode", next),
			)...)
			// Give the orchestrator a moment to act before the engine
			// is torn down underneath it.
			select {
			case <-time.After(a.notifyWait):
			case <-ctx.Done():
			}
			return fullyWatched, nil
		}
		a.logger.Warn("next episode notification failed", logging.Args(logging.Error(err))...)
	}

	// Tier 2: hand the structured result back to a caller that asked
	// for one and let it drive the advance.
	if a.wantResult {
		return fullyWatched, nil
	}

	// Tier 3: resolve the next stream ourselves through the catalog.
	if req := a.resolveNext(ctx, sess, next); req != nil {
		return nil, req
	}

	// Tier 4: nothing answered. End quietly.
	a.logger.Info("no advance channel available, ending session", logging.Args(
		logging.Int("season", id.Season),
		logging.Int("episode", next),
	)...)
	return nil, nil
}

func (a *advancer) resolveNext(ctx context.Context, sess *Session, next int) *Request {
	if a.resolver == nil {
		return nil
	}

	id := sess.Identity
	ref := catalog.EpisodeRef{
		ShowID:  id.ShowID,
		IMDBID:  id.IMDBID,
		Season:  id.Season,
		Episode: next,
	}

	if ref.ShowID == "" && ref.IMDBID == "" {
		if a.searcher == nil || id.Title == "" {
			return nil
		}
		show, err := a.searcher.SearchShow(ctx, id.Title)
		if err != nil {
			a.logger.Warn("show lookup failed", logging.Args(
				logging.String("title", id.Title),
				logging.Error(err),
			)...)
			return nil
		}
		ref.ShowID = strconv.FormatInt(show.ID, 10)
	}

	streamURL, err := a.resolver.ResolveStream(ctx, ref)
	if err != nil {
		a.logger.Warn("stream resolution failed", logging.Args(
			logging.String("show_id", ref.ShowID),
			logging.Int("season", ref.Season),
			logging.Int("episode", ref.Episode),
			logging.Error(err),
		)...)
		return nil
	}

	a.logger.Info("next episode resolved", logging.Args(
		logging.Int("season", ref.Season),
		logging.Int("episode", ref.Episode),
	)...)

	return &Request{
		ContentURL: streamURL,
		Hints: media.Hints{
			ShowID:  ref.ShowID,
			IMDBID:  ref.IMDBID,
			Season:  ref.Season,
			Episode: ref.Episode,
			Title:   id.Title,
		},
	}
}
