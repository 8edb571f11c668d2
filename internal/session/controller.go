package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"encore/internal/catalog"
	"encore/internal/config"
	"encore/internal/engine"
	"encore/internal/logging"
	"encore/internal/notify"
	"encore/internal/resume"
)

// Terminal reasons reported on the outcome.
const (
	ReasonCompleted        = "completed"
	ReasonStopped          = "stopped"
	ReasonRetriesExhausted = "retries_exhausted"
	ReasonFatal            = "fatal"
)

// Outcome is what a session leaves behind when it terminates. Result
// carries the structured progress payload; Next is set only when the
// advance protocol resolved a follow-up stream itself.
type Outcome struct {
	SessionID string
	Reason    string
	Result    *notify.Result
	Next      *Request
}

// Options wires a controller. Config, Store, Notifier, Engine, and
// Logger are required; Searcher and Resolver are optional and only
// consulted by the episode advance protocol.
type Options struct {
	Config   *config.Config
	Store    *resume.Store
	Notifier notify.Service
	Engine   engine.Engine
	Logger   *slog.Logger

	Searcher catalog.Searcher
	Resolver catalog.StreamResolver

	// WantResult marks the caller as expecting a structured result for
	// episode completion when no callback channel delivered the advance.
	WantResult bool

	// AdvanceWait bounds how long the controller lingers after a
	// successful next-episode notification before terminating.
	AdvanceWait time.Duration
}

// Controller runs one playback session. All state below the options is
// owned by the Run goroutine; nothing else reads or writes it.
type Controller struct {
	cfg      *config.Config
	store    *resume.Store
	notifier notify.Service
	eng      engine.Engine
	logger   *slog.Logger
	adv      *advancer

	session *Session
	state   State
	retry   retryState

	completionHandled bool
	lastPos           time.Duration
	pendingResumeAt   time.Duration

	retryCh    chan int
	retryGen   int
	retryTimer *time.Timer

	saver    *saver
	hbCancel context.CancelFunc
	notifyWG sync.WaitGroup

	outcome Outcome
}

// NewController builds a controller from options. It does not start
// anything; Run does.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "session")

	wait := opts.AdvanceWait
	if wait <= 0 {
		wait = 500 * time.Millisecond
	}

	return &Controller{
		cfg:      opts.Config,
		store:    opts.Store,
		notifier: opts.Notifier,
		eng:      opts.Engine,
		logger:   logger,
		adv: &advancer{
			notifier:   opts.Notifier,
			searcher:   opts.Searcher,
			resolver:   opts.Resolver,
			wantResult: opts.WantResult,
			notifyWait: wait,
			logger:     logger,
		},
		retryCh: make(chan int, 4),
		state:   StatePlaying,
	}
}

// Run plays the requested content to a terminal outcome. It blocks
// until the session terminates or ctx is canceled; cancellation counts
// as a user stop, persists progress, and is not an error.
func (c *Controller) Run(ctx context.Context, req Request) (Outcome, error) {
	c.session = newSession(req)
	c.logger = c.logger.With(
		logging.String(logging.FieldSessionID, c.session.ID),
		logging.String(logging.FieldContentKey, c.session.ContentURL),
	)
	c.outcome.SessionID = c.session.ID

	startAt := c.resolveStart(ctx, req)

	c.logger.Info("starting playback", logging.Args(
		logging.String("kind", c.session.Identity.Kind.String()),
		logging.Duration("start_at", startAt),
	)...)

	if err := c.eng.Load(ctx, req.ContentURL, startAt); err != nil {
		return c.outcome, fmt.Errorf("load content: %w", err)
	}
	go c.logPipeline(ctx)

	c.saver = newSaver(c.store, c.logger)

	hbCtx, hbCancel := context.WithCancel(ctx)
	c.hbCancel = hbCancel
	hbDone := make(chan struct{})
	go func() {
		defer close(hbDone)
		(&heartbeat{
			eng:          c.eng,
			notifier:     c.notifier,
			saver:        c.saver,
			key:          c.session.Key(),
			interval:     c.cfg.HeartbeatInterval(),
			saveInterval: c.cfg.SaveInterval(),
			threshold:    c.cfg.Resume.CompletedThreshold,
			logger:       c.logger,
		}).run(hbCtx)
	}()

	for c.state != StateTerminated {
		select {
		case <-ctx.Done():
			c.handleStop(ReasonStopped)
		case ev, ok := <-c.eng.Events():
			if !ok {
				c.handleStop(ReasonStopped)
				continue
			}
			c.handleEvent(ctx, ev)
		case gen := <-c.retryCh:
			c.handleRetryFire(ctx, gen)
		}
	}

	c.cancelRetry()

	// The heartbeat feeds the saver, so it has to stop before the
	// saver's channel closes.
	hbCancel()
	<-hbDone
	c.saver.close()
	c.notifyWG.Wait()

	if err := c.eng.Close(); err != nil {
		c.logger.Debug("engine close", logging.Args(logging.Error(err))...)
	}

	return c.outcome, nil
}

// resolveStart picks the starting position: an explicit hint wins, then
// the stored resume point, then zero. NoResume forces zero.
func (c *Controller) resolveStart(ctx context.Context, req Request) time.Duration {
	if req.NoResume {
		return 0
	}
	if req.ResumeHint > 0 {
		return req.ResumeHint
	}
	stored, ok, err := c.store.GetBest(ctx, c.session.Key())
	if err != nil {
		c.logger.Warn("resume lookup failed", logging.Args(logging.Error(err))...)
		return 0
	}
	if ok && stored > 0 {
		return stored
	}
	return 0
}

func (c *Controller) handleEvent(ctx context.Context, ev engine.Event) {
	c.session.observeDuration(ev.Duration)
	if ev.Position > 0 {
		c.lastPos = ev.Position
	}

	switch ev.Kind {
	case engine.EventState:
		c.handleStateChange(ctx, ev)
	case engine.EventError:
		c.handleError(ctx, ev)
	}
}

func (c *Controller) handleStateChange(ctx context.Context, ev engine.Event) {
	switch ev.State {
	case engine.StateEnded:
		dur := c.session.Duration()
		if dur > 0 && dur-ev.Position <= c.cfg.EndEpsilon() {
			c.completeOnce(ctx, "terminal_state")
			return
		}
		// Buffering stalls can masquerade as terminal signals. Hold the
		// state and let a later event settle it.
		c.logger.Warn("terminal signal too far from end, ignoring", logging.Args(
			logging.Duration("position", ev.Position),
			logging.Duration("duration", dur),
		)...)
	case engine.StatePlaying:
		if c.state == StateRetrying || c.state == StateErrorDetected {
			c.logger.Info("playback recovered", logging.Args(
				logging.Int(logging.FieldAttempt, c.retry.attempts),
			)...)
		}
		c.state = StatePlaying
	case engine.StateIdle:
		// The engine went away without a terminal near the end. Treat it
		// as the user stopping playback.
		c.handleStop(ReasonStopped)
	}
}

func (c *Controller) handleError(ctx context.Context, ev engine.Event) {
	if ev.Err == nil {
		return
	}
	c.state = StateErrorDetected

	pos := ev.Position
	if pos <= 0 {
		pos = c.lastPos
	}
	dur := ev.Duration
	if dur <= 0 {
		dur = c.session.Duration()
	}

	d := classify(*ev.Err, pos, dur, &c.retry, c.cfg)

	c.logger.Warn("playback error", logging.Args(
		logging.String(logging.FieldErrorKind, string(d.Kind)),
		logging.String(logging.FieldErrorHint, ev.Err.Message),
		logging.Duration("position", pos),
		logging.Duration("duration", dur),
		logging.Int(logging.FieldAttempt, c.retry.attempts),
	)...)

	switch d.Action {
	case ActionComplete:
		c.completeOnce(ctx, string(d.Kind))
	case ActionRetry:
		c.scheduleRetry(d.ResumeAt)
	case ActionTerminate:
		c.terminate(d.Kind)
	}
}

// scheduleRetry arms the retry timer. The generation counter makes a
// canceled timer's late firing harmless.
func (c *Controller) scheduleRetry(resumeAt time.Duration) {
	c.retry.attempts++
	c.state = StateRetrying
	c.pendingResumeAt = resumeAt

	c.retryGen++
	gen := c.retryGen
	if c.retryTimer != nil {
		c.retryTimer.Stop()
	}
	c.retryTimer = time.AfterFunc(c.cfg.RetryDelay(), func() {
		select {
		case c.retryCh <- gen:
		default:
		}
	})

	c.logger.Info("retry scheduled", logging.Args(
		logging.Int(logging.FieldAttempt, c.retry.attempts),
		logging.Int("max_attempts", c.cfg.Playback.MaxRetries),
		logging.Duration("resume_at", resumeAt),
	)...)
}

func (c *Controller) handleRetryFire(ctx context.Context, gen int) {
	if gen != c.retryGen || c.state != StateRetrying {
		return
	}

	if err := c.eng.Load(ctx, c.session.ContentURL, c.pendingResumeAt); err != nil {
		c.logger.Warn("retry load failed", logging.Args(
			logging.Error(err),
			logging.Int(logging.FieldAttempt, c.retry.attempts),
		)...)
		if c.retry.attempts < c.cfg.Playback.MaxRetries {
			c.scheduleRetry(c.pendingResumeAt)
			return
		}
		c.terminate(KindMaxRetries)
		return
	}

	c.state = StatePlaying
	go c.logPipeline(ctx)
	c.logger.Info("playback resumed", logging.Args(
		logging.Duration("resume_at", c.pendingResumeAt),
		logging.Int(logging.FieldAttempt, c.retry.attempts),
	)...)
}

func (c *Controller) cancelRetry() {
	c.retryGen++
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

// completeOnce routes genuine completion. It fires at most once per
// session no matter how many completion signals arrive.
func (c *Controller) completeOnce(ctx context.Context, trigger string) {
	if c.completionHandled {
		c.logger.Debug("duplicate completion signal ignored", logging.Args(
			logging.String("trigger", trigger),
		)...)
		return
	}
	c.completionHandled = true
	c.state = StateCompleting
	c.cancelRetry()
	if c.hbCancel != nil {
		c.hbCancel()
	}

	dur := c.session.Duration()
	c.logger.Info("playback complete", logging.Args(
		logging.String("trigger", trigger),
		logging.Duration("duration", dur),
	)...)

	// Fully watched content restarts from the beginning next time.
	c.saver.clear(c.session.Key())

	if c.session.Identity.IsEpisode() {
		result, next := c.adv.advance(ctx, c.session)
		c.outcome.Result = result
		c.outcome.Next = next
	} else {
		c.completeMovie(ctx, dur)
	}

	c.outcome.Reason = ReasonCompleted
	c.state = StateTerminated
}

func (c *Controller) completeMovie(ctx context.Context, dur time.Duration) {
	// Small grace so the orchestrator sees the final progress sample
	// land before the stop frame.
	grace := c.cfg.CompletionGrace()
	if grace > 0 {
		select {
		case <-time.After(grace):
		case <-ctx.Done():
		}
	}

	c.reportStopped(notify.Progress{Position: dur, Duration: dur})

	c.outcome.Result = &notify.Result{
		PositionMS: dur.Milliseconds(),
		DurationMS: dur.Milliseconds(),
	}
}

// reportStopped delivers the terminal stop frame on a worker goroutine
// so a slow callback endpoint never holds up the event loop. Run waits
// for delivery before handing back the outcome.
func (c *Controller) reportStopped(progress notify.Progress) {
	c.notifyWG.Add(1)
	go func() {
		defer c.notifyWG.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), c.cfg.NotifierTimeout())
		defer cancel()
		if err := c.notifier.ReportStopped(stopCtx, progress); err != nil {
			c.logger.Debug("stop notification failed", logging.Args(logging.Error(err))...)
		}
	}()
}

// logPipeline debug-logs what the engine is actually playing when it
// exposes diagnostics. Advisory only, runs off the event loop.
func (c *Controller) logPipeline(ctx context.Context) {
	diag, ok := c.eng.(engine.Diagnostics)
	if !ok {
		return
	}
	report, err := diag.Diagnostics(ctx)
	if err != nil {
		c.logger.Debug("pipeline report unavailable", logging.Args(logging.Error(err))...)
		return
	}
	c.logger.Debug("pipeline", logging.Args(
		logging.String("container", report.Container),
		logging.String("video_codec", report.VideoCodec),
		logging.String("audio_codec", report.AudioCodec),
		logging.Int64("dropped_frames", report.DroppedFrames),
	)...)
}

// handleStop handles an external stop: context cancellation or the
// engine going idle. Progress is persisted so the next session resumes.
func (c *Controller) handleStop(reason string) {
	if c.state == StateTerminated {
		return
	}
	if c.completionHandled {
		c.state = StateTerminated
		return
	}
	c.cancelRetry()
	if c.hbCancel != nil {
		c.hbCancel()
	}

	pos, dur := c.finalPosition()
	if pos > 0 {
		percent := 0.0
		if dur > 0 {
			percent = float64(pos) / float64(dur) * 100
		}
		if percent < c.cfg.Resume.CompletedThreshold {
			c.saver.save(c.session.Key(), pos)
		}
	}

	c.reportStopped(notify.Progress{Position: pos, Duration: dur})

	c.logger.Info("playback stopped", logging.Args(
		logging.Duration("position", pos),
		logging.Duration("duration", dur),
	)...)

	c.outcome.Reason = reason
	c.outcome.Result = &notify.Result{
		PositionMS: pos.Milliseconds(),
		DurationMS: dur.Milliseconds(),
	}
	c.state = StateTerminated
}

// terminate gives up without forcing completion. The engine keeps its
// natural ending if one is still coming; we just stop managing it.
func (c *Controller) terminate(kind Kind) {
	c.cancelRetry()
	if c.hbCancel != nil {
		c.hbCancel()
	}

	pos, dur := c.finalPosition()
	if pos > 0 && !c.completionHandled {
		c.saver.save(c.session.Key(), pos)
	}

	c.logger.Error("session terminated", logging.Args(
		logging.String(logging.FieldErrorKind, string(kind)),
		logging.Int(logging.FieldAttempt, c.retry.attempts),
		logging.Duration("position", pos),
	)...)

	reason := ReasonFatal
	if kind == KindMaxRetries {
		reason = ReasonRetriesExhausted
	}
	c.outcome.Reason = reason
	c.outcome.Result = &notify.Result{
		PositionMS: pos.Milliseconds(),
		DurationMS: dur.Milliseconds(),
	}
	c.state = StateTerminated
}

// finalPosition prefers a live engine snapshot and falls back to the
// last position seen on the event stream.
func (c *Controller) finalPosition() (time.Duration, time.Duration) {
	snapCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if snap, err := c.eng.Snapshot(snapCtx); err == nil && snap.Valid() {
		return snap.Position, snap.Duration
	}
	return c.lastPos, c.session.Duration()
}
