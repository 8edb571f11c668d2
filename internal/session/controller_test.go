package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"encore/internal/catalog"
	"encore/internal/config"
	"encore/internal/engine"
	"encore/internal/logging"
	"encore/internal/media"
	"encore/internal/notify"
	"encore/internal/testsupport"
)

type loadCall struct {
	url     string
	startAt time.Duration
}

type stubEngine struct {
	mu     sync.Mutex
	loads  []loadCall
	snap   engine.Snapshot
	events chan engine.Event
}

func newStubEngine() *stubEngine {
	return &stubEngine{events: make(chan engine.Event, 16)}
}

func (e *stubEngine) Load(_ context.Context, url string, startAt time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads = append(e.loads, loadCall{url: url, startAt: startAt})
	return nil
}

func (e *stubEngine) Play(context.Context) error  { return nil }
func (e *stubEngine) Pause(context.Context) error { return nil }

func (e *stubEngine) SeekTo(context.Context, time.Duration) error { return nil }

func (e *stubEngine) Snapshot(context.Context) (engine.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap, nil
}

func (e *stubEngine) Events() <-chan engine.Event { return e.events }
func (e *stubEngine) Close() error                { return nil }

func (e *stubEngine) loadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.loads)
}

func (e *stubEngine) load(i int) loadCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads[i]
}

type stubNotifier struct {
	mu         sync.Mutex
	enabled    bool
	advanceErr error
	stopDelay  time.Duration
	progress   []notify.Progress
	stopped    []notify.Progress
	advances   []notify.Advance
}

func (n *stubNotifier) Enabled() bool { return n.enabled }

func (n *stubNotifier) ReportProgress(_ context.Context, p notify.Progress) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, p)
	return nil
}

func (n *stubNotifier) ReportStopped(_ context.Context, p notify.Progress) error {
	if n.stopDelay > 0 {
		time.Sleep(n.stopDelay)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped = append(n.stopped, p)
	return nil
}

func (n *stubNotifier) NotifyNextEpisode(_ context.Context, a notify.Advance) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.advances = append(n.advances, a)
	return n.advanceErr
}

func (n *stubNotifier) stoppedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.stopped)
}

func (n *stubNotifier) advanceCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.advances)
}

// blockingNotifier holds NotifyNextEpisode until release closes,
// ignoring the request context the way a wedged endpoint would.
type blockingNotifier struct {
	stubNotifier
	release chan struct{}
}

func (n *blockingNotifier) NotifyNextEpisode(_ context.Context, a notify.Advance) error {
	n.mu.Lock()
	n.advances = append(n.advances, a)
	n.mu.Unlock()
	<-n.release
	return nil
}

type diagEngine struct {
	*stubEngine
	diagMu  sync.Mutex
	reports int
}

func (e *diagEngine) Diagnostics(context.Context) (engine.Report, error) {
	e.diagMu.Lock()
	defer e.diagMu.Unlock()
	e.reports++
	return engine.Report{Container: "matroska", VideoCodec: "h264"}, nil
}

func (e *diagEngine) reportCount() int {
	e.diagMu.Lock()
	defer e.diagMu.Unlock()
	return e.reports
}

type stubSearcher struct {
	show *catalog.Show
	err  error
}

func (s *stubSearcher) SearchShow(context.Context, string) (*catalog.Show, error) {
	return s.show, s.err
}

type stubResolver struct {
	mu   sync.Mutex
	refs []catalog.EpisodeRef
	url  string
	err  error
}

func (r *stubResolver) ResolveStream(_ context.Context, ref catalog.EpisodeRef) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs = append(r.refs, ref)
	return r.url, r.err
}

func testConfig(t *testing.T, opts ...testsupport.ConfigOption) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Playback.RetryDelayMS = 1
	cfg.Playback.CompletionGrace = 1
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type runResult struct {
	outcome Outcome
	err     error
}

func startController(t *testing.T, c *Controller, ctx context.Context, req Request) <-chan runResult {
	t.Helper()
	done := make(chan runResult, 1)
	go func() {
		outcome, err := c.Run(ctx, req)
		done <- runResult{outcome: outcome, err: err}
	}()
	return done
}

func awaitOutcome(t *testing.T, done <-chan runResult) Outcome {
	t.Helper()
	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("run failed: %v", res.err)
		}
		return res.outcome
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not terminate")
	}
	return Outcome{}
}

const movieURL = "https://cdn.example.com/library/heat.1995.mkv"

func TestMovieTerminalEventCompletes(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()
	notifier := &stubNotifier{enabled: true}

	ctx := context.Background()
	if err := store.Save(ctx, movieURL, 10*time.Minute); err != nil {
		t.Fatalf("seed resume point: %v", err)
	}

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: notifier, Engine: eng,
		Logger: logging.NewNop(),
	})
	done := startController(t, c, ctx, Request{ContentURL: movieURL})

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })
	if got := eng.load(0).startAt; got != 10*time.Minute {
		t.Fatalf("started at %s, want stored resume point", got)
	}

	eng.events <- engine.StateEvent(engine.StatePlaying, 10*time.Minute, time.Hour)
	eng.events <- engine.StateEvent(engine.StateEnded, time.Hour-200*time.Millisecond, time.Hour)

	outcome := awaitOutcome(t, done)

	if outcome.Reason != ReasonCompleted {
		t.Fatalf("reason = %s, want completed", outcome.Reason)
	}
	if outcome.Result == nil || !outcome.Result.FullyWatched() {
		t.Fatalf("result = %+v, want fully watched", outcome.Result)
	}
	if outcome.Result.PositionMS != time.Hour.Milliseconds() {
		t.Fatalf("position = %d ms, want full duration", outcome.Result.PositionMS)
	}

	pos, exists, err := store.Get(ctx, movieURL)
	if err != nil {
		t.Fatalf("read resume point: %v", err)
	}
	if !exists || pos != 0 {
		t.Fatalf("resume point = (%d, %v), want cleared sentinel", pos, exists)
	}

	if notifier.stoppedCount() != 1 {
		t.Fatalf("stopped frames = %d, want 1", notifier.stoppedCount())
	}
}

func TestSpuriousTerminalSignalIgnored(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()
	notifier := &stubNotifier{enabled: true}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: notifier, Engine: eng,
		Logger: logging.NewNop(),
	})
	done := startController(t, c, ctx, Request{ContentURL: movieURL})

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })

	// A terminal signal nowhere near the end is a buffering artifact.
	eng.events <- engine.StateEvent(engine.StateEnded, 1000*time.Second, time.Hour)

	select {
	case res := <-done:
		t.Fatalf("terminated on spurious signal: %+v", res.outcome)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	outcome := awaitOutcome(t, done)

	if outcome.Reason != ReasonStopped {
		t.Fatalf("reason = %s, want stopped", outcome.Reason)
	}
	if outcome.Result == nil || outcome.Result.PositionMS != (1000 * time.Second).Milliseconds() {
		t.Fatalf("result = %+v, want last seen position", outcome.Result)
	}

	pos, exists, err := store.Get(context.Background(), movieURL)
	if err != nil {
		t.Fatalf("read resume point: %v", err)
	}
	if !exists || pos != (1000*time.Second).Milliseconds() {
		t.Fatalf("resume point = (%d, %v), want stop position", pos, exists)
	}
}

func TestNetworkErrorRetriesFromErrorPosition(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()

	ctx := context.Background()
	c := NewController(Options{
		Config: cfg, Store: store, Notifier: &stubNotifier{}, Engine: eng,
		Logger: logging.NewNop(),
	})
	done := startController(t, c, ctx, Request{ContentURL: movieURL, ResumeHint: 5 * time.Second})

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })
	if got := eng.load(0).startAt; got != 5*time.Second {
		t.Fatalf("started at %s, want resume hint", got)
	}

	eng.events <- engine.ErrorEvent(
		&engine.Error{Category: engine.CategoryNetwork, Message: "connection reset"},
		600*time.Second, time.Hour,
	)

	waitFor(t, "retry load", func() bool { return eng.loadCount() == 2 })
	if got := eng.load(1).startAt; got != 600*time.Second {
		t.Fatalf("retried at %s, want position at error time", got)
	}

	eng.events <- engine.StateEvent(engine.StatePlaying, 600*time.Second, time.Hour)
	eng.events <- engine.StateEvent(engine.StateEnded, time.Hour-500*time.Millisecond, time.Hour)

	outcome := awaitOutcome(t, done)
	if outcome.Reason != ReasonCompleted {
		t.Fatalf("reason = %s, want completed", outcome.Reason)
	}
}

func TestRetryBudgetExhausted(t *testing.T) {
	cfg := testConfig(t, testsupport.WithMaxRetries(2))
	store := testsupport.NewStore(t)
	eng := newStubEngine()

	ctx := context.Background()
	c := NewController(Options{
		Config: cfg, Store: store, Notifier: &stubNotifier{}, Engine: eng,
		Logger: logging.NewNop(),
	})
	done := startController(t, c, ctx, Request{ContentURL: movieURL})

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })

	netErr := &engine.Error{Category: engine.CategoryNetwork, Message: "timeout"}

	eng.events <- engine.ErrorEvent(netErr, 100*time.Second, time.Hour)
	waitFor(t, "first retry", func() bool { return eng.loadCount() == 2 })

	eng.events <- engine.ErrorEvent(netErr, 200*time.Second, time.Hour)
	waitFor(t, "second retry", func() bool { return eng.loadCount() == 3 })

	eng.events <- engine.ErrorEvent(netErr, 300*time.Second, time.Hour)

	outcome := awaitOutcome(t, done)
	if outcome.Reason != ReasonRetriesExhausted {
		t.Fatalf("reason = %s, want retries exhausted", outcome.Reason)
	}
	if eng.loadCount() != 3 {
		t.Fatalf("loads = %d, want budget respected", eng.loadCount())
	}
	if outcome.Result == nil || outcome.Result.PositionMS != (300 * time.Second).Milliseconds() {
		t.Fatalf("result = %+v, want last error position", outcome.Result)
	}
}

func TestNearEndFormatErrorCompletesWithoutRetry(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()
	notifier := &stubNotifier{enabled: true}

	ctx := context.Background()
	c := NewController(Options{
		Config: cfg, Store: store, Notifier: notifier, Engine: eng,
		Logger: logging.NewNop(),
	})
	done := startController(t, c, ctx, Request{ContentURL: movieURL})

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })

	eng.events <- engine.ErrorEvent(
		&engine.Error{Category: engine.CategoryFormat, Message: "invalid data found"},
		3598*time.Second, time.Hour,
	)

	outcome := awaitOutcome(t, done)
	if outcome.Reason != ReasonCompleted {
		t.Fatalf("reason = %s, want completed", outcome.Reason)
	}
	if eng.loadCount() != 1 {
		t.Fatalf("loads = %d, want no retry", eng.loadCount())
	}
	if notifier.stoppedCount() != 1 {
		t.Fatalf("stopped frames = %d, want 1", notifier.stoppedCount())
	}
}

func TestFormatLoopSeeksTailExactlyOnce(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()

	ctx := context.Background()
	c := NewController(Options{
		Config: cfg, Store: store, Notifier: &stubNotifier{}, Engine: eng,
		Logger: logging.NewNop(),
	})
	done := startController(t, c, ctx, Request{ContentURL: movieURL})

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })

	fmtErr := &engine.Error{Category: engine.CategoryFormat, Message: "demux error"}

	// Mid-stream error whose skip lands in the corrupt tail.
	eng.events <- engine.ErrorEvent(fmtErr, 3593*time.Second, time.Hour)
	waitFor(t, "skip-ahead retry", func() bool { return eng.loadCount() == 2 })
	if got := eng.load(1).startAt; got != 3598*time.Second {
		t.Fatalf("skip landed at %s, want 5s past the error", got)
	}

	// Converging error near the end: one tail seek, no more.
	eng.events <- engine.ErrorEvent(fmtErr, 3598*time.Second, time.Hour)
	waitFor(t, "tail seek retry", func() bool { return eng.loadCount() == 3 })
	wantSeek := time.Duration(float64(time.Hour) * config.TailSeekFactor)
	if got := eng.load(2).startAt; got != wantSeek {
		t.Fatalf("tail seek at %s, want %s", got, wantSeek)
	}

	// Still converging: give up and call it complete.
	eng.events <- engine.ErrorEvent(fmtErr, 3598*time.Second, time.Hour)

	outcome := awaitOutcome(t, done)
	if outcome.Reason != ReasonCompleted {
		t.Fatalf("reason = %s, want completed", outcome.Reason)
	}
	if eng.loadCount() != 3 {
		t.Fatalf("loads = %d, want exactly one tail seek", eng.loadCount())
	}
}

func TestCompletionFiresExactlyOnce(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	notifier := &stubNotifier{enabled: true}

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: notifier, Engine: newStubEngine(),
		Logger: logging.NewNop(),
	})
	c.session = newSession(Request{ContentURL: movieURL})
	c.session.observeDuration(time.Hour)
	c.saver = newSaver(store, logging.NewNop())

	ctx := context.Background()
	c.completeOnce(ctx, "terminal_state")
	c.completeOnce(ctx, "near_end_format")
	c.saver.close()
	c.notifyWG.Wait()

	if notifier.stoppedCount() != 1 {
		t.Fatalf("stopped frames = %d, want exactly one", notifier.stoppedCount())
	}
	if c.state != StateTerminated {
		t.Fatalf("state = %s, want terminated", c.state)
	}
}

const episodeURL = "https://cdn.example.com/library/show.s01e05.mkv"

func episodeRequest() Request {
	return Request{
		ContentURL: episodeURL,
		Hints:      media.Hints{Season: 1, Episode: 5, ShowID: "1399", Title: "Some Show"},
	}
}

func finishEpisode(eng *stubEngine) {
	eng.events <- engine.StateEvent(engine.StatePlaying, 0, time.Hour)
	eng.events <- engine.StateEvent(engine.StateEnded, time.Hour-500*time.Millisecond, time.Hour)
}

func TestEpisodeAdvanceNotifiesCallback(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()
	notifier := &stubNotifier{enabled: true}

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: notifier, Engine: eng,
		Logger: logging.NewNop(), AdvanceWait: time.Millisecond,
	})
	done := startController(t, c, context.Background(), episodeRequest())

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })
	finishEpisode(eng)

	outcome := awaitOutcome(t, done)

	if notifier.advanceCount() != 1 {
		t.Fatalf("advance frames = %d, want 1", notifier.advanceCount())
	}
	adv := notifier.advances[0]
	if adv.Season != 1 || adv.Episode != 6 {
		t.Fatalf("advance = S%02dE%02d, want S01E06", adv.Season, adv.Episode)
	}
	if adv.SessionID != outcome.SessionID {
		t.Fatalf("advance session = %s, want %s", adv.SessionID, outcome.SessionID)
	}
	if outcome.Result == nil || outcome.Result.Episode != 6 || !outcome.Result.FullyWatched() {
		t.Fatalf("result = %+v, want fully watched episode 6", outcome.Result)
	}
	if outcome.Next != nil {
		t.Fatalf("next = %+v, want nil when the callback handles the advance", outcome.Next)
	}
	if notifier.stoppedCount() != 0 {
		t.Fatalf("stopped frames = %d, want none on episode advance", notifier.stoppedCount())
	}
}

func TestEpisodeAdvanceReturnsStructuredResult(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: &stubNotifier{}, Engine: eng,
		Logger: logging.NewNop(), WantResult: true,
	})
	done := startController(t, c, context.Background(), episodeRequest())

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })
	finishEpisode(eng)

	outcome := awaitOutcome(t, done)

	if outcome.Result == nil {
		t.Fatal("want a structured result")
	}
	if outcome.Result.PositionMS != outcome.Result.DurationMS {
		t.Fatalf("result = %+v, want position equal to duration", outcome.Result)
	}
	if outcome.Result.DurationMS != time.Hour.Milliseconds() {
		t.Fatalf("duration = %d ms, want %d", outcome.Result.DurationMS, time.Hour.Milliseconds())
	}
	if outcome.Result.Season != 1 || outcome.Result.Episode != 6 {
		t.Fatalf("result = S%02dE%02d, want S01E06", outcome.Result.Season, outcome.Result.Episode)
	}
}

func TestEpisodeAdvanceResolvesNextStream(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()
	searcher := &stubSearcher{show: &catalog.Show{ID: 42, Name: "Some Show"}}
	resolver := &stubResolver{url: "https://cdn.example.com/library/show.s01e06.mkv"}

	req := episodeRequest()
	req.Hints.ShowID = "" // force the catalog lookup

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: &stubNotifier{}, Engine: eng,
		Logger: logging.NewNop(), Searcher: searcher, Resolver: resolver,
	})
	done := startController(t, c, context.Background(), req)

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })
	finishEpisode(eng)

	outcome := awaitOutcome(t, done)

	if outcome.Next == nil {
		t.Fatal("want a resolved next request")
	}
	if outcome.Next.ContentURL != resolver.url {
		t.Fatalf("next url = %s, want resolved stream", outcome.Next.ContentURL)
	}
	if outcome.Next.Hints.Season != 1 || outcome.Next.Hints.Episode != 6 {
		t.Fatalf("next hints = %+v, want S01E06", outcome.Next.Hints)
	}
	if outcome.Next.Hints.ShowID != "42" {
		t.Fatalf("next show id = %s, want the searched id", outcome.Next.Hints.ShowID)
	}
	if len(resolver.refs) != 1 || resolver.refs[0].Episode != 6 {
		t.Fatalf("resolver refs = %+v, want one lookup for episode 6", resolver.refs)
	}
}

func TestEpisodeAdvanceFallsBackWhenCallbackFails(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()
	notifier := &stubNotifier{enabled: true, advanceErr: context.DeadlineExceeded}

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: notifier, Engine: eng,
		Logger: logging.NewNop(), WantResult: true, AdvanceWait: time.Millisecond,
	})
	done := startController(t, c, context.Background(), episodeRequest())

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })
	finishEpisode(eng)

	outcome := awaitOutcome(t, done)

	if notifier.advanceCount() != 1 {
		t.Fatalf("advance attempts = %d, want 1", notifier.advanceCount())
	}
	if outcome.Result == nil || outcome.Result.Episode != 6 {
		t.Fatalf("result = %+v, want the fallback result", outcome.Result)
	}
}

func TestEpisodeAdvanceEndsQuietlyWithNoChannel(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: &stubNotifier{}, Engine: eng,
		Logger: logging.NewNop(),
	})
	done := startController(t, c, context.Background(), episodeRequest())

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })
	finishEpisode(eng)

	outcome := awaitOutcome(t, done)

	if outcome.Reason != ReasonCompleted {
		t.Fatalf("reason = %s, want completed", outcome.Reason)
	}
	if outcome.Result != nil || outcome.Next != nil {
		t.Fatalf("outcome = %+v, want a quiet ending", outcome)
	}
}

func TestNoResumeStartsFromZero(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()

	ctx := context.Background()
	if err := store.Save(ctx, movieURL, 10*time.Minute); err != nil {
		t.Fatalf("seed resume point: %v", err)
	}

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: &stubNotifier{}, Engine: eng,
		Logger: logging.NewNop(),
	})
	done := startController(t, c, ctx, Request{ContentURL: movieURL, NoResume: true})

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })
	if got := eng.load(0).startAt; got != 0 {
		t.Fatalf("started at %s, want zero", got)
	}

	eng.events <- engine.StateEvent(engine.StatePlaying, 0, time.Hour)
	eng.events <- engine.StateEvent(engine.StateEnded, time.Hour, time.Hour)
	awaitOutcome(t, done)
}

func TestEpisodeAdvanceUnblocksOnCancel(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()
	notifier := &blockingNotifier{release: make(chan struct{})}
	notifier.enabled = true
	defer close(notifier.release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: notifier, Engine: eng,
		Logger: logging.NewNop(), AdvanceWait: time.Millisecond,
	})
	done := startController(t, c, ctx, episodeRequest())

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })
	finishEpisode(eng)

	waitFor(t, "callback in flight", func() bool { return notifier.advanceCount() == 1 })
	cancel()

	outcome := awaitOutcome(t, done)
	if outcome.Result != nil || outcome.Next != nil {
		t.Fatalf("outcome = %+v, want a quiet ending", outcome)
	}
}

func TestStopFrameDeliveredBeforeRunReturns(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := newStubEngine()
	notifier := &stubNotifier{enabled: true, stopDelay: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: notifier, Engine: eng,
		Logger: logging.NewNop(),
	})
	done := startController(t, c, ctx, Request{ContentURL: movieURL, NoResume: true})

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })
	eng.events <- engine.StateEvent(engine.StatePlaying, 20*time.Minute, time.Hour)
	cancel()

	outcome := awaitOutcome(t, done)
	if outcome.Reason != ReasonStopped {
		t.Fatalf("reason = %s, want stopped", outcome.Reason)
	}
	if notifier.stoppedCount() != 1 {
		t.Fatalf("stopped frames = %d, want exactly one before run returned", notifier.stoppedCount())
	}
}

func TestPipelineReportRequestedAfterLoad(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.NewStore(t)
	eng := &diagEngine{stubEngine: newStubEngine()}
	notifier := &stubNotifier{enabled: true}

	c := NewController(Options{
		Config: cfg, Store: store, Notifier: notifier, Engine: eng,
		Logger: logging.NewNop(),
	})
	done := startController(t, c, context.Background(), Request{ContentURL: movieURL, NoResume: true})

	waitFor(t, "initial load", func() bool { return eng.loadCount() == 1 })
	waitFor(t, "pipeline report", func() bool { return eng.reportCount() == 1 })

	eng.events <- engine.StateEvent(engine.StatePlaying, 0, time.Hour)
	eng.events <- engine.StateEvent(engine.StateEnded, time.Hour, time.Hour)
	awaitOutcome(t, done)
}
