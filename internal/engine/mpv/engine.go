package mpv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"encore/internal/engine"
	"encore/internal/logging"
)

const (
	socketWaitRetries = 25
	socketWaitDelay   = 200 * time.Millisecond
	eventBuffer       = 64
)

// Options configures the adapter.
type Options struct {
	Binary    string
	SocketDir string
	Logger    *slog.Logger
}

// Engine supervises one mpv process and exposes it through the engine
// interface.
type Engine struct {
	binary     string
	socketDir  string
	socketPath string
	logger     *slog.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	exited   chan struct{}
	readDone chan struct{}
	closed   bool

	events   chan engine.Event
	stopRead chan struct{}
}

var _ engine.Engine = (*Engine)(nil)
var _ engine.Diagnostics = (*Engine)(nil)

// New builds an adapter; the mpv process launches on the first Load.
func New(opts Options) *Engine {
	binary := opts.Binary
	if binary == "" {
		binary = "mpv"
	}
	socketDir := opts.SocketDir
	if socketDir == "" {
		socketDir = os.TempDir()
	}
	return &Engine{
		binary:    binary,
		socketDir: socketDir,
		logger:    logging.NewComponentLogger(opts.Logger, "mpv-engine"),
		events:    make(chan engine.Event, eventBuffer),
		stopRead:  make(chan struct{}),
	}
}

// Load opens the content URL at startAt. The first call launches mpv; later
// calls reuse the running process via loadfile so retries keep the pipeline.
func (e *Engine) Load(ctx context.Context, contentURL string, startAt time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return engine.ErrUnavailable
	}

	if !e.runningLocked() {
		if err := e.launchLocked(ctx, contentURL, startAt); err != nil {
			return err
		}
		return nil
	}

	start := fmt.Sprintf("start=+%.3f", startAt.Seconds())
	if _, err := sendCommand(e.socketPath, "loadfile", contentURL, "replace", start); err != nil {
		return fmt.Errorf("load %s: %w", contentURL, err)
	}
	if _, err := sendCommand(e.socketPath, "set_property", "pause", false); err != nil {
		return fmt.Errorf("unpause after load: %w", err)
	}
	return nil
}

func (e *Engine) runningLocked() bool {
	if e.cmd == nil || e.exited == nil {
		return false
	}
	select {
	case <-e.exited:
		return false
	default:
		return true
	}
}

func (e *Engine) launchLocked(ctx context.Context, contentURL string, startAt time.Duration) error {
	if err := os.MkdirAll(e.socketDir, 0o755); err != nil {
		return fmt.Errorf("%w: create socket dir: %v", engine.ErrUnavailable, err)
	}
	e.socketPath = filepath.Join(e.socketDir, fmt.Sprintf("encore-%s.sock", uuid.NewString()))

	args := []string{
		"--no-terminal",
		"--idle=once",
		"--input-ipc-server=" + e.socketPath,
		fmt.Sprintf("--start=+%.3f", startAt.Seconds()),
		"--",
		contentURL,
	}
	cmd := exec.Command(e.binary, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", engine.ErrUnavailable, e.binary, err)
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	e.cmd = cmd
	e.exited = exited

	if err := e.waitForSocket(ctx, exited); err != nil {
		_ = cmd.Process.Kill()
		return err
	}

	if err := e.observeProperties(); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("%w: %v", engine.ErrUnavailable, err)
	}
	readDone := make(chan struct{})
	e.readDone = readDone
	go func() {
		defer close(readDone)
		e.readEvents(e.socketPath, exited)
	}()

	e.logger.Debug("engine launched",
		logging.String("socket", e.socketPath),
		logging.Duration("start_at", startAt),
	)
	return nil
}

func (e *Engine) waitForSocket(ctx context.Context, exited chan struct{}) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			return fmt.Errorf("%w: %s exited before accepting IPC", engine.ErrUnavailable, e.binary)
		case <-time.After(socketWaitDelay):
		}
		if _, err := os.Stat(e.socketPath); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: IPC socket never appeared", engine.ErrUnavailable)
}

// Play resumes a paused engine.
func (e *Engine) Play(ctx context.Context) error {
	_, err := sendCommand(e.socketPath, "set_property", "pause", false)
	return err
}

// Pause suspends playback.
func (e *Engine) Pause(ctx context.Context) error {
	_, err := sendCommand(e.socketPath, "set_property", "pause", true)
	return err
}

// SeekTo moves the playhead to an absolute position.
func (e *Engine) SeekTo(ctx context.Context, position time.Duration) error {
	_, err := sendCommand(e.socketPath, "seek", position.Seconds(), "absolute")
	if err != nil {
		return fmt.Errorf("seek to %s: %w", position, err)
	}
	return nil
}

// Snapshot reads position, duration, and pause state.
func (e *Engine) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	position, err := getPropertyFloat(e.socketPath, "time-pos")
	if err != nil {
		return engine.Snapshot{}, err
	}
	duration, err := getPropertyFloat(e.socketPath, "duration")
	if err != nil {
		return engine.Snapshot{}, err
	}
	paused, err := getPropertyBool(e.socketPath, "pause")
	if err != nil {
		return engine.Snapshot{}, err
	}
	return engine.Snapshot{
		Position: time.Duration(position * float64(time.Second)),
		Duration: time.Duration(duration * float64(time.Second)),
		Playing:  !paused,
	}, nil
}

// Events returns the state/error stream.
func (e *Engine) Events() <-chan engine.Event {
	return e.events
}

// Diagnostics reports the active pipeline details.
func (e *Engine) Diagnostics(ctx context.Context) (engine.Report, error) {
	report := engine.Report{}
	var firstErr error
	record := func(target *string, property string) {
		value, err := getPropertyString(e.socketPath, property)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		*target = value
	}
	record(&report.Container, "file-format")
	record(&report.VideoCodec, "video-format")
	record(&report.AudioCodec, "audio-codec-name")
	if dropped, err := getPropertyFloat(e.socketPath, "frame-drop-count"); err == nil {
		report.DroppedFrames = int64(dropped)
	}
	return report, firstErr
}

// Close terminates mpv and closes the event stream. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	cmd := e.cmd
	exited := e.exited
	readDone := e.readDone
	socketPath := e.socketPath
	e.mu.Unlock()

	close(e.stopRead)

	if cmd != nil && exited != nil {
		select {
		case <-exited:
		default:
			// Ask politely first so mpv flushes its own state.
			_, _ = sendCommand(socketPath, "quit")
			select {
			case <-exited:
			case <-time.After(2 * time.Second):
				_ = cmd.Process.Kill()
			}
		}
	}
	if socketPath != "" {
		_ = os.Remove(socketPath)
	}

	// The event reader may still be draining buffered IPC lines into
	// emit; the events channel must outlive it.
	if readDone != nil {
		<-readDone
	}
	close(e.events)
	return nil
}
