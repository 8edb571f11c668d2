package engine

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the engine process or transport could not be
// acquired. Session start fails fast on it; nothing is retried.
var ErrUnavailable = errors.New("engine unavailable")

// Snapshot is a point-in-time read of playback progress. It is consumed
// transiently and never stored.
type Snapshot struct {
	Position time.Duration
	Duration time.Duration
	Playing  bool
}

// Valid reports whether the snapshot carries a usable duration.
func (s Snapshot) Valid() bool {
	return s.Duration > 0
}

// PercentWatched returns position as a percentage of duration.
func (s Snapshot) PercentWatched() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Position) / float64(s.Duration) * 100
}

// Engine is the abstract playback engine. Implementations must deliver
// events in occurrence order on the Events channel and close it when the
// engine shuts down.
type Engine interface {
	// Load opens the content reference and begins playback at startAt.
	Load(ctx context.Context, contentURL string, startAt time.Duration) error

	// Play resumes a paused engine.
	Play(ctx context.Context) error

	// Pause suspends playback without tearing the pipeline down.
	Pause(ctx context.Context) error

	// SeekTo moves the playhead to an absolute position.
	SeekTo(ctx context.Context, position time.Duration) error

	// Snapshot reads current position, duration, and play state.
	Snapshot(ctx context.Context) (Snapshot, error)

	// Events returns the discrete state/error stream.
	Events() <-chan Event

	// Close releases the engine and closes the event stream.
	Close() error
}

// Diagnostics is an optional engine capability exposing pipeline details for
// logging. Callers type-assert; absence is not an error.
type Diagnostics interface {
	Diagnostics(ctx context.Context) (Report, error)
}

// Report describes the active playback pipeline.
type Report struct {
	Container     string
	VideoCodec    string
	AudioCodec    string
	DroppedFrames int64
}
