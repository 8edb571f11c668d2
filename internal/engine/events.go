package engine

import (
	"fmt"
	"time"
)

// EventKind discriminates entries on the engine event stream.
type EventKind int

const (
	// EventState reports a play-state change (playing, paused, terminal).
	EventState EventKind = iota
	// EventError reports a categorized playback error.
	EventError
)

// State is the engine's coarse play state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	// StateEnded is the engine's terminal "rendering finished" signal. The
	// controller validates it against position proximity before trusting it.
	StateEnded
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "idle"
	}
}

// Event is one entry on the engine's discrete event stream. Position and
// Duration are the engine's best knowledge at emission time; a zero Duration
// means unknown.
type Event struct {
	Kind     EventKind
	State    State
	Err      *Error
	Position time.Duration
	Duration time.Duration
}

// Category classifies the root cause of an engine error.
type Category int

const (
	// CategoryOther covers errors with no recovery strategy.
	CategoryOther Category = iota
	// CategoryNetwork covers connection resets, timeouts, DNS and I/O
	// failures. Bounded retry from the error position applies.
	CategoryNetwork
	// CategoryFormat covers container/demux/subtitle parse errors. Near the
	// end of content these are usually spurious end-of-stream artifacts.
	CategoryFormat
)

func (c Category) String() string {
	switch c {
	case CategoryNetwork:
		return "network"
	case CategoryFormat:
		return "format"
	default:
		return "other"
	}
}

// Error is a categorized engine failure.
type Error struct {
	Category Category
	Code     string
	Message  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Code != "" {
		return fmt.Sprintf("engine %s error [%s]: %s", e.Category, e.Code, e.Message)
	}
	return fmt.Sprintf("engine %s error: %s", e.Category, e.Message)
}

// StateEvent builds a state-change event.
func StateEvent(state State, position, duration time.Duration) Event {
	return Event{Kind: EventState, State: state, Position: position, Duration: duration}
}

// ErrorEvent builds an error event.
func ErrorEvent(err *Error, position, duration time.Duration) Event {
	return Event{Kind: EventError, Err: err, Position: position, Duration: duration}
}
