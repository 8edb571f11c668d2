package session

import (
	"time"

	"encore/internal/engine"
)

// State is the controller's lifecycle position. Terminated is
// absorbing: once entered, no event or timer may change state again.
type State string

const (
	StatePlaying       State = "playing"
	StateErrorDetected State = "error_detected"
	StateRetrying      State = "retrying"
	StateCompleting    State = "completing"
	StateTerminated    State = "terminated"
)

func (s State) String() string {
	return string(s)
}

// retryState accumulates error history for one session. Attempts only
// ever grow; nothing resets them mid-session, so a session that burns
// its budget on network drops has none left for format faults.
type retryState struct {
	attempts int

	hasLastError bool
	lastErrorPos time.Duration
	lastErrorCat engine.Category

	loopSuspected bool
	tailSeekDone  bool
}

func (r *retryState) recordError(pos time.Duration, cat engine.Category, loopWindow time.Duration) {
	if r.hasLastError && absDuration(pos-r.lastErrorPos) <= loopWindow {
		r.loopSuspected = true
	}
	r.lastErrorPos = pos
	r.lastErrorCat = cat
	r.hasLastError = true
}

// formatLoop reports whether a format error at pos converges on the
// previous format error instead of advancing past it.
func (r *retryState) formatLoop(pos time.Duration, loopWindow time.Duration) bool {
	return r.hasLastError &&
		r.lastErrorCat == engine.CategoryFormat &&
		absDuration(pos-r.lastErrorPos) <= loopWindow
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
