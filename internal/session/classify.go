package session

import (
	"time"

	"encore/internal/config"
	"encore/internal/engine"
)

// Kind labels the classification outcome for logs and diagnostics.
type Kind string

const (
	KindNearEndFormat   Kind = "near_end_format"
	KindRetryLoop       Kind = "retry_loop"
	KindMidStreamFormat Kind = "mid_stream_format"
	KindNearEnd         Kind = "near_end"
	KindNetwork         Kind = "network"
	KindMaxRetries      Kind = "max_retries"
	KindFatal           Kind = "fatal"
)

// Action is what the controller should do with a classified error.
type Action int

const (
	// ActionRetry resumes playback from decision.ResumeAt after the
	// configured delay.
	ActionRetry Action = iota
	// ActionComplete treats the error as the natural end of playback.
	ActionComplete
	// ActionTerminate gives up without forcing completion.
	ActionTerminate
)

type decision struct {
	Action   Action
	Kind     Kind
	ResumeAt time.Duration
}

// classify maps an engine error to a decision. Rules are checked in
// priority order; the first match wins. It mutates rs to keep the loop
// detection bookkeeping current, so it must only run on the
// controller's event goroutine.
//
// Position and duration come from the event when present, falling back
// to the last values the controller observed.
func classify(ev engine.Error, pos, dur time.Duration, rs *retryState, cfg *config.Config) decision {
	nearEnd := dur > 0 && dur-pos <= cfg.NearEndWindow()
	loopWindow := cfg.LoopWindow()
	maxRetries := cfg.Playback.MaxRetries

	defer rs.recordError(pos, ev.Category, loopWindow)

	if ev.Category == engine.CategoryFormat && nearEnd {
		if !rs.formatLoop(pos, loopWindow) {
			// Container or subtitle parse noise in the final seconds is
			// how some muxers end a stream. Call it done.
			return decision{Action: ActionComplete, Kind: KindNearEndFormat}
		}
		if !rs.tailSeekDone && rs.attempts < maxRetries {
			rs.tailSeekDone = true
			return decision{
				Action:   ActionRetry,
				Kind:     KindRetryLoop,
				ResumeAt: time.Duration(float64(dur) * config.TailSeekFactor),
			}
		}
		return decision{Action: ActionComplete, Kind: KindRetryLoop}
	}

	if ev.Category == engine.CategoryFormat {
		if rs.attempts < maxRetries {
			return decision{
				Action:   ActionRetry,
				Kind:     KindMidStreamFormat,
				ResumeAt: pos + cfg.SkipAhead(rs.loopSuspected),
			}
		}
		return decision{Action: ActionTerminate, Kind: KindMaxRetries}
	}

	if nearEnd {
		// Whatever went wrong, there was nothing meaningful left to play.
		return decision{Action: ActionComplete, Kind: KindNearEnd}
	}

	if ev.Category == engine.CategoryNetwork {
		if rs.attempts < maxRetries {
			// Resume from where the drop happened, never from the
			// original start hint.
			return decision{Action: ActionRetry, Kind: KindNetwork, ResumeAt: pos}
		}
		return decision{Action: ActionTerminate, Kind: KindMaxRetries}
	}

	return decision{Action: ActionTerminate, Kind: KindFatal}
}
