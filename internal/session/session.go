package session

import (
	"time"

	"github.com/google/uuid"

	"encore/internal/media"
)

// Request describes the playback the caller wants. ResumeHint, when
// positive, overrides any stored resume point; NoResume starts from the
// beginning regardless of what the store holds.
type Request struct {
	ContentURL string
	Hints      media.Hints
	ResumeHint time.Duration
	NoResume   bool
}

// Session is the identity of one playback run. It is created when
// playback starts and never mutated afterwards except for the duration,
// which the controller learns from the engine as events arrive.
type Session struct {
	ID         string
	ContentURL string
	Identity   media.Identity
	StartedAt  time.Time

	lastKnownDuration time.Duration
}

func newSession(req Request) *Session {
	return &Session{
		ID:         uuid.NewString(),
		ContentURL: req.ContentURL,
		Identity:   media.Resolve(req.ContentURL, req.Hints),
		StartedAt:  time.Now().UTC(),
	}
}

// Key returns the identifier used for resume point persistence. The
// store derives its own candidate ladder from it, so the raw URL is
// enough here.
func (s *Session) Key() string {
	return s.ContentURL
}

// Duration returns the best duration known so far, zero when the engine
// has not reported one yet.
func (s *Session) Duration() time.Duration {
	return s.lastKnownDuration
}

func (s *Session) observeDuration(d time.Duration) {
	if d > 0 {
		s.lastKnownDuration = d
	}
}
