package session

import (
	"context"
	"log/slog"
	"time"

	"encore/internal/logging"
	"encore/internal/resume"
)

// saver serializes resume writes on a side goroutine so store latency
// never stalls event processing. Ops for one session flow through one
// channel, so a clear is never overtaken by a stale save: once a key is
// cleared, later saves for it are dropped.
type saver struct {
	store  *resume.Store
	logger *slog.Logger
	ops    chan saveOp
	done   chan struct{}
}

type saveOp struct {
	key   string
	pos   time.Duration
	clear bool
}

func newSaver(store *resume.Store, logger *slog.Logger) *saver {
	s := &saver{
		store:  store,
		logger: logger,
		ops:    make(chan saveOp, 16),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *saver) run() {
	defer close(s.done)
	cleared := make(map[string]struct{})

	for op := range s.ops {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var err error
		switch {
		case op.clear:
			cleared[op.key] = struct{}{}
			err = s.store.Clear(ctx, op.key)
		default:
			if _, gone := cleared[op.key]; !gone {
				err = s.store.Save(ctx, op.key, op.pos)
			}
		}
		cancel()
		if err != nil {
			s.logger.Warn("resume write failed", logging.Args(
				logging.String(logging.FieldContentKey, op.key),
				logging.Error(err),
			)...)
		}
	}
}

// save enqueues a position write. Drops the sample when the writer is
// backed up; the next tick brings a fresher one anyway.
func (s *saver) save(key string, pos time.Duration) {
	select {
	case s.ops <- saveOp{key: key, pos: pos}:
	default:
	}
}

// clear enqueues the completion sentinel. Never dropped.
func (s *saver) clear(key string) {
	s.ops <- saveOp{key: key, clear: true}
}

// close drains pending ops and waits for the writer to finish.
func (s *saver) close() {
	close(s.ops)
	<-s.done
}
