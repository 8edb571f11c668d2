package session

import (
	"context"
	"log/slog"
	"time"

	"encore/internal/engine"
	"encore/internal/logging"
	"encore/internal/notify"
)

// heartbeat samples engine progress on its own goroutine. Each sample
// feeds the orchestrator progress channel; every saveInterval worth of
// samples also lands a resume write, suppressed once the content counts
// as watched so the completion clear stays authoritative.
type heartbeat struct {
	eng          engine.Engine
	notifier     notify.Service
	saver        *saver
	key          string
	interval     time.Duration
	saveInterval time.Duration
	threshold    float64
	logger       *slog.Logger
}

func (h *heartbeat) run(ctx context.Context) {
	if h.interval <= 0 {
		h.interval = time.Second
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var sinceSave time.Duration
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap, err := h.eng.Snapshot(ctx)
		if err != nil {
			h.logger.Debug("progress sample failed", logging.Args(logging.Error(err))...)
			continue
		}
		if !snap.Valid() {
			continue
		}

		if h.notifier.Enabled() {
			if err := h.notifier.ReportProgress(ctx, notify.Progress{
				Position: snap.Position,
				Duration: snap.Duration,
				Paused:   !snap.Playing,
			}); err != nil {
				h.logger.Debug("progress report failed", logging.Args(logging.Error(err))...)
			}
		}

		sinceSave += h.interval
		if sinceSave >= h.saveInterval {
			sinceSave = 0
			if snap.PercentWatched() < h.threshold {
				h.saver.save(h.key, snap.Position)
			}
		}
	}
}
