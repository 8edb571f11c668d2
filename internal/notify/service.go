package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"encore/internal/config"
)

const userAgent = "Encore/0.1.0"

// Progress is one heartbeat sample forwarded to the orchestrator.
type Progress struct {
	Position time.Duration
	Duration time.Duration
	Paused   bool
}

// Advance identifies the episode the orchestrator should queue next.
type Advance struct {
	Season    int
	Episode   int
	ShowID    string
	IMDBID    string
	SessionID string
}

// Result is the structured outcome returned to callers that expect one
// instead of (or alongside) the RPC channel. PositionMS equal to DurationMS
// is the canonical fully-watched signal.
type Result struct {
	PositionMS int64 `json:"position_ms"`
	DurationMS int64 `json:"duration_ms"`
	Season     int   `json:"season,omitempty"`
	Episode    int   `json:"episode,omitempty"`
}

// FullyWatched reports whether the result marks the content complete.
func (r Result) FullyWatched() bool {
	return r.DurationMS > 0 && r.PositionMS == r.DurationMS
}

// Service defines the notification surface exposed to the session controller.
type Service interface {
	// Enabled reports whether a callback channel is configured. Tier-1
	// episode advancement requires one.
	Enabled() bool
	ReportProgress(ctx context.Context, progress Progress) error
	ReportStopped(ctx context.Context, progress Progress) error
	NotifyNextEpisode(ctx context.Context, advance Advance) error
}

// NewService builds a notifier backed by the configured callback URL.
// Without one, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	callbackURL := strings.TrimSpace(cfg.Notifier.CallbackURL)
	if callbackURL == "" {
		return noopService{}
	}

	timeout := cfg.NotifierTimeout()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &rpcService{
		endpoint: callbackURL,
		client:   &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type playerEventParams struct {
	Event    string  `json:"event"`
	Position float64 `json:"position,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Paused   bool    `json:"paused,omitempty"`
}

type nextEpisodeParams struct {
	Season    int    `json:"season"`
	Episode   int    `json:"episode"`
	ShowID    string `json:"showId,omitempty"`
	IMDBID    string `json:"imdbId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type rpcService struct {
	endpoint string
	client   *http.Client
}

func (n *rpcService) Enabled() bool { return true }

func (n *rpcService) ReportProgress(ctx context.Context, progress Progress) error {
	return n.send(ctx, envelope{
		JSONRPC: "2.0",
		Method:  "playerEvent",
		Params: playerEventParams{
			Event:    "time",
			Position: progress.Position.Seconds(),
			Duration: progress.Duration.Seconds(),
			Paused:   progress.Paused,
		},
	})
}

func (n *rpcService) ReportStopped(ctx context.Context, progress Progress) error {
	return n.send(ctx, envelope{
		JSONRPC: "2.0",
		Method:  "playerEvent",
		Params: playerEventParams{
			Event:    "stopped",
			Position: progress.Position.Seconds(),
			Duration: progress.Duration.Seconds(),
		},
	})
}

func (n *rpcService) NotifyNextEpisode(ctx context.Context, advance Advance) error {
	return n.send(ctx, envelope{
		JSONRPC: "2.0",
		Method:  "nextEpisode",
		Params: nextEpisodeParams{
			Season:    advance.Season,
			Episode:   advance.Episode,
			ShowID:    advance.ShowID,
			IMDBID:    advance.IMDBID,
			SessionID: advance.SessionID,
		},
	})
}

func (n *rpcService) send(ctx context.Context, frame envelope) error {
	body, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", frame.Method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", frame.Method, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s: %w", frame.Method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s returned %d: %s", frame.Method, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Enabled() bool                                      { return false }
func (noopService) ReportProgress(context.Context, Progress) error     { return nil }
func (noopService) ReportStopped(context.Context, Progress) error      { return nil }
func (noopService) NotifyNextEpisode(context.Context, Advance) error   { return nil }
