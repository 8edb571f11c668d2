package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// EpisodeRef identifies the episode a stream should be resolved for. ShowID
// takes precedence; IMDBID is the fallback identifier.
type EpisodeRef struct {
	ShowID  string
	IMDBID  string
	Season  int
	Episode int
}

func (ref EpisodeRef) identifier() string {
	if strings.TrimSpace(ref.ShowID) != "" {
		return ref.ShowID
	}
	return ref.IMDBID
}

// StreamResolver defines the stream-resolution operation the advance
// protocol uses.
type StreamResolver interface {
	ResolveStream(ctx context.Context, ref EpisodeRef) (string, error)
}

// ErrNoStream indicates the service had no playable stream for the episode.
var ErrNoStream = errors.New("no stream available")

type resolveResponse struct {
	URL string `json:"url"`
}

// Resolver queries an external stream-resolution service.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
}

var _ StreamResolver = (*Resolver)(nil)

// NewResolver creates a stream resolver against the configured service.
func NewResolver(baseURL string, timeout time.Duration) (*Resolver, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("resolver base url required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ResolveStream returns a playable URL for the referenced episode.
func (r *Resolver) ResolveStream(ctx context.Context, ref EpisodeRef) (string, error) {
	identifier := strings.TrimSpace(ref.identifier())
	if identifier == "" {
		return "", fmt.Errorf("%w: no show identifier", ErrNoStream)
	}
	if ref.Season <= 0 || ref.Episode <= 0 {
		return "", fmt.Errorf("%w: invalid episode S%dE%d", ErrNoStream, ref.Season, ref.Episode)
	}

	endpoint := fmt.Sprintf("%s/stream/%s/%d/%d", r.baseURL, identifier, ref.Season, ref.Episode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build resolve request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: S%dE%d", ErrNoStream, ref.Season, ref.Episode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolve stream: unexpected status %d", resp.StatusCode)
	}

	var payload resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode resolve response: %w", err)
	}
	if strings.TrimSpace(payload.URL) == "" {
		return "", fmt.Errorf("%w: empty url in response", ErrNoStream)
	}
	return payload.URL, nil
}
