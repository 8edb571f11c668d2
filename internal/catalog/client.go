package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Show represents a single TMDB TV search match.
type Show struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
	VoteCount    int64   `json:"vote_count"`
}

type searchResponse struct {
	Page         int    `json:"page"`
	Results      []Show `json:"results"`
	TotalResults int    `json:"total_results"`
}

// ErrNoMatch indicates a search returned nothing usable.
var ErrNoMatch = errors.New("no catalog match")

// Searcher defines the catalog operations the advance protocol uses.
type Searcher interface {
	SearchShow(ctx context.Context, query string) (*Show, error)
}

// Client provides access to the TMDB API for show searches.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("catalog api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("catalog base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchShow resolves a title hint to the most popular matching show.
func (c *Client) SearchShow(ctx context.Context, query string) (*Show, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrNoMatch)
	}

	values := url.Values{}
	values.Set("api_key", c.apiKey)
	values.Set("query", query)
	if c.language != "" {
		values.Set("language", c.language)
	}
	endpoint := fmt.Sprintf("%s/search/tv?%s", c.baseURL, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search show: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search show: unexpected status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, query)
	}

	best := payload.Results[0]
	for _, candidate := range payload.Results[1:] {
		if candidate.Popularity > best.Popularity {
			best = candidate
		}
	}
	return &best, nil
}
