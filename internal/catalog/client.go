// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package catalog talks to the TMDB discover API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
)

// ErrMissingAPIKey is returned by New without credentials.
var ErrMissingAPIKey = errors.New("tmdb api key required")

// StatusError is a non-200 upstream response.
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s returned %d", e.Path, e.StatusCode)
}

// Retryable reports whether the status is a transient upstream failure.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// GenreMode selects how multiple genre ids combine.
type GenreMode int

const (
	MatchAll GenreMode = iota // TMDB joins ids with ","
	MatchAny                  // TMDB joins ids with "|"
)

// DiscoverQuery is one page of a discover request. No genres means the
// generic popularity-ordered listing.
type DiscoverQuery struct {
	MediaType models.MediaType
	GenreIDs  []int
	Mode      GenreMode
	Page      int
}

// Item is a raw discover result.
type Item struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"` // movies
	Name             string  `json:"name"`  // tv
	Overview         string  `json:"overview"`
	GenreIDs         []int   `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
	Adult            bool    `json:"adult"`
	PosterPath       string  `json:"poster_path"`
	Popularity       float64 `json:"popularity"`
}

// DisplayTitle returns the title for movies and the name for tv shows.
func (i Item) DisplayTitle() string {
	if i.Title != "" {
		return i.Title
	}
	return i.Name
}

// Page is one page of discover results.
type Page struct {
	Page         int    `json:"page"`
	Results      []Item `json:"results"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
}

// Discoverer is the upstream contract the selector depends on.
type Discoverer interface {
	Discover(ctx context.Context, q DiscoverQuery) (*Page, error)
}

// Client is a TMDB discover client with a client-side rate limit.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Discoverer = (*Client)(nil)

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

// WithRateLimit sets the token bucket; rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func discoverPath(mt models.MediaType) (string, error) {
	switch mt {
	case models.MediaMovie:
		return "/discover/movie", nil
	case models.MediaTV:
		return "/discover/tv", nil
	}
	return "", fmt.Errorf("unsupported media type %q", mt)
}

// Discover fetches one page of discover results.
func (c *Client) Discover(ctx context.Context, q DiscoverQuery) (*Page, error) {
	path, err := discoverPath(q.MediaType)
	if err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	endpoint.RawQuery = c.discoverParams(q).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		metrics.RecordCatalogRequest(string(q.MediaType), 0, latency)
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()
	metrics.RecordCatalogRequest(string(q.MediaType), resp.StatusCode, latency)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Path: path}
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode tmdb response: %w", err)
	}
	return &page, nil
}

func (c *Client) discoverParams(q DiscoverQuery) url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	params.Set("include_adult", "false")
	params.Set("sort_by", "popularity.desc")
	page := q.Page
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))

	genreIDs := q.GenreIDs
	if q.MediaType == models.MediaTV {
		genreIDs = TVGenreIDs(genreIDs)
	}
	if len(genreIDs) > 0 {
		sep := ","
		if q.Mode == MatchAny {
			sep = "|"
		}
		ids := make([]string, len(genreIDs))
		for i, g := range genreIDs {
			ids[i] = strconv.Itoa(g)
		}
		params.Set("with_genres", strings.Join(ids, sep))
	}
	return params
}
