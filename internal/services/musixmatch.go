// Musixmatch API gateway
//
// Endpoint paths and parameters based on https://developer.musixmatch.com/documentation
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/avetrov/chorus/internal/shared"
	"golang.org/x/time/rate"
)

const musixmatchBaseURL = "https://api.musixmatch.com/ws/1.1/"

// RequestKind identifies one of the supported Musixmatch request types.
type RequestKind string

const (
	TopTracks   RequestKind = "top-tracks"
	TopArtists  RequestKind = "top-artists"
	TrackSearch RequestKind = "track-search"
)

// Payload is a decoded Musixmatch JSON response.
type Payload map[string]any

// endpoint describes a provider endpoint path and the closed set of query
// parameters it accepts.
type endpoint struct {
	path    string
	allowed []string
}

var endpoints = map[RequestKind]endpoint{
	TopTracks: {
		path:    "chart.tracks.get",
		allowed: []string{"country", "page", "page_size", "format", "f_has_lyrics"},
	},
	TopArtists: {
		path:    "chart.artists.get",
		allowed: []string{"country", "page", "page_size", "format"},
	},
	TrackSearch: {
		path: "track.search",
		allowed: []string{
			"q_track", "q_artist", "q_lyrics", "q_track_artist", "q_writer", "q",
			"f_artist_id", "f_music_genre_id", "f_lyrics_language", "f_has_lyrics",
			"f_track_release_group_first_release_date_min",
			"f_track_release_group_first_release_date_max",
			"s_artist_rating", "s_track_rating", "quorum_factor",
			"page", "page_size",
		},
	},
}

// MusixmatchService issues validated requests against the Musixmatch API.
//
// Each call is a single attempt; retry policy belongs to callers. Requests are
// paced by a client-side rate limiter so chart refreshes and searches from
// concurrent web requests stay within the provider's quota.
type MusixmatchService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewMusixmatchService creates a gateway for the given api key.
//
// baseURL defaults to the public Musixmatch endpoint and client to
// [http.DefaultClient]; both are overridable for tests. requestsPerSecond
// values <= 0 disable pacing.
func NewMusixmatchService(baseURL, apiKey string, client *http.Client, requestsPerSecond float64) *MusixmatchService {
	if baseURL == "" {
		baseURL = musixmatchBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &MusixmatchService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (s *MusixmatchService) Name() string {
	return "Musixmatch"
}

// Request validates kind and params, then issues a single GET against the
// provider and returns the decoded payload.
//
// Validation failures happen before any network call, so a rejected request
// has no side effects.
func (s *MusixmatchService) Request(ctx context.Context, kind RequestKind, params map[string]string) (Payload, error) {
	ep, err := validateRequest(kind, params)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	query := url.Values{}
	for key, value := range params {
		query.Set(key, value)
	}
	query.Set("apikey", s.apiKey)

	requestURL := s.baseURL + ep.path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrUpstream, resp.StatusCode)
	}

	var payload Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return payload, nil
}

// validateRequest checks the kind and every supplied parameter against the
// kind's allow-list.
func validateRequest(kind RequestKind, params map[string]string) (endpoint, error) {
	ep, ok := endpoints[kind]
	if !ok {
		return endpoint{}, fmt.Errorf("%w: %s", shared.ErrInvalidRequestKind, kind)
	}

	for key := range params {
		if !allowedParam(ep, key) {
			return endpoint{}, fmt.Errorf("%w: %q is not valid for %s requests", shared.ErrInvalidParameter, key, kind)
		}
	}

	return ep, nil
}

func allowedParam(ep endpoint, key string) bool {
	for _, allowed := range ep.allowed {
		if key == allowed {
			return true
		}
	}
	return false
}
