package server

import (
	"errors"
	"net/http"

	"github.com/avetrov/chorus/internal/ingest"
	"github.com/avetrov/chorus/internal/models"
	"github.com/avetrov/chorus/internal/repositories"
	"github.com/avetrov/chorus/internal/services"
	"github.com/avetrov/chorus/internal/shared"
	"github.com/charmbracelet/log"
)

// transientNotice is returned instead of an error page when the provider is
// unreachable or answers with an unusable payload.
const transientNotice = "music service is temporarily unavailable, try again later"

// chartDefaults mirror the page the web app renders for chart views.
var (
	chartTrackParams = map[string]string{
		"page": "1", "page_size": "7", "country": "XW", "f_has_lyrics": "1",
	}
	chartArtistParams = map[string]string{
		"page": "1", "page_size": "7", "format": "json",
	}
	searchPageSize = "5"
)

// tracksResponse is the envelope for track listing endpoints.
type tracksResponse struct {
	Tracks  []models.TrackView `json:"tracks"`
	Skipped int                `json:"skipped,omitempty"`
	Notice  string             `json:"notice,omitempty"`
}

// artistsResponse is the envelope for artist listing endpoints.
type artistsResponse struct {
	Artists []models.EntityView `json:"artists"`
	Skipped int                 `json:"skipped,omitempty"`
	Notice  string              `json:"notice,omitempty"`
}

// searchResponse merges track results with the artists they resolved to.
type searchResponse struct {
	Query   string              `json:"query"`
	Tracks  []models.TrackView  `json:"tracks"`
	Artists []models.EntityView `json:"artists"`
	Notice  string              `json:"notice,omitempty"`
}

// CatalogHandler serves chart, search and local catalog endpoints.
//
// Chart and search requests run the full pipeline: gateway fetch, extraction,
// idempotent ingestion, then render the persisted rows.
type CatalogHandler struct {
	gateway *services.MusixmatchService
	engine  *ingest.Engine
	catalog *repositories.CatalogRepository
	logger  *log.Logger
}

// NewCatalogHandler creates a CatalogHandler with the given dependencies.
func NewCatalogHandler(gateway *services.MusixmatchService, engine *ingest.Engine, catalog *repositories.CatalogRepository, logger *log.Logger) *CatalogHandler {
	return &CatalogHandler{gateway: gateway, engine: engine, catalog: catalog, logger: logger}
}

// Routes returns the method-qualified patterns this handler serves.
func (h *CatalogHandler) Routes() []string {
	return []string{
		"GET /top-tracks",
		"GET /top-artists",
		"GET /search",
		"GET /tracks",
		"GET /artists",
	}
}

// ServeHTTP dispatches to the endpoint implementations.
func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "GET /top-tracks":
		h.topTracks(w, r)
	case "GET /top-artists":
		h.topArtists(w, r)
	case "GET /search":
		h.search(w, r)
	case "GET /tracks":
		h.localTracks(w, r)
	case "GET /artists":
		h.localArtists(w, r)
	default:
		http.NotFound(w, r)
	}
}

// topTracks fetches and ingests the provider's track chart.
func (h *CatalogHandler) topTracks(w http.ResponseWriter, r *http.Request) {
	params := overrideParams(chartTrackParams, r, "country", "page", "page_size")

	payload, err := h.gateway.Request(r.Context(), services.TopTracks, params)
	if err != nil {
		h.transient(w, err, tracksResponse{Tracks: []models.TrackView{}})
		return
	}

	views, diags, err := h.engine.IngestTrackPayload(payload)
	if err != nil {
		h.transient(w, err, tracksResponse{Tracks: []models.TrackView{}})
		return
	}

	writeJSON(w, http.StatusOK, tracksResponse{Tracks: views, Skipped: len(diags)})
}

// topArtists fetches and ingests the provider's artist chart.
func (h *CatalogHandler) topArtists(w http.ResponseWriter, r *http.Request) {
	params := overrideParams(chartArtistParams, r, "country", "page", "page_size")

	payload, err := h.gateway.Request(r.Context(), services.TopArtists, params)
	if err != nil {
		h.transient(w, err, artistsResponse{Artists: []models.EntityView{}})
		return
	}

	views, diags, err := h.engine.IngestArtistPayload(payload)
	if err != nil {
		h.transient(w, err, artistsResponse{Artists: []models.EntityView{}})
		return
	}

	writeJSON(w, http.StatusOK, artistsResponse{Artists: views, Skipped: len(diags)})
}

// search runs a provider track search, ingests the results, and reports the
// matched tracks plus the artists they resolved to.
func (h *CatalogHandler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusOK, searchResponse{
			Query:   query,
			Tracks:  []models.TrackView{},
			Artists: []models.EntityView{},
		})
		return
	}

	params := map[string]string{
		"q_track":        query,
		"page":           "1",
		"page_size":      searchPageSize,
		"s_track_rating": "desc",
	}

	payload, err := h.gateway.Request(r.Context(), services.TrackSearch, params)
	if err != nil {
		h.transient(w, err, searchResponse{Query: query, Tracks: []models.TrackView{}, Artists: []models.EntityView{}})
		return
	}

	views, _, err := h.engine.IngestTrackPayload(payload)
	if err != nil {
		h.transient(w, err, searchResponse{Query: query, Tracks: []models.TrackView{}, Artists: []models.EntityView{}})
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:   query,
		Tracks:  views,
		Artists: uniqueArtists(views),
	})
}

// localTracks lists the persisted catalog.
func (h *CatalogHandler) localTracks(w http.ResponseWriter, _ *http.Request) {
	tracks, err := h.catalog.ListTracks()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tracksResponse{Tracks: models.TrackViews(tracks)})
}

// localArtists lists the persisted artists.
func (h *CatalogHandler) localArtists(w http.ResponseWriter, _ *http.Request) {
	artists, err := h.catalog.ListArtists()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, artistsResponse{Artists: models.ArtistViews(artists)})
}

// transient answers fetch/extraction failures with an empty result set and a
// notice rather than an error page. Anything else is a real failure.
func (h *CatalogHandler) transient(w http.ResponseWriter, err error, empty any) {
	if !errors.Is(err, shared.ErrUpstream) && !errors.Is(err, shared.ErrMalformedPayload) {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Warn("provider fetch failed", "error", err)

	switch resp := empty.(type) {
	case tracksResponse:
		resp.Notice = transientNotice
		writeJSON(w, http.StatusOK, resp)
	case artistsResponse:
		resp.Notice = transientNotice
		writeJSON(w, http.StatusOK, resp)
	case searchResponse:
		resp.Notice = transientNotice
		writeJSON(w, http.StatusOK, resp)
	}
}

// overrideParams copies defaults and applies any of the named query
// parameters the client supplied.
func overrideParams(defaults map[string]string, r *http.Request, keys ...string) map[string]string {
	params := make(map[string]string, len(defaults))
	for k, v := range defaults {
		params[k] = v
	}

	query := r.URL.Query()
	for _, key := range keys {
		if value := query.Get(key); value != "" {
			params[key] = value
		}
	}

	return params
}

// uniqueArtists collects the distinct artists referenced by the given tracks,
// preserving first-seen order.
func uniqueArtists(tracks []models.TrackView) []models.EntityView {
	seen := map[int64]bool{}
	artists := []models.EntityView{}

	for _, track := range tracks {
		if track.Artist == nil || seen[track.Artist.ID] {
			continue
		}
		seen[track.Artist.ID] = true
		artists = append(artists, *track.Artist)
	}

	return artists
}
