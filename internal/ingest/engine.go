package ingest

import (
	"errors"
	"fmt"

	"github.com/avetrov/chorus/internal/models"
	"github.com/avetrov/chorus/internal/repositories"
	"github.com/avetrov/chorus/internal/services"
	"github.com/avetrov/chorus/internal/shared"
	"github.com/charmbracelet/log"
)

// RecordError reports a single raw record the engine could not ingest.
type RecordError struct {
	Index int   // position of the record in the input batch
	Err   error // wraps shared.ErrMalformedRecord
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// Engine is the only writer to the catalog. It resolves raw provider records
// into persisted rows with get-or-create semantics per entity kind.
type Engine struct {
	catalog *repositories.CatalogRepository
	logger  *log.Logger
}

// NewEngine creates an ingestion engine over the given catalog repository.
func NewEngine(catalog *repositories.CatalogRepository, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{catalog: catalog, logger: logger}
}

// dependent is a parsed (external id, name) pair for an album, artist or genre.
type dependent struct {
	externalID int64
	name       string
}

// trackRecord is a fully parsed raw track record. Parsing happens before any
// write so a malformed record leaves no partial state behind.
type trackRecord struct {
	externalID int64
	name       string
	album      dependent
	artist     dependent
	genres     []dependent
}

// IngestTracks persists each raw track record in input order.
//
// A track whose external id is already in the catalog is returned as-is with
// no dependent resolution. Malformed records are skipped and reported in the
// returned diagnostics; storage failures abort the batch.
func (e *Engine) IngestTracks(records []RawRecord) ([]*models.Track, []RecordError, error) {
	tracks := make([]*models.Track, 0, len(records))
	var diags []RecordError

	for i, record := range records {
		parsed, err := parseTrackRecord(record)
		if err != nil {
			e.logger.Warn("skipping malformed track record", "index", i, "error", err)
			diags = append(diags, RecordError{Index: i, Err: err})
			continue
		}

		track, err := e.resolveTrack(parsed)
		if err != nil {
			return tracks, diags, err
		}

		tracks = append(tracks, track)
	}

	return tracks, diags, nil
}

// resolveTrack returns the persisted row for one parsed record, creating the
// track and its dependents as needed.
func (e *Engine) resolveTrack(parsed *trackRecord) (*models.Track, error) {
	existing, err := e.catalog.FindTrackByExternalID(parsed.externalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	artist, _, err := e.catalog.CreateArtistIfAbsent(parsed.artist.externalID, parsed.artist.name)
	if err != nil {
		return nil, err
	}

	album, _, err := e.catalog.CreateAlbumIfAbsent(parsed.album.externalID, parsed.album.name)
	if err != nil {
		return nil, err
	}

	genreIDs := make([]string, 0, len(parsed.genres))
	for _, g := range parsed.genres {
		genre, _, err := e.catalog.CreateGenreIfAbsent(g.externalID, g.name)
		if err != nil {
			return nil, err
		}
		genreIDs = append(genreIDs, genre.ID)
	}

	track, created, err := e.catalog.CreateTrackIfAbsent(parsed.externalID, parsed.name)
	if err != nil {
		return nil, err
	}

	// A lost race means a concurrent ingestion owns the row and its
	// relations; only the creator wires them up.
	if !created {
		return track, nil
	}

	if err := e.catalog.SetTrackRefs(track.ID, album.ID, artist.ID); err != nil {
		return nil, err
	}

	if err := e.catalog.ReplaceTrackGenres(track.ID, genreIDs); err != nil {
		return nil, err
	}

	return e.catalog.GetTrack(track.ID)
}

// IngestArtists persists each raw artist record in input order with the same
// get-or-create policy as tracks.
func (e *Engine) IngestArtists(records []RawRecord) ([]*models.Artist, []RecordError, error) {
	artists := make([]*models.Artist, 0, len(records))
	var diags []RecordError

	for i, record := range records {
		externalID, name, err := parseDependent(record, "artist_id", "artist_name")
		if err != nil {
			e.logger.Warn("skipping malformed artist record", "index", i, "error", err)
			diags = append(diags, RecordError{Index: i, Err: err})
			continue
		}

		artist, _, err := e.catalog.CreateArtistIfAbsent(externalID, name)
		if err != nil {
			return artists, diags, err
		}

		artists = append(artists, artist)
	}

	return artists, diags, nil
}

// IngestTrackPayload extracts and persists the track records of a payload,
// returning controller-facing views.
func (e *Engine) IngestTrackPayload(payload services.Payload) ([]models.TrackView, []RecordError, error) {
	records, err := Extract(payload, RecordTrack)
	if err != nil {
		return nil, nil, err
	}

	tracks, diags, err := e.IngestTracks(records)
	if err != nil {
		return nil, diags, err
	}

	return models.TrackViews(tracks), diags, nil
}

// IngestArtistPayload extracts and persists the artist records of a payload,
// returning controller-facing views.
func (e *Engine) IngestArtistPayload(payload services.Payload) ([]models.EntityView, []RecordError, error) {
	records, err := Extract(payload, RecordArtist)
	if err != nil {
		return nil, nil, err
	}

	artists, diags, err := e.IngestArtists(records)
	if err != nil {
		return nil, diags, err
	}

	return models.ArtistViews(artists), diags, nil
}

// parseTrackRecord validates all required wire fields up front.
func parseTrackRecord(record RawRecord) (*trackRecord, error) {
	externalID, name, err := parseDependent(record, "track_id", "track_name")
	if err != nil {
		return nil, err
	}

	parsed := &trackRecord{externalID: externalID, name: name}

	parsed.album.externalID, parsed.album.name, err = parseDependent(record, "album_id", "album_name")
	if err != nil {
		return nil, err
	}

	parsed.artist.externalID, parsed.artist.name, err = parseDependent(record, "artist_id", "artist_name")
	if err != nil {
		return nil, err
	}

	parsed.genres, err = parseGenres(record)
	if err != nil {
		return nil, err
	}

	return parsed, nil
}

// parseDependent reads an (id, name) field pair from a raw record.
func parseDependent(record RawRecord, idKey, nameKey string) (int64, string, error) {
	externalID, ok := asInt(record[idKey])
	if !ok {
		return 0, "", fmt.Errorf("%w: missing %s", shared.ErrMalformedRecord, idKey)
	}

	name, ok := record[nameKey].(string)
	if !ok || name == "" {
		return 0, "", fmt.Errorf("%w: missing %s", shared.ErrMalformedRecord, nameKey)
	}

	return externalID, name, nil
}

// parseGenres reads the primary_genres.music_genre_list wrapper. The list may
// be empty but its shape is required.
func parseGenres(record RawRecord) ([]dependent, error) {
	primary, ok := record["primary_genres"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing primary_genres", shared.ErrMalformedRecord)
	}

	list, ok := primary["music_genre_list"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing music_genre_list", shared.ErrMalformedRecord)
	}

	genres := make([]dependent, 0, len(list))
	for _, entry := range list {
		wrapper, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: malformed music_genre_list entry", shared.ErrMalformedRecord)
		}

		genre, ok := wrapper["music_genre"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: missing music_genre", shared.ErrMalformedRecord)
		}

		externalID, name, err := parseDependent(RawRecord(genre), "music_genre_id", "music_genre_name")
		if err != nil {
			return nil, err
		}

		genres = append(genres, dependent{externalID: externalID, name: name})
	}

	return genres, nil
}
