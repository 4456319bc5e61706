package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avetrov/chorus/internal/models"
	"github.com/avetrov/chorus/internal/shared"
)

// CatalogRepository persists catalog entities (tracks, albums, artists, genres)
// keyed by their Musixmatch external id.
//
// All get-or-create operations are atomic with respect to the external_id
// uniqueness constraint: a losing concurrent insert falls through to a re-read
// of the winning row instead of surfacing a constraint violation.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new CatalogRepository with the given database connection
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// kindTables maps catalog entity kinds to their tables. The four tables share
// the (id, sequence, external_id, name, created_at) column prefix.
var kindTables = map[models.Kind]string{
	models.KindTrack:  "tracks",
	models.KindAlbum:  "albums",
	models.KindArtist: "artists",
	models.KindGenre:  "genres",
}

// entityRow is the shared column set of the four catalog tables.
type entityRow struct {
	id         string
	sequence   int
	externalID int64
	name       string
	createdAt  time.Time
}

// createIfAbsent inserts a row for the given kind unless one with the same
// external_id already exists, and returns the surviving row.
//
// The insert uses ON CONFLICT DO NOTHING so a concurrent creator wins silently;
// the follow-up read then observes whichever row survived.
func (r *CatalogRepository) createIfAbsent(kind models.Kind, externalID int64, name string) (*entityRow, bool, error) {
	table, ok := kindTables[kind]
	if !ok {
		return nil, false, fmt.Errorf("unknown catalog kind: %s", kind)
	}

	// Re-ingests are the common case; checking first keeps them from
	// consuming sequence numbers. A lost race still burns at most one.
	existing, err := r.findByExternalID(kind, externalID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	sequence, err := NextSequence(r.db, table)
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, sequence, external_id, name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO NOTHING
	`, table)

	result, err := r.db.Exec(query, shared.GenerateID(), sequence, externalID, name, time.Now())
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert %s: %w", kind, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	row, err := r.findByExternalID(kind, externalID)
	if err != nil {
		return nil, false, err
	}

	return row, inserted == 1, nil
}

// findByExternalID reads one catalog row by external id.
// Returns [shared.ErrNotFound] when no row exists.
func (r *CatalogRepository) findByExternalID(kind models.Kind, externalID int64) (*entityRow, error) {
	table, ok := kindTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown catalog kind: %s", kind)
	}

	query := fmt.Sprintf(`
		SELECT id, sequence, external_id, name, created_at
		FROM %s
		WHERE external_id = ?
	`, table)

	var row entityRow
	err := r.db.QueryRow(query, externalID).Scan(&row.id, &row.sequence, &row.externalID, &row.name, &row.createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %d: %w", kind, externalID, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}

	return &row, nil
}

// CreateAlbumIfAbsent returns the album with the given external id, creating it
// if it does not exist. The bool reports whether a new row was created.
func (r *CatalogRepository) CreateAlbumIfAbsent(externalID int64, name string) (*models.Album, bool, error) {
	row, created, err := r.createIfAbsent(models.KindAlbum, externalID, name)
	if err != nil {
		return nil, false, err
	}
	return albumFromRow(row), created, nil
}

// CreateArtistIfAbsent returns the artist with the given external id, creating
// it if it does not exist. The bool reports whether a new row was created.
func (r *CatalogRepository) CreateArtistIfAbsent(externalID int64, name string) (*models.Artist, bool, error) {
	row, created, err := r.createIfAbsent(models.KindArtist, externalID, name)
	if err != nil {
		return nil, false, err
	}
	return artistFromRow(row), created, nil
}

// CreateGenreIfAbsent returns the genre with the given external id, creating it
// if it does not exist. The bool reports whether a new row was created.
func (r *CatalogRepository) CreateGenreIfAbsent(externalID int64, name string) (*models.Genre, bool, error) {
	row, created, err := r.createIfAbsent(models.KindGenre, externalID, name)
	if err != nil {
		return nil, false, err
	}
	return genreFromRow(row), created, nil
}

// CreateTrackIfAbsent returns the track with the given external id, creating a
// bare row (no album/artist/genre references) if it does not exist.
func (r *CatalogRepository) CreateTrackIfAbsent(externalID int64, name string) (*models.Track, bool, error) {
	row, created, err := r.createIfAbsent(models.KindTrack, externalID, name)
	if err != nil {
		return nil, false, err
	}
	if created {
		return &models.Track{
			ID:         row.id,
			Sequence:   row.sequence,
			ExternalID: row.externalID,
			Name:       row.name,
			Genres:     []models.Genre{},
			CreatedAt:  row.createdAt,
		}, true, nil
	}

	track, err := r.GetTrack(row.id)
	if err != nil {
		return nil, false, err
	}
	return track, false, nil
}

// FindAlbumByExternalID retrieves an album by its Musixmatch id.
func (r *CatalogRepository) FindAlbumByExternalID(externalID int64) (*models.Album, error) {
	row, err := r.findByExternalID(models.KindAlbum, externalID)
	if err != nil {
		return nil, err
	}
	return albumFromRow(row), nil
}

// FindArtistByExternalID retrieves an artist by its Musixmatch id.
func (r *CatalogRepository) FindArtistByExternalID(externalID int64) (*models.Artist, error) {
	row, err := r.findByExternalID(models.KindArtist, externalID)
	if err != nil {
		return nil, err
	}
	return artistFromRow(row), nil
}

// FindGenreByExternalID retrieves a genre by its Musixmatch id.
func (r *CatalogRepository) FindGenreByExternalID(externalID int64) (*models.Genre, error) {
	row, err := r.findByExternalID(models.KindGenre, externalID)
	if err != nil {
		return nil, err
	}
	return genreFromRow(row), nil
}

// FindTrackByExternalID retrieves a hydrated track by its Musixmatch id.
// Returns [shared.ErrNotFound] when no such track exists.
func (r *CatalogRepository) FindTrackByExternalID(externalID int64) (*models.Track, error) {
	row, err := r.findByExternalID(models.KindTrack, externalID)
	if err != nil {
		return nil, err
	}
	return r.GetTrack(row.id)
}

// SetTrackRefs sets a track's album and artist references. Either id may be
// empty to leave the reference unset.
func (r *CatalogRepository) SetTrackRefs(trackID, albumID, artistID string) error {
	var album, artist any
	if albumID != "" {
		album = albumID
	}
	if artistID != "" {
		artist = artistID
	}

	result, err := r.db.Exec("UPDATE tracks SET album_id = ?, artist_id = ? WHERE id = ?", album, artist, trackID)
	if err != nil {
		return fmt.Errorf("failed to set track references: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track %s: %w", trackID, shared.ErrNotFound)
	}

	return nil
}

// ReplaceTrackGenres sets a track's genre relation to exactly the given genre
// rows, replacing any prior membership.
func (r *CatalogRepository) ReplaceTrackGenres(trackID string, genreIDs []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM track_genres WHERE track_id = ?", trackID); err != nil {
		return fmt.Errorf("failed to clear track genres: %w", err)
	}

	for _, genreID := range genreIDs {
		_, err := tx.Exec(
			"INSERT INTO track_genres (track_id, genre_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			trackID, genreID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert track genre: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit track genres: %w", err)
	}

	return nil
}

// GetTrack retrieves a track by row id with its album, artist and genres hydrated.
func (r *CatalogRepository) GetTrack(id string) (*models.Track, error) {
	query := `
		SELECT id, sequence, external_id, name, album_id, artist_id, created_at
		FROM tracks
		WHERE id = ?
	`

	base, err := r.scanTrackBase(r.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}

	return r.hydrateTrack(base)
}

// ListTracks retrieves all catalog tracks hydrated, in insertion order.
//
// Base rows are fully scanned before any hydration query runs so the list
// works on a pool limited to a single connection.
func (r *CatalogRepository) ListTracks() ([]*models.Track, error) {
	query := `
		SELECT id, sequence, external_id, name, album_id, artist_id, created_at
		FROM tracks
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var bases []*trackRow
	for rows.Next() {
		base, err := r.scanTrackBase(rows)
		if err != nil {
			return nil, err
		}
		bases = append(bases, base)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	var tracks []*models.Track
	for _, base := range bases {
		track, err := r.hydrateTrack(base)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// ListArtists retrieves all catalog artists in insertion order.
func (r *CatalogRepository) ListArtists() ([]*models.Artist, error) {
	query := `
		SELECT id, sequence, external_id, name, created_at
		FROM artists
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []*models.Artist
	for rows.Next() {
		var row entityRow
		if err := rows.Scan(&row.id, &row.sequence, &row.externalID, &row.name, &row.createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, artistFromRow(&row))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return artists, nil
}

// scanner abstracts sql.Row and sql.Rows for track scanning.
type scanner interface {
	Scan(dest ...any) error
}

// trackRow is a scanned track row before its relations are hydrated.
type trackRow struct {
	track    *models.Track
	albumID  sql.NullString
	artistID sql.NullString
}

// scanTrackBase scans one track row without issuing further queries.
func (r *CatalogRepository) scanTrackBase(row scanner) (*trackRow, error) {
	var (
		id         string
		sequence   int
		externalID int64
		name       string
		albumID    sql.NullString
		artistID   sql.NullString
		createdAt  time.Time
	)

	err := row.Scan(&id, &sequence, &externalID, &name, &albumID, &artistID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	return &trackRow{
		track: &models.Track{
			ID:         id,
			Sequence:   sequence,
			ExternalID: externalID,
			Name:       name,
			Genres:     []models.Genre{},
			CreatedAt:  createdAt,
		},
		albumID:  albumID,
		artistID: artistID,
	}, nil
}

// hydrateTrack resolves a scanned row's album, artist and genres.
//
// Callers must have drained any open rows cursor first.
func (r *CatalogRepository) hydrateTrack(base *trackRow) (*models.Track, error) {
	track := base.track

	if base.albumID.Valid {
		album, err := r.getAlbum(base.albumID.String)
		if err != nil {
			return nil, err
		}
		track.Album = album
	}

	if base.artistID.Valid {
		artist, err := r.getArtist(base.artistID.String)
		if err != nil {
			return nil, err
		}
		track.Artist = artist
	}

	genres, err := r.trackGenres(track.ID)
	if err != nil {
		return nil, err
	}
	track.Genres = genres

	return track, nil
}

func (r *CatalogRepository) getAlbum(id string) (*models.Album, error) {
	query := `
		SELECT id, sequence, external_id, name, released, created_at
		FROM albums
		WHERE id = ?
	`

	var (
		row      entityRow
		released sql.NullTime
	)

	err := r.db.QueryRow(query, id).Scan(&row.id, &row.sequence, &row.externalID, &row.name, &released, &row.createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("album %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query album: %w", err)
	}

	album := albumFromRow(&row)
	if released.Valid {
		album.Released = &released.Time
	}

	return album, nil
}

func (r *CatalogRepository) getArtist(id string) (*models.Artist, error) {
	query := `
		SELECT id, sequence, external_id, name, created_at
		FROM artists
		WHERE id = ?
	`

	var row entityRow
	err := r.db.QueryRow(query, id).Scan(&row.id, &row.sequence, &row.externalID, &row.name, &row.createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artist %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query artist: %w", err)
	}

	return artistFromRow(&row), nil
}

func (r *CatalogRepository) trackGenres(trackID string) ([]models.Genre, error) {
	query := `
		SELECT g.id, g.sequence, g.external_id, g.name, g.created_at
		FROM genres g
		JOIN track_genres tg ON tg.genre_id = g.id
		WHERE tg.track_id = ?
		ORDER BY g.sequence ASC
	`

	rows, err := r.db.Query(query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track genres: %w", err)
	}
	defer rows.Close()

	genres := []models.Genre{}
	for rows.Next() {
		var row entityRow
		if err := rows.Scan(&row.id, &row.sequence, &row.externalID, &row.name, &row.createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, *genreFromRow(&row))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return genres, nil
}

func albumFromRow(row *entityRow) *models.Album {
	return &models.Album{
		ID:         row.id,
		Sequence:   row.sequence,
		ExternalID: row.externalID,
		Name:       row.name,
		CreatedAt:  row.createdAt,
	}
}

func artistFromRow(row *entityRow) *models.Artist {
	return &models.Artist{
		ID:         row.id,
		Sequence:   row.sequence,
		ExternalID: row.externalID,
		Name:       row.name,
		CreatedAt:  row.createdAt,
	}
}

func genreFromRow(row *entityRow) *models.Genre {
	return &models.Genre{
		ID:         row.id,
		Sequence:   row.sequence,
		ExternalID: row.externalID,
		Name:       row.name,
		CreatedAt:  row.createdAt,
	}
}
