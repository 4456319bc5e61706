package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/avetrov/chorus/internal/models"
	"github.com/avetrov/chorus/internal/shared"
)

// PlaylistRepository persists playlists and their track membership.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new [PlaylistRepository] with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist with generated ID and sequence. Playlist names
// are unique per creator; a clash returns [shared.ErrAlreadyExists].
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	playlist.ID = shared.GenerateID()
	playlist.Sequence = sequence

	now := time.Now()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlists (id, sequence, name, description, creator_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, playlist.ID, sequence, playlist.Name, playlist.Description, playlist.CreatorID, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("playlist %s: %w", playlist.Name, shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist by ID
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	query := `
		SELECT id, sequence, name, description, creator_id, created_at, updated_at
		FROM playlists
		WHERE id = ?
	`

	var playlist models.Playlist
	err := r.db.QueryRow(query, id).Scan(
		&playlist.ID, &playlist.Sequence, &playlist.Name, &playlist.Description,
		&playlist.CreatorID, &playlist.CreatedAt, &playlist.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}

	return &playlist, nil
}

// ListByCreator retrieves a user's playlists in creation order.
func (r *PlaylistRepository) ListByCreator(creatorID string) ([]*models.Playlist, error) {
	query := `
		SELECT id, sequence, name, description, creator_id, created_at, updated_at
		FROM playlists
		WHERE creator_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		var playlist models.Playlist
		err := rows.Scan(
			&playlist.ID, &playlist.Sequence, &playlist.Name, &playlist.Description,
			&playlist.CreatorID, &playlist.CreatedAt, &playlist.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, &playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// Delete removes a playlist; membership rows and comments cascade.
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist %s: %w", id, shared.ErrNotFound)
	}

	return nil
}

// AddTrack records a track on the playlist. Adding the same track again is a no-op.
func (r *PlaylistRepository) AddTrack(playlistID, trackID string) error {
	_, err := r.db.Exec(
		"INSERT INTO playlist_tracks (playlist_id, track_id, added_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		playlistID, trackID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to add playlist track: %w", err)
	}
	return nil
}

// RemoveTrack removes a track from the playlist.
func (r *PlaylistRepository) RemoveTrack(playlistID, trackID string) error {
	_, err := r.db.Exec("DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?", playlistID, trackID)
	if err != nil {
		return fmt.Errorf("failed to remove playlist track: %w", err)
	}
	return nil
}

// TrackIDs retrieves the ids of the playlist's tracks in add order.
func (r *PlaylistRepository) TrackIDs(playlistID string) ([]string, error) {
	rows, err := r.db.Query("SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY added_at ASC", playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}
