package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/avetrov/chorus/internal/models"
	"github.com/avetrov/chorus/internal/shared"
)

// UserRepository persists user accounts, follow relations and the user's
// added-track / liked-playlist memberships.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database with generated ID and sequence.
// Username and email are unique; a clash returns [shared.ErrAlreadyExists].
func (r *UserRepository) Create(user *models.User) error {
	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	user.ID = shared.GenerateID()
	user.Sequence = sequence

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO users (id, sequence, username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, user.ID, sequence, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("user %s: %w", user.Username, shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	return r.getBy("id", id)
}

// GetByUsername retrieves a user by username, excluding soft-deleted users
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	return r.getBy("username", username)
}

func (r *UserRepository) getBy(column, value string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, sequence, username, email, password_hash, created_at, updated_at, deleted_at
		FROM users
		WHERE %s = ? AND deleted_at IS NULL
	`, column)

	var (
		user      models.User
		deletedAt sql.NullTime
	)

	err := r.db.QueryRow(query, value).Scan(
		&user.ID, &user.Sequence, &user.Username, &user.Email,
		&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", value, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if deletedAt.Valid {
		user.DeletedAt = &deletedAt.Time
	}

	return &user, nil
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(id string) error {
	result, err := r.db.Exec("UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}

	return nil
}

// Follow records that follower follows followed. Following yourself or an
// unknown user is rejected; re-following is a no-op.
func (r *UserRepository) Follow(followerID, followedID string) error {
	if followerID == followedID {
		return fmt.Errorf("cannot follow yourself: %w", shared.ErrInvalidInput)
	}

	if _, err := r.Get(followedID); err != nil {
		return err
	}

	_, err := r.db.Exec(
		"INSERT INTO follows (follower_id, followed_id, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		followerID, followedID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert follow: %w", err)
	}

	return nil
}

// Unfollow removes a follow relation. Unfollowing a user that was never
// followed is a no-op.
func (r *UserRepository) Unfollow(followerID, followedID string) error {
	_, err := r.db.Exec("DELETE FROM follows WHERE follower_id = ? AND followed_id = ?", followerID, followedID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	return nil
}

// IsFollowing reports whether follower follows followed.
func (r *UserRepository) IsFollowing(followerID, followedID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = ? AND followed_id = ?)",
		followerID, followedID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query follow: %w", err)
	}
	return exists, nil
}

// Following retrieves the users the given user follows, in follow order.
func (r *UserRepository) Following(id string) ([]*models.User, error) {
	query := `
		SELECT u.id, u.sequence, u.username, u.email, u.password_hash, u.created_at, u.updated_at, u.deleted_at
		FROM users u
		JOIN follows f ON f.followed_id = u.id
		WHERE f.follower_id = ? AND u.deleted_at IS NULL
		ORDER BY f.created_at ASC
	`

	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query following: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var (
			user      models.User
			deletedAt sql.NullTime
		)
		err := rows.Scan(
			&user.ID, &user.Sequence, &user.Username, &user.Email,
			&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt, &deletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if deletedAt.Valid {
			user.DeletedAt = &deletedAt.Time
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

// AddTrack records a track in the user's collection with the current
// timestamp. Adding the same track again is a no-op.
func (r *UserRepository) AddTrack(userID, trackID string) error {
	_, err := r.db.Exec(
		"INSERT INTO user_tracks (user_id, track_id, added_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		userID, trackID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}
	return nil
}

// AddedTrackIDs retrieves the ids of the user's added tracks in add order.
func (r *UserRepository) AddedTrackIDs(userID string) ([]string, error) {
	return r.membershipIDs("SELECT track_id FROM user_tracks WHERE user_id = ? ORDER BY added_at ASC", userID)
}

// LikePlaylist records a playlist in the user's liked set. Liking the same
// playlist again is a no-op.
func (r *UserRepository) LikePlaylist(userID, playlistID string) error {
	_, err := r.db.Exec(
		"INSERT INTO user_playlists (user_id, playlist_id, added_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		userID, playlistID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to like playlist: %w", err)
	}
	return nil
}

// LikedPlaylistIDs retrieves the ids of the user's liked playlists in like order.
func (r *UserRepository) LikedPlaylistIDs(userID string) ([]string, error) {
	return r.membershipIDs("SELECT playlist_id FROM user_playlists WHERE user_id = ? ORDER BY added_at ASC", userID)
}

func (r *UserRepository) membershipIDs(query, ownerID string) ([]string, error) {
	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query membership: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}
