package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avetrov/chorus/internal/models"
	"github.com/avetrov/chorus/internal/shared"
)

// CommentRepository persists playlist comments.
type CommentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new [CommentRepository] with the given database connection
func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a new comment with generated ID and sequence
func (r *CommentRepository) Create(comment *models.Comment) error {
	sequence, err := NextSequence(r.db, "comments")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	comment.ID = shared.GenerateID()
	comment.Sequence = sequence
	comment.CreatedAt = time.Now()

	if err := comment.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO comments (id, sequence, message, author_id, playlist_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, comment.ID, sequence, comment.Message, comment.AuthorID, comment.PlaylistID, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	return nil
}

// Get retrieves a comment by ID
func (r *CommentRepository) Get(id string) (*models.Comment, error) {
	query := `
		SELECT id, sequence, message, author_id, playlist_id, created_at
		FROM comments
		WHERE id = ?
	`

	var comment models.Comment
	err := r.db.QueryRow(query, id).Scan(
		&comment.ID, &comment.Sequence, &comment.Message,
		&comment.AuthorID, &comment.PlaylistID, &comment.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("comment %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query comment: %w", err)
	}

	return &comment, nil
}

// ListByPlaylist retrieves a playlist's comments, newest first.
func (r *CommentRepository) ListByPlaylist(playlistID string) ([]*models.Comment, error) {
	query := `
		SELECT id, sequence, message, author_id, playlist_id, created_at
		FROM comments
		WHERE playlist_id = ?
		ORDER BY sequence DESC
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID, &comment.Sequence, &comment.Message,
			&comment.AuthorID, &comment.PlaylistID, &comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return comments, nil
}

// Delete removes a comment by ID
func (r *CommentRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("comment %s: %w", id, shared.ErrNotFound)
	}

	return nil
}
