package models

import (
	"time"

	"github.com/avetrov/chorus/internal/shared"
)

// Kind identifies a catalog entity kind. Each kind maps to one table and one
// external-id namespace.
type Kind string

const (
	KindTrack  Kind = "track"
	KindAlbum  Kind = "album"
	KindArtist Kind = "artist"
	KindGenre  Kind = "genre"
)

// Album is a catalog album shared by any number of tracks.
type Album struct {
	ID         string
	Sequence   int
	ExternalID int64
	Name       string
	Released   *time.Time
	CreatedAt  time.Time
}

// Artist is a catalog artist shared by any number of tracks.
type Artist struct {
	ID         string
	Sequence   int
	ExternalID int64
	Name       string
	CreatedAt  time.Time
}

// Genre is a catalog genre related many-to-many with tracks.
type Genre struct {
	ID         string
	Sequence   int
	ExternalID int64
	Name       string
	CreatedAt  time.Time
}

// Track is a catalog track. Album and Artist are nil until the ingestion
// engine resolves them; Genres may be empty.
type Track struct {
	ID         string
	Sequence   int
	ExternalID int64
	Name       string
	Album      *Album
	Artist     *Artist
	Genres     []Genre
	CreatedAt  time.Time
}

// User is a registered account.
type User struct {
	ID           string
	Sequence     int
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Validate checks that required user fields are present.
func (u *User) Validate() error {
	if u.Username == "" {
		return shared.ErrInvalidInput
	}
	if u.Email == "" {
		return shared.ErrInvalidInput
	}
	if u.PasswordHash == "" {
		return shared.ErrInvalidInput
	}
	return nil
}

// Playlist is a user-curated collection of tracks. Name is unique per creator.
type Playlist struct {
	ID          string
	Sequence    int
	Name        string
	Description string
	CreatorID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks that required playlist fields are present.
func (p *Playlist) Validate() error {
	if p.Name == "" || p.CreatorID == "" {
		return shared.ErrInvalidInput
	}
	return nil
}

// Comment is a message a user leaves on a playlist.
type Comment struct {
	ID         string
	Sequence   int
	Message    string
	AuthorID   string
	PlaylistID string
	CreatedAt  time.Time
}

// Validate checks that required comment fields are present.
func (c *Comment) Validate() error {
	if c.Message == "" || c.AuthorID == "" || c.PlaylistID == "" {
		return shared.ErrInvalidInput
	}
	return nil
}
