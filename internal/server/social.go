package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/avetrov/chorus/internal/models"
	"github.com/avetrov/chorus/internal/repositories"
	"github.com/avetrov/chorus/internal/shared"
	"github.com/charmbracelet/log"
)

// userProfile is the public rendering of a user account.
type userProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func profileOf(user *models.User) userProfile {
	return userProfile{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// UserHandler serves account registration, profiles, follows and the user's
// added-track collection.
type UserHandler struct {
	users   *repositories.UserRepository
	catalog *repositories.CatalogRepository
	logger  *log.Logger
}

// NewUserHandler creates a UserHandler with the given dependencies.
func NewUserHandler(users *repositories.UserRepository, catalog *repositories.CatalogRepository, logger *log.Logger) *UserHandler {
	return &UserHandler{users: users, catalog: catalog, logger: logger}
}

// Routes returns the method-qualified patterns this handler serves.
func (h *UserHandler) Routes() []string {
	return []string{
		"POST /users",
		"GET /users/{id}",
		"DELETE /users/{id}",
		"POST /users/{id}/follow",
		"DELETE /users/{id}/follow",
		"GET /users/{id}/following",
		"POST /users/{id}/tracks",
		"GET /users/{id}/tracks",
	}
}

// ServeHTTP dispatches to the endpoint implementations by route pattern.
func (h *UserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "POST /users":
		h.register(w, r)
	case "GET /users/{id}":
		h.profile(w, r)
	case "DELETE /users/{id}":
		h.remove(w, r)
	case "POST /users/{id}/follow":
		h.follow(w, r)
	case "DELETE /users/{id}/follow":
		h.unfollow(w, r)
	case "GET /users/{id}/following":
		h.following(w, r)
	case "POST /users/{id}/tracks":
		h.addTrack(w, r)
	case "GET /users/{id}/tracks":
		h.addedTracks(w, r)
	default:
		http.NotFound(w, r)
	}
}

// register creates a new account. The plaintext password is hashed before it
// reaches the repository.
func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if body.Password == "" {
		writeError(w, h.logger, fmt.Errorf("password is required: %w", shared.ErrInvalidInput))
		return
	}

	hash, err := shared.HashPassword(body.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user := &models.User{Username: body.Username, Email: body.Email, PasswordHash: hash}
	if err := h.users.Create(user); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, profileOf(user))
}

func (h *UserHandler) profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profileOf(user))
}

func (h *UserHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// actingUser reads the follower/author id from the request body. There is no
// session layer; callers identify themselves explicitly.
func actingUser(r *http.Request) (string, error) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		return "", err
	}
	if body.UserID == "" {
		return "", fmt.Errorf("user_id is required: %w", shared.ErrInvalidInput)
	}
	return body.UserID, nil
}

func (h *UserHandler) follow(w http.ResponseWriter, r *http.Request) {
	followerID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.users.Follow(followerID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.users.Unfollow(followerID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) following(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Following(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	profiles := []userProfile{}
	for _, user := range users {
		profiles = append(profiles, profileOf(user))
	}

	writeJSON(w, http.StatusOK, map[string]any{"following": profiles})
}

// addTrack records a catalog track in the user's collection.
func (h *UserHandler) addTrack(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TrackID string `json:"track_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	userID := r.PathValue("id")
	if _, err := h.users.Get(userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.catalog.GetTrack(body.TrackID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.users.AddTrack(userID, body.TrackID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) addedTracks(w http.ResponseWriter, r *http.Request) {
	ids, err := h.users.AddedTrackIDs(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	views := []models.TrackView{}
	for _, id := range ids {
		track, err := h.catalog.GetTrack(id)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		views = append(views, track.View())
	}

	writeJSON(w, http.StatusOK, tracksResponse{Tracks: views})
}

// playlistView is the rendering of a playlist with its resolved tracks.
type playlistView struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	CreatorID   string             `json:"creator_id"`
	CreatedAt   time.Time          `json:"created_at"`
	Tracks      []models.TrackView `json:"tracks"`
}

// commentView is the rendering of a playlist comment.
type commentView struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PlaylistHandler serves playlist management, track membership, likes and
// comments.
type PlaylistHandler struct {
	playlists *repositories.PlaylistRepository
	comments  *repositories.CommentRepository
	users     *repositories.UserRepository
	catalog   *repositories.CatalogRepository
	logger    *log.Logger
}

// NewPlaylistHandler creates a PlaylistHandler with the given dependencies.
func NewPlaylistHandler(playlists *repositories.PlaylistRepository, comments *repositories.CommentRepository, users *repositories.UserRepository, catalog *repositories.CatalogRepository, logger *log.Logger) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists, comments: comments, users: users, catalog: catalog, logger: logger}
}

// Routes returns the method-qualified patterns this handler serves.
func (h *PlaylistHandler) Routes() []string {
	return []string{
		"POST /playlists",
		"GET /playlists/{id}",
		"DELETE /playlists/{id}",
		"POST /playlists/{id}/tracks",
		"DELETE /playlists/{id}/tracks/{trackID}",
		"POST /playlists/{id}/like",
		"GET /playlists/{id}/comments",
		"POST /playlists/{id}/comments",
		"DELETE /comments/{id}",
	}
}

// ServeHTTP dispatches to the endpoint implementations by route pattern.
func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "POST /playlists":
		h.create(w, r)
	case "GET /playlists/{id}":
		h.get(w, r)
	case "DELETE /playlists/{id}":
		h.remove(w, r)
	case "POST /playlists/{id}/tracks":
		h.addTrack(w, r)
	case "DELETE /playlists/{id}/tracks/{trackID}":
		h.removeTrack(w, r)
	case "POST /playlists/{id}/like":
		h.like(w, r)
	case "GET /playlists/{id}/comments":
		h.listComments(w, r)
	case "POST /playlists/{id}/comments":
		h.addComment(w, r)
	case "DELETE /comments/{id}":
		h.removeComment(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *PlaylistHandler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		CreatorID   string `json:"creator_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.users.Get(body.CreatorID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	playlist := &models.Playlist{Name: body.Name, Description: body.Description, CreatorID: body.CreatorID}
	if err := h.playlists.Create(playlist); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, playlistView{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		CreatorID:   playlist.CreatorID,
		CreatedAt:   playlist.CreatedAt,
		Tracks:      []models.TrackView{},
	})
}

func (h *PlaylistHandler) get(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.playlists.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	ids, err := h.playlists.TrackIDs(playlist.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	views := []models.TrackView{}
	for _, id := range ids {
		track, err := h.catalog.GetTrack(id)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		views = append(views, track.View())
	}

	writeJSON(w, http.StatusOK, playlistView{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		CreatorID:   playlist.CreatorID,
		CreatedAt:   playlist.CreatedAt,
		Tracks:      views,
	})
}

// remove deletes a playlist. Only the creator may delete it.
func (h *PlaylistHandler) remove(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	playlist, err := h.playlists.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if playlist.CreatorID != userID {
		writeError(w, h.logger, fmt.Errorf("only the creator can delete a playlist: %w", shared.ErrInvalidInput))
		return
	}

	if err := h.playlists.Delete(playlist.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaylistHandler) addTrack(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TrackID string `json:"track_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	playlistID := r.PathValue("id")
	if _, err := h.playlists.Get(playlistID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.catalog.GetTrack(body.TrackID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.playlists.AddTrack(playlistID, body.TrackID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaylistHandler) removeTrack(w http.ResponseWriter, r *http.Request) {
	if _, err := h.playlists.Get(r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.playlists.RemoveTrack(r.PathValue("id"), r.PathValue("trackID")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaylistHandler) like(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	playlistID := r.PathValue("id")
	if _, err := h.playlists.Get(playlistID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.users.LikePlaylist(userID, playlistID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaylistHandler) listComments(w http.ResponseWriter, r *http.Request) {
	if _, err := h.playlists.Get(r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	comments, err := h.comments.ListByPlaylist(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	views := []commentView{}
	for _, comment := range comments {
		views = append(views, commentView{
			ID:        comment.ID,
			Message:   comment.Message,
			AuthorID:  comment.AuthorID,
			CreatedAt: comment.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"comments": views})
}

func (h *PlaylistHandler) addComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID  string `json:"user_id"`
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	playlistID := r.PathValue("id")
	if _, err := h.playlists.Get(playlistID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.users.Get(body.UserID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	comment := &models.Comment{Message: body.Message, AuthorID: body.UserID, PlaylistID: playlistID}
	if err := h.comments.Create(comment); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentView{
		ID:        comment.ID,
		Message:   comment.Message,
		AuthorID:  comment.AuthorID,
		CreatedAt: comment.CreatedAt,
	})
}

// removeComment deletes a comment. Only the author may delete it.
func (h *PlaylistHandler) removeComment(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	comment, err := h.comments.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if comment.AuthorID != userID {
		writeError(w, h.logger, fmt.Errorf("only the author can delete a comment: %w", shared.ErrInvalidInput))
		return
	}

	if err := h.comments.Delete(comment.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
