package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avetrov/chorus/internal/ingest"
	"github.com/avetrov/chorus/internal/models"
	"github.com/avetrov/chorus/internal/repositories"
	"github.com/avetrov/chorus/internal/services"
	"github.com/avetrov/chorus/internal/shared"
	th "github.com/avetrov/chorus/internal/testing"
)

const chartBody = `{
	"message": {
		"header": {"status_code": 200},
		"body": {
			"track_list": [
				{
					"track": {
						"track_id": 1,
						"track_name": "Geyser",
						"album_id": 10,
						"album_name": "Be the Cowboy",
						"artist_id": 100,
						"artist_name": "Mitski",
						"primary_genres": {
							"music_genre_list": [
								{"music_genre": {"music_genre_id": 12, "music_genre_name": "Pop"}}
							]
						}
					}
				}
			]
		}
	}
}`

// testApp wires the full handler stack over an in-memory database and a stub
// provider.
type testApp struct {
	db      *sql.DB
	router  *BasicRouter
	catalog *repositories.CatalogRepository
	users   *repositories.UserRepository
}

func newTestApp(t *testing.T, provider http.HandlerFunc) *testApp {
	t.Helper()

	db := th.MustOpenDB(t)

	upstream := httptest.NewServer(provider)
	t.Cleanup(upstream.Close)

	logger := shared.NewLogger(nil)
	gateway := services.NewMusixmatchService(upstream.URL+"/", "key", upstream.Client(), 0)
	catalog := repositories.NewCatalogRepository(db)
	engine := ingest.NewEngine(catalog, logger)
	users := repositories.NewUserRepository(db)
	playlists := repositories.NewPlaylistRepository(db)
	comments := repositories.NewCommentRepository(db)

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	router.Handler(NewCatalogHandler(gateway, engine, catalog, logger))
	router.Handler(NewUserHandler(users, catalog, logger))
	router.Handler(NewPlaylistHandler(playlists, comments, users, catalog, logger))

	return &testApp{db: db, router: router, catalog: catalog, users: users}
}

func (app *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func servesChart(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(chartBody))
}

func TestCatalogHandler(t *testing.T) {
	t.Run("TopTracks", func(t *testing.T) {
		app := newTestApp(t, servesChart)

		rec := app.do(t, http.MethodGet, "/top-tracks", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		resp := decodeBody[struct {
			Tracks []models.TrackView `json:"tracks"`
			Notice string             `json:"notice"`
		}](t, rec)

		if len(resp.Tracks) != 1 || resp.Tracks[0].Name != "Geyser" {
			t.Errorf("unexpected tracks: %+v", resp.Tracks)
		}
		if resp.Notice != "" {
			t.Errorf("expected no notice, got %q", resp.Notice)
		}

		// rows are persisted, so the local listing serves them too
		rec = app.do(t, http.MethodGet, "/tracks", nil)
		local := decodeBody[struct {
			Tracks []models.TrackView `json:"tracks"`
		}](t, rec)
		if len(local.Tracks) != 1 {
			t.Errorf("expected ingested track in local catalog, got %+v", local.Tracks)
		}
	})

	t.Run("UpstreamFailureYieldsNotice", func(t *testing.T) {
		app := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		rec := app.do(t, http.MethodGet, "/top-tracks", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("upstream failures should render, got %d", rec.Code)
		}

		resp := decodeBody[struct {
			Tracks []models.TrackView `json:"tracks"`
			Notice string             `json:"notice"`
		}](t, rec)

		if len(resp.Tracks) != 0 {
			t.Errorf("expected empty tracks, got %+v", resp.Tracks)
		}
		if resp.Notice == "" {
			t.Error("expected a notice explaining the empty page")
		}
	})

	t.Run("MalformedPayloadYieldsNotice", func(t *testing.T) {
		app := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"unexpected": true}`))
		})

		rec := app.do(t, http.MethodGet, "/top-artists", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("malformed payloads should render, got %d", rec.Code)
		}

		resp := decodeBody[struct {
			Artists []models.EntityView `json:"artists"`
			Notice  string              `json:"notice"`
		}](t, rec)

		if len(resp.Artists) != 0 || resp.Notice == "" {
			t.Errorf("expected empty artists with notice, got %+v", resp)
		}
	})

	t.Run("Search", func(t *testing.T) {
		var gotQuery string
		app := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q_track")
			w.Write([]byte(chartBody))
		})

		rec := app.do(t, http.MethodGet, "/search?query=geyser", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotQuery != "geyser" {
			t.Errorf("expected q_track=geyser upstream, got %q", gotQuery)
		}

		resp := decodeBody[struct {
			Tracks  []models.TrackView  `json:"tracks"`
			Artists []models.EntityView `json:"artists"`
		}](t, rec)

		if len(resp.Tracks) != 1 {
			t.Errorf("expected 1 track, got %+v", resp.Tracks)
		}
		if len(resp.Artists) != 1 || resp.Artists[0].Name != "Mitski" {
			t.Errorf("expected resolved artist, got %+v", resp.Artists)
		}
	})

	t.Run("EmptySearchQuerySkipsProvider", func(t *testing.T) {
		called := false
		app := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		rec := app.do(t, http.MethodGet, "/search", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if called {
			t.Error("empty query must not reach the provider")
		}
	})
}

func registerUser(t *testing.T, app *testApp, username string) string {
	t.Helper()

	rec := app.do(t, http.MethodPost, "/users", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed to register %s: %d %s", username, rec.Code, rec.Body.String())
	}

	resp := decodeBody[struct {
		ID string `json:"id"`
	}](t, rec)
	return resp.ID
}

func TestUserHandler(t *testing.T) {
	t.Run("RegisterAndFetch", func(t *testing.T) {
		app := newTestApp(t, servesChart)

		id := registerUser(t, app, "holly")

		rec := app.do(t, http.MethodGet, "/users/"+id, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		resp := decodeBody[struct {
			Username     string `json:"username"`
			PasswordHash string `json:"password_hash"`
		}](t, rec)

		if resp.Username != "holly" {
			t.Errorf("expected holly, got %q", resp.Username)
		}
		if resp.PasswordHash != "" {
			t.Error("profile must not expose the password hash")
		}
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		app := newTestApp(t, servesChart)
		registerUser(t, app, "holly")

		rec := app.do(t, http.MethodPost, "/users", map[string]string{
			"username": "holly",
			"email":    "other@example.com",
			"password": "pw",
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("MissingPassword", func(t *testing.T) {
		app := newTestApp(t, servesChart)

		rec := app.do(t, http.MethodPost, "/users", map[string]string{
			"username": "holly",
			"email":    "holly@example.com",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("FollowLifecycle", func(t *testing.T) {
		app := newTestApp(t, servesChart)
		holly := registerUser(t, app, "holly")
		june := registerUser(t, app, "june")

		rec := app.do(t, http.MethodPost, "/users/"+june+"/follow", map[string]string{"user_id": holly})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = app.do(t, http.MethodGet, "/users/"+holly+"/following", nil)
		following := decodeBody[struct {
			Following []struct {
				Username string `json:"username"`
			} `json:"following"`
		}](t, rec)
		if len(following.Following) != 1 || following.Following[0].Username != "june" {
			t.Errorf("expected [june], got %+v", following.Following)
		}

		rec = app.do(t, http.MethodDelete, "/users/"+june+"/follow", map[string]string{"user_id": holly})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("FollowSelfRejected", func(t *testing.T) {
		app := newTestApp(t, servesChart)
		holly := registerUser(t, app, "holly")

		rec := app.do(t, http.MethodPost, "/users/"+holly+"/follow", map[string]string{"user_id": holly})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("AddedTracks", func(t *testing.T) {
		app := newTestApp(t, servesChart)
		holly := registerUser(t, app, "holly")

		// ingest the chart so a track exists locally
		app.do(t, http.MethodGet, "/top-tracks", nil)

		track, err := app.catalog.FindTrackByExternalID(1)
		if err != nil {
			t.Fatalf("expected ingested track: %v", err)
		}

		rec := app.do(t, http.MethodPost, "/users/"+holly+"/tracks", map[string]string{"track_id": track.ID})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = app.do(t, http.MethodGet, "/users/"+holly+"/tracks", nil)
		resp := decodeBody[struct {
			Tracks []models.TrackView `json:"tracks"`
		}](t, rec)
		if len(resp.Tracks) != 1 || resp.Tracks[0].Name != "Geyser" {
			t.Errorf("expected added track, got %+v", resp.Tracks)
		}
	})

	t.Run("UnknownTrackRejected", func(t *testing.T) {
		app := newTestApp(t, servesChart)
		holly := registerUser(t, app, "holly")

		rec := app.do(t, http.MethodPost, "/users/"+holly+"/tracks", map[string]string{"track_id": "missing"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestPlaylistHandler(t *testing.T) {
	createPlaylist := func(t *testing.T, app *testApp, creator, name string) string {
		t.Helper()

		rec := app.do(t, http.MethodPost, "/playlists", map[string]string{
			"name":       name,
			"creator_id": creator,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed to create playlist: %d %s", rec.Code, rec.Body.String())
		}

		resp := decodeBody[struct {
			ID string `json:"id"`
		}](t, rec)
		return resp.ID
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		app := newTestApp(t, servesChart)
		holly := registerUser(t, app, "holly")
		id := createPlaylist(t, app, holly, "rainy days")

		rec := app.do(t, http.MethodGet, "/playlists/"+id, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		resp := decodeBody[struct {
			Name   string             `json:"name"`
			Tracks []models.TrackView `json:"tracks"`
		}](t, rec)
		if resp.Name != "rainy days" {
			t.Errorf("expected rainy days, got %q", resp.Name)
		}
		if len(resp.Tracks) != 0 {
			t.Errorf("expected no tracks, got %+v", resp.Tracks)
		}
	})

	t.Run("TrackMembership", func(t *testing.T) {
		app := newTestApp(t, servesChart)
		holly := registerUser(t, app, "holly")
		id := createPlaylist(t, app, holly, "rainy days")

		app.do(t, http.MethodGet, "/top-tracks", nil)
		track, err := app.catalog.FindTrackByExternalID(1)
		if err != nil {
			t.Fatalf("expected ingested track: %v", err)
		}

		rec := app.do(t, http.MethodPost, "/playlists/"+id+"/tracks", map[string]string{"track_id": track.ID})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = app.do(t, http.MethodGet, "/playlists/"+id, nil)
		resp := decodeBody[struct {
			Tracks []models.TrackView `json:"tracks"`
		}](t, rec)
		if len(resp.Tracks) != 1 {
			t.Fatalf("expected 1 track, got %+v", resp.Tracks)
		}

		rec = app.do(t, http.MethodDelete, fmt.Sprintf("/playlists/%s/tracks/%s", id, track.ID), nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("OnlyCreatorDeletes", func(t *testing.T) {
		app := newTestApp(t, servesChart)
		holly := registerUser(t, app, "holly")
		june := registerUser(t, app, "june")
		id := createPlaylist(t, app, holly, "rainy days")

		rec := app.do(t, http.MethodDelete, "/playlists/"+id, map[string]string{"user_id": june})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for non-creator, got %d", rec.Code)
		}

		rec = app.do(t, http.MethodDelete, "/playlists/"+id, map[string]string{"user_id": holly})
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204 for creator, got %d", rec.Code)
		}
	})

	t.Run("Comments", func(t *testing.T) {
		app := newTestApp(t, servesChart)
		holly := registerUser(t, app, "holly")
		june := registerUser(t, app, "june")
		id := createPlaylist(t, app, holly, "rainy days")

		rec := app.do(t, http.MethodPost, "/playlists/"+id+"/comments", map[string]string{
			"user_id": june,
			"message": "love this one",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		comment := decodeBody[struct {
			ID string `json:"id"`
		}](t, rec)

		rec = app.do(t, http.MethodGet, "/playlists/"+id+"/comments", nil)
		listed := decodeBody[struct {
			Comments []struct {
				Message string `json:"message"`
			} `json:"comments"`
		}](t, rec)
		if len(listed.Comments) != 1 || listed.Comments[0].Message != "love this one" {
			t.Errorf("unexpected comments: %+v", listed.Comments)
		}

		// only the author may delete
		rec = app.do(t, http.MethodDelete, "/comments/"+comment.ID, map[string]string{"user_id": holly})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for non-author, got %d", rec.Code)
		}

		rec = app.do(t, http.MethodDelete, "/comments/"+comment.ID, map[string]string{"user_id": june})
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204 for author, got %d", rec.Code)
		}
	})

	t.Run("Like", func(t *testing.T) {
		app := newTestApp(t, servesChart)
		holly := registerUser(t, app, "holly")
		june := registerUser(t, app, "june")
		id := createPlaylist(t, app, holly, "rainy days")

		rec := app.do(t, http.MethodPost, "/playlists/"+id+"/like", map[string]string{"user_id": june})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}

		liked, err := app.users.LikedPlaylistIDs(june)
		if err != nil {
			t.Fatalf("failed to list likes: %v", err)
		}
		if len(liked) != 1 || liked[0] != id {
			t.Errorf("expected liked playlist %s, got %v", id, liked)
		}
	})
}
