package repositories

import (
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/avetrov/chorus/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied.
//
// A single connection keeps every statement on the same in-memory database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	shared.ConfigureDatabase(db, 1, 1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestCatalogRepositoryCreateIfAbsent(t *testing.T) {
	t.Run("CreateArtist", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCatalogRepository(db)

		artist, created, err := repo.CreateArtistIfAbsent(100, "Mitski")
		if err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}
		if !created {
			t.Error("expected created to be true on first insert")
		}
		if artist.ID == "" {
			t.Error("artist ID should be set after creation")
		}
		if artist.ExternalID != 100 {
			t.Errorf("expected external ID 100, got %d", artist.ExternalID)
		}
	})

	t.Run("SecondCreateReturnsExistingRow", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCatalogRepository(db)

		first, _, err := repo.CreateArtistIfAbsent(100, "Mitski")
		if err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}

		second, created, err := repo.CreateArtistIfAbsent(100, "Mitski")
		if err != nil {
			t.Fatalf("failed on repeated create: %v", err)
		}
		if created {
			t.Error("expected created to be false on repeated insert")
		}
		if second.ID != first.ID {
			t.Errorf("expected same row, got %s and %s", first.ID, second.ID)
		}
	})

	t.Run("RepeatDoesNotConsumeSequence", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCatalogRepository(db)

		if _, _, err := repo.CreateArtistIfAbsent(100, "Mitski"); err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}
		for i := 0; i < 3; i++ {
			if _, _, err := repo.CreateArtistIfAbsent(100, "Mitski"); err != nil {
				t.Fatalf("failed on repeated create: %v", err)
			}
		}

		var value int
		if err := db.QueryRow("SELECT value FROM artists_sequence WHERE id = 1").Scan(&value); err != nil {
			t.Fatalf("failed to read sequence: %v", err)
		}
		if value != 1 {
			t.Errorf("expected sequence 1 after repeated creates, got %d", value)
		}
	})

	t.Run("ConcurrentCreatorsConverge", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCatalogRepository(db)

		const workers = 8

		var wg sync.WaitGroup
		results := make([]struct {
			id      string
			created bool
			err     error
		}, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				artist, created, err := repo.CreateArtistIfAbsent(100, "Mitski")
				if err != nil {
					results[i].err = err
					return
				}
				results[i].id = artist.ID
				results[i].created = created
			}(i)
		}
		wg.Wait()

		createdCount := 0
		for i, res := range results {
			if res.err != nil {
				t.Fatalf("worker %d failed: %v", i, res.err)
			}
			if res.id != results[0].id {
				t.Errorf("worker %d got row %s, want %s", i, res.id, results[0].id)
			}
			if res.created {
				createdCount++
			}
		}
		if createdCount != 1 {
			t.Errorf("expected exactly one worker to create the row, got %d", createdCount)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM artists").Scan(&count); err != nil {
			t.Fatalf("failed to count artists: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 artist row, got %d", count)
		}
	})

	t.Run("SameExternalIDDifferentKinds", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCatalogRepository(db)

		artist, created, err := repo.CreateArtistIfAbsent(7, "Seven")
		if err != nil || !created {
			t.Fatalf("failed to create artist: created=%v err=%v", created, err)
		}

		genre, created, err := repo.CreateGenreIfAbsent(7, "Pop")
		if err != nil {
			t.Fatalf("failed to create genre: %v", err)
		}
		if !created {
			t.Error("external ids are namespaced per kind, genre insert should create")
		}
		if artist.ID == genre.ID {
			t.Error("artist and genre should be distinct rows")
		}
	})

	t.Run("SequencesAreMonotonic", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCatalogRepository(db)

		first, _, err := repo.CreateGenreIfAbsent(1, "Pop")
		if err != nil {
			t.Fatalf("failed to create genre: %v", err)
		}
		second, _, err := repo.CreateGenreIfAbsent(2, "Rock")
		if err != nil {
			t.Fatalf("failed to create genre: %v", err)
		}

		if second.Sequence <= first.Sequence {
			t.Errorf("expected increasing sequences, got %d then %d", first.Sequence, second.Sequence)
		}
	})
}

func TestCatalogRepositoryFind(t *testing.T) {
	t.Run("FindByExternalID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCatalogRepository(db)

		created, _, err := repo.CreateAlbumIfAbsent(55, "Puberty 2")
		if err != nil {
			t.Fatalf("failed to create album: %v", err)
		}

		found, err := repo.FindAlbumByExternalID(55)
		if err != nil {
			t.Fatalf("failed to find album: %v", err)
		}
		if found.ID != created.ID {
			t.Errorf("expected ID %s, got %s", created.ID, found.ID)
		}
	})

	t.Run("MissingExternalID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCatalogRepository(db)

		_, err := repo.FindTrackByExternalID(9999)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCatalogRepositoryTrackAssembly(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewCatalogRepository(db)

	artist, _, err := repo.CreateArtistIfAbsent(1, "Mitski")
	if err != nil {
		t.Fatalf("failed to create artist: %v", err)
	}
	album, _, err := repo.CreateAlbumIfAbsent(2, "Puberty 2")
	if err != nil {
		t.Fatalf("failed to create album: %v", err)
	}
	indie, _, err := repo.CreateGenreIfAbsent(3, "Indie")
	if err != nil {
		t.Fatalf("failed to create genre: %v", err)
	}
	rock, _, err := repo.CreateGenreIfAbsent(4, "Rock")
	if err != nil {
		t.Fatalf("failed to create genre: %v", err)
	}

	track, created, err := repo.CreateTrackIfAbsent(10, "Your Best American Girl")
	if err != nil {
		t.Fatalf("failed to create track: %v", err)
	}
	if !created {
		t.Fatal("expected track to be created")
	}

	if err := repo.SetTrackRefs(track.ID, album.ID, artist.ID); err != nil {
		t.Fatalf("failed to set refs: %v", err)
	}
	if err := repo.ReplaceTrackGenres(track.ID, []string{indie.ID, rock.ID}); err != nil {
		t.Fatalf("failed to set genres: %v", err)
	}

	t.Run("GetHydratesRelations", func(t *testing.T) {
		got, err := repo.GetTrack(track.ID)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if got.Artist == nil || got.Artist.Name != "Mitski" {
			t.Errorf("expected artist Mitski, got %+v", got.Artist)
		}
		if got.Album == nil || got.Album.Name != "Puberty 2" {
			t.Errorf("expected album Puberty 2, got %+v", got.Album)
		}
		if len(got.Genres) != 2 {
			t.Fatalf("expected 2 genres, got %d", len(got.Genres))
		}
	})

	t.Run("ReplaceGenresIsIdempotent", func(t *testing.T) {
		if err := repo.ReplaceTrackGenres(track.ID, []string{indie.ID}); err != nil {
			t.Fatalf("failed to replace genres: %v", err)
		}

		got, err := repo.GetTrack(track.ID)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if len(got.Genres) != 1 || got.Genres[0].Name != "Indie" {
			t.Errorf("expected only Indie, got %+v", got.Genres)
		}
	})

	t.Run("ListTracksHydratesOnSingleConnection", func(t *testing.T) {
		// The pool is capped at one connection, so hydration must not run
		// while the list cursor still holds it.
		second, _, err := repo.CreateTrackIfAbsent(11, "Geyser")
		if err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if err := repo.SetTrackRefs(second.ID, album.ID, artist.ID); err != nil {
			t.Fatalf("failed to set refs: %v", err)
		}

		tracks, err := repo.ListTracks()
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		for _, got := range tracks {
			if got.Artist == nil || got.Album == nil {
				t.Errorf("track %s should hydrate relations", got.Name)
			}
		}
	})

	t.Run("ListArtists", func(t *testing.T) {
		artists, err := repo.ListArtists()
		if err != nil {
			t.Fatalf("failed to list artists: %v", err)
		}
		if len(artists) != 1 {
			t.Fatalf("expected 1 artist, got %d", len(artists))
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "tracks")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	second, err := NextSequence(db, "tracks")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	if second != first+1 {
		t.Errorf("expected %d, got %d", first+1, second)
	}
}
