package ingest

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/avetrov/chorus/internal/services"
	"github.com/avetrov/chorus/internal/shared"
)

// decodePayload round-trips a JSON literal through encoding/json so values
// carry the types the gateway produces.
func decodePayload(t *testing.T, raw string) services.Payload {
	t.Helper()

	var payload services.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	return payload
}

func TestExtract(t *testing.T) {
	t.Run("TopLevelRecord", func(t *testing.T) {
		payload := decodePayload(t, `{
			"message": {
				"header": {"status_code": 200},
				"body": {"track": {"track_id": 1, "track_name": "Geyser"}}
			}
		}`)

		records, err := Extract(payload, RecordTrack)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
		if records[0]["track_name"] != "Geyser" {
			t.Errorf("expected Geyser, got %v", records[0]["track_name"])
		}
	})

	t.Run("NestedList", func(t *testing.T) {
		payload := decodePayload(t, `{
			"message": {
				"header": {"status_code": 200},
				"body": {
					"track_list": [
						{"track": {"track_id": 1, "track_name": "Geyser"}},
						{"track": {"track_id": 2, "track_name": "Nobody"}}
					]
				}
			}
		}`)

		records, err := Extract(payload, RecordTrack)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0]["track_name"] != "Geyser" || records[1]["track_name"] != "Nobody" {
			t.Errorf("expected list order preserved, got %v", records)
		}
	})

	t.Run("DeeplyNestedRecord", func(t *testing.T) {
		payload := decodePayload(t, `{
			"message": {
				"header": {"status_code": 200},
				"body": {
					"outer": {"inner": [{"wrapper": {"artist": {"artist_id": 9, "artist_name": "Mitski"}}}]}
				}
			}
		}`)

		records, err := Extract(payload, RecordArtist)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
		if records[0]["artist_name"] != "Mitski" {
			t.Errorf("expected Mitski, got %v", records[0]["artist_name"])
		}
	})

	t.Run("MatchedRecordNotRecursedInto", func(t *testing.T) {
		// the nested artist object inside a matched artist is part of that
		// record, not a second match
		payload := decodePayload(t, `{
			"message": {
				"header": {"status_code": 200},
				"body": {
					"artist": {
						"artist_id": 9,
						"artist_name": "Mitski",
						"related": {"artist": {"artist_id": 10, "artist_name": "Other"}}
					}
				}
			}
		}`)

		records, err := Extract(payload, RecordArtist)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected only the outer record, got %d", len(records))
		}
	})

	t.Run("NonRecordValueUnderKey", func(t *testing.T) {
		payload := decodePayload(t, `{
			"message": {
				"header": {"status_code": 200},
				"body": {"track": "not an object"}
			}
		}`)

		records, err := Extract(payload, RecordTrack)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records, got %d", len(records))
		}
	})

	t.Run("NonSuccessStatus", func(t *testing.T) {
		payload := decodePayload(t, `{
			"message": {
				"header": {"status_code": 401},
				"body": {"track": {"track_id": 1, "track_name": "Geyser"}}
			}
		}`)

		records, err := Extract(payload, RecordTrack)
		if err != nil {
			t.Fatalf("non-success status should not error: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records for non-success status, got %d", len(records))
		}
	})

	t.Run("MissingHeader", func(t *testing.T) {
		for name, raw := range map[string]string{
			"NoMessage": `{"body": {}}`,
			"NoHeader":  `{"message": {"body": {}}}`,
			"NoStatus":  `{"message": {"header": {}}}`,
			"BadStatus": `{"message": {"header": {"status_code": "ok"}}}`,
		} {
			t.Run(name, func(t *testing.T) {
				payload := decodePayload(t, raw)
				_, err := Extract(payload, RecordTrack)
				if !errors.Is(err, shared.ErrMalformedPayload) {
					t.Errorf("expected ErrMalformedPayload, got %v", err)
				}
			})
		}
	})

	t.Run("DeterministicKeyOrder", func(t *testing.T) {
		payload := decodePayload(t, `{
			"message": {
				"header": {"status_code": 200},
				"body": {
					"zebra": {"track": {"track_id": 2, "track_name": "Second"}},
					"alpha": {"track": {"track_id": 1, "track_name": "First"}}
				}
			}
		}`)

		for i := 0; i < 10; i++ {
			records, err := Extract(payload, RecordTrack)
			if err != nil {
				t.Fatalf("extract failed: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("expected 2 records, got %d", len(records))
			}
			if records[0]["track_name"] != "First" {
				t.Fatalf("expected sorted key order, got %v first", records[0]["track_name"])
			}
		}
	})
}
