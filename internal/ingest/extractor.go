package ingest

import (
	"fmt"
	"sort"

	"github.com/avetrov/chorus/internal/services"
	"github.com/avetrov/chorus/internal/shared"
)

// RecordKind names the payload key whose values Extract collects.
type RecordKind string

const (
	RecordTrack  RecordKind = "track"
	RecordArtist RecordKind = "artist"
)

// RawRecord is one extracted provider record, still in wire shape.
type RawRecord map[string]any

// Musixmatch reports success inside the payload header, independent of the
// HTTP status.
const providerSuccessCode = 200

// Extract collects every record of the given kind embedded in the payload.
//
// A payload without a readable message.header.status_code is structurally
// unusable and fails with [shared.ErrMalformedPayload]. A payload whose header
// declares a non-success status yields zero records without error. Otherwise
// the whole payload is walked depth-first and every mapping found under a key
// equal to the kind name is collected, at whatever depth it occurs.
func Extract(payload services.Payload, kind RecordKind) ([]RawRecord, error) {
	code, err := statusCode(payload)
	if err != nil {
		return nil, err
	}

	if code != providerSuccessCode {
		return nil, nil
	}

	var records []RawRecord
	collect(map[string]any(payload), string(kind), &records)
	return records, nil
}

// statusCode reads message.header.status_code from the payload.
func statusCode(payload services.Payload) (int64, error) {
	message, ok := payload["message"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("%w: missing message object", shared.ErrMalformedPayload)
	}

	header, ok := message["header"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("%w: missing message header", shared.ErrMalformedPayload)
	}

	code, ok := asInt(header["status_code"])
	if !ok {
		return 0, fmt.Errorf("%w: missing header status code", shared.ErrMalformedPayload)
	}

	return code, nil
}

// collect walks objects and arrays depth-first. Object keys are visited in
// sorted order so extraction is deterministic; array order is preserved.
func collect(value any, key string, out *[]RawRecord) {
	switch v := value.(type) {
	case map[string]any:
		for _, k := range sortedKeys(v) {
			child := v[k]
			if k == key {
				if record, ok := child.(map[string]any); ok {
					*out = append(*out, RawRecord(record))
				}
				continue
			}
			collect(child, key, out)
		}
	case []any:
		for _, child := range v {
			collect(child, key, out)
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// asInt coerces the numeric types encoding/json may produce.
func asInt(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}
