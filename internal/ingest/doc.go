// Package ingest turns raw Musixmatch payloads into persisted catalog rows.
//
// The pipeline has two halves:
//
// [Extract] walks a decoded payload depth-first and collects every embedded
// record of the requested kind, whatever wrapper the endpoint nested it under.
// Chart endpoints and search endpoints disagree about nesting, so the walk
// makes no assumptions about depth.
//
// [Engine] resolves each extracted track record against the catalog: the
// track's artist, album and genres are get-or-created by external id, then the
// track row itself, so re-ingesting the same chart or racing ingestions of
// overlapping data never duplicate a row. A malformed record is skipped and
// reported in the per-call diagnostics; it never aborts the batch.
package ingest
