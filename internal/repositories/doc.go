// Package repositories implements SQLite persistence for all domain entities.
//
// Key Implementations:
//   - [CatalogRepository] : Tracks, albums, artists and genres keyed by their
//     Musixmatch external id, with race-safe get-or-create semantics
//   - [UserRepository] : Accounts, follow relations and track/playlist membership
//   - [PlaylistRepository] : Playlists and their track membership
//   - [CommentRepository] : Playlist comments
//
// Catalog get-or-create relies on the external_id uniqueness constraint:
// inserts use ON CONFLICT DO NOTHING and re-read the surviving row, so two
// concurrent ingestions of the same provider entity end up observing the same
// row and no constraint violation ever reaches a caller.
//
// Sequence numbers provide stable, human-readable ordering independent of
// UUIDs and creation timestamps. The [NextSequence] function atomically
// increments per-table sequence counters in dedicated sequence tables.
package repositories
