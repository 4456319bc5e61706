// Package models defines domain entities for the chorus music-discovery service.
//
// The package contains two categories of types:
//
// 1. Catalog entities sourced from the Musixmatch API, identified by a
// provider-assigned external id that is unique per entity kind:
//   - [Track] : A song with references to its album, artist and genres
//   - [Album], [Artist], [Genre] : Dependent entities shared across tracks
//
// 2. Social entities owned by this application:
//   - [User] : Registered accounts with follow and membership relations
//   - [Playlist] : User-curated track collections
//   - [Comment] : Messages attached to playlists
//
// Catalog entities are created lazily by the ingestion engine on first
// encounter and are immutable afterwards except for genre membership.
// [TrackView] and [EntityView] are the JSON shapes handed to controllers.
package models
