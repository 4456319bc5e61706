// Package services implements the Musixmatch API gateway.
//
// # Request Kinds
//
// [MusixmatchService.Request] accepts one of three request kinds, each mapped
// to a provider endpoint path with a closed allow-list of query parameters:
//   - [TopTracks] : chart.tracks.get
//   - [TopArtists] : chart.artists.get
//   - [TrackSearch] : track.search
//
// Validation happens before any network I/O: an unknown kind fails with
// [shared.ErrInvalidRequestKind], a parameter outside the kind's allow-list
// fails with [shared.ErrInvalidParameter] naming the offending key.
//
// # Transport
//
// Requests append the configured apikey, are paced by a [rate.Limiter] and
// issued as a single GET with the caller's context; there are no retries at
// this layer. A non-2xx response fails with [shared.ErrUpstream] carrying the
// HTTP status. Successful responses are decoded into a generic JSON payload
// for the ingestion pipeline to pick apart.
package services
