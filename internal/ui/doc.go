// Package ui implements an interactive terminal catalog browser using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow:
//  1. [TrackListView] : Browse the locally persisted tracks
//  2. [DetailView] : Inspect a track's album, artist and genres
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Pressing r refreshes the list by fetching the current chart from the
// provider and ingesting it, so the browser doubles as a manual sync trigger.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
