package models

// EntityView is the JSON shape of a dependent catalog entity, keyed by the
// provider id rather than the internal row id.
type EntityView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TrackView is the JSON shape of a track handed to page controllers.
type TrackView struct {
	ID     int64        `json:"id"`
	Name   string       `json:"name"`
	Album  *EntityView  `json:"album"`
	Artist *EntityView  `json:"artist"`
	Genres []EntityView `json:"genres"`
}

// View converts a hydrated Track into its controller-facing shape.
func (t *Track) View() TrackView {
	view := TrackView{
		ID:     t.ExternalID,
		Name:   t.Name,
		Genres: make([]EntityView, 0, len(t.Genres)),
	}

	if t.Album != nil {
		view.Album = &EntityView{ID: t.Album.ExternalID, Name: t.Album.Name}
	}
	if t.Artist != nil {
		view.Artist = &EntityView{ID: t.Artist.ExternalID, Name: t.Artist.Name}
	}
	for _, g := range t.Genres {
		view.Genres = append(view.Genres, EntityView{ID: g.ExternalID, Name: g.Name})
	}

	return view
}

// View converts an Artist into its controller-facing shape.
func (a *Artist) View() EntityView {
	return EntityView{ID: a.ExternalID, Name: a.Name}
}

// TrackViews converts a slice of hydrated tracks, preserving order.
func TrackViews(tracks []*Track) []TrackView {
	views := make([]TrackView, 0, len(tracks))
	for _, t := range tracks {
		views = append(views, t.View())
	}
	return views
}

// ArtistViews converts a slice of artists, preserving order.
func ArtistViews(artists []*Artist) []EntityView {
	views := make([]EntityView, 0, len(artists))
	for _, a := range artists {
		views = append(views, a.View())
	}
	return views
}
