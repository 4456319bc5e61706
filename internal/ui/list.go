package ui

import (
	"strings"

	"github.com/avetrov/chorus/internal/models"
	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track *models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	parts := []string{}
	if i.track.Artist != nil {
		parts = append(parts, i.track.Artist.Name)
	}
	if i.track.Album != nil {
		parts = append(parts, i.track.Album.Name)
	}
	if len(parts) == 0 {
		return "unknown artist"
	}
	return strings.Join(parts, " • ")
}
