package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/avetrov/chorus/internal/ingest"
	"github.com/avetrov/chorus/internal/models"
	"github.com/avetrov/chorus/internal/repositories"
	"github.com/avetrov/chorus/internal/services"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TrackListView ViewState = iota
	DetailView
)

// chart parameters used when the browser refreshes from the provider.
var refreshParams = map[string]string{
	"page": "1", "page_size": "7", "country": "XW", "f_has_lyrics": "1",
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	gateway    *services.MusixmatchService
	engine     *ingest.Engine
	catalog    *repositories.CatalogRepository
	width      int
	height     int
	trackList  list.Model
	listReady  bool
	selected   *models.Track
	refreshing bool
	notice     string
	err        error
	help       help.Model
	keys       keyMap
}

type tracksLoadedMsg struct {
	tracks []*models.Track
	err    error
}

type chartRefreshedMsg struct {
	ingested int
	skipped  int
	err      error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, gateway *services.MusixmatchService, engine *ingest.Engine, catalog *repositories.CatalogRepository) *Model {
	return &Model{
		ctx:     ctx,
		view:    TrackListView,
		gateway: gateway,
		engine:  engine,
		catalog: catalog,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by loading the persisted tracks.
func (m *Model) Init() tea.Cmd {
	return m.loadTracks()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case tracksLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = "Catalog"
		m.trackList.SetSize(m.width-4, m.height-8)
		m.listReady = true
		return m, nil

	case chartRefreshedMsg:
		m.refreshing = false
		if msg.err != nil {
			m.notice = fmt.Sprintf("refresh failed: %v", msg.err)
			return m, nil
		}
		m.notice = fmt.Sprintf("chart refreshed: %d tracks, %d skipped", msg.ingested, msg.skipped)
		return m, m.loadTracks()
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case TrackListView:
		return m.renderTrackList()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		if !m.refreshing {
			m.refreshing = true
			m.notice = ""
			return m, m.refreshChart()
		}
		return m, nil
	case "enter":
		selected := m.trackList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(trackItem); ok {
				m.selected = item.track
				m.view = DetailView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = TrackListView
		m.selected = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.listReady || m.view != TrackListView {
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) loadTracks() tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.catalog.ListTracks()
		return tracksLoadedMsg{tracks: tracks, err: err}
	}
}

// refreshChart fetches the current track chart and ingests it.
func (m *Model) refreshChart() tea.Cmd {
	return func() tea.Msg {
		payload, err := m.gateway.Request(m.ctx, services.TopTracks, refreshParams)
		if err != nil {
			return chartRefreshedMsg{err: err}
		}

		views, diags, err := m.engine.IngestTrackPayload(payload)
		if err != nil {
			return chartRefreshedMsg{err: err}
		}

		return chartRefreshedMsg{ingested: len(views), skipped: len(diags)}
	}
}

func (m *Model) renderTrackList() string {
	if !m.listReady {
		return styles.help.Render("Loading catalog...")
	}

	status := ""
	if m.refreshing {
		status = styles.warn.Render("Refreshing chart...")
	} else if m.notice != "" {
		status = styles.ok.Render(m.notice)
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if status != "" {
		return fmt.Sprintf("%s\n\n%s\n%s", m.trackList.View(), status, helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		m.view = TrackListView
		return ""
	}

	title := styles.title.Render(m.selected.Name)

	artist := "unknown"
	if m.selected.Artist != nil {
		artist = m.selected.Artist.Name
	}
	album := "unknown"
	if m.selected.Album != nil {
		album = m.selected.Album.Name
	}

	genres := "none"
	if len(m.selected.Genres) > 0 {
		names := make([]string, len(m.selected.Genres))
		for i, genre := range m.selected.Genres {
			names[i] = genre.Name
		}
		genres = strings.Join(names, ", ")
	}

	info := fmt.Sprintf("\nArtist: %s\nAlbum: %s\nGenres: %s\n", artist, album, genres)

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
