package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cantus/internal/favorites"
	"github.com/desertthunder/cantus/internal/formatter"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/player"
	"github.com/desertthunder/cantus/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MassListView ViewState = iota
	EntryListView
	LyricsView
)

// MassLister lists masses. [repositories.MassRepository] satisfies it.
type MassLister interface {
	List(ctx context.Context, criteria map[string]any) ([]*models.Mass, error)
}

// ProgramLoader loads a mass with its entries. [programs.Service] satisfies it.
type ProgramLoader interface {
	Load(ctx context.Context, massID string) (*formatter.Program, error)
}

// Deps are the collaborators of the TUI. Favorites and UserID are optional; without them the heart is hidden.
type Deps struct {
	Masses    MassLister
	Programs  ProgramLoader
	Favorites favorites.Store
	UserID    string
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	deps      Deps
	width     int
	height    int
	massList  list.Model
	entryList list.Model
	lyrics    viewport.Model
	program   *formatter.Program
	queue     []models.MassSong
	entry     *models.MassSong
	session   *player.Session
	toggles   map[string]*favorites.Toggle
	status    string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	return &Model{
		ctx:       ctx,
		view:      MassListView,
		deps:      deps,
		massList:  list.New(nil, list.NewDefaultDelegate(), 0, 0),
		entryList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		lyrics:    viewport.New(0, 0),
		session:   player.NewSession(),
		toggles:   make(map[string]*favorites.Toggle),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init fetches the masses, most recent first.
func (m *Model) Init() tea.Cmd {
	return m.fetchMasses()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.massList.SetSize(m.listSize())
		m.entryList.SetSize(m.listSize())
		m.lyrics.Width, m.lyrics.Height = m.lyricsSize()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case MassListView:
			return m.handleMassListKeys(msg)
		case EntryListView:
			return m.handleEntryListKeys(msg)
		case LyricsView:
			return m.handleLyricsKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgMassesFetched:
		data := msg.data.(massesFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.masses))
		for i, mass := range data.masses {
			items[i] = massItem{mass: mass}
		}
		m.massList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.massList.Title = "Messes"
		m.massList.SetSize(m.listSize())

	case MsgProgramLoaded:
		data := msg.data.(programLoaded)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Erreur: %v", data.err))
			return m, nil
		}
		m.openProgram(data.program)

	case MsgFavoriteResolved:
		data := msg.data.(favoriteResolved)
		if data.err != nil {
			m.status = styles.warn.Render(fmt.Sprintf("Favori indisponible: %v", data.err))
		}

	case MsgFavoriteToggled:
		data := msg.data.(favoriteToggled)
		switch {
		case data.result.Err != nil:
			m.status = styles.err.Render(fmt.Sprintf("Favori non enregistré: %v", data.result.Err))
		case data.result.Current == favorites.Favorited:
			m.status = styles.ok.Render("Ajouté aux favoris")
		default:
			m.status = styles.ok.Render("Retiré des favoris")
		}
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Erreur: %v\n\nAppuyez sur q pour quitter", m.err))
	}

	switch m.view {
	case MassListView:
		return m.renderMassList()
	case EntryListView:
		return m.renderEntryList()
	case LyricsView:
		return m.renderLyrics()
	default:
		return ""
	}
}

// Parts returns the parts shown for an entry in the lyrics view: the selection in its stored order,
// skipping indices outside the song, or every part when nothing is selected.
func Parts(entry models.MassSong) []models.LyricsPart {
	if entry.Song == nil {
		return nil
	}
	all := entry.Song.Parts()
	if len(entry.SelectedParts) == 0 {
		return all
	}

	parts := make([]models.LyricsPart, 0, len(entry.SelectedParts))
	for _, idx := range entry.SelectedParts {
		if idx < 0 || idx >= len(all) {
			continue
		}
		parts = append(parts, all[idx])
	}
	return parts
}

// Heart renders a favorite state. Unknown renders nothing.
func Heart(s favorites.State) string {
	switch s {
	case favorites.Favorited:
		return styles.heart.Render("♥")
	case favorites.NotFavorited:
		return "♡"
	default:
		return ""
	}
}

func (m *Model) handleMassListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.massList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.massList, cmd = m.massList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.massList.SelectedItem().(massItem); ok {
			return m, m.loadProgram(item.mass.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.massList, cmd = m.massList.Update(msg)
	return m, cmd
}

func (m *Model) handleEntryListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.entryList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.entryList, cmd = m.entryList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = MassListView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.entryList.SelectedItem().(entryItem)
		if !ok {
			return m, nil
		}
		if item.entry.Song == nil {
			m.status = styles.warn.Render("Ce chant a été supprimé du répertoire")
			return m, nil
		}
		m.session.SetCurrent(item.entry.Song)
		return m, m.openEntry(item.entry)
	}

	var cmd tea.Cmd
	m.entryList, cmd = m.entryList.Update(msg)
	return m, cmd
}

func (m *Model) handleLyricsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = EntryListView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.follow(m.session.Next())
	case key.Matches(msg, m.keys.previous):
		return m, m.follow(m.session.Previous())
	case key.Matches(msg, m.keys.play):
		m.session.SetPlaying(!m.session.Playing())
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		return m, m.toggleFavorite()
	}

	var cmd tea.Cmd
	m.lyrics, cmd = m.lyrics.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case MassListView:
		m.massList, cmd = m.massList.Update(msg)
	case EntryListView:
		m.entryList, cmd = m.entryList.Update(msg)
	case LyricsView:
		m.lyrics, cmd = m.lyrics.Update(msg)
	}
	return m, cmd
}

// openProgram numbers the entries like the exports and queues their songs in program order.
func (m *Model) openProgram(p *formatter.Program) {
	m.program = p
	m.queue = m.queue[:0]

	entries := p.Sorted()
	items := make([]list.Item, len(entries))
	var songs []*models.Song
	for i, entry := range entries {
		items[i] = entryItem{entry: entry, number: i + 1}
		if entry.Song != nil {
			m.queue = append(m.queue, entry)
			songs = append(songs, entry.Song)
		}
	}

	m.session = player.NewSession(songs...)
	m.entryList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.entryList.Title = fmt.Sprintf("%s • %s", p.Mass.Name, shared.FormatLongDate(p.Mass.Date))
	m.entryList.SetSize(m.listSize())
	m.view = EntryListView
	m.status = ""
}

// openEntry shows the lyrics of entry and resolves its favorite state.
func (m *Model) openEntry(entry models.MassSong) tea.Cmd {
	m.entry = &entry
	m.lyrics.Width, m.lyrics.Height = m.lyricsSize()
	m.lyrics.SetContent(lyricsText(entry))
	m.lyrics.GotoTop()
	m.view = LyricsView
	m.status = ""
	return m.resolveFavorite(entry.SongID)
}

// follow opens the queued entry holding song, matching by identity so repeated songs stay distinct.
func (m *Model) follow(song *models.Song) tea.Cmd {
	if song == nil {
		return nil
	}
	for _, entry := range m.queue {
		if entry.Song == song {
			return m.openEntry(entry)
		}
	}
	return nil
}

// toggle returns the cached toggle of songID, or nil when favorites are disabled.
func (m *Model) toggle(songID string) *favorites.Toggle {
	if m.deps.Favorites == nil || m.deps.UserID == "" {
		return nil
	}
	t, ok := m.toggles[songID]
	if !ok {
		t = favorites.New(m.deps.Favorites, m.deps.UserID, songID)
		m.toggles[songID] = t
	}
	return t
}

func (m *Model) fetchMasses() tea.Cmd {
	return func() tea.Msg {
		masses, err := m.deps.Masses.List(m.ctx, map[string]any{"ascending": false})
		return massesFetchedMsg(masses, err)
	}
}

func (m *Model) loadProgram(massID string) tea.Cmd {
	return func() tea.Msg {
		p, err := m.deps.Programs.Load(m.ctx, massID)
		return programLoadedMsg(p, err)
	}
}

func (m *Model) resolveFavorite(songID string) tea.Cmd {
	t := m.toggle(songID)
	if t == nil {
		return nil
	}
	return func() tea.Msg {
		state, err := t.Resolve(m.ctx)
		return favoriteResolvedMsg(songID, state, err)
	}
}

func (m *Model) toggleFavorite() tea.Cmd {
	if m.entry == nil {
		return nil
	}
	songID := m.entry.SongID
	t := m.toggle(songID)
	if t == nil {
		m.status = styles.warn.Render("Connectez-vous pour gérer vos favoris")
		return nil
	}
	return func() tea.Msg {
		return favoriteToggledMsg(songID, t.Toggle(m.ctx))
	}
}

func (m *Model) listSize() (int, int) {
	return max(m.width-4, 0), max(m.height-8, 0)
}

func (m *Model) lyricsSize() (int, int) {
	return max(m.width-4, 0), max(m.height-10, 0)
}

func lyricsText(entry models.MassSong) string {
	var b strings.Builder
	for i, part := range Parts(entry) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styles.label.Render(part.Title()))
		b.WriteString("\n")
		for _, line := range part.Lines() {
			b.WriteString("  " + line + "\n")
		}
	}
	if b.Len() == 0 {
		return styles.help.Render("Pas de paroles pour ce chant")
	}
	return b.String()
}

func (m *Model) renderMassList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", m.massList.View(), m.status, helpView)
}

func (m *Model) renderEntryList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", m.entryList.View(), m.status, helpView)
}

func (m *Model) renderLyrics() string {
	entry := m.entry
	header := entry.Song.Title
	if t, ok := m.toggles[entry.SongID]; ok {
		if heart := Heart(t.State()); heart != "" {
			header = fmt.Sprintf("%s %s", header, heart)
		}
	}

	playing := "⏸ pause"
	if m.session.Playing() {
		playing = "▶ lecture"
	}
	meta := formatter.Meta(entry.LiturgicalMoment, entry.Song.Key)
	if meta != "" {
		meta += formatter.MetaSeparator
	}

	helpView := m.help.ShortHelpView(m.keys.lyricsHelp())
	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n%s",
		styles.title.Render(header),
		styles.help.Render(meta+playing),
		m.lyrics.View(),
		m.status,
		helpView,
	)
}
