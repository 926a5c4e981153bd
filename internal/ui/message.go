package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cantus/internal/favorites"
	"github.com/desertthunder/cantus/internal/formatter"
	"github.com/desertthunder/cantus/internal/models"
)

// MsgKind enumerates the message types of the rehearsal TUI.
type MsgKind int

// Msg is the message union handled by [Model.Update].
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgMassesFetched MsgKind = iota
	MsgProgramLoaded
	MsgFavoriteResolved
	MsgFavoriteToggled
)

type massesFetched struct {
	masses []*models.Mass
	err    error
}

type programLoaded struct {
	program *formatter.Program
	err     error
}

type favoriteResolved struct {
	songID string
	state  favorites.State
	err    error
}

type favoriteToggled struct {
	songID string
	result favorites.Result
}

// massesFetchedMsg is the constructor for [MsgMassesFetched]
func massesFetchedMsg(masses []*models.Mass, err error) Msg {
	return Msg{kind: MsgMassesFetched, data: massesFetched{masses, err}}
}

// programLoadedMsg is the constructor for [MsgProgramLoaded]
func programLoadedMsg(p *formatter.Program, err error) Msg {
	return Msg{kind: MsgProgramLoaded, data: programLoaded{p, err}}
}

// favoriteResolvedMsg is the constructor for [MsgFavoriteResolved]
func favoriteResolvedMsg(songID string, state favorites.State, err error) Msg {
	return Msg{kind: MsgFavoriteResolved, data: favoriteResolved{songID, state, err}}
}

// favoriteToggledMsg is the constructor for [MsgFavoriteToggled]
func favoriteToggledMsg(songID string, result favorites.Result) Msg {
	return Msg{kind: MsgFavoriteToggled, data: favoriteToggled{songID, result}}
}
