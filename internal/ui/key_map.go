package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the rehearsal TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	next     key.Binding
	previous key.Binding
	play     key.Binding
	favorite key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "haut")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "bas")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ouvrir")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "retour")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "suivant")),
		previous: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "précédent")),
		play:     key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "lecture/pause")),
		favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favori")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quitter")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.back, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.next, k.previous, k.play, k.favorite},
		{k.quit},
	}
}

// lyricsHelp lists the bindings active in the lyrics view.
func (k keyMap) lyricsHelp() []key.Binding {
	return []key.Binding{k.next, k.previous, k.play, k.favorite, k.back, k.quit}
}
