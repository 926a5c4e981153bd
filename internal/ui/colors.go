package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Liturgical violet for titles, gold for part labels.
var styles = NewPalette("#6D28D9", "#B8860B", "#15803D", "#DC2626", "#D97706", "#6B7280")

// Palette is a small stylesheet of named [lipgloss.Style] fields.
type Palette struct {
	title lipgloss.Style
	label lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	heart lipgloss.Style
}

func NewPalette(title, label, ok, err, warn, help string) *Palette {
	return &Palette{
		title: NewBold(title).MarginBottom(1),
		label: NewBold(label),
		ok:    NewBold(ok),
		err:   NewBold(err),
		warn:  NewStyle(warn),
		help:  NewEm(help),
		heart: NewBold(err),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
