package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/cantus/internal/formatter"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
)

var (
	_ list.Item = massItem{}
	_ list.Item = entryItem{}
)

// massItem wraps [models.Mass] to implement [list.Item].
type massItem struct {
	mass *models.Mass
}

func (i massItem) FilterValue() string { return i.mass.Name }
func (i massItem) Title() string       { return i.mass.Name }
func (i massItem) Description() string {
	return fmt.Sprintf("%s • %s", shared.FormatLongDate(i.mass.Date), shared.VisibilityString(i.mass.IsPublished))
}

// entryItem wraps a program entry with its display number.
type entryItem struct {
	entry  models.MassSong
	number int
}

func (i entryItem) FilterValue() string {
	if i.entry.Song == nil {
		return ""
	}
	return i.entry.Song.Title
}

func (i entryItem) Title() string {
	if i.entry.Song == nil {
		return fmt.Sprintf("%d. (chant supprimé)", i.number)
	}
	return fmt.Sprintf("%d. %s", i.number, i.entry.Song.Title)
}

func (i entryItem) Description() string {
	if i.entry.Song == nil {
		return ""
	}
	desc := formatter.Meta(i.entry.LiturgicalMoment, i.entry.Song.Key)
	parts := fmt.Sprintf("%d/%d parties", len(Parts(i.entry)), len(i.entry.Song.Parts()))
	if desc == "" {
		return parts
	}
	return fmt.Sprintf("%s • %s", desc, parts)
}
