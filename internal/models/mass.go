package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/cantus/internal/shared"
)

// Mass is a dated celebration whose program is a list of [MassSong] entries.
type Mass struct {
	ID          string     `json:"id"`
	Sequence    int        `json:"-"`
	Name        string     `json:"name"`
	Date        time.Time  `json:"-"`
	IsPublished bool       `json:"is_published"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// DateString is the ISO calendar date used on the wire, in filenames and in storage.
func (m *Mass) DateString() string {
	return m.Date.Format(shared.DateLayout)
}

// MarshalJSON writes the date as YYYY-MM-DD.
func (m Mass) MarshalJSON() ([]byte, error) {
	type alias Mass
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(m), m.DateString()})
}

// Validate checks the mass has a name and a date.
func (m *Mass) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: mass name is required", shared.ErrInvalidInput)
	}
	if m.Date.IsZero() {
		return fmt.Errorf("%w: mass date is required", shared.ErrInvalidInput)
	}
	return nil
}

// MassSong is one program entry.
//
// Position is assigned count+1 at insert and never renumbered, so gaps are expected after deletes.
// SelectedParts holds indices into the song's parts in the order chosen by the user; nil means none.
type MassSong struct {
	ID               string    `json:"id"`
	MassID           string    `json:"mass_id"`
	SongID           string    `json:"song_id"`
	Position         int       `json:"position"`
	LiturgicalMoment string    `json:"liturgical_moment,omitempty"`
	SelectedParts    []int     `json:"selected_parts"`
	CreatedAt        time.Time `json:"created_at"`

	Song *Song `json:"song,omitempty"`
}

// Validate checks the entry references.
func (e *MassSong) Validate() error {
	if e.MassID == "" || e.SongID == "" {
		return fmt.Errorf("%w: entry needs a mass and a song", shared.ErrInvalidInput)
	}
	for _, idx := range e.SelectedParts {
		if idx < 0 {
			return fmt.Errorf("%w: part index %d is negative", shared.ErrInvalidInput, idx)
		}
	}
	return nil
}

// StaleParts returns the selected indices that no longer point at a part of the joined song.
func (e *MassSong) StaleParts() []int {
	if e.Song == nil {
		return nil
	}
	n := len(e.Song.Parts())
	var stale []int
	for _, idx := range e.SelectedParts {
		if idx < 0 || idx >= n {
			stale = append(stale, idx)
		}
	}
	return stale
}
