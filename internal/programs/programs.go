// Package programs edits mass programs: loading a mass with its entries, adding songs and choosing which
// parts of each song are sung.
//
// Positions are assigned count+1 by [repositories.MassSongRepository.Append] and never renumbered, so
// consumers sort by position and never assume positions are contiguous. Selected part indices may drift
// out of range when a song is edited after being added; they are reported by [CheckSelection] and skipped
// by the renderers.
package programs

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/desertthunder/cantus/internal/formatter"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/repositories"
	"github.com/desertthunder/cantus/internal/shared"
)

// AllParts selects every part of a song with n parts, in song order.
func AllParts(n int) []int {
	parts := make([]int, 0, max(n, 0))
	for i := range n {
		parts = append(parts, i)
	}
	return parts
}

// TogglePart removes idx from sel when present, otherwise adds it. The result is sorted ascending.
//
// sel is not modified.
func TogglePart(sel []int, idx int) []int {
	out := make([]int, 0, len(sel)+1)
	found := false
	for _, v := range sel {
		if v == idx {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}

// Warning reports read-time drift in a program entry.
type Warning struct {
	EntryID  string `json:"entry_id"`
	Position int    `json:"position"`
	Song     string `json:"song,omitempty"`
	Message  string `json:"message"`
	Indices  []int  `json:"indices,omitempty"`
}

// CheckSelection lists entries whose song is gone and entries selecting parts that no longer exist.
func CheckSelection(p formatter.Program) []Warning {
	var warnings []Warning
	for _, e := range p.Sorted() {
		if e.Song == nil {
			warnings = append(warnings, Warning{
				EntryID:  e.ID,
				Position: e.Position,
				Message:  "song no longer exists, entry is skipped",
			})
			continue
		}
		if stale := e.StaleParts(); len(stale) > 0 {
			warnings = append(warnings, Warning{
				EntryID:  e.ID,
				Position: e.Position,
				Song:     e.Song.Title,
				Message:  fmt.Sprintf("%d selected part(s) out of range, skipped", len(stale)),
				Indices:  stale,
			})
		}
	}
	return warnings
}

// AddOptions customizes [Service.AddSong].
type AddOptions struct {
	// Moment defaults to the name of the song's category.
	Moment string
	// Parts defaults to every part of the song when nil. An empty non-nil slice selects nothing.
	Parts []int
}

// Service edits programs on top of the repositories.
type Service struct {
	masses  *repositories.MassRepository
	entries *repositories.MassSongRepository
	songs   *repositories.SongRepository
}

// NewService creates a Service backed by db.
func NewService(db *sql.DB) *Service {
	return &Service{
		masses:  repositories.NewMassRepository(db),
		entries: repositories.NewMassSongRepository(db),
		songs:   repositories.NewSongRepository(db),
	}
}

// Load returns the mass with its entries sorted by position.
func (s *Service) Load(ctx context.Context, massID string) (*formatter.Program, error) {
	mass, err := s.masses.Get(ctx, massID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByMass(ctx, massID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program of %s: %w", mass.Name, err)
	}

	p := &formatter.Program{Mass: *mass, Entries: make([]models.MassSong, 0, len(entries))}
	for _, e := range entries {
		p.Entries = append(p.Entries, *e)
	}
	p.Entries = p.Sorted()
	return p, nil
}

// AddSong appends songID to the program of massID at position count+1.
func (s *Service) AddSong(ctx context.Context, massID, songID string, opts AddOptions) (*models.MassSong, error) {
	if _, err := s.masses.Get(ctx, massID); err != nil {
		return nil, err
	}

	song, err := s.songs.Get(ctx, songID)
	if err != nil {
		return nil, err
	}

	parts := opts.Parts
	if parts == nil {
		parts = AllParts(len(song.Parts()))
	}
	if err := checkIndices(song, parts); err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		parts = nil
	}

	moment := opts.Moment
	if moment == "" && song.Category != nil {
		moment = song.Category.Name
	}

	entry := &models.MassSong{
		MassID:           massID,
		SongID:           songID,
		LiturgicalMoment: moment,
		SelectedParts:    parts,
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		return nil, err
	}
	entry.Song = song
	return entry, nil
}

// RemoveEntry deletes an entry of massID. Remaining positions are left as they are.
func (s *Service) RemoveEntry(ctx context.Context, massID, entryID string) error {
	entry, err := s.entries.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.MassID != massID {
		return fmt.Errorf("%w: entry %s in mass %s", shared.ErrNotFound, entryID, massID)
	}
	return s.entries.Delete(ctx, entryID)
}

// TogglePart flips part idx of an entry's selection and returns the updated entry.
func (s *Service) TogglePart(ctx context.Context, massID, entryID string, idx int) (*models.MassSong, error) {
	entry, err := s.entries.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.MassID != massID {
		return nil, fmt.Errorf("%w: entry %s in mass %s", shared.ErrNotFound, entryID, massID)
	}

	if idx < 0 {
		return nil, fmt.Errorf("%w: part index %d is negative", shared.ErrInvalidInput, idx)
	}
	// Stale indices can always be toggled off.
	if !slices.Contains(entry.SelectedParts, idx) && entry.Song != nil {
		if err := checkIndices(entry.Song, []int{idx}); err != nil {
			return nil, err
		}
	}

	next := TogglePart(entry.SelectedParts, idx)
	if err := s.entries.UpdateSelection(ctx, entryID, next); err != nil {
		return nil, err
	}
	entry.SelectedParts = next
	if len(next) == 0 {
		entry.SelectedParts = nil
	}
	return entry, nil
}

// SetMoment changes the liturgical moment label of an entry.
func (s *Service) SetMoment(ctx context.Context, massID, entryID, moment string) error {
	entry, err := s.entries.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.MassID != massID {
		return fmt.Errorf("%w: entry %s in mass %s", shared.ErrNotFound, entryID, massID)
	}
	return s.entries.UpdateMoment(ctx, entryID, moment)
}

// checkIndices rejects new selections that point outside the song.
func checkIndices(song *models.Song, parts []int) error {
	n := len(song.Parts())
	for _, idx := range parts {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: song %q has %d part(s), index %d is out of range", shared.ErrInvalidInput, song.Title, n, idx)
		}
	}
	return nil
}
