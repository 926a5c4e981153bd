package programs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/cantus/internal/formatter"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/repositories"
	"github.com/desertthunder/cantus/internal/shared"
	th "github.com/desertthunder/cantus/internal/testing"
	"github.com/google/go-cmp/cmp"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	svc   *Service
	db    *sql.DB
	mass  *models.Mass
	songs map[string]*models.Song
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := setupTestDB(t)

	cat := &models.Category{Name: "Entrée"}
	if err := repositories.NewCategoryRepository(db).Create(ctx, cat); err != nil {
		t.Fatalf("failed to create category: %v", err)
	}

	songs := map[string]*models.Song{}
	alleluia := th.Alleluia()
	alleluia.CategoryID = cat.ID
	for _, s := range []*models.Song{alleluia, {Title: "Kyrie", Lyrics: "Seigneur, prends pitié"}, {Title: "Silence"}} {
		if err := repositories.NewSongRepository(db).Create(ctx, s); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}
		songs[s.Title] = s
	}

	mass := &models.Mass{Name: "Messe du dimanche", Date: time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)}
	if err := repositories.NewMassRepository(db).Create(ctx, mass); err != nil {
		t.Fatalf("failed to create mass: %v", err)
	}

	return fixture{svc: NewService(db), db: db, mass: mass, songs: songs}
}

func TestAllParts(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{0, []int{}},
		{1, []int{0}},
		{4, []int{0, 1, 2, 3}},
		{-1, []int{}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, AllParts(tt.n)); diff != "" {
			t.Errorf("AllParts(%d) mismatch (-want +got):\n%s", tt.n, diff)
		}
	}
}

func TestTogglePart(t *testing.T) {
	tests := []struct {
		name string
		sel  []int
		idx  int
		want []int
	}{
		{"add to empty", nil, 2, []int{2}},
		{"add keeps ascending", []int{0, 3}, 1, []int{0, 1, 3}},
		{"remove", []int{0, 1, 2}, 1, []int{0, 2}},
		{"remove last", []int{1}, 1, []int{}},
		{"unsorted input is sorted", []int{2, 0}, 1, []int{0, 1, 2}},
		{"duplicates removed together", []int{1, 0, 1}, 1, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := append([]int(nil), tt.sel...)
			if diff := cmp.Diff(tt.want, TogglePart(tt.sel, tt.idx)); diff != "" {
				t.Errorf("TogglePart mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(before, tt.sel); diff != "" {
				t.Errorf("input was modified (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckSelection(t *testing.T) {
	p := formatter.Program{Mass: th.Sunday(), Entries: []models.MassSong{
		{ID: "ok", Position: 1, Song: th.Alleluia(), SelectedParts: []int{0, 1}},
		{ID: "stale", Position: 2, Song: th.Alleluia(), SelectedParts: []int{4, 0, 2}},
		{ID: "gone", Position: 3, SelectedParts: []int{0}},
	}}

	warnings := CheckSelection(p)
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %+v", len(warnings), warnings)
	}
	if warnings[0].EntryID != "stale" {
		t.Errorf("expected stale entry first, got %s", warnings[0].EntryID)
	}
	if diff := cmp.Diff([]int{4, 2}, warnings[0].Indices); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}
	if warnings[1].EntryID != "gone" {
		t.Errorf("expected missing song second, got %s", warnings[1].EntryID)
	}
}

func TestService(t *testing.T) {
	ctx := context.Background()

	t.Run("AddSong assigns positions 1, 2, 3", func(t *testing.T) {
		f := setup(t)

		var positions []int
		for _, title := range []string{"Alléluia", "Kyrie", "Alléluia"} {
			entry, err := f.svc.AddSong(ctx, f.mass.ID, f.songs[title].ID, AddOptions{})
			if err != nil {
				t.Fatalf("AddSong failed: %v", err)
			}
			positions = append(positions, entry.Position)
		}
		if diff := cmp.Diff([]int{1, 2, 3}, positions); diff != "" {
			t.Errorf("positions mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("AddSong defaults", func(t *testing.T) {
		f := setup(t)

		entry, err := f.svc.AddSong(ctx, f.mass.ID, f.songs["Alléluia"].ID, AddOptions{})
		if err != nil {
			t.Fatalf("AddSong failed: %v", err)
		}
		if diff := cmp.Diff([]int{0, 1}, entry.SelectedParts); diff != "" {
			t.Errorf("expected all parts preselected (-want +got):\n%s", diff)
		}
		if entry.LiturgicalMoment != "Entrée" {
			t.Errorf("expected moment from category, got %q", entry.LiturgicalMoment)
		}

		legacy, err := f.svc.AddSong(ctx, f.mass.ID, f.songs["Kyrie"].ID, AddOptions{Moment: "Kyrie"})
		if err != nil {
			t.Fatalf("AddSong failed: %v", err)
		}
		if diff := cmp.Diff([]int{0}, legacy.SelectedParts); diff != "" {
			t.Errorf("legacy lyrics count as one part (-want +got):\n%s", diff)
		}

		empty, err := f.svc.AddSong(ctx, f.mass.ID, f.songs["Silence"].ID, AddOptions{})
		if err != nil {
			t.Fatalf("AddSong failed: %v", err)
		}
		if empty.SelectedParts != nil {
			t.Errorf("song without parts should store no selection, got %v", empty.SelectedParts)
		}
	})

	t.Run("AddSong explicit parts", func(t *testing.T) {
		f := setup(t)

		entry, err := f.svc.AddSong(ctx, f.mass.ID, f.songs["Alléluia"].ID, AddOptions{Parts: []int{1, 0}})
		if err != nil {
			t.Fatalf("AddSong failed: %v", err)
		}
		if diff := cmp.Diff([]int{1, 0}, entry.SelectedParts); diff != "" {
			t.Errorf("explicit order must be kept (-want +got):\n%s", diff)
		}

		if _, err := f.svc.AddSong(ctx, f.mass.ID, f.songs["Alléluia"].ID, AddOptions{Parts: []int{2}}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for out of range part, got %v", err)
		}
	})

	t.Run("AddSong missing references", func(t *testing.T) {
		f := setup(t)

		if _, err := f.svc.AddSong(ctx, "missing", f.songs["Kyrie"].ID, AddOptions{}); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for mass, got %v", err)
		}
		if _, err := f.svc.AddSong(ctx, f.mass.ID, "missing", AddOptions{}); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for song, got %v", err)
		}
	})

	t.Run("Load sorts and RemoveEntry leaves gaps", func(t *testing.T) {
		f := setup(t)

		var ids []string
		for _, title := range []string{"Alléluia", "Kyrie", "Silence"} {
			entry, err := f.svc.AddSong(ctx, f.mass.ID, f.songs[title].ID, AddOptions{})
			if err != nil {
				t.Fatalf("AddSong failed: %v", err)
			}
			ids = append(ids, entry.ID)
		}

		if err := f.svc.RemoveEntry(ctx, f.mass.ID, ids[1]); err != nil {
			t.Fatalf("RemoveEntry failed: %v", err)
		}

		p, err := f.svc.Load(ctx, f.mass.ID)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		var positions []int
		for _, e := range p.Entries {
			positions = append(positions, e.Position)
		}
		if diff := cmp.Diff([]int{1, 3}, positions); diff != "" {
			t.Errorf("positions mismatch (-want +got):\n%s", diff)
		}

		next, err := f.svc.AddSong(ctx, f.mass.ID, f.songs["Kyrie"].ID, AddOptions{})
		if err != nil {
			t.Fatalf("AddSong failed: %v", err)
		}
		if next.Position != 3 {
			t.Errorf("count+1 after a delete should give 3, got %d", next.Position)
		}
	})

	t.Run("RemoveEntry of another mass", func(t *testing.T) {
		f := setup(t)
		entry, err := f.svc.AddSong(ctx, f.mass.ID, f.songs["Kyrie"].ID, AddOptions{})
		if err != nil {
			t.Fatalf("AddSong failed: %v", err)
		}
		if err := f.svc.RemoveEntry(ctx, "other", entry.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("TogglePart persists a sorted selection", func(t *testing.T) {
		f := setup(t)
		entry, err := f.svc.AddSong(ctx, f.mass.ID, f.songs["Alléluia"].ID, AddOptions{Parts: []int{1}})
		if err != nil {
			t.Fatalf("AddSong failed: %v", err)
		}

		updated, err := f.svc.TogglePart(ctx, f.mass.ID, entry.ID, 0)
		if err != nil {
			t.Fatalf("TogglePart failed: %v", err)
		}
		if diff := cmp.Diff([]int{0, 1}, updated.SelectedParts); diff != "" {
			t.Errorf("selection mismatch (-want +got):\n%s", diff)
		}

		for _, idx := range []int{0, 1} {
			if updated, err = f.svc.TogglePart(ctx, f.mass.ID, entry.ID, idx); err != nil {
				t.Fatalf("TogglePart failed: %v", err)
			}
		}
		if updated.SelectedParts != nil {
			t.Errorf("expected empty selection, got %v", updated.SelectedParts)
		}

		p, err := f.svc.Load(ctx, f.mass.ID)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if p.Entries[0].SelectedParts != nil {
			t.Errorf("expected NULL selection after load, got %v", p.Entries[0].SelectedParts)
		}
	})

	t.Run("TogglePart rejects new out of range indices", func(t *testing.T) {
		f := setup(t)
		entry, err := f.svc.AddSong(ctx, f.mass.ID, f.songs["Alléluia"].ID, AddOptions{})
		if err != nil {
			t.Fatalf("AddSong failed: %v", err)
		}
		for _, idx := range []int{-1, 2} {
			if _, err := f.svc.TogglePart(ctx, f.mass.ID, entry.ID, idx); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("TogglePart(%d): expected ErrInvalidInput, got %v", idx, err)
			}
		}
	})

	t.Run("stale selection is reported and can be toggled off", func(t *testing.T) {
		f := setup(t)
		song := f.songs["Alléluia"]
		entry, err := f.svc.AddSong(ctx, f.mass.ID, song.ID, AddOptions{})
		if err != nil {
			t.Fatalf("AddSong failed: %v", err)
		}

		song.LyricsStructure = song.LyricsStructure[:1]
		if err := repositories.NewSongRepository(f.db).Update(ctx, song); err != nil {
			t.Fatalf("failed to shrink song: %v", err)
		}

		p, err := f.svc.Load(ctx, f.mass.ID)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		warnings := CheckSelection(*p)
		if len(warnings) != 1 || warnings[0].Indices[0] != 1 {
			t.Fatalf("expected one stale index 1, got %+v", warnings)
		}

		updated, err := f.svc.TogglePart(ctx, f.mass.ID, entry.ID, 1)
		if err != nil {
			t.Fatalf("toggling a stale index off failed: %v", err)
		}
		if diff := cmp.Diff([]int{0}, updated.SelectedParts); diff != "" {
			t.Errorf("selection mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("SetMoment", func(t *testing.T) {
		f := setup(t)
		entry, err := f.svc.AddSong(ctx, f.mass.ID, f.songs["Kyrie"].ID, AddOptions{})
		if err != nil {
			t.Fatalf("AddSong failed: %v", err)
		}
		if err := f.svc.SetMoment(ctx, f.mass.ID, entry.ID, "Pénitence"); err != nil {
			t.Fatalf("SetMoment failed: %v", err)
		}
		p, _ := f.svc.Load(ctx, f.mass.ID)
		if p.Entries[0].LiturgicalMoment != "Pénitence" {
			t.Errorf("expected Pénitence, got %q", p.Entries[0].LiturgicalMoment)
		}
	})
}
