package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
	"github.com/urfave/cli/v3"
)

// songSheet is the TOML import format of one song.
//
//	title = "Alléluia"
//	key = "Ré mineur"
//	category = "acclamation"
//
//	[[parts]]
//	type = "chorus"
//	content = """..."""
type songSheet struct {
	Title    string              `toml:"title"`
	Key      string              `toml:"key"`
	Category string              `toml:"category"`
	AudioURL string              `toml:"audio_url"`
	VideoURL string              `toml:"video_url"`
	Duration int                 `toml:"duration"`
	Parts    []models.LyricsPart `toml:"parts"`
}

func readSongSheet(path string) (*songSheet, error) {
	var sheet songSheet
	md, err := toml.DecodeFile(path, &sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrInvalidInput, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys %s", shared.ErrInvalidInput, path, strings.Join(keys, ", "))
	}
	sheet.Parts = models.NormalizeParts(sheet.Parts)
	return &sheet, nil
}

// findCategory accepts either an ID or a slug.
func (s *store) findCategory(ctx context.Context, ref string) (*models.Category, error) {
	c, err := s.categories.Get(ctx, ref)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return s.categories.GetBySlug(ctx, ref)
}

// categoryID resolves a slug for a song, turning an unknown slug into invalid input.
func (s *store) categoryID(ctx context.Context, slug string) (string, error) {
	if slug == "" {
		return "", nil
	}
	c, err := s.categories.GetBySlug(ctx, slug)
	if errors.Is(err, shared.ErrNotFound) {
		return "", fmt.Errorf("%w: unknown category %q", shared.ErrInvalidInput, slug)
	}
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func firstArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.Args().First())
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// CategoryList prints categories in display order.
func (r *Runner) CategoryList(ctx context.Context, cmd *cli.Command) error {
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	categories, err := st.categories.List(ctx, nil)
	if err != nil {
		return err
	}

	return r.render(cmd, categories, func() error {
		if len(categories) == 0 {
			return r.writePlain("No categories yet. Add one with: cantus category add <name>\n")
		}
		for _, c := range categories {
			r.writePlain("%3d  %-24s %-24s %s\n", c.OrderIndex, c.Name, c.Slug, c.ID)
		}
		return nil
	})
}

// CategoryAdd creates a category from its name.
func (r *Runner) CategoryAdd(ctx context.Context, cmd *cli.Command) error {
	name, err := firstArg(cmd, "category name")
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}

	c := &models.Category{Name: name, Slug: cmd.String("slug"), OrderIndex: cmd.Int("order")}
	if err := st.categories.Create(ctx, c); err != nil {
		return err
	}
	r.logger.Info("category created", "slug", c.Slug)

	return r.render(cmd, c, func() error {
		return r.writePlain("✓ Created category %s (%s)\n", c.Name, c.Slug)
	})
}

// CategoryEdit changes the flags that were given.
func (r *Runner) CategoryEdit(ctx context.Context, cmd *cli.Command) error {
	ref, err := firstArg(cmd, "category id or slug")
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	c, err := st.findCategory(ctx, ref)
	if err != nil {
		return err
	}

	if cmd.IsSet("name") {
		c.Name = cmd.String("name")
	}
	if cmd.IsSet("slug") {
		c.Slug = cmd.String("slug")
	}
	if cmd.IsSet("order") {
		c.OrderIndex = cmd.Int("order")
	}
	if err := st.categories.Update(ctx, c); err != nil {
		return err
	}

	return r.render(cmd, c, func() error {
		return r.writePlain("✓ Updated category %s (%s)\n", c.Name, c.Slug)
	})
}

// CategoryDelete removes a category. Its songs keep existing without one.
func (r *Runner) CategoryDelete(ctx context.Context, cmd *cli.Command) error {
	ref, err := firstArg(cmd, "category id or slug")
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	c, err := st.findCategory(ctx, ref)
	if err != nil {
		return err
	}
	if err := st.categories.Delete(ctx, c.ID); err != nil {
		return err
	}
	r.logger.Info("category deleted", "slug", c.Slug)
	return r.writePlain("✓ Deleted category %s\n", c.Name)
}

// SongList prints songs, optionally filtered by category slug and title search.
func (r *Runner) SongList(ctx context.Context, cmd *cli.Command) error {
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	songs, err := st.songs.List(ctx, map[string]any{
		"category": cmd.String("category"),
		"query":    cmd.String("query"),
	})
	if err != nil {
		return err
	}

	return r.render(cmd, songs, func() error {
		if len(songs) == 0 {
			return r.writePlain("No songs found\n")
		}
		for _, s := range songs {
			category := "-"
			if s.Category != nil {
				category = s.Category.Name
			}
			r.writePlain("%-36s  %-32s %-18s %d part(s)\n", s.ID, s.Title, category, len(s.Parts()))
		}
		return nil
	})
}

// SongShow prints a song with each part's index, as used by mass add --parts.
func (r *Runner) SongShow(ctx context.Context, cmd *cli.Command) error {
	id, err := firstArg(cmd, "song id")
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	song, err := st.songs.Get(ctx, id)
	if err != nil {
		return err
	}

	return r.render(cmd, song, func() error {
		r.writePlainHeader(song.Title)
		if song.Key != "" {
			r.writePlain("Key: %s\n", song.Key)
		}
		if song.Category != nil {
			r.writePlain("Category: %s\n", song.Category.Name)
		}
		if song.AudioURL != "" {
			r.writePlain("Audio: %s\n", song.AudioURL)
		}
		if song.VideoURL != "" {
			r.writePlain("Video: %s\n", song.VideoURL)
		}
		for i, part := range song.Parts() {
			r.writePlain("\n[%d] %s\n", i, part.Title())
			for _, line := range part.Lines() {
				r.writePlain("    %s\n", line)
			}
		}
		return nil
	})
}

// SongImport creates one song per sheet. The first invalid sheet stops the import.
func (r *Runner) SongImport(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one song sheet", shared.ErrMissingArgument)
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}

	var imported []*models.Song
	for _, path := range paths {
		sheet, err := readSongSheet(path)
		if err != nil {
			return err
		}
		categoryID, err := st.categoryID(ctx, sheet.Category)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		song := &models.Song{
			Title:           strings.TrimSpace(sheet.Title),
			Key:             sheet.Key,
			AudioURL:        sheet.AudioURL,
			VideoURL:        sheet.VideoURL,
			Duration:        sheet.Duration,
			CategoryID:      categoryID,
			LyricsStructure: sheet.Parts,
		}
		if err := st.songs.Create(ctx, song); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		r.logger.Info("song imported", "title", song.Title, "file", path)
		imported = append(imported, song)
	}

	return r.render(cmd, imported, func() error {
		for _, s := range imported {
			r.writePlain("✓ Imported %s (%s, %d part(s))\n", s.Title, s.ID, len(s.Parts()))
		}
		return nil
	})
}

// SongUpdate changes the flags that were given. --file replaces the parts from a song sheet.
//
// Entries already selecting parts of this song keep their indices; the ones that fall out of range
// are reported by mass show.
func (r *Runner) SongUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := firstArg(cmd, "song id")
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	song, err := st.songs.Get(ctx, id)
	if err != nil {
		return err
	}

	for flag, dst := range map[string]*string{
		"title":     &song.Title,
		"key":       &song.Key,
		"audio-url": &song.AudioURL,
		"video-url": &song.VideoURL,
	} {
		if cmd.IsSet(flag) {
			*dst = strings.TrimSpace(cmd.String(flag))
		}
	}
	if cmd.IsSet("category") {
		if song.CategoryID, err = st.categoryID(ctx, cmd.String("category")); err != nil {
			return err
		}
	}
	if path := cmd.String("file"); path != "" {
		sheet, err := readSongSheet(path)
		if err != nil {
			return err
		}
		song.LyricsStructure = sheet.Parts
	}

	if err := st.songs.Update(ctx, song); err != nil {
		return err
	}
	updated, err := st.songs.Get(ctx, id)
	if err != nil {
		return err
	}

	return r.render(cmd, updated, func() error {
		return r.writePlain("✓ Updated %s\n", updated.Title)
	})
}

// SongDelete soft-deletes a song. Entries referencing it stay in their programs and are skipped on export.
func (r *Runner) SongDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := firstArg(cmd, "song id")
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	if err := st.songs.Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info("song deleted", "id", id)
	return r.writePlain("✓ Deleted song %s\n", id)
}
