package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cantus/internal/formatter"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/programs"
	"github.com/desertthunder/cantus/internal/shared"
	"github.com/desertthunder/cantus/internal/tasks"
	"github.com/dustin/go-humanize"
	"github.com/goodsign/monday"
	"github.com/urfave/cli/v3"
)

// showResponse is the JSON shape of mass show.
type showResponse struct {
	Mass     models.Mass        `json:"mass"`
	Entries  []models.MassSong  `json:"entries"`
	Warnings []programs.Warning `json:"warnings"`
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// parseParts reads --parts. Empty or "all" selects every part, "none" selects nothing.
func parseParts(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "all":
		return nil, nil
	case "none":
		return []int{}, nil
	}

	fields := strings.Split(s, ",")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		idx, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("%w: part index %q is not a number", shared.ErrInvalidArgument, f)
		}
		parts = append(parts, idx)
	}
	return parts, nil
}

// dateRange reads --from and --to into list criteria.
func dateRange(cmd *cli.Command, criteria map[string]any) error {
	for _, name := range []string{"from", "to"} {
		v := cmd.String(name)
		if v == "" {
			continue
		}
		d, err := shared.ParseDate(v)
		if err != nil {
			return err
		}
		criteria[name] = d
	}
	return nil
}

func (r *Runner) writeMassLine(m *models.Mass) {
	r.writePlain("%s  %-34s %-9s %s\n", m.DateString(), m.Name, shared.VisibilityString(m.IsPublished), m.ID)
}

// MassList prints masses, most recent first.
func (r *Runner) MassList(ctx context.Context, cmd *cli.Command) error {
	criteria := map[string]any{"published": cmd.Bool("published")}
	if err := dateRange(cmd, criteria); err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	masses, err := st.masses.List(ctx, criteria)
	if err != nil {
		return err
	}

	return r.render(cmd, masses, func() error {
		if len(masses) == 0 {
			return r.writePlain("No masses found\n")
		}
		for _, m := range masses {
			r.writeMassLine(m)
		}
		return nil
	})
}

// MassNext prints the first mass dated today or later.
func (r *Runner) MassNext(ctx context.Context, cmd *cli.Command) error {
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	mass, err := st.masses.Next(ctx, today(), cmd.Bool("published"))
	if errors.Is(err, shared.ErrNotFound) {
		return r.render(cmd, nil, func() error {
			return r.writePlain("No upcoming mass\n")
		})
	}
	if err != nil {
		return err
	}

	return r.render(cmd, mass, func() error {
		r.writePlain("%s, %s (%s)\n", mass.Name, shared.FormatLongDate(mass.Date), shared.VisibilityString(mass.IsPublished))
		r.writePlain("ID: %s\n", mass.ID)
		return nil
	})
}

// calendarMonth groups the masses of one month.
type calendarMonth struct {
	Month  string         `json:"month"`
	Masses []*models.Mass `json:"masses"`
}

// MassCalendar groups upcoming masses by month, with French month names.
func (r *Runner) MassCalendar(ctx context.Context, cmd *cli.Command) error {
	months := cmd.Int("months")
	if months <= 0 {
		return fmt.Errorf("%w: --months must be positive", shared.ErrInvalidArgument)
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}

	from := today()
	masses, err := st.masses.List(ctx, map[string]any{
		"from":      from,
		"to":        from.AddDate(0, months, 0),
		"ascending": true,
	})
	if err != nil {
		return err
	}

	var calendar []calendarMonth
	for _, m := range masses {
		label := monday.Format(m.Date, "January 2006", monday.LocaleFrFR)
		if n := len(calendar); n == 0 || calendar[n-1].Month != label {
			calendar = append(calendar, calendarMonth{Month: label})
		}
		last := &calendar[len(calendar)-1]
		last.Masses = append(last.Masses, m)
	}

	return r.render(cmd, calendar, func() error {
		if len(calendar) == 0 {
			return r.writePlain("No masses planned in the next %d month(s)\n", months)
		}
		for i, month := range calendar {
			if i > 0 {
				r.writePlain("\n")
			}
			r.writePlain("%s\n", month.Month)
			for _, m := range month.Masses {
				r.writePlain("  %-26s %s (%s)\n", shared.FormatLongDate(m.Date), m.Name, shared.VisibilityString(m.IsPublished))
			}
		}
		return nil
	})
}

// MassCreate creates an unpublished mass.
func (r *Runner) MassCreate(ctx context.Context, cmd *cli.Command) error {
	date, err := shared.ParseDate(cmd.String("date"))
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}

	mass := &models.Mass{Name: strings.TrimSpace(cmd.String("name")), Date: date}
	if email := cmd.String("email"); email != "" {
		p, err := st.profiles.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		mass.CreatedBy = p.ID
	}
	if err := st.masses.Create(ctx, mass); err != nil {
		return err
	}
	r.logger.Info("mass created", "name", mass.Name, "date", mass.DateString())

	return r.render(cmd, mass, func() error {
		return r.writePlain("✓ Created %s on %s (%s)\n", mass.Name, shared.FormatLongDate(mass.Date), mass.ID)
	})
}

// MassShow prints the program in position order with its selection warnings.
func (r *Runner) MassShow(ctx context.Context, cmd *cli.Command) error {
	id, err := firstArg(cmd, "mass id")
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	p, err := st.programs.Load(ctx, id)
	if err != nil {
		return err
	}
	warnings := programs.CheckSelection(*p)
	entries := p.Sorted()

	resp := showResponse{Mass: p.Mass, Entries: entries, Warnings: warnings}
	if resp.Entries == nil {
		resp.Entries = []models.MassSong{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []programs.Warning{}
	}

	return r.render(cmd, resp, func() error {
		r.writePlainHeader(p.Mass.Name)
		r.writePlain("%s (%s)\n", shared.FormatLongDate(p.Mass.Date), shared.VisibilityString(p.Mass.IsPublished))

		if len(entries) == 0 {
			r.writePlainln("No songs yet. Add one with: cantus mass add --mass %s --song <id>", p.Mass.ID)
		}
		for i, e := range entries {
			if e.Song == nil {
				r.writePlain("\n%d. (deleted song)  [%s]\n", i+1, e.ID)
				continue
			}
			r.writePlain("\n%d. %s  [%s]\n", i+1, e.Song.Title, e.ID)
			if meta := formatter.Meta(e.LiturgicalMoment, e.Song.Key); meta != "" {
				r.writePlain("   %s\n", meta)
			}
			r.writePlain("   %s\n", selectionSummary(e))
		}

		if len(warnings) > 0 {
			r.writePlainln("Warnings:")
			for _, w := range warnings {
				r.writePlain("  - position %d: %s\n", w.Position, w.Message)
			}
		}
		return nil
	})
}

// selectionSummary lists the selected part titles, in selection order.
func selectionSummary(e models.MassSong) string {
	if len(e.SelectedParts) == 0 {
		return "parts: none"
	}
	parts := e.Song.Parts()
	titles := make([]string, 0, len(e.SelectedParts))
	for _, idx := range e.SelectedParts {
		if idx < 0 || idx >= len(parts) {
			titles = append(titles, fmt.Sprintf("#%d (missing)", idx))
			continue
		}
		titles = append(titles, fmt.Sprintf("%s [%d]", parts[idx].Title(), idx))
	}
	return "parts: " + strings.Join(titles, ", ")
}

// MassAdd appends a song to a program.
func (r *Runner) MassAdd(ctx context.Context, cmd *cli.Command) error {
	parts, err := parseParts(cmd.String("parts"))
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}

	entry, err := st.programs.AddSong(ctx, cmd.String("mass"), cmd.String("song"), programs.AddOptions{
		Moment: cmd.String("moment"),
		Parts:  parts,
	})
	if err != nil {
		return err
	}

	return r.render(cmd, entry, func() error {
		return r.writePlain("✓ Added entry %s at position %d\n", entry.ID, entry.Position)
	})
}

// MassRemove deletes one entry. Remaining positions are not renumbered.
func (r *Runner) MassRemove(ctx context.Context, cmd *cli.Command) error {
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	if err := st.programs.RemoveEntry(ctx, cmd.String("mass"), cmd.String("entry")); err != nil {
		return err
	}
	return r.writePlain("✓ Removed entry %s\n", cmd.String("entry"))
}

// MassTogglePart selects or deselects one part of an entry.
func (r *Runner) MassTogglePart(ctx context.Context, cmd *cli.Command) error {
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	entry, err := st.programs.TogglePart(ctx, cmd.String("mass"), cmd.String("entry"), cmd.Int("index"))
	if err != nil {
		return err
	}

	return r.render(cmd, entry, func() error {
		return r.writePlain("✓ Selection is now %v\n", entry.SelectedParts)
	})
}

// MassPublish flips the publication flag.
func (r *Runner) MassPublish(ctx context.Context, cmd *cli.Command) error {
	id, err := firstArg(cmd, "mass id")
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}

	published := !cmd.Bool("unpublish")
	if err := st.masses.SetPublished(ctx, id, published); err != nil {
		return err
	}
	r.logger.Info("publication changed", "mass", id, "published", published)
	return r.writePlain("✓ Mass %s is now %s\n", id, shared.VisibilityString(published))
}

// MassDelete soft-deletes a mass.
func (r *Runner) MassDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := firstArg(cmd, "mass id")
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	if err := st.masses.Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info("mass deleted", "mass", id)
	return r.writePlain("✓ Deleted mass %s\n", id)
}

// MassExport renders one program to a file.
func (r *Runner) MassExport(ctx context.Context, cmd *cli.Command) error {
	id, err := firstArg(cmd, "mass id")
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	p, err := st.programs.Load(ctx, id)
	if err != nil {
		return err
	}

	for _, w := range programs.CheckSelection(*p) {
		r.logger.Warn("program warning", "position", w.Position, "reason", w.Message)
	}

	dir := cmd.String("output")
	if dir == "" {
		dir = r.config.Export.OutputDir
	}
	res, err := formatter.WriteExport(*p, format, dir)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrExportFailed, err)
	}

	if err := r.writePlain("✓ Wrote %s (%s)\n", res.Path, humanize.Bytes(uint64(res.Size))); err != nil {
		return err
	}
	if cmd.Bool("open") {
		if err := r.open(res.Path); err != nil {
			r.logger.Warn("failed to open export", "path", res.Path, "error", err)
		}
	}
	return nil
}

// MassExportAll exports every matching mass through the bulk export engine.
func (r *Runner) MassExportAll(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	criteria := map[string]any{"published": cmd.Bool("published"), "ascending": true}
	if err := dateRange(cmd, criteria); err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}

	masses, err := st.masses.List(ctx, criteria)
	if err != nil {
		return err
	}
	if len(masses) == 0 {
		return r.writePlain("No masses to export\n")
	}
	ids := make([]string, len(masses))
	for i, m := range masses {
		ids[i] = m.ID
	}

	workers := cmd.Int("workers")
	if workers == 0 {
		workers = r.config.Export.Workers
	}

	r.writePlain("Exporting %d mass(es) as %s...\n\n", len(ids), format)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.LoadProgram:
				if update.Step == 0 {
					r.writePlain("📥 %s\n", update.Message)
				}
			case tasks.ExportProgram:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	engine := tasks.NewExportEngine(st.programs, shared.WithLogger(r.logger, "component", "export"))
	result, err := engine.BulkExport(ctx, progressCh, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: workers,
		RateLimit:  r.config.Export.RateLimit,
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Succeeded: %d/%d\n", result.Succeeded, result.Total)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	if result.Cancelled {
		r.writePlain("Cancelled before every mass was exported\n")
	}
	if result.Failed > 0 {
		r.writePlain("\nFailed to export %d mass(es):\n", result.Failed)
		for _, res := range result.Results {
			if res.Success {
				continue
			}
			name := res.MassName
			if name == "" {
				name = res.MassID
			}
			r.writePlain("  - %s: %v\n", name, res.Error)
		}
		return fmt.Errorf("%w: %d of %d masses failed", shared.ErrExportFailed, result.Failed, result.Total)
	}
	return nil
}
