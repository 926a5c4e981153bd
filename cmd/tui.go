package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cantus/internal/shared"
	"github.com/desertthunder/cantus/internal/ui"
	"github.com/urfave/cli/v3"
)

// Rehearsal launches the terminal rehearsal UI. With --email the f key manages that member's favorites.
func (r *Runner) Rehearsal(ctx context.Context, cmd *cli.Command) error {
	st, err := r.store(ctx)
	if err != nil {
		return err
	}

	deps := ui.Deps{Masses: st.masses, Programs: st.programs}
	if email := cmd.String("email"); email != "" {
		member, err := st.profiles.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		deps.Favorites = st.favorites
		deps.UserID = member.ID
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	p := tea.NewProgram(ui.NewModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
