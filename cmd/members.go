package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/cantus/internal/favorites"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
	"github.com/desertthunder/cantus/internal/ui"
	"github.com/urfave/cli/v3"
)

// FavoriteToggle flips a favorite for the member with --email.
func (r *Runner) FavoriteToggle(ctx context.Context, cmd *cli.Command) error {
	songID, err := firstArg(cmd, "song id")
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	member, err := st.profiles.GetByEmail(ctx, cmd.String("email"))
	if err != nil {
		return err
	}
	song, err := st.songs.Get(ctx, songID)
	if err != nil {
		return err
	}

	res := favorites.New(st.favorites, member.ID, song.ID).Toggle(ctx)
	if res.Err != nil {
		return res.Err
	}
	return r.writePlain("%s %s\n", ui.Heart(res.Current), song.Title)
}

// FavoriteList prints the favorite songs of the member with --email.
func (r *Runner) FavoriteList(ctx context.Context, cmd *cli.Command) error {
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	member, err := st.profiles.GetByEmail(ctx, cmd.String("email"))
	if err != nil {
		return err
	}
	songs, err := st.favorites.ListSongs(ctx, member.ID)
	if err != nil {
		return err
	}

	return r.render(cmd, songs, func() error {
		if len(songs) == 0 {
			return r.writePlain("No favorites for %s\n", member.DisplayName())
		}
		for _, s := range songs {
			r.writePlain("♥ %-32s %s\n", s.Title, s.ID)
		}
		return nil
	})
}

// MemberList prints every profile with its role.
func (r *Runner) MemberList(ctx context.Context, cmd *cli.Command) error {
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	profiles, err := st.profiles.List(ctx)
	if err != nil {
		return err
	}

	return r.render(cmd, profiles, func() error {
		if len(profiles) == 0 {
			return r.writePlain("No members yet. Members appear after their first sign-in.\n")
		}
		for _, p := range profiles {
			r.writePlain("%-10s %-32s %s\n", p.Role, p.Email, p.FullName)
		}
		return nil
	})
}

// MemberRole changes the role of the member with --email.
func (r *Runner) MemberRole(ctx context.Context, cmd *cli.Command) error {
	role, err := models.ParseRole(cmd.String("role"))
	if err != nil {
		return err
	}
	st, err := r.store(ctx)
	if err != nil {
		return err
	}
	member, err := st.profiles.GetByEmail(ctx, cmd.String("email"))
	if err != nil {
		return err
	}
	if err := st.profiles.UpdateRole(ctx, member.ID, role); err != nil {
		return err
	}
	r.logger.Info("role changed", "member", member.Email, "from", member.Role, "to", role)
	return r.writePlain("✓ %s is now %s\n", member.Email, role)
}

// AdminCreate grants the admin role by email after loading the dotenv file.
//
// An existing profile is promoted. A new one needs the identity provider subject, since profiles
// share their ID with the sign-in identity.
func (r *Runner) AdminCreate(ctx context.Context, cmd *cli.Command) error {
	shared.LoadEnv(cmd.String("env-file"))
	shared.ApplyEnv(r.config)

	email := strings.TrimSpace(cmd.String("email"))
	if email == "" {
		email = os.Getenv("CANTUS_ADMIN_EMAIL")
	}
	subject := strings.TrimSpace(cmd.String("subject"))
	if subject == "" {
		subject = os.Getenv("CANTUS_ADMIN_SUBJECT")
	}
	if email == "" {
		return fmt.Errorf("%w: --email or CANTUS_ADMIN_EMAIL", shared.ErrMissingArgument)
	}

	st, err := r.store(ctx)
	if err != nil {
		return err
	}

	existing, err := st.profiles.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := st.profiles.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		r.logger.Info("admin promoted", "email", existing.Email)
		return r.writePlain("✓ %s is now admin\n", existing.Email)
	case !errors.Is(err, shared.ErrNotFound):
		return err
	case subject == "":
		return fmt.Errorf("%w: no profile for %s yet; sign in once or pass --subject", shared.ErrMissingArgument, email)
	}

	profile := &models.Profile{ID: subject, Email: email, FullName: cmd.String("name"), Role: models.RoleAdmin}
	if err := st.profiles.Upsert(ctx, profile, false); err != nil {
		return err
	}
	r.logger.Info("admin created", "email", profile.Email)
	return r.writePlain("✓ Created admin %s\n", profile.Email)
}
