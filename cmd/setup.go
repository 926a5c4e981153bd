package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/cantus/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file when missing, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	shared.ApplyEnv(config)
	r.config = config
	r.configPath = configPath

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	r.writePlain("✓ Database ready at %s\n", config.Database.Path)
	if !config.Auth.Enabled() {
		r.writePlain("Sign-in is disabled until auth.client_id and auth.client_secret are set (or CANTUS_AUTH_CLIENT_SECRET).\n")
	}
	return nil
}

// SetupStatus lists embedded migrations and when each was applied.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	statuses, err := shared.Migrations(db)
	if err != nil {
		return err
	}

	return r.render(cmd, statuses, func() error {
		r.writePlainHeader(fmt.Sprintf("Migrations (%s)", r.config.Database.Path))
		for _, st := range statuses {
			applied := "pending"
			if st.AppliedAt != nil {
				applied = "applied " + humanize.RelTime(*st.AppliedAt, time.Now(), "ago", "from now")
			}
			r.writePlain("%04d  %-28s %s\n", st.Version, st.Name, applied)
		}
		return nil
	})
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	r.logger.Warn("rolled back latest migration", "path", r.config.Database.Path)
	return r.writePlain("✓ Rolled back the latest migration\n")
}
