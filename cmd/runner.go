package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cantus/internal/programs"
	"github.com/desertthunder/cantus/internal/repositories"
	"github.com/desertthunder/cantus/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	open       func(target string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// The database is opened lazily by the first command that needs it unless DB is set.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		open:       shared.Open,
	}
}

// SetLogger swaps the logger, e.g. to a file while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, healthCommand, categoryCommand, songCommand, massCommand,
		favoriteCommand, memberCommand, adminCommand, rehearsalCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens the configured database and applies pending migrations.
func (r *Runner) database(ctx context.Context) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Debug("database ready", "path", r.config.Database.Path)

	r.db = db
	return db, nil
}

// store bundles the repositories a command works with.
type store struct {
	db         *sql.DB
	categories *repositories.CategoryRepository
	songs      *repositories.SongRepository
	masses     *repositories.MassRepository
	profiles   *repositories.ProfileRepository
	favorites  *repositories.FavoriteRepository
	sessions   *repositories.SessionRepository
	programs   *programs.Service
}

func (r *Runner) store(ctx context.Context) (*store, error) {
	db, err := r.database(ctx)
	if err != nil {
		return nil, err
	}
	return &store{
		db:         db,
		categories: repositories.NewCategoryRepository(db),
		songs:      repositories.NewSongRepository(db),
		masses:     repositories.NewMassRepository(db),
		profiles:   repositories.NewProfileRepository(db),
		favorites:  repositories.NewFavoriteRepository(db),
		sessions:   repositories.NewSessionRepository(db),
		programs:   programs.NewService(db),
	}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// render writes data as JSON when --json is set, otherwise calls plain.
func (r *Runner) render(cmd *cli.Command, data any, plain func() error) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return plain()
}
