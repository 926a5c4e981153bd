// package server contains the middleware & handlers of the cantus HTTP API
package server

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cantus/internal/auth"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/programs"
	"github.com/desertthunder/cantus/internal/repositories"
	"github.com/desertthunder/cantus/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Options configures a [Server].
type Options struct {
	Config     shared.ServerConfig
	SessionTTL time.Duration
	// Provider enables /auth/login and /auth/callback. Without one those routes answer 503.
	Provider *auth.Provider
	Logger   *log.Logger
	// Now is the clock used to find the next mass. Defaults to [time.Now].
	Now func() time.Time
}

// Server serves the API over one database.
type Server struct {
	cfg        shared.ServerConfig
	logger     *log.Logger
	provider   *auth.Provider
	sessions   *auth.Sessions
	now        func() time.Time
	categories *repositories.CategoryRepository
	songs      *repositories.SongRepository
	masses     *repositories.MassRepository
	profiles   *repositories.ProfileRepository
	favorites  *repositories.FavoriteRepository
	programs   *programs.Service
}

// New wires the repositories and services of db into a Server.
func New(db *sql.DB, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	secure := strings.HasPrefix(opts.Config.BaseURL, "https://")

	return &Server{
		cfg:        opts.Config,
		logger:     opts.Logger,
		provider:   opts.Provider,
		sessions:   auth.NewSessions(repositories.NewSessionRepository(db), opts.SessionTTL, secure),
		now:        opts.Now,
		categories: repositories.NewCategoryRepository(db),
		songs:      repositories.NewSongRepository(db),
		masses:     repositories.NewMassRepository(db),
		profiles:   repositories.NewProfileRepository(db),
		favorites:  repositories.NewFavoriteRepository(db),
		programs:   programs.NewService(db),
	}
}

// Routes builds the router.
//
// Reads of the catalog and of published masses are public. Writes need a session, and some need a role:
// categories and members are admin only, songs and publishing need admin or moderator.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(RequestID)
	mux.Use(Logger(s.logger))
	mux.Use(Recoverer(s.logger))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.cfg.RateLimit > 0 {
		mux.Use(RateLimit(NewIPLimiter(s.cfg.RateLimit, s.cfg.Burst)))
	}
	mux.Use(s.Authenticate)

	editors := RequireRole(models.RoleAdmin, models.RoleModerator)
	admins := RequireRole(models.RoleAdmin)

	mux.Get("/health", s.health)

	mux.Route("/auth", func(sr chi.Router) {
		sr.Get("/login", s.login)
		sr.Get("/callback", s.callback)
		sr.Post("/logout", s.logout)
	})

	mux.Route("/me", func(sr chi.Router) {
		sr.Use(RequireAuth)
		sr.Get("/", s.getMe)
		sr.Put("/", s.updateMe)
	})

	mux.Route("/categories", func(sr chi.Router) {
		sr.Get("/", s.listCategories)
		sr.With(admins).Post("/", s.createCategory)
		sr.With(admins).Put("/{id}", s.updateCategory)
		sr.With(admins).Delete("/{id}", s.deleteCategory)
	})

	mux.Route("/songs", func(sr chi.Router) {
		sr.Get("/", s.listSongs)
		sr.With(editors).Post("/", s.createSong)
		sr.Get("/{id}", s.getSong)
		sr.With(editors).Put("/{id}", s.updateSong)

		sr.Route("/{id}/favorite", func(fr chi.Router) {
			fr.Use(RequireAuth)
			fr.Get("/", s.getFavorite)
			fr.Put("/", s.putFavorite)
			fr.Delete("/", s.deleteFavorite)
		})
	})

	mux.With(RequireAuth).Get("/favorites", s.listFavorites)

	mux.Route("/masses", func(sr chi.Router) {
		sr.Get("/", s.listMasses)
		sr.Get("/next", s.nextMass)
		sr.With(RequireAuth).Post("/", s.createMass)

		sr.Route("/{id}", func(mr chi.Router) {
			mr.Get("/", s.getMass)
			mr.Get("/export/{format}", s.exportMass)
			mr.With(editors).Put("/publish", s.publishMass)

			mr.Group(func(er chi.Router) {
				er.Use(RequireAuth)
				er.Post("/entries", s.addEntry)
				er.Delete("/entries/{entryID}", s.removeEntry)
				er.Put("/entries/{entryID}/parts/{index}", s.togglePart)
				er.Put("/entries/{entryID}/moment", s.setMoment)
			})
		})
	})

	mux.Route("/members", func(sr chi.Router) {
		sr.Use(admins)
		sr.Get("/", s.listMembers)
		sr.Put("/{id}/role", s.setMemberRole)
	})

	return mux
}

// HTTPServer returns an [http.Server] bound to the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
