package site

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"sebasite/internal/admin"
	"sebasite/internal/config"
	"sebasite/internal/datasource"
	"sebasite/internal/gallery"
	"sebasite/internal/imaging"
	"sebasite/internal/logging"
	"sebasite/internal/notifications"
	"sebasite/internal/records"
	"sebasite/internal/session"
)

// Deps are the collaborators a Server routes to. Metrics and Rand are
// optional.
type Deps struct {
	Config   *config.Config
	Projects *datasource.Collection[records.Project]
	// News is the public, limited news collection.
	News     *datasource.Collection[records.News]
	Admin    *admin.Controller
	Session  *session.Session
	Notifier notifications.Service
	Metrics  *Metrics
	Rand     gallery.Rand
	Logger   *slog.Logger
}

// Server serves the site API.
type Server struct {
	projects *datasource.Collection[records.Project]
	news     *datasource.Collection[records.News]
	admin    *admin.Controller
	session  *session.Session
	notifier notifications.Service
	metrics  *Metrics
	rng      gallery.Rand
	logger   *slog.Logger

	sampleSize   int
	tickerPace   time.Duration
	images       imaging.Options
	imageWorkers int
	apiToken     string
}

// New builds a Server from deps.
func New(deps Deps) *Server {
	cfg := deps.Config
	if deps.Rand == nil {
		deps.Rand = gallery.DefaultRand
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	return &Server{
		projects:   deps.Projects,
		news:       deps.News,
		admin:      deps.Admin,
		session:    deps.Session,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		rng:        deps.Rand,
		logger:     logging.NewComponentLogger(deps.Logger, "site"),
		sampleSize: cfg.Gallery.SampleSize,
		tickerPace: cfg.TickerItemDuration(),
		images: imaging.Options{
			MaxDimension: cfg.Images.MaxDimension,
			Quality:      cfg.Images.Quality,
			MaxBytes:     cfg.MaxUploadBytes(),
		},
		imageWorkers: cfg.Images.Workers,
		apiToken:     cfg.Admin.APIToken,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimw.Recoverer)
	r.Use(s.observe)
	r.Use(s.withSession)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/projects", s.handleProjects)
		r.Get("/projects/layout", s.handleLayout)
		r.Get("/projects/{id}", s.handleProject)
		r.Get("/projects/{id}/lightbox", s.handleLightbox)

		r.Get("/news", s.handleNews)
		r.Get("/news/ticker", s.handleTicker)
		r.Get("/gallery", s.handleGallery)
		r.Post("/contact", s.handleContact)

		r.Get("/language", s.handleGetLanguage)
		r.Put("/language", s.handleSetLanguage)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Get("/session", s.handleSession)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/logout", s.handleLogout)
				r.Post("/load", s.handleAdminLoad)
				r.Post("/images", s.handleCompressImages)

				r.Get("/{collection}", s.handleAdminList)
				r.Get("/{collection}/draft", s.handleGetDraft)
				r.Post("/{collection}/draft", s.handleBeginCreate)
				r.Put("/{collection}/draft", s.handleSetFields)
				r.Delete("/{collection}/draft", s.handleCancelDraft)
				r.Post("/{collection}/draft/images", s.handleAddImages)
				r.Delete("/{collection}/draft/images/{index}", s.handleRemoveImage)
				r.Post("/{collection}/draft/submit", s.handleSubmit)
				r.Post("/{collection}/{id}/edit", s.handleBeginEdit)
				r.Delete("/{collection}/{id}", s.handleDelete)
			})
		})
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}
