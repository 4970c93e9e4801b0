package api

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/evomics/docs/internal/export"
	"github.com/evomics/docs/internal/index"
	"github.com/evomics/docs/internal/metrics"
	"github.com/evomics/docs/internal/og"
	"github.com/evomics/docs/internal/render"
	"github.com/evomics/docs/internal/source"
)

// Snapshots yields the content snapshot in effect.
type Snapshots interface {
	Current() *source.Snapshot
}

// Site describes the site as a whole.
type Site struct {
	Name        string
	Tagline     string
	Description string
	URL         string // canonical origin, optional
}

// Guide is one card on the home page.
type Guide struct {
	Title       string
	Description string
	Href        string
	Available   bool
	Topics      []string
}

// Options wires the router to its dependencies. Metrics, MetricsHandler,
// Events and Logger are optional.
type Options struct {
	Snapshots      Snapshots
	Collections    []source.Collection
	Renderer       *render.Renderer
	Images         *og.Generator
	Exports        *export.Cache
	Search         index.Searcher
	Site           Site
	Guides         []Guide
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
	Events         http.Handler
	Logger         *slog.Logger
}

// NewRouter creates a chi router serving the site: home, collection pages,
// Open Graph images, the llms-full.txt export, search and tree JSON, health
// checks and, when configured, metrics and live-reload events.
func NewRouter(opts Options) (chi.Router, error) {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	h := &Handler{opts: opts, templates: tmpl}

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(opts.Metrics))
	r.Use(middleware.GetHead)

	r.Get("/", h.Home)
	for _, c := range opts.Collections {
		r.Get(c.BaseURL, h.Page(c.Name))
		r.Get(c.BaseURL+"/*", h.Page(c.Name))
		r.Get(og.Prefix+c.BaseURL+"/*", h.Image(c.Name))
	}
	r.Get("/llms-full.txt", h.LLMsFull)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Get("/tree/{collection}", h.Tree)
		if opts.Events != nil {
			r.Get("/events", opts.Events.ServeHTTP)
		}
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		})
	})

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}

	r.NotFound(h.NotFound)
	return r, nil
}

// Handler holds the site route handlers.
type Handler struct {
	opts      Options
	templates *template.Template
}
