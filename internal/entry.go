// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/evomics/docs/internal/api"
	"github.com/evomics/docs/internal/export"
	"github.com/evomics/docs/internal/index"
	"github.com/evomics/docs/internal/mcpserver"
	"github.com/evomics/docs/internal/metrics"
	"github.com/evomics/docs/internal/og"
	"github.com/evomics/docs/internal/render"
	"github.com/evomics/docs/internal/source"
	"github.com/evomics/docs/internal/sse"
	"github.com/evomics/docs/internal/staticgen"
)

// site bundles the components shared by the serve, build and mcp commands.
type site struct {
	cfg      *Config
	logger   *slog.Logger
	registry *source.Registry
	db       *index.DB
	renderer *render.Renderer
	images   *og.Generator
	exports  *export.Cache
	recorder metrics.Recorder
	promReg  *prometheus.Registry
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// openSite loads the content, syncs the search index and prepares the
// renderers. The caller must call close.
func openSite(ctx context.Context, app *application) (*site, error) {
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_root", cfg.Content.Root),
		slog.String("sqlite_path", cfg.Search.SQLitePath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	s := &site{
		cfg:      cfg,
		logger:   logger,
		renderer: render.New(cfg.TOC.MinDepth, cfg.TOC.MaxDepth),
		recorder: metrics.NoopRecorder{},
	}
	if cfg.Metrics.Enabled {
		s.promReg = prometheus.NewRegistry()
		s.recorder = metrics.NewPrometheusRecorder(s.promReg)
	}
	s.exports = export.NewCache(s.renderer)

	images, err := og.NewGenerator()
	if err != nil {
		return nil, fmt.Errorf("init og generator: %w", err)
	}
	s.images = images

	registry, err := source.NewRegistry(ctx, cfg.Content.Root, cfg.SourceCollections(), logger)
	if err != nil {
		s.recorder.IncReload(false)
		return nil, fmt.Errorf("load content: %w", err)
	}
	s.registry = registry
	s.recorder.IncReload(true)
	s.observePages(registry.Current())

	// Initialize SQLite index.
	db, err := index.Open(cfg.Search.SQLitePath, cfg.Search.Language)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	s.db = db

	if err := s.sync(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initial sync: %w", err)
	}
	return s, nil
}

func (s *site) close() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("close index failed", slog.String("error", err.Error()))
	}
}

func (s *site) sync(ctx context.Context) error {
	return index.Sync(ctx, s.db, s.registry.Current(), s.renderer, s.cfg.Search.Collections, s.logger)
}

func (s *site) observePages(snap *source.Snapshot) {
	for _, src := range snap.Sources() {
		s.recorder.SetPages(src.Name(), len(src.Pages()))
	}
}

// router wraps the site routes in the request middleware stack.
func (s *site) router(events http.Handler) (http.Handler, error) {
	guides := make([]api.Guide, len(s.cfg.Guides))
	for i, g := range s.cfg.Guides {
		guides[i] = api.Guide{
			Title:       g.Title,
			Description: g.Description,
			Href:        g.Href,
			Available:   g.Available(),
			Topics:      g.Topics,
		}
	}

	opts := api.Options{
		Snapshots:   s.registry,
		Collections: s.cfg.SourceCollections(),
		Renderer:    s.renderer,
		Images:      s.images,
		Exports:     s.exports,
		Search:      s.db,
		Site: api.Site{
			Name:        s.cfg.Site.Name,
			Tagline:     s.cfg.Site.Tagline,
			Description: s.cfg.Site.Description,
			URL:         s.cfg.Site.URL,
		},
		Guides:  guides,
		Metrics: s.recorder,
		Events:  events,
		Logger:  s.logger,
	}
	if s.promReg != nil {
		opts.MetricsHandler = metrics.HTTPHandler(s.promReg)
	}
	siteRouter, err := api.NewRouter(opts)
	if err != nil {
		return nil, fmt.Errorf("init router: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/", siteRouter)
	return r, nil
}

// onChange is the watcher callback: it refreshes the derived state and
// notifies browsers.
func (s *site) onChange(ctx context.Context, broker *sse.Broker) source.EventCallback {
	var last *source.Snapshot
	return func(kind, path string) {
		snap := s.registry.Current()
		if snap != last {
			last = snap
			s.recorder.IncReload(true)
			s.observePages(snap)
			if err := s.sync(ctx); err != nil {
				s.logger.Warn("index sync failed", slog.String("error", err.Error()))
			}
		}
		collection, url := snap.Locate(path)
		broker.PublishChange(sse.PageChange{Kind: kind, Path: path, Collection: collection, URL: url})
	}
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	s, err := openSite(ctx, app)
	if err != nil {
		return err
	}
	defer s.close()
	cfg, logger := s.cfg, s.logger

	var broker *sse.Broker
	var events http.Handler
	if cfg.Content.Watch {
		broker = sse.NewBroker(2 * time.Second)
		defer broker.Close()
		events = broker
	}

	handler, err := s.router(events)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	if broker != nil {
		g.Go(func() error {
			if err := source.Watch(gCtx, s.registry, logger, s.onChange(gCtx, broker)); err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Unblocks the watcher.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// Build pre-renders the whole site into outDir.
func Build(ctx context.Context, outDir string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	s, err := openSite(ctx, app)
	if err != nil {
		return err
	}
	defer s.close()

	handler, err := s.router(nil)
	if err != nil {
		return err
	}
	routes := staticgen.Routes(s.registry.Current())
	if err := staticgen.Generate(ctx, handler, routes, outDir, s.logger); err != nil {
		return fmt.Errorf("build site: %w", err)
	}
	return nil
}

// ServeMCP serves the documentation over MCP on stdin/stdout. Logs go to
// stderr.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	s, err := openSite(ctx, app)
	if err != nil {
		return err
	}
	defer s.close()

	srv := mcpserver.New(s.registry, s.renderer, s.exports, s.db)
	s.logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
