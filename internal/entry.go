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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/postindex/internal/api"
	"github.com/starford/postindex/internal/artifact"
	"github.com/starford/postindex/internal/catalog"
	"github.com/starford/postindex/internal/changes"
	"github.com/starford/postindex/internal/mcpserver"
	"github.com/starford/postindex/internal/metadata"
	"github.com/starford/postindex/internal/metrics"
	"github.com/starford/postindex/internal/pipeline"
	"github.com/starford/postindex/internal/postservice"
	"github.com/starford/postindex/internal/sse"
	"github.com/starford/postindex/internal/storage"
	"github.com/starford/postindex/internal/watch"
)

// runtime holds the components shared by every command.
type runtime struct {
	cfg     *Config
	logger  *slog.Logger
	content *storage.FS
	writer  *artifact.Writer
	builder *pipeline.Builder
	metrics *metrics.Build
}

func newRuntime(opts []Option) (*application, *runtime, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stdout
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("content_dir", cfg.Content.Dir),
		slog.String("output_dir", cfg.Output.Dir),
		slog.String("build_mode", cfg.Build.Mode),
		slog.Bool("force", cfg.Build.Force),
		slog.String("log_level", cfg.App.LogLevel.String()))

	for _, dir := range []string{cfg.Content.Dir, cfg.Output.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	content, err := storage.NewFS(cfg.Content.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("init content storage: %w", err)
	}
	output, err := storage.NewFS(cfg.Output.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("init output storage: %w", err)
	}

	mode, err := changes.ParseMode(cfg.Build.Mode)
	if err != nil {
		return nil, nil, err
	}

	m := metrics.New()
	writer := artifact.NewWriter(output)
	builder := &pipeline.Builder{
		Content:   content,
		Extractor: metadata.NewExtractor(content, time.Now),
		Detector: &changes.GitDetector{
			Dir:        cfg.Build.RepoDir,
			ContentDir: pathspec(cfg.Build.RepoDir, content.Root()),
			Mode:       mode,
			Logger:     logger,
		},
		Writer:     writer,
		Categories: cfg.Categories,
		Force:      cfg.Build.Force,
		Workers:    cfg.Build.Workers,
		Logger:     logger,
		Metrics:    m,
	}

	return app, &runtime{
		cfg:     cfg,
		logger:  logger,
		content: content,
		writer:  writer,
		builder: builder,
		metrics: m,
	}, nil
}

// pathspec expresses the content root relative to the repository so git
// diffs can be limited to it.
func pathspec(repoDir, contentRoot string) string {
	repo, err := filepath.Abs(repoDir)
	if err != nil {
		return contentRoot
	}
	rel, err := filepath.Rel(repo, contentRoot)
	if err != nil {
		return contentRoot
	}
	return filepath.ToSlash(rel)
}

// Build runs a single build and returns its result.
func Build(ctx context.Context, opts ...Option) (*pipeline.Result, error) {
	_, rt, err := newRuntime(opts)
	if err != nil {
		return nil, err
	}
	res, err := rt.builder.Run(ctx)
	if err != nil {
		rt.logger.Error("Build failed", slog.String("error", err.Error()))
		return nil, err
	}
	return res, nil
}

// Watch runs an initial build, then rebuilds on content changes until ctx is
// cancelled or a shutdown signal arrives.
func Watch(ctx context.Context, opts ...Option) error {
	_, rt, err := newRuntime(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.watch(ctx, nil)
}

func (rt *runtime) watch(ctx context.Context, cb watch.BuildCallback) error {
	res, err := rt.builder.Run(ctx)
	if err != nil {
		return err
	}
	if cb != nil {
		cb(res)
	}
	return watch.Watch(ctx, rt.content.Root(), rt.builder, rt.cfg.Build.Debounce, rt.logger, cb)
}

// Serve starts the HTTP read API. With WithWatch the artifacts are rebuilt
// on content changes and subscribers are notified over SSE.
func Serve(ctx context.Context, opts ...Option) error {
	app, rt, err := newRuntime(opts)
	if err != nil {
		return err
	}
	cfg, logger := rt.cfg, rt.logger

	db, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer db.Close()

	svc := postservice.NewService(rt.content, rt.writer, db, logger)
	if err := svc.Reload(ctx); err != nil {
		logger.Warn("initial catalog load failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", rt.metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Bool("watch", app.watch))

	g, gCtx := errgroup.WithContext(ctx)

	if app.watch {
		g.Go(func() error {
			return rt.watch(gCtx, func(res *pipeline.Result) {
				if res.Mode == pipeline.ModeSkip {
					return
				}
				if err := svc.Reload(gCtx); err != nil {
					logger.Warn("catalog reload failed", slog.String("error", err.Error()))
					return
				}
				broker.PublishBuild(buildEvent(res))
			})
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

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP loads the catalog and serves MCP tools over stdio. Logs go to
// stderr unless WithLogOutput says otherwise, since stdout carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, rt, err := newRuntime(opts)
	if err != nil {
		return err
	}

	db, err := catalog.Open(rt.cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer db.Close()

	svc := postservice.NewService(rt.content, rt.writer, db, rt.logger)
	if err := svc.Reload(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc, app.version).ServeStdio()
}

func buildEvent(res *pipeline.Result) sse.BuildEvent {
	ev := sse.BuildEvent{
		RunID: res.RunID,
		Mode:  string(res.Mode),
		Posts: len(res.Posts),
	}
	if res.Changes != nil {
		ev.Added = res.Changes.Added
		ev.Modified = res.Changes.Modified
		ev.Deleted = res.Changes.Deleted
	}
	return ev
}
