package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/inkwell/internal/config"
	"github.com/hyperjump/inkwell/internal/metrics"
	"github.com/hyperjump/inkwell/internal/render"
	"github.com/hyperjump/inkwell/internal/search"
	"github.com/hyperjump/inkwell/internal/server"
	"github.com/hyperjump/inkwell/internal/storage"
	"github.com/hyperjump/inkwell/internal/watcher"
	"github.com/hyperjump/inkwell/internal/webhook"
	"github.com/hyperjump/inkwell/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// app holds the wired server and the optional template watcher.
type app struct {
	server   *server.Server
	renderer *render.Renderer
	watcher  *watcher.Watcher
}

// newApp wires storage, search, rendering, the webhook and metrics from cfg.
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	var (
		renderer *render.Renderer
		err      error
	)
	if cfg.Content.TemplateDir != "" {
		renderer, err = render.NewFromDir(cfg.Content.TemplateDir)
	} else {
		renderer, err = render.New()
	}
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	var opts []server.ServerOption
	engineOpts := []search.EngineOption{}
	hookOpts := []webhook.HandlerOption{webhook.WithLogger(logger)}
	if cfg.Metrics.EnabledOrDefault() {
		m := metrics.New()
		opts = append(opts, server.WithMetrics(m))
		engineOpts = append(engineOpts, search.WithObserver(m))
		hookOpts = append(hookOpts, webhook.WithObserver(m))
	}

	engine := search.NewEngine(storage.NewJSONStorage(cfg.Content.IndexPath), engineOpts...)
	runner := webhook.NewScriptRunner(cfg.Webhook.Shell, cfg.Webhook.ScriptPath, logger)
	hook := webhook.NewHandler(cfg.Webhook.Secret, cfg.Webhook.Keyword, runner, hookOpts...)

	a := &app{
		server:   server.NewServer(engine, renderer, hook, cfg, logger, opts...),
		renderer: renderer,
	}
	if cfg.Content.WatchTemplates {
		watchOpts := []watcher.WatcherOption{}
		if cfg.Debug {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		a.watcher = watcher.NewWatcher(cfg.Content.TemplateDir, []string{"html"}, func(path string) {
			if err := renderer.Reload(); err != nil {
				logger.Warn("template reload failed, keeping previous templates", zap.String("path", path), zap.Error(err))
				return
			}
			logger.Info("templates reloaded", zap.String("path", path))
		}, watchOpts...)
	}
	return a, nil
}

// run serves until ctx is cancelled or the server fails, then shuts down
// gracefully.
func (a *app) run(ctx context.Context, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	if a.watcher != nil {
		if err := a.watcher.Start(gctx); err != nil {
			return fmt.Errorf("start template watcher: %w", err)
		}
		defer a.watcher.Stop()
	}
	g.Go(a.server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Stop(shutdownCtx)
	})
	return g.Wait()
}

func runServer(args []string, stderr io.Writer) error {
	fs := newFlagSet("server", stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	cfg.Debug = cfg.Debug || *debug
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("index_path", cfg.Content.IndexPath),
		zap.Bool("webhook_verification", cfg.Webhook.Secret != nil),
		zap.Bool("debug", cfg.Debug),
	)
	if cfg.Webhook.Secret == nil {
		logger.Warn("no webhook secret configured, deliveries are accepted without a signature")
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := a.run(ctx, logger); err != nil {
		logger.Error("server failed", zap.Error(err))
		return err
	}
	return nil
}
