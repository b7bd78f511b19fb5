package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hyperjump/inkwell/internal/config"
	"github.com/hyperjump/inkwell/internal/deploy"
	"github.com/hyperjump/inkwell/pkg/utils"
	"github.com/natefinch/atomic"
)

func runReload(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("reload", stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	reloader := deploy.NewReloader(cfg.Reload, deploy.WithLogger(logger))
	if err := reloader.Validate(); err != nil {
		if errors.Is(err, deploy.ErrMissingCredentials) {
			fmt.Fprintf(stderr, "Set %s, %s, %s and %s (or the reload section of the config).\n",
				config.EnvReloadUsername, config.EnvReloadToken, config.EnvReloadHost, config.EnvReloadDomain)
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := reloader.Reload(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Reloaded %s\n", cfg.Reload.Domain)
	return nil
}

const starterIndex = `{
  "posts": [
    {
      "id": 1,
      "path": "/hello-world",
      "title": "Hello, world",
      "tags": ["meta"],
      "meta_description": "The first post on this blog.",
      "related": []
    }
  ]
}
`

const starterScript = `#!/bin/bash
# Called by the push webhook. Pull the latest content and reload the app.
set -euo pipefail
cd "$(dirname "$0")/.."
git pull --ff-only
inkwell reload --config config.yaml
`

// starterConfig is the config written by init. Paths are relative to the
// config file.
func starterConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func runInit(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("init", stderr)
	dir := fs.String("dir", ".", "directory to initialise")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := starterConfig()
	configFile := filepath.Join(*dir, "config.yaml")
	indexFile := filepath.Join(*dir, cfg.Content.IndexPath)
	scriptFile := filepath.Join(*dir, cfg.Webhook.ScriptPath)

	var existing []string
	for _, f := range []string{configFile, indexFile, scriptFile} {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		return fmt.Errorf("refusing to overwrite %s", strings.Join(existing, ", "))
	}

	for _, d := range []string{filepath.Dir(indexFile), filepath.Dir(scriptFile)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	if err := atomic.WriteFile(indexFile, strings.NewReader(starterIndex)); err != nil {
		return fmt.Errorf("write %s: %w", indexFile, err)
	}
	if err := atomic.WriteFile(scriptFile, strings.NewReader(starterScript)); err != nil {
		return fmt.Errorf("write %s: %w", scriptFile, err)
	}
	if err := os.Chmod(scriptFile, 0755); err != nil {
		return fmt.Errorf("chmod %s: %w", scriptFile, err)
	}
	if err := config.Save(configFile, cfg); err != nil {
		return err
	}
	for _, f := range []string{configFile, indexFile, scriptFile} {
		fmt.Fprintf(stdout, "wrote %s\n", f)
	}
	return nil
}
