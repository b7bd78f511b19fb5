package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvWebhookSecret  = "GITHUB_WEBHOOK_SECRET"
	EnvReloadUsername = "PYTHONANYWHERE_USERNAME"
	EnvReloadToken    = "PYTHONANYWHERE_API_TOKEN"
	EnvReloadHost     = "PYTHONANYWHERE_HOST"
	EnvReloadDomain   = "PYTHONANYWHERE_DOMAIN"
	EnvContentPath    = "INKWELL_CONTENT_PATH"
	EnvPort           = "INKWELL_PORT"
)

// LoadDotEnv loads .env files from dir with priority: .env.local > .env.
// godotenv.Load does not overwrite variables that are already set, so the
// real environment always wins. Returns the files actually loaded.
func LoadDotEnv(dir string) []string {
	var loaded []string
	for _, name := range []string{".env.local", ".env"} {
		f := filepath.Join(dir, name)
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}

// ApplyEnv overlays environment variables onto cfg. A set-but-empty
// GITHUB_WEBHOOK_SECRET still counts as a configured secret.
func ApplyEnv(cfg *Config) {
	applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvWebhookSecret); ok {
		secret := v
		cfg.Webhook.Secret = &secret
	}
	if v, ok := lookup(EnvReloadUsername); ok && v != "" {
		cfg.Reload.Username = v
	}
	if v, ok := lookup(EnvReloadToken); ok && v != "" {
		cfg.Reload.APIToken = v
	}
	if v, ok := lookup(EnvReloadHost); ok && v != "" {
		cfg.Reload.Host = v
	}
	if v, ok := lookup(EnvReloadDomain); ok && v != "" {
		cfg.Reload.Domain = v
	}
	if v, ok := lookup(EnvContentPath); ok && v != "" {
		cfg.Content.IndexPath = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}
