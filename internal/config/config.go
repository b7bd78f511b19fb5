// Package config provides configuration loading and structs for the inkwell server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Content ContentConfig `yaml:"content"`
	Webhook WebhookConfig `yaml:"webhook"`
	Reload  ReloadConfig  `yaml:"reload"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ContentConfig locates the post index and, optionally, templates on disk.
type ContentConfig struct {
	IndexPath string `yaml:"index_path"`
	// TemplateDir overrides the embedded templates when set.
	TemplateDir    string `yaml:"template_dir"`
	WatchTemplates bool   `yaml:"watch_templates"`
}

// WebhookConfig holds the push webhook settings. A nil Secret disables
// signature verification.
type WebhookConfig struct {
	Secret     *string `yaml:"secret,omitempty"`
	Keyword    string  `yaml:"keyword"`
	ScriptPath string  `yaml:"script_path"`
	Shell      string  `yaml:"shell"`
}

// ReloadConfig holds hosting API credentials used by the reload command.
type ReloadConfig struct {
	Username string        `yaml:"username"`
	APIToken string        `yaml:"api_token"`
	Host     string        `yaml:"host"`
	Domain   string        `yaml:"domain"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EnabledOrDefault returns whether metrics are served; defaults to true when unset.
func (m *MetricsConfig) EnabledOrDefault() bool {
	if m.Enabled != nil {
		return *m.Enabled
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Content.IndexPath = expandPath(cfg.Content.IndexPath, configDir)
	cfg.Content.TemplateDir = expandPath(cfg.Content.TemplateDir, configDir)
	cfg.Webhook.ScriptPath = expandPath(cfg.Webhook.ScriptPath, configDir)

	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
// The bool reports whether the file existed.
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		cfg = &Config{}
		ApplyDefaults(cfg)
		return cfg, false, nil
	}
	return nil, false, err
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Webhook.Keyword) == "" {
		return errors.New("webhook.keyword must not be empty")
	}
	if c.Content.WatchTemplates && c.Content.TemplateDir == "" {
		return errors.New("content.watch_templates requires content.template_dir")
	}
	return nil
}

// Save writes the config to path atomically. Used by the init command.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	// atomic.WriteFile leaves the temp file's mode in place.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. "~/" paths are relative to the home
// directory; other relative paths are relative to configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(configDir, path)
}
