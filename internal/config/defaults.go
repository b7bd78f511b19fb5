package config

import "time"

const (
	DefaultIndexPath     = "content/index.json"
	DefaultKeyword       = "[update]"
	DefaultShell         = "/bin/bash"
	DefaultScriptPath    = "scripts/update.sh"
	DefaultReloadTimeout = 60 * time.Second
	DefaultMetricsPath   = "/metrics"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Content.IndexPath == "" {
		cfg.Content.IndexPath = DefaultIndexPath
	}
	if cfg.Webhook.Keyword == "" {
		cfg.Webhook.Keyword = DefaultKeyword
	}
	if cfg.Webhook.Shell == "" {
		cfg.Webhook.Shell = DefaultShell
	}
	if cfg.Webhook.ScriptPath == "" {
		cfg.Webhook.ScriptPath = DefaultScriptPath
	}
	if cfg.Reload.Timeout == 0 {
		cfg.Reload.Timeout = DefaultReloadTimeout
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
