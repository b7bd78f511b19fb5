// Package deploy talks to the hosting provider's API to reload the running web app.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/inkwell/internal/config"
	"go.uber.org/zap"
)

// ErrMissingCredentials is returned when a reload setting is empty.
var ErrMissingCredentials = errors.New("reload credentials incomplete")

// Reloader asks the hosting API to reload the web app.
type Reloader struct {
	cfg    config.ReloadConfig
	scheme string
	client *http.Client
	logger *zap.Logger
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithHTTPClient replaces the HTTP client. Its timeout is overridden by the
// configured reload timeout.
func WithHTTPClient(c *http.Client) ReloaderOption {
	return func(r *Reloader) { r.client = c }
}

// WithScheme sets the URL scheme (default https).
func WithScheme(scheme string) ReloaderOption {
	return func(r *Reloader) { r.scheme = scheme }
}

// WithLogger sets the reloader's logger.
func WithLogger(l *zap.Logger) ReloaderOption {
	return func(r *Reloader) { r.logger = l }
}

// NewReloader creates a reloader for cfg.
func NewReloader(cfg config.ReloadConfig, opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		cfg:    cfg,
		scheme: "https",
		client: &http.Client{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultReloadTimeout
	}
	c := *r.client
	c.Timeout = timeout
	r.client = &c
	return r
}

// Validate reports which settings are missing.
func (r *Reloader) Validate() error {
	var missing []string
	if r.cfg.Username == "" {
		missing = append(missing, "username")
	}
	if r.cfg.APIToken == "" {
		missing = append(missing, "api_token")
	}
	if r.cfg.Host == "" {
		missing = append(missing, "host")
	}
	if r.cfg.Domain == "" {
		missing = append(missing, "domain")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// URL returns the reload endpoint.
func (r *Reloader) URL() string {
	u := url.URL{
		Scheme: r.scheme,
		Host:   r.cfg.Host,
		Path:   fmt.Sprintf("/api/v0/user/%s/webapps/%s/reload/", r.cfg.Username, r.cfg.Domain),
	}
	return u.String()
}

// Reload posts the reload request. A non-2xx answer is an error.
func (r *Reloader) Reload(ctx context.Context) error {
	if err := r.Validate(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL(), nil)
	if err != nil {
		return fmt.Errorf("build reload request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+r.cfg.APIToken)

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("reload request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("reload returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	r.logger.Info("web app reloaded",
		zap.String("domain", r.cfg.Domain),
		zap.Duration("took", time.Since(start)))
	return nil
}
