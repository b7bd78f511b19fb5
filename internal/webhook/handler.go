package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Response bodies.
const (
	MessageTriggered = "Update triggered"
	MessageNoKeyword = "Update keyword not found"
)

// Delivery outcomes reported to the Observer.
const (
	OutcomeRejected  = "rejected"
	OutcomeInvalid   = "invalid"
	OutcomeTriggered = "triggered"
	OutcomeIgnored   = "ignored"
)

// MaxPayloadBytes is GitHub's cap on webhook payloads.
const MaxPayloadBytes = 25 << 20

// Observer receives the outcome of each delivery.
type Observer interface {
	ObserveWebhook(outcome string)
}

// Payload is the part of a push event the handler reads.
type Payload struct {
	Commits []Commit `json:"commits"`
}

// Commit is one pushed commit.
type Commit struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Handler verifies push deliveries and runs the deployment on request.
type Handler struct {
	secret   *string
	keyword  string
	runner   Runner
	observer Observer
	logger   *zap.Logger
	maxBytes int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithObserver attaches an observer (e.g. Prometheus metrics).
func WithObserver(o Observer) HandlerOption {
	return func(h *Handler) { h.observer = o }
}

// WithLogger sets the handler's logger.
func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// WithMaxBodyBytes limits the delivery body size; larger bodies get 413.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) { h.maxBytes = n }
}

// NewHandler creates a handler. A nil secret accepts every delivery.
func NewHandler(secret *string, keyword string, runner Runner, opts ...HandlerOption) *Handler {
	h := &Handler{
		secret:   secret,
		keyword:  keyword,
		runner:   runner,
		logger:   zap.NewNop(),
		maxBytes: MaxPayloadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP handles one delivery.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	deliveryID := uuid.New().String()
	logger := h.logger.With(zap.String("delivery_id", deliveryID))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		logger.Warn("webhook body read failed", zap.Error(err))
		h.observe(OutcomeInvalid)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !VerifySignature(h.secret, body, r.Header.Get(SignatureHeader)) {
		logger.Warn("webhook signature rejected")
		h.observe(OutcomeRejected)
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.Warn("webhook payload invalid", zap.Error(err))
		h.observe(OutcomeInvalid)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	commit, ok := h.firstTrigger(payload.Commits)
	if !ok {
		logger.Info("webhook ignored", zap.Int("commits", len(payload.Commits)))
		h.observe(OutcomeIgnored)
		writeText(w, MessageNoKeyword)
		return
	}

	logger.Info("webhook triggering deployment", zap.String("commit", commit.ID))
	ctx := context.WithoutCancel(r.Context())
	if err := h.runner.Run(ctx); err != nil {
		logger.Warn("deployment failed", zap.Error(err))
	}
	h.observe(OutcomeTriggered)
	writeText(w, MessageTriggered)
}

func (h *Handler) firstTrigger(commits []Commit) (Commit, bool) {
	for _, c := range commits {
		if strings.Contains(c.Message, h.keyword) {
			return c, true
		}
	}
	return Commit{}, false
}

func (h *Handler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveWebhook(outcome)
	}
}

func writeText(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, msg)
}
