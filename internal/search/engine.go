// Package search provides lookups and free-text search over the post index.
package search

import (
	"context"
	"strings"

	"github.com/hyperjump/inkwell/internal/models"
	"github.com/hyperjump/inkwell/internal/storage"
)

// Observer receives the outcome of each Find call.
type Observer interface {
	ObserveSearch(results int, err error)
}

// Engine answers post lookups. Every call reloads the index from storage.
type Engine struct {
	storage  storage.Storage
	observer Observer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithObserver attaches an observer (e.g. Prometheus metrics) to Find.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates an engine reading from store.
func NewEngine(store storage.Storage, opts ...EngineOption) *Engine {
	e := &Engine{storage: store}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Posts returns every post in index order.
func (e *Engine) Posts(ctx context.Context) ([]models.Post, error) {
	idx, err := e.storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Posts, nil
}

// PostByPath returns the first post whose path equals path exactly, or nil when none does.
func (e *Engine) PostByPath(ctx context.Context, path string) (*models.Post, error) {
	idx, err := e.storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range idx.Posts {
		if idx.Posts[i].Path == path {
			return &idx.Posts[i], nil
		}
	}
	return nil, nil
}

// Related returns the posts whose id is in ids, in index order. Ids with no
// matching post are skipped.
func (e *Engine) Related(ctx context.Context, ids []int) ([]models.Post, error) {
	related := []models.Post{}
	if len(ids) == 0 {
		return related, nil
	}
	idx, err := e.storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for _, p := range idx.Posts {
		if _, ok := want[p.ID]; ok {
			related = append(related, p)
		}
	}
	return related, nil
}

// Find returns the posts matching query, in index order. A post matches when
// the query is a case-insensitive substring of its title, matches its tags,
// or is a case-insensitive substring of its meta description.
func (e *Engine) Find(ctx context.Context, query string) ([]models.Post, error) {
	results, err := e.find(ctx, query)
	if e.observer != nil {
		e.observer.ObserveSearch(len(results), err)
	}
	return results, err
}

func (e *Engine) find(ctx context.Context, query string) ([]models.Post, error) {
	idx, err := e.storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	results := []models.Post{}
	for _, p := range idx.Posts {
		if Matches(p, q) {
			results = append(results, p)
		}
	}
	return results, nil
}

// Matches reports whether p matches the already-lowercased query q. Checks
// run title, tags, meta description and stop at the first hit.
func Matches(p models.Post, q string) bool {
	switch {
	case strings.Contains(strings.ToLower(p.Title), q):
		return true
	case p.Tags.Contains(q):
		return true
	case strings.Contains(strings.ToLower(p.MetaDescription), q):
		return true
	}
	return false
}
