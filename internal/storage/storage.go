// Package storage defines the read-only content store the site serves from.
package storage

import (
	"context"

	"github.com/hyperjump/inkwell/internal/models"
)

// Storage loads the post index. Implementations read the backing document on
// every call; nothing is cached between calls.
type Storage interface {
	Load(ctx context.Context) (*models.PostIndex, error)
	// Path returns the location of the backing document.
	Path() string
}
