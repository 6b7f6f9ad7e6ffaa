package store

import (
	"context"
	"time"

	"github.com/michaelbrown/switchboard/internal/settings"
)

// ConfigDocument is one saved state of a named configuration blob.
type ConfigDocument struct {
	Name      string        `json:"name"`
	Revision  string        `json:"revision"`
	Seq       int64         `json:"seq"`
	Config    settings.Blob `json:"config"`
	CreatedAt time.Time     `json:"created_at"`
}

// Revision is the history metadata for one save, without the blob itself.
type Revision struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence interface for configuration documents. Every
// save creates a new revision and moves the head; reads always see the
// head, so the store is the source of truth after every mutation.
type Store interface {
	// SaveConfig persists blob as a new revision of the named document
	// and returns the resulting head.
	SaveConfig(ctx context.Context, name string, blob settings.Blob) (*ConfigDocument, error)

	// LoadConfig returns the head revision of the named document.
	LoadConfig(ctx context.Context, name string) (*ConfigDocument, error)

	// ListRevisions returns revision metadata, newest first.
	ListRevisions(ctx context.Context, name string, limit int) ([]Revision, error)

	// GetRevision returns one specific revision of the named document.
	GetRevision(ctx context.Context, name, revisionID string) (*ConfigDocument, error)

	// Close releases resources.
	Close() error
}
