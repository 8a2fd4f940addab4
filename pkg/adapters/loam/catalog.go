package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/loam"
	"github.com/aretw0/slotflow/pkg/ports"
)

// Catalog implements ports.Translations over a loam repository: each
// document is one message, its body the text and its ID (or `key` front
// matter) the template key.
type Catalog struct {
	Repo *loam.TypedRepository[MessageMetadata]

	mu      sync.RWMutex
	entries ports.Catalog
}

// NewCatalog creates a catalog. Call Reload before the first Lookup.
func NewCatalog(repo *loam.TypedRepository[MessageMetadata]) *Catalog {
	return &Catalog{Repo: repo, entries: ports.Catalog{}}
}

// OpenCatalog initializes a read-only loam repository at dir and loads it.
func OpenCatalog(ctx context.Context, dir string) (*Catalog, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(abs, loam.WithStrict(true), loam.WithReadOnly(true))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	c := NewCatalog(loam.NewTypedRepository[MessageMetadata](repo))
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads every document.
func (c *Catalog) Reload(ctx context.Context) error {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loam list failed: %w", err)
	}
	entries := ports.Catalog{}
	for _, doc := range docs {
		key := doc.Data.Key
		if key == "" {
			key = trimExtension(doc.ID)
		}
		if _, dup := entries[key]; dup {
			return fmt.Errorf("collision detected: translation key '%s' is defined twice", key)
		}
		entries[key] = strings.TrimSpace(doc.Content)
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Lookup implements ports.Translations.
func (c *Catalog) Lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries.Lookup(key)
}

// Snapshot returns a copy of the loaded entries.
func (c *Catalog) Snapshot() ports.Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(ports.Catalog, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Watch reloads the catalog whenever a document changes, until ctx is done.
// Reload errors are passed to onError and keep the previous entries.
func (c *Catalog) Watch(ctx context.Context, onError func(error)) error {
	changes, err := watch(ctx, c.Repo)
	if err != nil {
		return err
	}
	lifecycle.Go(ctx, func(ctx context.Context) error {
		for range changes {
			if err := c.Reload(ctx); err != nil && onError != nil {
				onError(err)
			}
		}
		return nil
	})
	return nil
}
