package parsing

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/cortex-codesearch/internal/analysis"
	"github.com/mvp-joe/cortex-codesearch/internal/document"
	"github.com/mvp-joe/cortex-codesearch/internal/storage"
)

// DocumentCache holds successfully parsed documents.
type DocumentCache struct {
	cache otter.Cache[string, *document.Document]
}

// NewDocumentCache creates a cache holding up to capacity documents. A
// positive ttl expires entries after that long.
func NewDocumentCache(capacity int, ttl time.Duration) (*DocumentCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("document cache capacity must be positive, got %d", capacity)
	}

	builder := otter.MustBuilder[string, *document.Document](capacity).CollectStats()

	var (
		cache otter.Cache[string, *document.Document]
		err   error
	)
	if ttl > 0 {
		cache, err = builder.WithTTL(ttl).Build()
	} else {
		cache, err = builder.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build document cache: %w", err)
	}
	return &DocumentCache{cache: cache}, nil
}

// Len returns the number of cached documents.
func (c *DocumentCache) Len() int { return c.cache.Size() }

// Stats returns cumulative hit and miss counts.
func (c *DocumentCache) Stats() (hits, misses int64) {
	s := c.cache.Stats()
	return s.Hits(), s.Misses()
}

// Close stops background maintenance.
func (c *DocumentCache) Close() { c.cache.Close() }

// Cached serves repeated parses of an unchanged file from a DocumentCache.
//
// Entries are keyed by path, size, modification time, the inner service's
// current exclusions and analyzer name, so reconfiguration through any layer
// misses instead of returning stale results. Only successes are cached; a
// hit returns a clone so callers never share a document.
type Cached struct {
	inner   Service
	storage storage.Storage
	cache   *DocumentCache
}

// NewCached wraps inner. store is used only to Stat files for cache keys.
func NewCached(inner Service, store storage.Storage, cache *DocumentCache) *Cached {
	mustInner("caching", inner)
	if store == nil || cache == nil {
		panic(fmt.Errorf("%w: caching decorator needs storage and a cache", ErrContractViolation))
	}
	return &Cached{inner: inner, storage: store, cache: cache}
}

// WithCache returns a Decorator that adds a Cached layer.
func WithCache(store storage.Storage, cache *DocumentCache) Decorator {
	return func(inner Service) Service { return NewCached(inner, store, cache) }
}

// Exclusions forwards to the inner service.
func (c *Cached) Exclusions() []string { return c.inner.Exclusions() }

// SetExclusions forwards to the inner service.
func (c *Cached) SetExclusions(patterns []string) { c.inner.SetExclusions(patterns) }

// Analyzer forwards to the inner service.
func (c *Cached) Analyzer() analysis.Analyzer { return c.inner.Analyzer() }

// Unwrap returns the inner service.
func (c *Cached) Unwrap() Service { return c.inner }

// TryParse returns a cached document when the file is unchanged, otherwise
// delegates and caches a success.
func (c *Cached) TryParse(ctx context.Context, file File) (*document.Document, bool) {
	mustBeValid("TryParse", file)

	info, err := c.storage.Stat(ctx, file.Path())
	if err != nil {
		return c.inner.TryParse(ctx, file)
	}

	key := c.key(file.Path(), info)
	if doc, ok := c.cache.cache.Get(key); ok {
		return doc.Clone(), true
	}

	doc, ok := c.inner.TryParse(ctx, file)
	// A reconfiguration during the call would file the result under the
	// old fingerprint; only store when the key still holds.
	if ok && c.key(file.Path(), info) == key {
		c.cache.cache.Set(key, doc.Clone())
	}
	return doc, ok
}

func (c *Cached) key(path string, info storage.Info) string {
	h := fnv.New64a()
	h.Write([]byte(strings.Join(c.inner.Exclusions(), "\x1f")))
	h.Write([]byte{0})
	h.Write([]byte(c.inner.Analyzer().Name()))
	return fmt.Sprintf("%s|%d|%d|%x", path, info.Size, info.ModTime.UnixNano(), h.Sum64())
}
