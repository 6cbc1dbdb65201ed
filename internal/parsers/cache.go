package parsers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/crate-digest/internal/extraction"
)

// DefaultCacheCapacity bounds the number of cached extractions.
const DefaultCacheCapacity = 4096

// CachedExtractor memoizes extractions by unit path and content hash, so a unit
// parsed for selection is not parsed again for rewriting. Failed parses are not
// cached.
type CachedExtractor struct {
	next  Extractor
	cache otter.Cache[string, *extraction.FileExtraction]
}

// NewCachedExtractor wraps next with a bounded cache.
func NewCachedExtractor(next Extractor, capacity int) (*CachedExtractor, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}

	cache, err := otter.MustBuilder[string, *extraction.FileExtraction](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction cache: %w", err)
	}

	return &CachedExtractor{next: next, cache: cache}, nil
}

// Extract returns the cached extraction for unit or delegates to the wrapped extractor.
func (c *CachedExtractor) Extract(ctx context.Context, unit extraction.SourceUnit) (*extraction.FileExtraction, error) {
	key := cacheKey(unit)
	if fx, ok := c.cache.Get(key); ok {
		return fx, nil
	}

	fx, err := c.next.Extract(ctx, unit)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, fx)
	return fx, nil
}

// Hits returns the number of cache hits so far.
func (c *CachedExtractor) Hits() int64 {
	return c.cache.Stats().Hits()
}

// Close releases the cache.
func (c *CachedExtractor) Close() {
	c.cache.Close()
}

func cacheKey(unit extraction.SourceUnit) string {
	sum := sha256.Sum256(unit.Text)
	return unit.Path + "\x00" + hex.EncodeToString(sum[:])
}
