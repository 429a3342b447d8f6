// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/paperfuse/pkg/types"
)

// DefaultCacheSize is the number of vectors kept when unconfigured.
const DefaultCacheSize = 4096

// CachedEmbedder memoizes vectors by text in an LRU cache and forwards
// only the misses to the wrapped embedder.
type CachedEmbedder struct {
	next  Embedder
	cache *lru.Cache[string, []float32]
}

// NewCached wraps next with a cache holding up to size vectors.
func NewCached(next Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: c}, nil
}

// FromConfig returns the OpenAI embedder for cfg behind an LRU cache. It
// returns ErrEmbeddingUnavailable when no API key is configured.
func FromConfig(cfg types.EmbeddingConfig, httpCfg types.HTTPConfig) (Embedder, error) {
	oa, err := NewOpenAI(cfg, httpCfg)
	if err != nil {
		return nil, err
	}
	c, err := NewCached(oa, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Embed returns cached vectors where available and embeds the rest in one
// call to the wrapped embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var slots []int
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = v
			continue
		}
		missing = append(missing, t)
		slots = append(slots, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.next.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missing))
	}
	for j, v := range vecs {
		c.cache.Add(missing[j], v)
		out[slots[j]] = v
	}
	return out, nil
}

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int { return c.cache.Len() }
