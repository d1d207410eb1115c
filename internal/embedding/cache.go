package embedding

import (
	"context"
	"encoding/hex"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/metrics"
)

// Cache stores vectors by content key.
type Cache interface {
	// GetMany returns the vectors found for keys; missing keys are absent from the map.
	GetMany(ctx context.Context, keys []string) (map[string][]float32, error)
	// SetMany stores every entry.
	SetMany(ctx context.Context, entries map[string][]float32) error
}

// CacheKey returns the content address of text under model: hex blake2b-256 of model, NUL, text.
func CacheKey(model, text string) string {
	sum := blake2b.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]float32)}
}

// GetMany implements Cache.
func (c *MemoryCache) GetMany(_ context.Context, keys []string) (map[string][]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	found := make(map[string][]float32, len(keys))
	for _, k := range keys {
		if v, ok := c.entries[k]; ok {
			found[k] = v
		}
	}
	return found, nil
}

// SetMany implements Cache.
func (c *MemoryCache) SetMany(_ context.Context, entries map[string][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range entries {
		c.entries[k] = v
	}
	return nil
}

// Len returns the number of cached vectors.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CachedProvider serves repeated texts from a Cache and sends only misses to the wrapped provider.
type CachedProvider struct {
	next    Provider
	cache   Cache
	log     logger.Logger
	metrics *metrics.Manager
}

// NewCachedProvider wraps next with cache. log and m may be nil.
func NewCachedProvider(next Provider, cache Cache, log logger.Logger, m *metrics.Manager) *CachedProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedProvider{next: next, cache: cache, log: log, metrics: m}
}

// Model implements Provider.
func (p *CachedProvider) Model() string { return p.next.Model() }

// Dimensions implements Provider.
func (p *CachedProvider) Dimensions() int { return p.next.Dimensions() }

// EmbedBatch implements Provider. Cache failures degrade to misses.
func (p *CachedProvider) EmbedBatch(ctx context.Context, texts []string) Result {
	if len(texts) == 0 {
		return Success([][]float32{})
	}

	model := p.next.Model()
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = CacheKey(model, t)
	}

	found, err := p.cache.GetMany(ctx, keys)
	if err != nil {
		p.log.Warn(ctx, "embedding cache read failed", logger.Err(err))
		found = nil
	}

	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	// Duplicate texts within one batch are sent once.
	pending := make(map[string]int)
	for i, k := range keys {
		if v, ok := found[k]; ok {
			vectors[i] = v
			continue
		}
		if _, ok := pending[k]; !ok {
			pending[k] = len(missTexts)
			missTexts = append(missTexts, texts[i])
		}
		missIdx = append(missIdx, i)
	}
	p.metrics.RecordCache(len(texts)-len(missIdx), len(missIdx))

	if len(missTexts) == 0 {
		return Success(vectors)
	}

	res := p.next.EmbedBatch(ctx, missTexts)
	if !res.OK() {
		return res
	}
	if len(res.Vectors) != len(missTexts) {
		return Failure(countMismatch("cache", len(missTexts), len(res.Vectors)))
	}

	fresh := make(map[string][]float32, len(missTexts))
	for _, i := range missIdx {
		v := res.Vectors[pending[keys[i]]]
		vectors[i] = v
		fresh[keys[i]] = v
	}
	if err := p.cache.SetMany(ctx, fresh); err != nil {
		p.log.Warn(ctx, "embedding cache write failed", logger.Err(err))
	}
	return Success(vectors)
}
