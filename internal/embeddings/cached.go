package embeddings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ziadkadry99/partschat/internal/cache"
)

// CachedEmbedder wraps an Embedder with a cache keyed by model and input
// text. Cache failures are ignored so embedding always works without the
// cache backend.
type CachedEmbedder struct {
	inner Embedder
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedEmbedder wraps inner with c. Entries expire after ttl.
func NewCachedEmbedder(inner Embedder, c cache.Cache, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c, ttl: ttl}
}

func (e *CachedEmbedder) Name() string {
	return e.inner.Name()
}

func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	// Collect the texts the cache cannot serve.
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		key := cache.EmbeddingKey(e.inner.Name(), text)
		data, ok, err := e.cache.Get(ctx, key)
		if err != nil || !ok {
			missing = append(missing, text)
			missingIdx = append(missingIdx, i)
			continue
		}
		var emb []float32
		if err := json.Unmarshal(data, &emb); err != nil {
			missing = append(missing, text)
			missingIdx = append(missingIdx, i)
			continue
		}
		results[i] = emb
	}

	if len(missing) == 0 {
		return results, nil
	}

	fresh, err := e.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, emb := range fresh {
		results[missingIdx[j]] = emb
		if data, err := json.Marshal(emb); err == nil {
			key := cache.EmbeddingKey(e.inner.Name(), missing[j])
			_ = e.cache.Set(ctx, key, data, e.ttl)
		}
	}
	return results, nil
}
