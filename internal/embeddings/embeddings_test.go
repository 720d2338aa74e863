package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ziadkadry99/partschat/internal/cache"
)

// fakeEmbedder counts calls and returns a fixed vector per text.
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Name() string    { return "fake" }
func (f *fakeEmbedder) Dimensions() int { return 3 }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 0, 1}
	}
	return out, nil
}

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", 3, srv.URL)
	embs, err := e.Embed(context.Background(), []string{"부품 재고", "장비 목록"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(embs) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(embs))
	}
	if embs[0][1] != 0.2 {
		t.Errorf("unexpected embedding value: %v", embs[0])
	}
}

func TestOllamaEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("missing", 3, srv.URL)
	if _, err := e.Embed(context.Background(), []string{"x"}); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestCachedEmbedderHitsCache(t *testing.T) {
	inner := &fakeEmbedder{}
	e := NewCachedEmbedder(inner, cache.NewMemoryCache(), time.Hour)
	ctx := context.Background()

	first, err := e.Embed(ctx, []string{"hello", "world"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}

	second, err := e.Embed(ctx, []string{"hello", "world"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected cache to serve repeat call, inner calls=%d", inner.calls)
	}
	if len(second) != 2 || second[0][0] != first[0][0] {
		t.Errorf("cached result differs: %v vs %v", second, first)
	}
}

func TestCachedEmbedderPartialMiss(t *testing.T) {
	inner := &fakeEmbedder{}
	e := NewCachedEmbedder(inner, cache.NewMemoryCache(), time.Hour)
	ctx := context.Background()

	if _, err := e.Embed(ctx, []string{"hello"}); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	embs, err := e.Embed(ctx, []string{"hello", "fresh"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 inner calls, got %d", inner.calls)
	}
	if len(embs) != 2 || embs[1] == nil {
		t.Errorf("expected both embeddings filled, got %v", embs)
	}
}

func TestOpenAIModelDimensions(t *testing.T) {
	if d := ModelTextEmbedding3Small.dimensions(); d != 1536 {
		t.Errorf("small: expected 1536, got %d", d)
	}
	if d := ModelTextEmbedding3Large.dimensions(); d != 3072 {
		t.Errorf("large: expected 3072, got %d", d)
	}
}

func TestNewEmbedderUnsupported(t *testing.T) {
	if _, err := NewEmbedder("gemini", "m", ""); err == nil {
		t.Error("expected error for unsupported provider")
	}
}
