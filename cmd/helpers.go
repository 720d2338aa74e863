package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ziadkadry99/partschat/internal/agent"
	"github.com/ziadkadry99/partschat/internal/cache"
	"github.com/ziadkadry99/partschat/internal/config"
	"github.com/ziadkadry99/partschat/internal/db"
	"github.com/ziadkadry99/partschat/internal/embeddings"
	"github.com/ziadkadry99/partschat/internal/graph"
	"github.com/ziadkadry99/partschat/internal/llm"
	"github.com/ziadkadry99/partschat/internal/parts"
	"github.com/ziadkadry99/partschat/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `partschat init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createLLMProviderFromConfig creates the chat provider based on config.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(string(cfg.Provider), cfg.Model, cfg.BaseURL)
}

// createEmbedderFromConfig creates the embedder, wrapped with the given
// cache so repeated texts are not re-embedded.
func createEmbedderFromConfig(cfg *config.Config, c cache.Cache) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}

	embedder, err := embeddings.NewEmbedder(string(provider), cfg.EmbeddingModel, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	if c != nil {
		ttl := time.Duration(cfg.Cache.EmbeddingTTLSec) * time.Second
		embedder = embeddings.NewCachedEmbedder(embedder, c, ttl)
	}
	return embedder, nil
}

// openVectorStore creates the chromem store and loads the persisted index
// from the data directory. A missing index is not fatal: the store starts
// empty until `partschat ingest` runs.
func openVectorStore(cfg *config.Config, embedder embeddings.Embedder) (*vectordb.ChromemStore, error) {
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	vectorDir := vectorDirFor(cfg)
	if err := store.Load(context.Background(), vectorDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load vector store from %s: %v\n", vectorDir, err)
		fmt.Fprintf(os.Stderr, "Document search will be empty. Run `partschat ingest` first.\n")
	}
	return store, nil
}

func vectorDirFor(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "vectordb")
}

func dbPathFor(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "partschat.db")
}

// buildWorkflow assembles the query-answering workflow from its stages.
func buildWorkflow(cfg *config.Config, database *db.DB, vectors vectordb.VectorStore, provider llm.Provider, c cache.Cache) *agent.Workflow {
	partStore := parts.NewStore(database)
	graphStore := graph.NewStore(database)

	classifier := agent.NewClassifier(provider, cfg.Model)
	retriever := agent.NewRetriever(partStore, graphStore, vectors, cfg.Retrieval.TopK, cfg.Retrieval.SampleLimit)
	generator := agent.NewGenerator(provider, cfg.Model, cfg.Temperature, cfg.Retrieval.ExcerptLimit)

	queryTTL := time.Duration(cfg.Cache.QueryTTLSec) * time.Second
	return agent.NewWorkflow(classifier, retriever, generator, c, queryTTL, cfg.Retrieval.AlwaysSearch)
}
