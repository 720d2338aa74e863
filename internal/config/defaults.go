package config

// DefaultExcludes are glob patterns excluded from ingestion by default.
var DefaultExcludes = []string{
	".git/**",
	"*.tmp",
	"*.lock",
	"~$*",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o",
		Temperature:       0.2,
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		DataDir:           "data",
		Port:              5000,
		Retrieval: RetrievalConfig{
			TopK:           5,
			ExcerptLimit:   450,
			SampleLimit:    3,
			ShortTermTurns: 5,
			AlwaysSearch:   false,
		},
		Cache: CacheConfig{
			QueryTTLSec:     1800,
			EmbeddingTTLSec: 86400,
		},
		Ingest: IngestConfig{
			ChunkSize: 1000,
			Overlap:   200,
			Include:   []string{"**"},
			Exclude:   DefaultExcludes,
		},
	}
}
