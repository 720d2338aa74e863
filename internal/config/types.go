package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level partschat configuration, corresponding to .partschat.yml.
type Config struct {
	Provider    ProviderType `yaml:"provider" koanf:"provider"`
	Model       string       `yaml:"model" koanf:"model"`
	BaseURL     string       `yaml:"base_url" koanf:"base_url"`
	Temperature float64      `yaml:"temperature" koanf:"temperature"`

	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	DataDir string `yaml:"data_dir" koanf:"data_dir"`
	Port    int    `yaml:"port" koanf:"port"`

	Retrieval RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Cache     CacheConfig     `yaml:"cache" koanf:"cache"`
	Ingest    IngestConfig    `yaml:"ingest" koanf:"ingest"`
}

// RetrievalConfig tunes the retrieval stage of the chat workflow.
type RetrievalConfig struct {
	TopK           int  `yaml:"top_k" koanf:"top_k"`
	ExcerptLimit   int  `yaml:"excerpt_limit" koanf:"excerpt_limit"`
	SampleLimit    int  `yaml:"sample_limit" koanf:"sample_limit"`
	ShortTermTurns int  `yaml:"short_term_turns" koanf:"short_term_turns"`
	AlwaysSearch   bool `yaml:"always_search" koanf:"always_search"`
}

// CacheConfig holds Redis cache settings. An empty address disables Redis
// and falls back to the in-process cache.
type CacheConfig struct {
	RedisAddr       string `yaml:"redis_addr" koanf:"redis_addr"`
	QueryTTLSec     int    `yaml:"query_ttl_sec" koanf:"query_ttl_sec"`
	EmbeddingTTLSec int    `yaml:"embedding_ttl_sec" koanf:"embedding_ttl_sec"`
}

// IngestConfig controls the document ingestion pipeline. VisionModel, when
// set, names a vision-capable chat model used to summarize images referenced
// by ingested documents; empty disables image summarization.
type IngestConfig struct {
	ChunkSize   int      `yaml:"chunk_size" koanf:"chunk_size"`
	Overlap     int      `yaml:"overlap" koanf:"overlap"`
	Include     []string `yaml:"include" koanf:"include"`
	Exclude     []string `yaml:"exclude" koanf:"exclude"`
	VisionModel string   `yaml:"vision_model" koanf:"vision_model"`
}
