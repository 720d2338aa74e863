package embeddings

import (
	"fmt"
	"os"
)

// NewEmbedder creates an embedder based on the given provider type and model.
// Supported provider types: "openai", "ollama".
func NewEmbedder(providerType, model, baseURL string) (Embedder, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(model), baseURL), nil

	case "ollama":
		host := baseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		// 768 covers nomic-embed-text, the usual local model.
		return NewOllamaEmbedder(model, 768, host), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider type: %s", providerType)
	}
}
