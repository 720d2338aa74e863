package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .partschat.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to partschat! Let's configure your installation.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.EmbeddingProvider = cfg.Provider

	// 2. Model.
	defaultModel := "gpt-4o"
	defaultEmbedding := "text-embedding-3-small"
	if cfg.Provider == ProviderOllama {
		defaultModel = "llama3.1"
		defaultEmbedding = "nomic-embed-text"
	}
	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: defaultModel,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	cfg.EmbeddingModel = defaultEmbedding

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (SQLite DB and vector index)",
		Default: "data",
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. API port.
	portPrompt := promptui.Prompt{
		Label:   "API port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 5. Optional Redis cache.
	redisPrompt := promptui.Prompt{
		Label:   "Redis address (leave blank for in-process cache)",
		Default: "",
	}
	if cfg.Cache.RedisAddr, err = redisPrompt.Run(); err != nil {
		return nil, fmt.Errorf("redis address: %w", err)
	}

	// 6. Ingest include patterns.
	includePrompt := promptui.Prompt{
		Label:   "Document include patterns (comma-separated globs)",
		Default: strings.Join(cfg.Ingest.Include, ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	if patterns := splitAndTrim(includeStr); len(patterns) > 0 {
		cfg.Ingest.Include = patterns
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before starting the server.\n", envVar)
	}

	configPath := ".partschat.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
