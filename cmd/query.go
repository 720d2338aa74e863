package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/partschat/internal/agent"
	"github.com/ziadkadry99/partschat/internal/cache"
	"github.com/ziadkadry99/partschat/internal/db"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a one-shot question from the command line",
	Long: `Runs the full question-answering workflow for a single question and
prints the grounded answer with its sources and confidence score.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Bool("json", false, "output the full answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cacheClient := cache.Connect(ctx, cfg.Cache.RedisAddr)
	defer cacheClient.Close()

	embedder, err := createEmbedderFromConfig(cfg, cacheClient)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	store, err := openVectorStore(cfg, embedder)
	if err != nil {
		return err
	}

	llmProvider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}

	database, err := db.Open(dbPathFor(cfg))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	workflow := buildWorkflow(cfg, database, store, llmProvider, cacheClient)
	result := workflow.Run(ctx, agent.Request{Query: question})

	if result.Err != "" {
		return fmt.Errorf("%s", result.Err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printAnswer(result.Answer)
	return nil
}

func printAnswer(answer *agent.Answer) {
	fmt.Println(answer.Content)
	fmt.Println()
	fmt.Printf("신뢰도: %.2f\n", answer.Confidence)
	for _, w := range answer.Warnings {
		fmt.Printf("주의: %s\n", w)
	}
	if len(answer.Sources) > 0 {
		fmt.Printf("출처 %d건\n", len(answer.Sources))
	}
}
