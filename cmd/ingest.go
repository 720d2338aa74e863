package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/partschat/internal/cache"
	"github.com/ziadkadry99/partschat/internal/db"
	"github.com/ziadkadry99/partschat/internal/ingest"
	"github.com/ziadkadry99/partschat/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Ingest documents into the vector store",
	Long: `Walks a directory, chunks and embeds every matching document, and
persists the vector index. Unchanged documents are skipped on repeat runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSlice("include", nil, "include glob patterns (overrides config)")
	ingestCmd.Flags().StringSlice("exclude", nil, "extra exclude glob patterns")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dir := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	include, _ := cmd.Flags().GetStringSlice("include")
	if len(include) == 0 {
		include = cfg.Ingest.Include
	}
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	exclude = append(exclude, cfg.Ingest.Exclude...)

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

	database, err := db.Open(dbPathFor(cfg))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	ingestStore := ingest.NewStore(database)
	chunker := ingest.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.Overlap)
	pipeline := ingest.NewPipeline(ingestStore, store, chunker, progress.NewReporter())

	if cfg.Ingest.VisionModel != "" {
		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating vision provider: %w", err)
		}
		pipeline.WithVision(ingest.NewVisionSummarizer(provider, cfg.Ingest.VisionModel))
	}

	result, err := pipeline.IngestDir(ctx, dir, include, exclude)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	if err := store.Persist(ctx, vectorDirFor(cfg)); err != nil {
		return fmt.Errorf("persisting vector store: %w", err)
	}

	fmt.Printf("Ingested %d document(s), %d chunk(s)\n", len(result.Ingested), result.Chunks)
	if len(result.Skipped) > 0 {
		fmt.Printf("Skipped %d unchanged document(s)\n", len(result.Skipped))
	}
	if len(result.Failed) > 0 {
		fmt.Fprintf(os.Stderr, "Failed to ingest %d document(s): %v\n", len(result.Failed), result.Failed)
	}
	return nil
}
