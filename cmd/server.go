package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/partschat/internal/cache"
	"github.com/ziadkadry99/partschat/internal/chat"
	"github.com/ziadkadry99/partschat/internal/config"
	"github.com/ziadkadry99/partschat/internal/db"
	"github.com/ziadkadry99/partschat/internal/export"
	"github.com/ziadkadry99/partschat/internal/feedback"
	"github.com/ziadkadry99/partschat/internal/ingest"
	"github.com/ziadkadry99/partschat/internal/llm"
	"github.com/ziadkadry99/partschat/internal/memory"
	"github.com/ziadkadry99/partschat/internal/parts"
	"github.com/ziadkadry99/partschat/internal/progress"
	"github.com/ziadkadry99/partschat/internal/server"
	"github.com/ziadkadry99/partschat/internal/settings"
	"github.com/ziadkadry99/partschat/internal/vectordb"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the partschat API server",
	Long:  `Starts the partschat server with the chat REST API, WebSocket endpoint, and document ingestion routes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort != 0 {
			cfg.Port = serverPort
		}

		ctx := context.Background()

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

		dbPath := dbPathFor(cfg)
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:     cfg.Port,
			DataDir:  cfg.DataDir,
			AllowAll: true,
		}, database, store, llmProvider, cfg.Model)

		registerAllRoutes(srv, cfg, database, store, llmProvider, cacheClient)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "partschat server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Documents indexed: %d\n", store.Count())

		return srv.Start()
	},
}

// registerAllRoutes wires up all feature routes.
func registerAllRoutes(srv *server.Server, cfg *config.Config, database *db.DB, store vectordb.VectorStore, llmProvider llm.Provider, cacheClient cache.Cache) {
	r := srv.Router()

	// Parts inventory.
	partStore := parts.NewStore(database)
	parts.RegisterRoutes(r, partStore)

	// User settings.
	settingsStore := settings.NewStore(database)
	settings.RegisterRoutes(r, settingsStore)

	// Long-term memory.
	memoryStore := memory.NewStore(database)
	memoryManager := memory.NewManager(memoryStore, llmProvider, cfg.Model, cfg.Retrieval.ShortTermTurns)
	memory.RegisterRoutes(r, memoryStore)

	// Chat workflow.
	workflow := buildWorkflow(cfg, database, store, llmProvider, cacheClient)
	chatStore := chat.NewStore(database)
	chatService := chat.NewService(chatStore, workflow, memoryManager, settingsStore)
	chat.RegisterRoutes(r, chatService)

	// Feedback and learned knowledge.
	feedbackStore := feedback.NewStore(database)
	feedback.RegisterRoutes(r, feedbackStore)

	// Conversation export.
	export.RegisterRoutes(r, chatStore)

	// Document ingestion.
	ingestStore := ingest.NewStore(database)
	chunker := ingest.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.Overlap)
	pipeline := ingest.NewPipeline(ingestStore, store, chunker, progress.NopReporter{})
	ingest.RegisterRoutes(r, ingestStore, pipeline)
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
