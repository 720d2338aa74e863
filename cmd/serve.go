package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/partschat/internal/db"
	"github.com/ziadkadry99/partschat/internal/graph"
	mcpserver "github.com/ziadkadry99/partschat/internal/mcp"
	"github.com/ziadkadry99/partschat/internal/parts"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing parts lookup and document search tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		embedder, err := createEmbedderFromConfig(cfg, nil)
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

		workflow := buildWorkflow(cfg, database, store, llmProvider, nil)
		partStore := parts.NewStore(database)
		graphStore := graph.NewStore(database)

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "partschat MCP server started on stdio (documents=%d)\n", store.Count())

		srv := mcpserver.NewServer(workflow, partStore, graphStore, store)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
