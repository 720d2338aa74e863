// Package cmd implements the partschat command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "partschat",
	Short: "RAG chatbot for semiconductor equipment parts",
	Long: `Partschat answers questions about semiconductor equipment parts by
combining a structured inventory, a part relation graph, and semantic
search over ingested equipment documents. It serves a REST and
WebSocket API and integrates with AI agents via MCP.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".partschat.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
