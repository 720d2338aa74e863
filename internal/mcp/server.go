// Package mcp exposes the parts knowledge base to AI agents over the
// Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/partschat/internal/agent"
	"github.com/ziadkadry99/partschat/internal/graph"
	"github.com/ziadkadry99/partschat/internal/parts"
	"github.com/ziadkadry99/partschat/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes parts and document tools.
type Server struct {
	workflow *agent.Workflow
	parts    *parts.Store
	graph    *graph.Store
	vectors  vectordb.VectorStore
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(workflow *agent.Workflow, partStore *parts.Store, graphStore *graph.Store, vectors vectordb.VectorStore) *Server {
	s := &Server{
		workflow: workflow,
		parts:    partStore,
		graph:    graphStore,
		vectors:  vectors,
	}

	s.mcp = server.NewMCPServer(
		"partschat",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askPartsTool, s.handleAskParts)
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(getPartTool, s.handleGetPart)
	s.mcp.AddTool(searchPartsTool, s.handleSearchParts)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
