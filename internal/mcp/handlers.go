package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/partschat/internal/agent"
	"github.com/ziadkadry99/partschat/internal/graph"
	"github.com/ziadkadry99/partschat/internal/parts"
	"github.com/ziadkadry99/partschat/internal/vectordb"
)

// handleAskParts runs the full question-answering workflow for the query.
func (s *Server) handleAskParts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	result := s.workflow.Run(ctx, agent.Request{Query: query})
	if result.Err != "" {
		return mcp.NewToolResultError(result.Err), nil
	}

	return mcp.NewToolResultText(formatAnswer(result.Answer)), nil
}

// handleSearchDocuments performs semantic search over the document store.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	var filter *vectordb.SearchFilter
	if typeStr := request.GetString("type_filter", ""); typeStr != "" {
		docType := vectordb.DocumentType(typeStr)
		filter = &vectordb.SearchFilter{Type: &docType}
	}

	results, err := s.vectors.Search(ctx, query, limit, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. Documents may not be ingested yet. Run `partschat ingest` to index them."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleGetPart returns a part record with its relation context.
func (s *Server) handleGetPart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	partID, err := request.RequireString("part_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: part_id"), nil
	}

	part, err := s.parts.GetByID(ctx, strings.ToUpper(partID))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if part == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no part found with ID %q", partID)), nil
	}

	pc, err := s.graph.Context(ctx, part.PartID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("relation lookup failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatPart(part, pc)), nil
}

// handleSearchParts searches the parts inventory.
func (s *Server) handleSearchParts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	found, err := s.parts.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(found) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No parts matched %q.", query)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d part(s):\n", len(found)))
	for _, p := range found {
		sb.WriteString(fmt.Sprintf("\n%s | %s | %s | stock %d/%d | %s\n",
			p.PartID, p.Name, p.Category, p.CurrentStock, p.MinimumStock, p.Location))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatAnswer converts a workflow answer into text for agent consumption.
func formatAnswer(answer *agent.Answer) string {
	var sb strings.Builder
	sb.WriteString(answer.Content)
	sb.WriteString(fmt.Sprintf("\n\nConfidence: %.2f\n", answer.Confidence))

	for _, w := range answer.Warnings {
		sb.WriteString("Warning: " + w + "\n")
	}
	if len(answer.Sources) > 0 {
		sb.WriteString(fmt.Sprintf("Sources: %d\n", len(answer.Sources)))
	}
	return sb.String()
}

// formatSearchResults converts search results into a rich text format
// optimized for AI agent consumption.
func formatSearchResults(results []vectordb.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))

		location := r.Document.Metadata.Source
		if r.Document.Metadata.Page > 0 {
			location += fmt.Sprintf(" p.%d", r.Document.Metadata.Page)
		}
		sb.WriteString(fmt.Sprintf("Source: %s\n", location))

		if r.Document.Metadata.Type != "" {
			sb.WriteString(fmt.Sprintf("Type: %s\n", r.Document.Metadata.Type))
		}
		sb.WriteString(fmt.Sprintf("Similarity: %.1f%%\n", r.Similarity*100))

		sb.WriteString("\n")
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatPart renders a part record with its one-hop relation context.
func formatPart(p *parts.Part, pc *graph.PartContext) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Part: %s (%s)\n", p.PartID, p.Name))
	sb.WriteString(fmt.Sprintf("Category: %s\n", p.Category))
	sb.WriteString(fmt.Sprintf("Stock: %d (minimum %d)\n", p.CurrentStock, p.MinimumStock))
	if p.BelowMinimum() {
		sb.WriteString("Stock alert: below minimum level\n")
	}
	sb.WriteString(fmt.Sprintf("Unit price: %.2f\n", p.UnitPrice))
	if p.Supplier != "" {
		sb.WriteString(fmt.Sprintf("Supplier: %s\n", p.Supplier))
	}
	if p.Location != "" {
		sb.WriteString(fmt.Sprintf("Location: %s\n", p.Location))
	}

	if len(p.Spec) > 0 {
		sb.WriteString("Specifications:\n")
		keys := make([]string, 0, len(p.Spec))
		for k := range p.Spec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, p.Spec[k]))
		}
	}

	if pc != nil && !pc.Empty() {
		writeEdges(&sb, "Suppliers", pc.Suppliers)
		writeEdges(&sb, "Used in equipment", pc.Equipment)
		writeEdges(&sb, "Similar parts", pc.SimilarParts)
		writeEdges(&sb, "Related documents", pc.Documents)
	}

	return sb.String()
}

func writeEdges(sb *strings.Builder, label string, edges []graph.Edge) {
	if len(edges) == 0 {
		return
	}
	sb.WriteString(label + ":\n")
	for _, e := range edges {
		line := "  " + e.TargetName
		if e.TargetName == "" {
			line = "  " + e.TargetID
		}
		if e.Detail != "" {
			line += " (" + e.Detail + ")"
		}
		sb.WriteString(line + "\n")
	}
}
