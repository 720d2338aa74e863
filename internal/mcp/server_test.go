package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/partschat/internal/agent"
	"github.com/ziadkadry99/partschat/internal/db"
	"github.com/ziadkadry99/partschat/internal/graph"
	"github.com/ziadkadry99/partschat/internal/llm"
	"github.com/ziadkadry99/partschat/internal/parts"
	"github.com/ziadkadry99/partschat/internal/vectordb"
)

// fakeProvider returns a fixed completion for every request.
type fakeProvider struct {
	response string
}

func (p *fakeProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: p.response}, nil
}

func (p *fakeProvider) Name() string { return "fake" }

// fakeVectorStore serves canned documents for semantic search.
type fakeVectorStore struct {
	docs []vectordb.Document
}

func (f *fakeVectorStore) AddDocuments(_ context.Context, docs []vectordb.Document) error {
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, _ string, limit int, filter *vectordb.SearchFilter) ([]vectordb.SearchResult, error) {
	var results []vectordb.SearchResult
	for _, doc := range f.docs {
		if filter != nil && filter.Type != nil && doc.Metadata.Type != *filter.Type {
			continue
		}
		results = append(results, vectordb.SearchResult{Document: doc, Similarity: 0.91})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (f *fakeVectorStore) GetBySource(_ context.Context, source string) ([]vectordb.Document, error) {
	var out []vectordb.Document
	for _, doc := range f.docs {
		if doc.Metadata.Source == source {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeVectorStore) DeleteBySource(context.Context, string) error { return nil }
func (f *fakeVectorStore) Persist(context.Context, string) error        { return nil }
func (f *fakeVectorStore) Load(context.Context, string) error           { return nil }
func (f *fakeVectorStore) Count() int                                   { return len(f.docs) }

func setupServer(t *testing.T) (*Server, *parts.Store, *graph.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	partStore := parts.NewStore(database)
	graphStore := graph.NewStore(database)
	vectors := &fakeVectorStore{docs: []vectordb.Document{
		{
			ID:      "1",
			Content: "펌프 교체 주기는 6개월입니다.",
			Metadata: vectordb.DocumentMetadata{
				Source: "pump-manual.md",
				Type:   vectordb.DocTypeManual,
				Page:   3,
			},
		},
	}}

	provider := &fakeProvider{response: "ABC-12345 재고는 850개이며 최소 기준 이상입니다. 출처: 부품 정보 1"}
	classifier := agent.NewClassifier(nil, "")
	retriever := agent.NewRetriever(partStore, graphStore, vectors, 5, 3)
	generator := agent.NewGenerator(provider, "gpt-4o-mini", 0.2, 450)
	workflow := agent.NewWorkflow(classifier, retriever, generator, nil, 0, false)

	return NewServer(workflow, partStore, graphStore, vectors), partStore, graphStore
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"ask_parts", askPartsTool, "ask_parts"},
		{"search_documents", searchDocumentsTool, "search_documents"},
		{"get_part", getPartTool, "get_part"},
		{"search_parts", searchPartsTool, "search_parts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv, _, _ := setupServer(t)
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestHandleAskParts(t *testing.T) {
	srv, partStore, _ := setupServer(t)
	ctx := context.Background()

	err := partStore.Upsert(ctx, parts.Part{
		PartID: "ABC-12345", Name: "진공 펌프 베어링", Category: "베어링",
		CurrentStock: 850, MinimumStock: 100,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	t.Run("grounded answer", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query": "ABC-12345 재고 알려줘",
		}

		result, err := srv.handleAskParts(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleAskParts(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})
}

func TestHandleSearchDocuments(t *testing.T) {
	srv, _, _ := setupServer(t)
	ctx := context.Background()

	t.Run("basic search", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query": "펌프 교체",
		}

		result, err := srv.handleSearchDocuments(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("type filter excludes all", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query":       "펌프",
			"type_filter": "report",
		}

		result, err := srv.handleSearchDocuments(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Error("empty results should not be an error")
		}
	})

	t.Run("missing query", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleSearchDocuments(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})
}

func TestHandleGetPart(t *testing.T) {
	srv, partStore, graphStore := setupServer(t)
	ctx := context.Background()

	err := partStore.Upsert(ctx, parts.Part{
		PartID: "XYZ-99101", Name: "오링 씰", Category: "씰",
		CurrentStock: 5, MinimumStock: 20,
		Spec: map[string]string{"재질": "불소고무"},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	err = graphStore.AddEdge(ctx, graph.Edge{
		PartID: "XYZ-99101", Relation: graph.RelSuppliedBy,
		TargetKind: "supplier", TargetID: "sup-1", TargetName: "한국씰테크",
	})
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	t.Run("existing part", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"part_id": "xyz-99101",
		}

		result, err := srv.handleGetPart(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("missing part", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"part_id": "ZZZ-00000",
		}

		result, err := srv.handleGetPart(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for unknown part")
		}
	})
}

func TestHandleSearchParts(t *testing.T) {
	srv, partStore, _ := setupServer(t)
	ctx := context.Background()

	err := partStore.Upsert(ctx, parts.Part{
		PartID: "ABC-12345", Name: "진공 펌프 베어링", Category: "베어링",
		CurrentStock: 850, MinimumStock: 100, Location: "A-03-12",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"query": "베어링",
	}

	result, err := srv.handleSearchParts(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
}

func TestFormatPart(t *testing.T) {
	p := &parts.Part{
		PartID: "XYZ-99101", Name: "오링 씰", Category: "씰",
		CurrentStock: 5, MinimumStock: 20,
		Spec: map[string]string{"재질": "불소고무", "내경": "25mm"},
	}
	pc := &graph.PartContext{
		PartID:    "XYZ-99101",
		Suppliers: []graph.Edge{{TargetName: "한국씰테크", Detail: "리드타임 2주"}},
	}

	out := formatPart(p, pc)
	for _, want := range []string{"XYZ-99101", "below minimum", "내경: 25mm", "한국씰테크", "리드타임 2주"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Spec keys render in sorted order.
	if strings.Index(out, "내경") > strings.Index(out, "재질") {
		t.Errorf("spec keys not sorted:\n%s", out)
	}
}
