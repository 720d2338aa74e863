package vectordb

import (
	"context"
	"math"
	"os"
	"strings"
	"testing"
	"time"
)

// mockEmbedder returns deterministic embeddings based on text content.
// It produces a simple hash-based vector for reproducible tests.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

// deterministicVector produces a normalized vector from text. Similar texts
// produce similar vectors because shared characters contribute to the same
// positions in the vector.
func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func TestChromemStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	docs := []Document{
		{
			ID:      "doc1",
			Content: "펌프 교체 절차: 전원을 차단한 후 배관 밸브를 잠급니다",
			Metadata: DocumentMetadata{
				Source:      "pump_manual.pdf",
				Type:        DocTypeManual,
				Page:        12,
				ChunkIndex:  0,
				TotalChunks: 3,
				ContentHash: "abc123",
				IngestedAt:  time.Now(),
			},
		},
		{
			ID:      "doc2",
			Content: "월간 재고 실사 보고서 작성 기준 및 승인 절차",
			Metadata: DocumentMetadata{
				Source:      "inventory_policy.pdf",
				Type:        DocTypeGuideline,
				Page:        1,
				ChunkIndex:  0,
				TotalChunks: 1,
				ContentHash: "def456",
				IngestedAt:  time.Now(),
			},
		},
		{
			ID:      "doc3",
			Content: "밸브 사양: 최대 압력 10bar, 작동 온도 -20~120도",
			Metadata: DocumentMetadata{
				Source:      "valve_datasheet.pdf",
				Type:        DocTypeDatasheet,
				Page:        2,
				ChunkIndex:  1,
				TotalChunks: 2,
				ContentHash: "ghi789",
				IngestedAt:  time.Now(),
			},
		},
	}

	if err := store.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	if count := store.Count(); count != 3 {
		t.Errorf("Count: got %d, want 3", count)
	}

	results, err := store.Search(ctx, "펌프 교체 방법", 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search returned no results")
	}
	if len(results) > 2 {
		t.Errorf("Search returned %d results, expected at most 2", len(results))
	}

	for _, r := range results {
		if r.Similarity == 0 {
			t.Error("result has zero similarity")
		}
	}
}

func TestChromemStore_SearchWithFilter(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	docs := []Document{
		{
			ID:      "f1",
			Content: "장비 점검 체크리스트",
			Metadata: DocumentMetadata{
				Source: "checklist.pdf",
				Type:   DocTypeManual,
			},
		},
		{
			ID:      "f2",
			Content: "장비 점검 결과 보고",
			Metadata: DocumentMetadata{
				Source: "report_2026_08.pdf",
				Type:   DocTypeReport,
			},
		},
	}

	if err := store.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	docType := DocTypeReport
	results, err := store.Search(ctx, "장비 점검", 10, &SearchFilter{Type: &docType})
	if err != nil {
		t.Fatalf("Search with filter: %v", err)
	}

	for _, r := range results {
		if r.Document.Metadata.Type != DocTypeReport {
			t.Errorf("expected type report, got %s", r.Document.Metadata.Type)
		}
	}
}

func TestChromemStore_SearchEmpty(t *testing.T) {
	store, err := NewChromemStore(newMockEmbedder(64))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	results, err := store.Search(context.Background(), "anything", 5, nil)
	if err != nil {
		t.Fatalf("Search on empty store: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestChromemStore_DeleteBySource(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	docs := []Document{
		{
			ID:      "d1",
			Content: "first chunk",
			Metadata: DocumentMetadata{
				Source: "manual_a.pdf",
				Type:   DocTypeManual,
			},
		},
		{
			ID:      "d2",
			Content: "second chunk",
			Metadata: DocumentMetadata{
				Source: "manual_b.pdf",
				Type:   DocTypeManual,
			},
		},
	}

	if err := store.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	if count := store.Count(); count != 2 {
		t.Fatalf("Count before delete: got %d, want 2", count)
	}

	if err := store.DeleteBySource(ctx, "manual_a.pdf"); err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}

	if count := store.Count(); count != 1 {
		t.Errorf("Count after delete: got %d, want 1", count)
	}
}

func TestChromemStore_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	now := time.Now().Truncate(time.Second)
	docs := []Document{
		{
			ID:      "persist1",
			Content: "펌프 정비 주기는 6개월입니다",
			Metadata: DocumentMetadata{
				Source:      "maintenance.pdf",
				Type:        DocTypeManual,
				Page:        5,
				ChunkIndex:  2,
				TotalChunks: 8,
				ContentHash: "hash1",
				IngestedAt:  now,
			},
		},
		{
			ID:      "persist2",
			Content: "자재 출고는 전산 승인 후 가능합니다",
			Metadata: DocumentMetadata{
				Source:      "issuance_policy.pdf",
				Type:        DocTypeGuideline,
				Page:        1,
				ChunkIndex:  0,
				TotalChunks: 1,
				ContentHash: "hash2",
				IngestedAt:  now,
			},
		},
	}

	if err := store.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	tmpDir, err := os.MkdirTemp("", "chromem-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := store.Persist(ctx, tmpDir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	store2, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore for load: %v", err)
	}

	if err := store2.Load(ctx, tmpDir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if count := store2.Count(); count != 2 {
		t.Errorf("Count after load: got %d, want 2", count)
	}

	results, err := store2.Search(ctx, "정비 출고", 2, nil)
	if err != nil {
		t.Fatalf("Search after load: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search after load returned %d results, want 2", len(results))
	}

	foundManual, foundPolicy := false, false
	for _, r := range results {
		switch r.Document.Metadata.Source {
		case "maintenance.pdf":
			foundManual = true
			if r.Document.Metadata.Page != 5 {
				t.Errorf("maintenance.pdf: expected page 5, got %d", r.Document.Metadata.Page)
			}
			if r.Document.Metadata.Type != DocTypeManual {
				t.Errorf("maintenance.pdf: expected type manual, got %s", r.Document.Metadata.Type)
			}
			if r.Document.Metadata.TotalChunks != 8 {
				t.Errorf("maintenance.pdf: expected 8 total chunks, got %d", r.Document.Metadata.TotalChunks)
			}
		case "issuance_policy.pdf":
			foundPolicy = true
			if r.Document.Metadata.Type != DocTypeGuideline {
				t.Errorf("issuance_policy.pdf: expected type guideline, got %s", r.Document.Metadata.Type)
			}
		}
	}
	if !foundManual {
		t.Error("maintenance.pdf chunk not found after load")
	}
	if !foundPolicy {
		t.Error("issuance_policy.pdf chunk not found after load")
	}
}

func TestFormatResults(t *testing.T) {
	results := []SearchResult{
		{
			Document: Document{
				ID:      "r1",
				Content: "펌프 교체 절차 안내",
				Metadata: DocumentMetadata{
					Source:      "pump_manual.pdf",
					Type:        DocTypeManual,
					Page:        12,
					ChunkIndex:  1,
					TotalChunks: 4,
				},
			},
			Similarity: 0.9512,
		},
	}

	output := FormatResults(results)
	if output == "" {
		t.Error("FormatResults returned empty string")
	}
	if !strings.Contains(output, "pump_manual.pdf p.12 (chunk 2/4)") {
		t.Errorf("expected source location in output, got: %s", output)
	}
	if !strings.Contains(output, "0.9512") {
		t.Errorf("expected similarity score in output, got: %s", output)
	}
}

func TestFormatResults_Empty(t *testing.T) {
	output := FormatResults(nil)
	if output != "No results found." {
		t.Errorf("expected 'No results found.', got: %s", output)
	}
}
