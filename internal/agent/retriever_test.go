package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ziadkadry99/partschat/internal/graph"
	"github.com/ziadkadry99/partschat/internal/parts"
	"github.com/ziadkadry99/partschat/internal/vectordb"
)

// fakePartStore serves parts from a map.
type fakePartStore struct {
	byID       map[string]parts.Part
	searchHits []parts.Part
	sampleHits []parts.Part
}

func (f *fakePartStore) GetByID(_ context.Context, id string) (*parts.Part, error) {
	if p, ok := f.byID[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakePartStore) Search(_ context.Context, _ string, _ int) ([]parts.Part, error) {
	return f.searchHits, nil
}

func (f *fakePartStore) Sample(_ context.Context, _ int) ([]parts.Part, error) {
	return f.sampleHits, nil
}

// failingPartStore errors on every call.
type failingPartStore struct{}

func (failingPartStore) GetByID(context.Context, string) (*parts.Part, error) {
	return nil, errors.New("store unreachable")
}
func (failingPartStore) Search(context.Context, string, int) ([]parts.Part, error) {
	return nil, errors.New("store unreachable")
}
func (failingPartStore) Sample(context.Context, int) ([]parts.Part, error) {
	return nil, errors.New("store unreachable")
}

// fakeSearcher returns canned vector search results.
type fakeSearcher struct {
	results []vectordb.SearchResult
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int, _ *vectordb.SearchFilter) ([]vectordb.SearchResult, error) {
	return f.results, f.err
}

// fakeGraph returns a fixed context for one part.
type fakeGraph struct {
	partID string
	pc     *graph.PartContext
}

func (f *fakeGraph) Context(_ context.Context, partID string) (*graph.PartContext, error) {
	if partID == f.partID {
		return f.pc, nil
	}
	return &graph.PartContext{PartID: partID}, nil
}

func classificationFor(sources ...DataSource) *Classification {
	return &Classification{
		Intent:      IntentMixed,
		DataSources: sources,
		Entities: map[string][]string{
			"part_numbers": {"ABC-12345"},
		},
	}
}

func TestRetrieveByID(t *testing.T) {
	store := &fakePartStore{byID: map[string]parts.Part{
		"ABC-12345": {PartID: "ABC-12345", Name: "진공 펌프 베어링", CurrentStock: 850},
	}}
	r := NewRetriever(store, nil, nil, 5, 3)

	items := r.Retrieve(context.Background(), classificationFor(SourceStructured), "ABC-12345 재고는?")

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].SourceKind != KindStructuredRecord {
		t.Errorf("unexpected source kind: %s", items[0].SourceKind)
	}
	if items[0].Similarity != nil {
		t.Error("structured items must not carry a similarity score")
	}
	if !strings.Contains(items[0].Content, "850") {
		t.Errorf("stock missing from rendered content: %s", items[0].Content)
	}
}

func TestRetrieveKeywordFallback(t *testing.T) {
	store := &fakePartStore{
		byID:       map[string]parts.Part{},
		searchHits: []parts.Part{{PartID: "QTZ-00012", Name: "쿼츠 튜브"}},
	}
	r := NewRetriever(store, nil, nil, 5, 3)

	cls := classificationFor(SourceStructured)
	cls.Entities["part_numbers"] = []string{"ZZZ-00000"}
	items := r.Retrieve(context.Background(), cls, "쿼츠 튜브 재고")

	if len(items) != 1 || items[0].Metadata["part_id"] != "QTZ-00012" {
		t.Errorf("expected keyword fallback hit, got %+v", items)
	}
}

func TestRetrieveSampleFallback(t *testing.T) {
	store := &fakePartStore{
		byID:       map[string]parts.Part{},
		sampleHits: []parts.Part{{PartID: "S-001", Name: "샘플1"}, {PartID: "S-002", Name: "샘플2"}},
	}
	r := NewRetriever(store, nil, nil, 5, 3)

	items := r.Retrieve(context.Background(), classificationFor(SourceStructured), "재고 현황 알려줘")

	if len(items) != 2 {
		t.Errorf("expected bounded sample when nothing matches, got %d items", len(items))
	}
}

func TestRetrieveDegradesOnFailure(t *testing.T) {
	r := NewRetriever(failingPartStore{}, nil, &fakeSearcher{err: errors.New("down")}, 5, 3)

	items := r.Retrieve(context.Background(), classificationFor(SourceStructured, SourceVector), "ABC-12345 재고")

	if len(items) != 0 {
		t.Errorf("failing backends must degrade to empty, got %d items", len(items))
	}
}

func TestRetrieveStructuredFirst(t *testing.T) {
	store := &fakePartStore{byID: map[string]parts.Part{
		"ABC-12345": {PartID: "ABC-12345", Name: "베어링"},
	}}
	searcher := &fakeSearcher{results: []vectordb.SearchResult{
		{Document: vectordb.Document{Content: "정비 절차", Metadata: vectordb.DocumentMetadata{Source: "manual.pdf"}}, Similarity: 0.82},
	}}
	r := NewRetriever(store, nil, searcher, 5, 3)

	items := r.Retrieve(context.Background(), classificationFor(SourceStructured, SourceVector), "ABC-12345 정비 방법")

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].SourceKind != KindStructuredRecord || items[1].SourceKind != KindDocumentChunk {
		t.Errorf("structured items must come first: %s, %s", items[0].SourceKind, items[1].SourceKind)
	}
	if items[1].Similarity == nil || *items[1].Similarity != 0.82 {
		t.Errorf("vector hit must keep its similarity score: %v", items[1].Similarity)
	}
}

func TestRetrieveCarriesImageSummary(t *testing.T) {
	searcher := &fakeSearcher{results: []vectordb.SearchResult{
		{
			Document: vectordb.Document{
				Content: "펌프 분해 순서",
				Metadata: vectordb.DocumentMetadata{
					Source:       "pump-manual.md",
					ImageSummary: "펌프 단면도: 베어링 위치 도면.",
				},
			},
			Similarity: 0.8,
		},
	}}
	r := NewRetriever(nil, nil, searcher, 5, 3)

	items := r.Retrieve(context.Background(), classificationFor(SourceVector), "펌프 구조")

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Metadata["image_summary"] != "펌프 단면도: 베어링 위치 도면." {
		t.Errorf("image summary missing from item metadata: %v", items[0].Metadata)
	}
}

func TestRetrieveDedupesByPartID(t *testing.T) {
	store := &fakePartStore{byID: map[string]parts.Part{
		"ABC-12345": {PartID: "ABC-12345", Name: "베어링"},
	}}
	r := NewRetriever(store, nil, nil, 5, 3)

	cls := classificationFor(SourceStructured)
	cls.Entities["part_numbers"] = []string{"ABC-12345", "ABC-12345"}
	items := r.Retrieve(context.Background(), cls, "ABC-12345")

	if len(items) != 1 {
		t.Errorf("duplicate ids must dedupe, got %d items", len(items))
	}
}

func TestRetrieveGraphEnrichment(t *testing.T) {
	store := &fakePartStore{byID: map[string]parts.Part{
		"ABC-12345": {PartID: "ABC-12345", Name: "베어링"},
	}}
	g := &fakeGraph{
		partID: "ABC-12345",
		pc: &graph.PartContext{
			PartID:    "ABC-12345",
			Suppliers: []graph.Edge{{TargetName: "한국정밀", Detail: "리드타임 2주"}},
			Equipment: []graph.Edge{{TargetName: "식각 장비 7호기"}},
		},
	}
	r := NewRetriever(store, g, nil, 5, 3)

	items := r.Retrieve(context.Background(), classificationFor(SourceStructured), "ABC-12345")

	if len(items) != 1 {
		t.Fatalf("enrichment must not add or remove items, got %d", len(items))
	}
	if !strings.Contains(items[0].Content, "한국정밀") || !strings.Contains(items[0].Content, "식각 장비 7호기") {
		t.Errorf("graph context missing from content: %s", items[0].Content)
	}
}
