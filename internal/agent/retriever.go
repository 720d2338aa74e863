package agent

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ziadkadry99/partschat/internal/graph"
	"github.com/ziadkadry99/partschat/internal/parts"
	"github.com/ziadkadry99/partschat/internal/vectordb"
)

// PartStore is the structured-store contract the retriever needs.
type PartStore interface {
	GetByID(ctx context.Context, partID string) (*parts.Part, error)
	Search(ctx context.Context, term string, limit int) ([]parts.Part, error)
	Sample(ctx context.Context, n int) ([]parts.Part, error)
}

// GraphStore is the optional relation-context contract. A nil GraphStore
// simply disables enrichment.
type GraphStore interface {
	Context(ctx context.Context, partID string) (*graph.PartContext, error)
}

// DocumentSearcher is the vector-store contract the retriever needs.
type DocumentSearcher interface {
	Search(ctx context.Context, query string, limit int, filter *vectordb.SearchFilter) ([]vectordb.SearchResult, error)
}

// Retriever fans out to the structured and vector stores according to a
// classification and normalizes the results into RetrievedItems.
type Retriever struct {
	parts       PartStore
	graph       GraphStore
	documents   DocumentSearcher
	topK        int
	sampleLimit int
}

// NewRetriever creates a retriever. graphStore may be nil.
func NewRetriever(partStore PartStore, graphStore GraphStore, documents DocumentSearcher, topK, sampleLimit int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if sampleLimit <= 0 {
		sampleLimit = 3
	}
	return &Retriever{
		parts:       partStore,
		graph:       graphStore,
		documents:   documents,
		topK:        topK,
		sampleLimit: sampleLimit,
	}
}

// Retrieve runs the needed lookups concurrently and joins the results with
// structured items first. A failing backend degrades to an empty result set
// for that source; Retrieve itself never fails.
func (r *Retriever) Retrieve(ctx context.Context, cls *Classification, query string) []RetrievedItem {
	var (
		wg         sync.WaitGroup
		structured []RetrievedItem
		chunks     []RetrievedItem
	)

	if cls.NeedsSource(SourceStructured) && r.parts != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			structured = r.retrieveStructured(ctx, cls, query)
		}()
	}
	if cls.NeedsSource(SourceVector) && r.documents != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chunks = r.retrieveChunks(ctx, query)
		}()
	}
	wg.Wait()

	return append(structured, chunks...)
}

// retrieveStructured looks up parts by extracted ids, falling back to a
// keyword search and finally to a bounded sample so the generation prompt is
// never empty when structured data was requested.
func (r *Retriever) retrieveStructured(ctx context.Context, cls *Classification, query string) []RetrievedItem {
	var found []parts.Part
	seen := make(map[string]bool)

	for _, id := range cls.Entities["part_numbers"] {
		p, err := r.parts.GetByID(ctx, id)
		if err != nil {
			log.Printf("part lookup %s failed: %v", id, err)
			continue
		}
		if p != nil && !seen[p.PartID] {
			seen[p.PartID] = true
			found = append(found, *p)
		}
	}

	if len(found) == 0 {
		term := query
		if names := cls.Entities["part_names"]; len(names) > 0 {
			term = names[0]
		}
		results, err := r.parts.Search(ctx, term, r.topK)
		if err != nil {
			log.Printf("part search failed: %v", err)
		}
		for _, p := range results {
			if !seen[p.PartID] {
				seen[p.PartID] = true
				found = append(found, p)
			}
		}
	}

	if len(found) == 0 {
		sample, err := r.parts.Sample(ctx, r.sampleLimit)
		if err != nil {
			log.Printf("part sampling failed: %v", err)
			return nil
		}
		found = sample
	}

	items := make([]RetrievedItem, 0, len(found))
	for _, p := range found {
		items = append(items, r.partToItem(ctx, p))
	}
	return items
}

// partToItem renders a part record as a text block, enriched with the part's
// one-hop relation context when a graph store is configured.
func (r *Retriever) partToItem(ctx context.Context, p parts.Part) RetrievedItem {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("부품 ID: %s\n이름: %s\n카테고리: %s\n", p.PartID, p.Name, p.Category))
	sb.WriteString(fmt.Sprintf("현재 재고: %d\n최소 재고: %d\n", p.CurrentStock, p.MinimumStock))
	if p.UnitPrice > 0 {
		sb.WriteString(fmt.Sprintf("단가: %.0f원\n", p.UnitPrice))
	}
	if p.Supplier != "" {
		sb.WriteString("공급사: " + p.Supplier + "\n")
	}
	if p.Location != "" {
		sb.WriteString("보관 위치: " + p.Location + "\n")
	}
	for _, kv := range sortedSpec(p.Spec) {
		sb.WriteString(fmt.Sprintf("사양 %s: %s\n", kv[0], kv[1]))
	}

	if r.graph != nil {
		if pc, err := r.graph.Context(ctx, p.PartID); err != nil {
			log.Printf("graph context for %s failed: %v", p.PartID, err)
		} else if pc != nil && !pc.Empty() {
			sb.WriteString(renderGraphContext(pc))
		}
	}

	return RetrievedItem{
		Content:    sb.String(),
		SourceKind: KindStructuredRecord,
		Metadata: map[string]string{
			"part_id": p.PartID,
			"name":    p.Name,
		},
	}
}

func renderGraphContext(pc *graph.PartContext) string {
	var sb strings.Builder
	writeEdges := func(label string, edges []graph.Edge) {
		if len(edges) == 0 {
			return
		}
		names := make([]string, 0, len(edges))
		for _, e := range edges {
			name := e.TargetName
			if name == "" {
				name = e.TargetID
			}
			if e.Detail != "" {
				name += " (" + e.Detail + ")"
			}
			names = append(names, name)
		}
		sb.WriteString(label + ": " + strings.Join(names, ", ") + "\n")
	}
	writeEdges("공급처", pc.Suppliers)
	writeEdges("사용 장비", pc.Equipment)
	writeEdges("유사 부품", pc.SimilarParts)
	writeEdges("관련 문서", pc.Documents)
	return sb.String()
}

// sortedSpec returns spec entries in key order for deterministic rendering.
func sortedSpec(spec map[string]string) [][2]string {
	if len(spec) == 0 {
		return nil
	}
	keys := make([]string, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, spec[k]})
	}
	return out
}

// retrieveChunks runs a k-nearest-neighbor search over the document store.
func (r *Retriever) retrieveChunks(ctx context.Context, query string) []RetrievedItem {
	results, err := r.documents.Search(ctx, query, r.topK, nil)
	if err != nil {
		log.Printf("document search failed: %v", err)
		return nil
	}

	items := make([]RetrievedItem, 0, len(results))
	for _, res := range results {
		score := float64(res.Similarity)
		meta := map[string]string{
			"source":      res.Document.Metadata.Source,
			"page":        strconv.Itoa(res.Document.Metadata.Page),
			"chunk_index": strconv.Itoa(res.Document.Metadata.ChunkIndex),
		}
		if s := res.Document.Metadata.ImageSummary; s != "" {
			meta["image_summary"] = s
		}
		items = append(items, RetrievedItem{
			Content:    res.Document.Content,
			SourceKind: KindDocumentChunk,
			Metadata:   meta,
			Similarity: &score,
		})
	}
	return items
}
