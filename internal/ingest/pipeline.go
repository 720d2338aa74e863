package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/partschat/internal/progress"
	"github.com/ziadkadry99/partschat/internal/vectordb"
)

// Pipeline ingests documents: discover, parse, chunk and embed them into
// the vector store, recording each source so unchanged files are skipped
// on later runs.
type Pipeline struct {
	store    *Store
	vectors  vectordb.VectorStore
	chunker  *Chunker
	reporter progress.Reporter
	vision   ImageSummarizer
}

// NewPipeline creates an ingestion pipeline. A nil reporter discards
// progress updates.
func NewPipeline(store *Store, vectors vectordb.VectorStore, chunker *Chunker, reporter progress.Reporter) *Pipeline {
	if chunker == nil {
		chunker = NewChunker(DefaultChunkSize, DefaultOverlap)
	}
	if reporter == nil {
		reporter = progress.NopReporter{}
	}
	return &Pipeline{store: store, vectors: vectors, chunker: chunker, reporter: reporter}
}

// WithVision enables image summarization for documents that reference
// images. Without it, image references are ingested as plain text only.
func (p *Pipeline) WithVision(v ImageSummarizer) *Pipeline {
	p.vision = v
	return p
}

// Result summarises one ingestion run.
type Result struct {
	Ingested []string `json:"ingested"`
	Skipped  []string `json:"skipped"`
	Failed   []string `json:"failed"`
	Chunks   int      `json:"chunks"`
}

// IngestDir walks a directory and ingests every document it finds.
func (p *Pipeline) IngestDir(ctx context.Context, dir string, include, exclude []string) (*Result, error) {
	files, err := Walk(WalkConfig{RootDir: dir, Include: include, Exclude: exclude})
	if err != nil {
		return nil, err
	}

	result := &Result{}
	p.reporter.Start(len(files))
	defer p.reporter.Finish()

	for i, file := range files {
		p.reporter.Update(i+1, file.RelPath)

		existing, err := p.store.Get(ctx, file.RelPath)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ContentHash == file.ContentHash {
			result.Skipped = append(result.Skipped, file.RelPath)
			continue
		}

		content, err := os.ReadFile(file.Path)
		if err != nil {
			log.Printf("ingest: reading %s: %v", file.RelPath, err)
			result.Failed = append(result.Failed, file.RelPath)
			continue
		}

		chunks, err := p.ingest(ctx, file.RelPath, content, filepath.Dir(file.Path))
		if err != nil {
			log.Printf("ingest: %s: %v", file.RelPath, err)
			result.Failed = append(result.Failed, file.RelPath)
			continue
		}

		result.Ingested = append(result.Ingested, file.RelPath)
		result.Chunks += chunks
	}

	return result, nil
}

// IngestContent parses, chunks and embeds a single document, replacing
// any chunks previously stored for the same source. It returns the
// number of chunks written. Image references cannot be resolved for
// uploaded content and are ingested as plain text.
func (p *Pipeline) IngestContent(ctx context.Context, source string, content []byte) (int, error) {
	return p.ingest(ctx, source, content, "")
}

// ingest is the shared ingestion path. baseDir, when non-empty, is the
// on-disk directory the document's relative image references resolve
// against.
func (p *Pipeline) ingest(ctx context.Context, source string, content []byte, baseDir string) (int, error) {
	segments, err := ParserFor(source).Parse(content)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", source, err)
	}

	docType := DocTypeFor(source)
	hash := HashContent(content)
	now := time.Now().UTC()

	var docs []vectordb.Document
	for _, seg := range segments {
		summary := p.summarizeImages(ctx, baseDir, seg.Images)
		for _, chunk := range p.chunker.Split(seg.Text) {
			docs = append(docs, vectordb.Document{
				ID:      uuid.NewString(),
				Content: chunk,
				Metadata: vectordb.DocumentMetadata{
					Source:       source,
					Type:         docType,
					Page:         seg.Page,
					ContentHash:  hash,
					ImageSummary: summary,
					IngestedAt:   now,
				},
			})
		}
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("no content extracted from %s", source)
	}
	for i := range docs {
		docs[i].Metadata.ChunkIndex = i
		docs[i].Metadata.TotalChunks = len(docs)
	}

	// Re-ingesting replaces the old chunks so stale content never
	// lingers next to the new version.
	if err := p.vectors.DeleteBySource(ctx, source); err != nil {
		return 0, fmt.Errorf("clearing previous chunks for %s: %w", source, err)
	}
	if err := p.vectors.AddDocuments(ctx, docs); err != nil {
		return 0, fmt.Errorf("embedding %s: %w", source, err)
	}

	err = p.store.Save(ctx, Record{
		Source:      source,
		DocType:     string(docType),
		Chunks:      len(docs),
		ContentHash: hash,
	})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// summarizeImages summarizes a segment's local image references and joins
// the results. Summarization is best effort: unresolvable images and vision
// failures are logged and skipped.
func (p *Pipeline) summarizeImages(ctx context.Context, baseDir string, images []string) string {
	if p.vision == nil || baseDir == "" || len(images) == 0 {
		return ""
	}

	var summaries []string
	for _, img := range images {
		if strings.Contains(img, "://") || filepath.IsAbs(img) {
			continue
		}
		path := filepath.Join(baseDir, filepath.FromSlash(img))
		summary, err := p.vision.Summarize(ctx, path)
		if err != nil {
			log.Printf("ingest: summarizing image %s: %v", img, err)
			continue
		}
		if summary != "" {
			summaries = append(summaries, summary)
		}
	}
	return strings.Join(summaries, "\n")
}

// Remove deletes a source's chunks from the vector store along with its
// ingestion record.
func (p *Pipeline) Remove(ctx context.Context, source string) error {
	if err := p.vectors.DeleteBySource(ctx, source); err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", source, err)
	}
	return p.store.Delete(ctx, source)
}

// NormalizeSource produces a stable source identifier for uploads that
// do not come from disk.
func NormalizeSource(name string) string {
	return filepath.ToSlash(filepath.Clean(name))
}
