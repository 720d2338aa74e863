package vectordb

import "time"

// DocumentType categorizes the kind of document stored in the vector DB.
type DocumentType string

const (
	DocTypeManual    DocumentType = "manual"
	DocTypeGuideline DocumentType = "guideline"
	DocTypeReport    DocumentType = "report"
	DocTypeDatasheet DocumentType = "datasheet"
	DocTypeGeneral   DocumentType = "general"
)

// Document represents a chunk of an ingested document.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds structured information about a chunk.
type DocumentMetadata struct {
	Source       string // Original file name or upload identifier.
	Type         DocumentType
	Page         int
	ChunkIndex   int
	TotalChunks  int
	ContentHash  string
	ImageSummary string // Vision-derived summary of images in the chunk's section, if any.
	IngestedAt   time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter allows narrowing search results by metadata fields.
type SearchFilter struct {
	Type   *DocumentType
	Source *string
}
