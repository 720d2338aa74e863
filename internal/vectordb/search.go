package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as human-readable text.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("--- Result %d (similarity: %.4f) ---\n", i+1, r.Similarity))

		if r.Document.Metadata.Source != "" {
			location := r.Document.Metadata.Source
			if r.Document.Metadata.Page > 0 {
				location += fmt.Sprintf(" p.%d", r.Document.Metadata.Page)
			}
			if r.Document.Metadata.TotalChunks > 0 {
				location += fmt.Sprintf(" (chunk %d/%d)", r.Document.Metadata.ChunkIndex+1, r.Document.Metadata.TotalChunks)
			}
			sb.WriteString(fmt.Sprintf("Source: %s\n", location))
		}

		if r.Document.Metadata.Type != "" {
			sb.WriteString(fmt.Sprintf("Type: %s\n", r.Document.Metadata.Type))
		}

		sb.WriteString("\n")
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
