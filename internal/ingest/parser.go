package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ziadkadry99/partschat/internal/vectordb"
)

// Segment is a unit of parsed text with its page provenance. Formats
// without page structure report page 1 for the whole document. Images
// lists image references found in the segment, as written in the source.
type Segment struct {
	Text   string
	Page   int
	Images []string
}

// Parser extracts ordered text segments from raw document bytes.
type Parser interface {
	Parse(content []byte) ([]Segment, error)
}

// ParserFor returns the parser for a file name based on its extension.
// Unknown extensions fall back to the plain text parser.
func ParserFor(name string) Parser {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return &MarkdownParser{}
	default:
		return &TextParser{}
	}
}

// DocTypeFor guesses the document type from the file name. Files named
// after manuals, guidelines, reports or datasheets are tagged so the
// retrieval filter can narrow searches by type.
func DocTypeFor(name string) vectordb.DocumentType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "manual") || strings.Contains(lower, "매뉴얼"):
		return vectordb.DocTypeManual
	case strings.Contains(lower, "guide") || strings.Contains(lower, "지침") || strings.Contains(lower, "가이드"):
		return vectordb.DocTypeGuideline
	case strings.Contains(lower, "report") || strings.Contains(lower, "보고"):
		return vectordb.DocTypeReport
	case strings.Contains(lower, "datasheet") || strings.Contains(lower, "사양"):
		return vectordb.DocTypeDatasheet
	default:
		return vectordb.DocTypeGeneral
	}
}

// TextParser treats the whole input as a single page of plain text.
type TextParser struct{}

func (p *TextParser) Parse(content []byte) ([]Segment, error) {
	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, fmt.Errorf("document is empty")
	}
	return []Segment{{Text: text, Page: 1}}, nil
}

// MarkdownParser splits on top-level headings so each major section
// becomes its own segment. Section order is preserved and the section
// index stands in for the page number. Image references are collected
// per section so their content can be summarized alongside the text.
type MarkdownParser struct{}

var imageRefPattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`)

// imageRefs extracts the image targets referenced in a markdown section.
func imageRefs(section string) []string {
	var refs []string
	for _, m := range imageRefPattern.FindAllStringSubmatch(section, -1) {
		refs = append(refs, m[1])
	}
	return refs
}

func (p *MarkdownParser) Parse(content []byte) ([]Segment, error) {
	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, fmt.Errorf("document is empty")
	}

	var segments []Segment
	var current strings.Builder
	page := 1

	flush := func() {
		section := strings.TrimSpace(current.String())
		if section != "" {
			segments = append(segments, Segment{Text: section, Page: page, Images: imageRefs(section)})
			page++
		}
		current.Reset()
	}

	inFence := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		// Headings inside code fences are literal text, not section breaks.
		if !inFence && strings.HasPrefix(trimmed, "# ") && current.Len() > 0 {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	if len(segments) == 0 {
		return nil, fmt.Errorf("document is empty")
	}
	return segments, nil
}
