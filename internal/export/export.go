// Package export renders conversations as downloadable markdown, CSV or
// HTML documents.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ziadkadry99/partschat/internal/chat"
)

// Format is a supported export output format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format string, defaulting to markdown.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMarkdown, "":
		return FormatMarkdown, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// markdown renders the answer bodies; tables in assistant answers pass
// through goldmark's GFM table extension when converting to HTML.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Renderer turns a conversation and its messages into an export document.
type Renderer struct{}

// NewRenderer creates an export renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces the document bytes for the given format.
func (r *Renderer) Render(conv *chat.Conversation, messages []chat.Message, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return r.renderCSV(messages)
	case FormatHTML:
		return r.renderHTML(conv, messages)
	default:
		return []byte(r.renderMarkdown(conv, messages)), nil
	}
}

func (r *Renderer) renderMarkdown(conv *chat.Conversation, messages []chat.Message) string {
	var sb strings.Builder

	title := conv.Title
	if title == "" {
		title = "대화 내역"
	}
	sb.WriteString("# " + title + "\n\n")
	sb.WriteString(fmt.Sprintf("- 대화 ID: %s\n- 생성일: %s\n\n", conv.ID, conv.CreatedAt.Format("2006-01-02 15:04")))

	for _, m := range messages {
		switch m.Role {
		case "user":
			sb.WriteString("## 질문\n\n")
		case "assistant":
			sb.WriteString("## 답변\n\n")
		default:
			sb.WriteString("## " + m.Role + "\n\n")
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n\n")

		if conf, ok := m.Metadata["confidence_score"]; ok {
			sb.WriteString(fmt.Sprintf("> 신뢰도: %v\n\n", conf))
		}
	}
	return sb.String()
}

func (r *Renderer) renderCSV(messages []chat.Message) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"timestamp", "role", "content"}); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for _, m := range messages {
		record := []string{
			m.CreatedAt.Format("2006-01-02 15:04:05"),
			m.Role,
			m.Content,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderHTML(conv *chat.Conversation, messages []chat.Message) ([]byte, error) {
	md := r.renderMarkdown(conv, messages)

	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html lang=\"ko\">\n<head>\n<meta charset=\"utf-8\">\n")
	out.WriteString("<title>" + htmlEscape(conv.Title) + "</title>\n</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
