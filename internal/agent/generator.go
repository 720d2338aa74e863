package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/partschat/internal/llm"
)

const defaultSystemPrompt = `당신은 반도체 설비 부품 관리 전문 어시스턴트입니다.
규칙:
1. 제공된 근거 자료에 있는 내용만으로 답변하세요.
2. 근거가 부족하면 추측하지 말고 "관련 정보가 충분하지 않습니다"라고 답하세요.
3. 부품 번호, 수량, 위치 등 수치는 근거 자료의 값을 그대로 사용하세요.
4. 답변 끝에 참고한 출처를 명시하세요.
5. 한국어로 답변하세요.`

// Generator assembles the grounded prompt and invokes the chat provider.
type Generator struct {
	provider     llm.Provider
	model        string
	temperature  float64
	excerptLimit int
}

// NewGenerator creates a generator. excerptLimit caps each document chunk's
// contribution to the prompt, in runes.
func NewGenerator(provider llm.Provider, model string, temperature float64, excerptLimit int) *Generator {
	if excerptLimit <= 0 {
		excerptLimit = 450
	}
	return &Generator{
		provider:     provider,
		model:        model,
		temperature:  temperature,
		excerptLimit: excerptLimit,
	}
}

// Generate produces a grounded answer from the retrieved evidence. This is
// the only stage whose failure surfaces as a workflow error.
func (g *Generator) Generate(ctx context.Context, req Request, items []RetrievedItem) (*Answer, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = g.temperature
	}

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Model:       model,
		Messages:    g.buildMessages(req, items),
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	answer := &Answer{
		Content:    resp.Content,
		Sources:    projectSources(items),
		Confidence: ConfidenceScore(items),
		Warnings:   []string{},
	}
	answer.TableData = tryParseTable(resp.Content)
	answer.ChartData = tryParseChart(resp.Content)
	return answer, nil
}

// buildMessages constructs the chat messages in fixed order: system
// instruction, memory context, evidence context, user query. Supplied custom
// instructions replace the default system prompt entirely.
func (g *Generator) buildMessages(req Request, items []RetrievedItem) []llm.Message {
	system := defaultSystemPrompt
	if req.CustomInstructions != "" {
		system = req.CustomInstructions
	}

	var sb strings.Builder
	sb.WriteString(system)
	if req.MemoryContext != "" {
		sb.WriteString("\n\n")
		sb.WriteString(req.MemoryContext)
	}
	if evidence := g.AssembleContext(items); evidence != "" {
		sb.WriteString("\n\n근거 자료:\n")
		sb.WriteString(evidence)
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: sb.String()},
		{Role: llm.RoleUser, Content: req.Query},
	}
}

// AssembleContext renders retrieved items as evidence text: structured
// records first, then document chunks with a running citation index, a
// bounded excerpt and any image-derived summary appended after it. The
// rendering is deterministic for identical input.
func (g *Generator) AssembleContext(items []RetrievedItem) string {
	var sb strings.Builder

	recordIdx := 0
	for _, item := range items {
		if item.SourceKind != KindStructuredRecord {
			continue
		}
		recordIdx++
		sb.WriteString(fmt.Sprintf("[부품 정보 %d]\n%s\n", recordIdx, strings.TrimRight(item.Content, "\n")))
		sb.WriteString("\n")
	}

	chunkIdx := 0
	for _, item := range items {
		if item.SourceKind != KindDocumentChunk {
			continue
		}
		chunkIdx++
		source := item.Metadata["source"]
		if page := item.Metadata["page"]; page != "" && page != "0" {
			source += " p." + page
		}
		sb.WriteString(fmt.Sprintf("[문서 %d] %s\n%s\n", chunkIdx, source, truncateRunes(item.Content, g.excerptLimit)))
		if summary := item.Metadata["image_summary"]; summary != "" {
			sb.WriteString("이미지 요약: " + summary + "\n")
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// projectSources derives the answer's provenance list 1:1 from the items in
// assembly order: structured records first, then document chunks.
func projectSources(items []RetrievedItem) []SourceRef {
	sources := make([]SourceRef, 0, len(items))
	for _, item := range items {
		if item.SourceKind == KindStructuredRecord {
			sources = append(sources, SourceRef{Kind: item.SourceKind, Metadata: item.Metadata})
		}
	}
	for _, item := range items {
		if item.SourceKind == KindDocumentChunk {
			sources = append(sources, SourceRef{Kind: item.SourceKind, Metadata: item.Metadata, Similarity: item.Similarity})
		}
	}
	return sources
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
