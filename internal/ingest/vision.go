package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/partschat/internal/llm"
)

// ImageSummarizer produces a short text summary of an image file.
type ImageSummarizer interface {
	Summarize(ctx context.Context, path string) (string, error)
}

const visionPrompt = `이미지에 담긴 내용을 부품 문서 검색에 쓸 수 있도록 2~3문장으로 요약하세요.
표나 도면이면 핵심 수치와 항목 이름을 포함하세요. 한국어로 작성하세요.`

// VisionSummarizer summarizes images with a vision-capable chat model.
type VisionSummarizer struct {
	provider llm.Provider
	model    string
}

// NewVisionSummarizer creates a summarizer backed by the given provider and
// model. The model must accept image inputs.
func NewVisionSummarizer(provider llm.Provider, model string) *VisionSummarizer {
	return &VisionSummarizer{provider: provider, model: model}
}

// Summarize reads the image at path and asks the model to describe it.
func (v *VisionSummarizer) Summarize(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image %s: %w", path, err)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)

	resp, err := v.provider.Complete(ctx, llm.CompletionRequest{
		Model: v.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: visionPrompt, ImageURL: dataURL},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("vision completion for %s: %w", path, err)
	}
	return strings.TrimSpace(resp.Content), nil
}
