package embeddings

import (
	"context"

	chromem "github.com/philippgille/chromem-go"
)

// ToChromemFunc adapts an Embedder to chromem's embedding function type.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		embs, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		return embs[0], nil
	}
}
