package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Embedder produces document embeddings with a Gemini embedding model.
type Embedder struct {
	models    models
	modelName string
}

// Name identifies the embedding space; vectors from different models are
// not comparable.
func (e *Embedder) Name() string {
	return "gemini:" + e.modelName
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e == nil || e.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
	}

	resp, err := e.models.EmbedContent(ctx, e.modelName, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini api returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, embedding := range resp.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("gemini api returned an empty embedding at %d", i)
		}
		out[i] = embedding.Values
	}

	return out, nil
}
