package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultModel          = "gemini-2.5-flash"
	DefaultEmbeddingModel = "text-embedding-004"
)

// models is the subset of genai.Models used here, so tests can stub it.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
type Generator struct {
	models    models
	modelName string
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, model), nil
}

func newGenerator(m models, model string) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}

	return &Generator{models: m, modelName: model}
}

// GenerateContent sends the prompt to Gemini with temperature 0 and returns
// the concatenated text parts of the response.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if resp == nil {
		return "", errors.New("gemini api returned no response")
	}

	// The first candidate with content is the answer; its parts are joined
	// as sent.
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var builder strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil {
				builder.WriteString(part.Text)
			}
		}
		return builder.String(), nil
	}

	return "", errors.New("gemini api returned no candidates")
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

// Embedder returns an embedder sharing the generator's client.
func (g *Generator) Embedder(model string) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultEmbeddingModel
	}
	return &Embedder{models: g.models, modelName: model}
}
