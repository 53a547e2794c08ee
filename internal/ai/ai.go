// Package ai defines the contract shared by the language model providers.
package ai

import "context"

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Generator sends a single prompt to a hosted model and returns its text.
// Implementations do not retry.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
