package ai

import "context"

// LLMProvider sends a prompt to an LLM and returns the raw text response.
// OpenAIProvider and GeminiProvider implement it.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
