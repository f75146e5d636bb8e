// Package ai implements the last level of the detail cascade: asking an
// LLM to pull the job description out of a page's visible text.
package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/amishk599/careercrawl/internal/model"
)

// NoDescriptionSentinel is the answer the model gives when the page holds no
// job description.
const NoDescriptionSentinel = "NO_JOB_DESCRIPTION"

// IsNoDescription reports whether an LLM answer is empty or the sentinel.
func IsNoDescription(answer string) bool {
	answer = strings.TrimSpace(answer)
	return answer == "" || strings.Contains(strings.ToUpper(answer), NoDescriptionSentinel)
}

// LLMDescriptionExtractor implements model.DescriptionExtractor using an LLM.
type LLMDescriptionExtractor struct {
	provider LLMProvider
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewLLMDescriptionExtractor creates an extractor that renders tmpl with the
// page text and sends it to provider.
func NewLLMDescriptionExtractor(provider LLMProvider, tmpl *template.Template, logger *slog.Logger) *LLMDescriptionExtractor {
	return &LLMDescriptionExtractor{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// ExtractDescription returns the description found in text, or the sentinel.
// Provider failures are wrapped with model.ErrAIUnavailable.
func (x *LLMDescriptionExtractor) ExtractDescription(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return NoDescriptionSentinel, nil
	}

	var promptBuf bytes.Buffer
	if err := x.tmpl.Execute(&promptBuf, struct{ Text, Sentinel string }{
		Text:     text,
		Sentinel: NoDescriptionSentinel,
	}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	raw, err := x.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return "", fmt.Errorf("llm complete: %w: %w", model.ErrAIUnavailable, err)
	}

	answer := stripFences(raw)
	if x.logger != nil {
		x.logger.Debug("ai description extracted", "chars", len(answer), "sentinel", IsNoDescription(answer))
	}
	return answer, nil
}

// stripFences removes a markdown code block wrapper some models add.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 && !strings.Contains(text[:i], " ") {
		text = text[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(text, "```"))
}
