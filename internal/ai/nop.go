package ai

import (
	"context"

	"github.com/amishk599/careercrawl/internal/model"
)

// NopDescriptionExtractor is used when ai.enabled is false.
// It always reports the extractor as unavailable, without a network call.
type NopDescriptionExtractor struct{}

// NewNopDescriptionExtractor returns a NopDescriptionExtractor.
func NewNopDescriptionExtractor() *NopDescriptionExtractor {
	return &NopDescriptionExtractor{}
}

// ExtractDescription returns model.ErrAIUnavailable.
func (n *NopDescriptionExtractor) ExtractDescription(_ context.Context, _ string) (string, error) {
	return "", model.ErrAIUnavailable
}
