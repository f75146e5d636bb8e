package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"text/template"

	"github.com/google/generative-ai-go/genai"

	"github.com/amishk599/careercrawl/internal/model"
)

// mockProvider is a stub LLMProvider for testing.
type mockProvider struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (m *mockProvider) Complete(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompt = prompt
	return m.response, m.err
}

func TestExtractDescription_RendersPrompt(t *testing.T) {
	p := &mockProvider{response: "We are hiring a data engineer."}
	x := NewLLMDescriptionExtractor(p, DescriptionTemplate, nil)

	got, err := x.ExtractDescription(context.Background(), "Careers | Acme\nWe are hiring a data engineer.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "We are hiring a data engineer." {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(p.prompt, "Careers | Acme") || !strings.Contains(p.prompt, NoDescriptionSentinel) {
		t.Errorf("prompt missing text or sentinel:\n%s", p.prompt)
	}
}

func TestExtractDescription_EmptyTextSkipsProvider(t *testing.T) {
	p := &mockProvider{}
	x := NewLLMDescriptionExtractor(p, DescriptionTemplate, nil)

	got, err := x.ExtractDescription(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsNoDescription(got) || p.calls != 0 {
		t.Errorf("got %q after %d calls, want sentinel and no calls", got, p.calls)
	}
}

func TestExtractDescription_ProviderErrorIsUnavailable(t *testing.T) {
	x := NewLLMDescriptionExtractor(&mockProvider{err: errors.New("network error")}, DescriptionTemplate, nil)

	_, err := x.ExtractDescription(context.Background(), "some page")
	if !errors.Is(err, model.ErrAIUnavailable) {
		t.Fatalf("expected ErrAIUnavailable, got %v", err)
	}
}

func TestExtractDescription_StripsFences(t *testing.T) {
	tmpl := template.Must(template.New("test").Parse("{{.Text}}"))
	x := NewLLMDescriptionExtractor(&mockProvider{response: "```text\nShip features.\n```"}, tmpl, nil)

	got, err := x.ExtractDescription(context.Background(), "page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Ship features." {
		t.Errorf("got %q", got)
	}
}

func TestIsNoDescription(t *testing.T) {
	cases := map[string]bool{
		"NO_JOB_DESCRIPTION":    true,
		"  no_job_description.": true,
		"":                      true,
		"Build great things.":   false,
	}
	for in, want := range cases {
		if got := IsNoDescription(in); got != want {
			t.Errorf("IsNoDescription(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNopExtractor_Unavailable(t *testing.T) {
	_, err := NewNopDescriptionExtractor().ExtractDescription(context.Background(), "x")
	if !errors.Is(err, model.ErrAIUnavailable) {
		t.Fatalf("expected ErrAIUnavailable, got %v", err)
	}
}

func TestTextFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Own the "), genai.Text("platform.")}},
		}},
	}
	got, err := textFromResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Own the platform." {
		t.Errorf("got %q", got)
	}

	if _, err := textFromResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Error("expected error for empty response")
	}
}
