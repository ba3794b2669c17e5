package quizbank

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Generator sends a prompt for req to a text generation service and returns
// the raw response body.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, req GenerationRequest) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	return f(ctx, req)
}

// BuildPrompt asks for req.DesiredCount questions as a bare JSON array
func BuildPrompt(req GenerationRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate %d quiz questions about %s (%s level).\n\n", req.DesiredCount, req.Topic, req.Difficulty))

	sb.WriteString("Return ONLY a valid JSON array with this exact format:\n")
	sb.WriteString("[\n")
	sb.WriteString("  {\n")
	sb.WriteString("    \"question\": \"Question text?\",\n")
	sb.WriteString("    \"options\": [\"A\", \"B\", \"C\", \"D\"],\n")
	sb.WriteString("    \"correctIndex\": 0,\n")
	sb.WriteString("    \"explanation\": \"Why this is correct\"\n")
	sb.WriteString("  }\n")
	sb.WriteString("]\n\n")

	switch req.Difficulty {
	case Easy:
		sb.WriteString("Easy: Basic concepts and definitions.\n")
	case Medium:
		sb.WriteString("Medium: Applied knowledge and problem-solving.\n")
	case Hard:
		sb.WriteString("Hard: Advanced topics and complex scenarios.\n")
	}

	sb.WriteString("\nEach question must have exactly 4 options and correctIndex is the 0-based index of the correct option.\n")
	sb.WriteString("Return only the JSON array, no markdown, no extra text.")

	return sb.String()
}

// NewHTTPClient returns a client that gives up connecting after connect and
// waiting for response headers after read.
func NewHTTPClient(connect, read time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connect,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.ResponseHeaderTimeout = read
	return &http.Client{Transport: transport}
}

// NewGenerator builds the generator selected by cfg. It returns nil when AI
// questions are disabled or no API key is configured; callers then go
// straight to the fallback set.
func NewGenerator(ctx context.Context, cfg *Config) (Generator, error) {
	if !cfg.UseAI || !cfg.APIKeyConfigured() {
		return nil, nil
	}

	httpClient := NewHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout)
	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.BaseURL, httpClient)
	case ProviderOpenAI:
		return NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.Model, cfg.BaseURL, httpClient), nil
	}
	return nil, fmt.Errorf("unknown provider: %q", cfg.Provider)
}
