package quizbank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiGenerator generates questions with the Gemini API
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini client using httpClient for transport
func NewGeminiGenerator(ctx context.Context, apiKey, model, baseURL string, httpClient *http.Client) (*GeminiGenerator, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:     genai.BackendGeminiAPI,
		APIKey:      apiKey,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate returns the JSON encoded GenerateContent response. The question
// array sits in the "text" field of the first candidate part.
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	VerboseLog("Generating %d questions with %s for topic: %s", req.DesiredCount, g.model, req.Topic)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(req)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	VerboseLog("Received response from %s with %d candidates", g.model, len(resp.Candidates))

	body, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to encode response: %w", err)
	}
	return string(body), nil
}
