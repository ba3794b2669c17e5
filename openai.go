package quizbank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator generates questions using GPT-4o
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a new generator with an OpenAI client. An empty
// baseURL keeps the public API endpoint.
func NewOpenAIGenerator(apiKey, model, baseURL string, httpClient *http.Client) *OpenAIGenerator {
	if model == "" {
		model = openai.GPT4o
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// openAIEnvelope carries the chat message content in the same "text" field
// a Gemini response uses.
type openAIEnvelope struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// Generate asks the chat completion API for a batch of questions
func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	VerboseLog("Generating %d questions with %s for topic: %s", req.DesiredCount, g.model, req.Topic)

	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are an expert quiz question generator. Generate high-quality multiple choice questions with exactly 4 options each.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: BuildPrompt(req),
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate questions: %w", err)
	}

	VerboseLog("Received response from %s with %d choices", g.model, len(resp.Choices))

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", g.model)
	}

	body, err := json.Marshal(openAIEnvelope{Model: resp.Model, Text: resp.Choices[0].Message.Content})
	if err != nil {
		return "", fmt.Errorf("failed to encode response: %w", err)
	}
	return string(body), nil
}
