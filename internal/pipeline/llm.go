package pipeline

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator is the concrete TextGenerator backed by Gemini.
type GeminiGenerator struct {
	model string
}

// NewGeminiGenerator creates a generator for the given model name.
// Credentials come from the environment (GEMINI_API_KEY or ADC).
func NewGeminiGenerator(model string) *GeminiGenerator {
	return &GeminiGenerator{model: model}
}

// Generate sends one request to the model and returns the raw response text.
// It is called exactly once per pipeline suspension point; retries, if any,
// live in the genai client itself.
func (g *GeminiGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("generate: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: userPrompt},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.1),
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("generate: empty response from model")
	}

	return rawText, nil
}
