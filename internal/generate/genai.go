package generate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenaiGenerator calls the Gemini API directly.
type GenaiGenerator struct {
	client *genai.Client
	model  string
}

func NewGenaiGenerator(ctx context.Context, apiKey, model string) (*GenaiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenaiGenerator{client: client, model: model}, nil
}

func (g *GenaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
