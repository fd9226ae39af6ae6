package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/eatwatah/eatwatah-api/internal/types"
)

// ChatClient abstracts the LLM completion capabilities the recommendation
// pipeline needs. Both the query parser and the ranker request strict JSON.
type ChatClient interface {
	// GenerateJSON sends a system instruction plus user prompt and returns
	// the raw response text, with the model configured for JSON output.
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, maxOutputTokens int32) (string, error)
	Model() string
}

// GeminiChatClient adapts the genai SDK to the ChatClient interface.
type GeminiChatClient struct {
	client *genai.Client
	model  string
}

// NewGeminiChatClient creates a ChatClient backed by Gemini. The API key is
// an explicit argument; an empty key is a configuration error.
func NewGeminiChatClient(ctx context.Context, apiKey, model string) (*GeminiChatClient, error) {
	if apiKey == "" {
		return nil, types.ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiChatClient{client: client, model: model}, nil
}

func (g *GeminiChatClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, maxOutputTokens int32) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.5),
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty gemini response")
	}

	var txt string
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil && len(candidate.Content.Parts) > 0 {
			txt = candidate.Content.Parts[0].Text
			break
		}
	}
	if txt == "" {
		return "", fmt.Errorf("gemini response had no text parts")
	}
	return txt, nil
}

func (g *GeminiChatClient) Model() string {
	return g.model
}
