package assist

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// GeminiGenerator calls the Gemini API. The key stays on the server.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate asks for a JSON reply. There is no retry: a failure goes straight
// back to the operator.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", classify(err)
	}
	text := resp.Text()
	if text == "" {
		return "", makeErr(ErrAIFailed, "empty response", nil)
	}
	return text, nil
}

func classify(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	if code == http.StatusTooManyRequests {
		return makeErr(ErrRateLimited, "model quota exhausted, wait a minute and try again", err)
	}
	if code != 0 {
		return makeErr(ErrAIFailed, fmt.Sprintf("model API returned %d", code), err)
	}
	return makeErr(ErrAIFailed, err.Error(), err)
}
