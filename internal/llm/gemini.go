package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jonathan/hiring-signal/internal/classify"
	"github.com/jonathan/hiring-signal/internal/types"
)

// GeminiInferer implements classify.Inferer for Google Gemini.
type GeminiInferer struct {
	client *genai.Client
	cfg    *Config
}

var _ classify.Inferer = (*GeminiInferer)(nil)

// NewGeminiInferer creates a Gemini inferer. The caller must Close it.
func NewGeminiInferer(ctx context.Context, cfg *Config, apiKey string) (*GeminiInferer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg == nil {
		cfg = DefaultGeminiConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiInferer{client: client, cfg: cfg.withDefaults()}, nil
}

// Infer asks the model for a JSON verdict.
func (g *GeminiInferer) Infer(ctx context.Context, prompt, text string) (*classify.Inference, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	model := g.client.GenerativeModel(g.cfg.Model)
	model.SetTemperature(float32(g.cfg.EffectiveTemperature()))
	model.SetMaxOutputTokens(int32(g.cfg.NumPredict))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(prompt))

	resp, err := model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return nil, &InferenceError{Provider: ProviderGemini, Message: "failed to generate content", Cause: err}
	}

	raw, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, &InferenceError{Provider: ProviderGemini, Message: "empty response", Cause: err}
	}

	inf, err := ParseInference(raw)
	if err != nil {
		return nil, &InferenceError{Provider: ProviderGemini, Message: "malformed model output", Cause: err}
	}
	return inf, nil
}

// Info implements classify.Inferer.
func (g *GeminiInferer) Info() types.InferenceInfo {
	return g.cfg.Info()
}

// Close releases resources held by the client.
func (g *GeminiInferer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
