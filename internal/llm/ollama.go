package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonathan/hiring-signal/internal/classify"
	"github.com/jonathan/hiring-signal/internal/types"
)

// OllamaInferer calls the non-streaming /api/chat endpoint of an Ollama server.
type OllamaInferer struct {
	cfg        *Config
	httpClient *http.Client
}

var _ classify.Inferer = (*OllamaInferer)(nil)

// NewOllamaInferer builds an inferer from configuration.
func NewOllamaInferer(cfg *Config) *OllamaInferer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.withDefaults()
	return &OllamaInferer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  map[string]any  `json:"options"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error"`
}

// Infer sends prompt as the system message and text as the user message.
func (o *OllamaInferer) Infer(ctx context.Context, prompt, text string) (*classify.Inference, error) {
	body, err := json.Marshal(ollamaRequest{
		Model: o.cfg.Model,
		Messages: []ollamaMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: text},
		},
		Stream: false,
		Format: "json",
		Options: map[string]any{
			"temperature": o.cfg.EffectiveTemperature(),
			"num_predict": o.cfg.NumPredict,
		},
	})
	if err != nil {
		return nil, o.fail("failed to marshal request", err)
	}

	endpoint := strings.TrimRight(o.cfg.Host, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, o.fail("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, o.fail("request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, o.fail(fmt.Sprintf("server returned %s: %s", resp.Status, strings.TrimSpace(string(payload))), nil)
	}

	var out ollamaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, o.fail("failed to decode response", err)
	}
	if out.Error != "" {
		return nil, o.fail(out.Error, nil)
	}

	inf, err := ParseInference(out.Message.Content)
	if err != nil {
		return nil, o.fail("malformed model output", err)
	}
	return inf, nil
}

// Info implements classify.Inferer.
func (o *OllamaInferer) Info() types.InferenceInfo {
	return o.cfg.Info()
}

func (o *OllamaInferer) fail(msg string, cause error) error {
	return &InferenceError{Provider: ProviderOllama, Message: msg, Cause: cause}
}
