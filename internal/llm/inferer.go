package llm

import (
	"context"
	"fmt"
	"io"

	"github.com/jonathan/hiring-signal/internal/classify"
)

// NewInferer creates the inferer for cfg.Provider. The returned closer
// releases provider resources and is never nil.
func NewInferer(ctx context.Context, cfg *Config, apiKey string) (classify.Inferer, io.Closer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllamaInferer(cfg), nopCloser{}, nil
	case ProviderGemini:
		g, err := NewGeminiInferer(ctx, cfg, apiKey)
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	default:
		return nil, nil, fmt.Errorf("unknown inference provider %q", cfg.Provider)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
