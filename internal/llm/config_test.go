package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, DefaultOllamaHost, cfg.Host)
	assert.Equal(t, 90*time.Second, cfg.Timeout)

	gemini := DefaultGeminiConfig()
	assert.Equal(t, ProviderGemini, gemini.Provider)
	assert.Equal(t, DefaultGeminiModel, gemini.Model)
	assert.Empty(t, gemini.Host)
}

func TestEffectiveTemperature(t *testing.T) {
	cfg := &Config{Temperature: 0.7}
	assert.InDelta(t, 0.7, cfg.EffectiveTemperature(), 1e-9)

	cfg.Deterministic = true
	assert.Zero(t, cfg.EffectiveTemperature())

	info := cfg.Info()
	assert.True(t, info.Deterministic)
	assert.Zero(t, info.Temperature)
}

func TestWithDefaults(t *testing.T) {
	cfg := (&Config{Model: "qwen2.5:7b"}).withDefaults()

	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, "qwen2.5:7b", cfg.Model)
	assert.Equal(t, DefaultNumPredict, cfg.NumPredict)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestNewInferer(t *testing.T) {
	inf, closer, err := NewInferer(context.Background(), &Config{Provider: ProviderOllama}, "")
	require.NoError(t, err)
	assert.IsType(t, &OllamaInferer{}, inf)
	assert.NoError(t, closer.Close())

	_, _, err = NewInferer(context.Background(), &Config{Provider: ProviderGemini}, "")
	assert.Error(t, err, "gemini requires an API key")

	_, _, err = NewInferer(context.Background(), &Config{Provider: "openai"}, "")
	assert.Error(t, err)
}
