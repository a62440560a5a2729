// Package llm implements the classifier's fallback inference against a local
// Ollama server or Google Gemini.
package llm

import (
	"time"

	"github.com/jonathan/hiring-signal/internal/types"
)

// Provider names an inference backend.
type Provider string

const (
	// ProviderOllama is a local Ollama server
	ProviderOllama Provider = "ollama"
	// ProviderGemini is the Google Gemini API
	ProviderGemini Provider = "gemini"
)

// Defaults for the local provider.
const (
	DefaultOllamaHost  = "http://127.0.0.1:11434"
	DefaultOllamaModel = "llama3.1:8b"
	DefaultGeminiModel = "gemini-2.5-flash-lite"
	DefaultTimeout     = 90 * time.Second
	DefaultNumPredict  = 512
	DefaultTemperature = 0.1
)

// Config holds the fallback model configuration.
type Config struct {
	Provider      Provider
	Host          string
	Model         string
	Temperature   float64
	NumPredict    int
	Timeout       time.Duration
	Deterministic bool
}

// DefaultConfig returns the local Ollama configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderOllama,
		Host:        DefaultOllamaHost,
		Model:       DefaultOllamaModel,
		Temperature: DefaultTemperature,
		NumPredict:  DefaultNumPredict,
		Timeout:     DefaultTimeout,
	}
}

// DefaultGeminiConfig returns the Gemini configuration.
func DefaultGeminiConfig() *Config {
	c := DefaultConfig()
	c.Provider = ProviderGemini
	c.Host = ""
	c.Model = DefaultGeminiModel
	return c
}

// EffectiveTemperature is the sampling temperature actually sent:
// deterministic mode pins it to 0.
func (c *Config) EffectiveTemperature() float64 {
	if c.Deterministic {
		return 0
	}
	return c.Temperature
}

// Info describes the configuration for output provenance.
func (c *Config) Info() types.InferenceInfo {
	return types.InferenceInfo{
		Provider:      string(c.Provider),
		Model:         c.Model,
		Temperature:   c.EffectiveTemperature(),
		Deterministic: c.Deterministic,
	}
}

func (c *Config) withDefaults() *Config {
	var d *Config
	if c.Provider == ProviderGemini {
		d = DefaultGeminiConfig()
	} else {
		d = DefaultConfig()
	}
	out := *c
	if out.Provider == "" {
		out.Provider = d.Provider
	}
	if out.Host == "" {
		out.Host = d.Host
	}
	if out.Model == "" {
		out.Model = d.Model
	}
	if out.NumPredict <= 0 {
		out.NumPredict = d.NumPredict
	}
	if out.Timeout <= 0 {
		out.Timeout = d.Timeout
	}
	return &out
}
