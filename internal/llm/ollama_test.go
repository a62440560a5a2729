package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-signal/internal/types"
)

func TestOllamaInferer_Infer(t *testing.T) {
	var got ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{
				"role":    "assistant",
				"content": `{"signal":"yes","citations":[{"snippet":"Apply now","url":"https://a.example/careers"}]}`,
			},
			"done": true,
		})
	}))
	defer server.Close()

	inferer := NewOllamaInferer(&Config{Host: server.URL + "/", Model: "llama3.1:8b", Temperature: 0.4, Deterministic: true})
	inf, err := inferer.Infer(context.Background(), "system prompt", "page text")
	require.NoError(t, err)

	assert.Equal(t, types.SignalYes, inf.Verdict)
	require.Len(t, inf.Citations, 1)
	assert.Equal(t, "Apply now", inf.Citations[0].Snippet)

	assert.Equal(t, "llama3.1:8b", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "system prompt", got.Messages[0].Content)
	assert.Equal(t, "page text", got.Messages[1].Content)
	assert.Equal(t, 0.0, got.Options["temperature"])
	assert.Equal(t, float64(DefaultNumPredict), got.Options["num_predict"])

	info := inferer.Info()
	assert.Equal(t, "ollama", info.Provider)
	assert.True(t, info.Deterministic)
}

func TestOllamaInferer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model not loaded", http.StatusInternalServerError)
			},
		},
		{
			name: "error field",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"error":"model 'x' not found"}`))
			},
		},
		{
			name: "malformed content",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"yes they are hiring"}}`))
			},
		},
		{
			name: "slow server",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(`{}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			inferer := NewOllamaInferer(&Config{Host: server.URL, Timeout: 50 * time.Millisecond})
			_, err := inferer.Infer(context.Background(), "s", "t")
			require.Error(t, err)

			var infErr *InferenceError
			assert.ErrorAs(t, err, &infErr)
			assert.True(t, errors.Is(err, types.ErrInferenceUnavailable))
		})
	}
}

func TestOllamaInferer_Unreachable(t *testing.T) {
	inferer := NewOllamaInferer(&Config{Host: "http://127.0.0.1:1", Timeout: time.Second})
	_, err := inferer.Infer(context.Background(), "s", "t")
	assert.ErrorIs(t, err, types.ErrInferenceUnavailable)
}
