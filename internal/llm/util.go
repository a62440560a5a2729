package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/hiring-signal/internal/classify"
	"github.com/jonathan/hiring-signal/internal/types"
)

// CleanJSONBlock strips markdown fences and conversational text around the
// first JSON object or array in a model response.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.Index(text, "\n"); idx >= 0 {
			// drop a language tag such as "json"
			if first := text[:idx]; len(first) < 20 && !strings.ContainsAny(first, " {[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	if block, ok := firstJSONValue(text); ok {
		return block
	}
	return text
}

// firstJSONValue returns the first balanced {...} or [...] in text.
func firstJSONValue(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{' || ch == '[':
			depth++
		case ch == '}' || ch == ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// inferenceResponse is the JSON shape the classify prompt asks for.
type inferenceResponse struct {
	Signal    string              `json:"signal"`
	Citations []classify.Citation `json:"citations"`
}

// ParseInference decodes a model response into an Inference. An unknown
// signal value is read as unclear; citations are returned as given.
func ParseInference(raw string) (*classify.Inference, error) {
	var resp inferenceResponse
	if err := json.Unmarshal([]byte(CleanJSONBlock(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse inference response: %w", err)
	}

	verdict := types.Signal(strings.ToLower(strings.TrimSpace(resp.Signal)))
	if !verdict.Committed() {
		verdict = types.SignalUnclear
	}
	return &classify.Inference{Verdict: verdict, Citations: resp.Citations}, nil
}
