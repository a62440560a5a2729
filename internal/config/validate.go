package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a startup configuration error. It is fatal to a run.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error: '%s' %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Validate checks value ranges and cross-field requirements. It expects a
// merged config.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{
				Field:   fieldPath(fe.Namespace()),
				Message: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value()),
				Cause:   err,
			}
		}
		return &ValidationError{Message: err.Error(), Cause: err}
	}

	in := c.Inference
	if in.Required && !in.Enabled {
		return &ValidationError{Field: "inference.required", Message: "requires inference.enabled"}
	}
	if in.Required && in.Provider == "ollama" && in.Host == "" {
		return &ValidationError{Field: "inference.host", Message: "must be set (or OLLAMA_HOST) when inference is required"}
	}
	if in.Enabled && in.Provider == "gemini" && in.APIKey == "" {
		return &ValidationError{Field: "inference.provider", Message: "gemini requires GEMINI_API_KEY"}
	}

	if c.Robots.Mode == "allowlist" && len(c.Robots.Allowlist) == 0 {
		return &ValidationError{Field: "robots.allowlist", Message: "must list hosts when robots.mode is allowlist"}
	}

	if c.Resolver.UseDatabase && c.DatabaseURL == "" {
		return &ValidationError{Field: "resolver.use_database", Message: "requires database_url (or DATABASE_URL)"}
	}

	switch c.Snapshots.Backend {
	case "file":
		if c.Snapshots.Dir == "" {
			return &ValidationError{Field: "snapshots.dir", Message: "must be set for the file backend"}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return &ValidationError{Field: "snapshots.backend", Message: "postgres requires database_url (or DATABASE_URL)"}
		}
	case "mongo":
		if c.Snapshots.MongoURI == "" {
			return &ValidationError{Field: "snapshots.mongo_uri", Message: "must be set (or MONGO_URI) for the mongo backend"}
		}
	}

	return nil
}

// fieldPath turns "Config.Inference.Host" into "inference.host".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var sb strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				sb.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
