package llm

import (
	"fmt"

	"github.com/jonathan/hiring-signal/internal/types"
)

// InferenceError represents a failed or unusable model call.
type InferenceError struct {
	Provider Provider
	Message  string
	Cause    error
}

func (e *InferenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s inference error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s inference error: %s", e.Provider, e.Message)
}

func (e *InferenceError) Unwrap() error {
	return e.Cause
}

// Is makes every inference error match types.ErrInferenceUnavailable.
func (e *InferenceError) Is(target error) bool {
	return target == types.ErrInferenceUnavailable
}
