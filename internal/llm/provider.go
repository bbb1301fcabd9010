package llm

import (
	"context"
	"errors"
)

// Provider defines the interface for LLM providers. Vibify only needs plain
// text completions; the recommendation text is parsed downstream.
type Provider interface {
	// Generate sends the request and returns the model's text output
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// GenerationRequest contains all parameters needed for generation
type GenerationRequest struct {
	Model           string
	InputArray      []map[string]any
	SystemPrompt    string
	MaxOutputTokens int
	// Temperature is omitted when nil or when the model does not accept it
	Temperature *float64
}

// UserMessage builds a single-entry input array
func UserMessage(content string) []map[string]any {
	return []map[string]any{{"role": userRole, "content": content}}
}

// Usage is provider-neutral token accounting
type Usage struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`
	TotalTokens     int `json:"total_tokens"`
}

// Map returns the usage in the shape the logger and tracer expect
func (u Usage) Map() map[string]interface{} {
	return map[string]interface{}{
		"input_tokens":     u.InputTokens,
		"output_tokens":    u.OutputTokens,
		"reasoning_tokens": u.ReasoningTokens,
		"total_tokens":     u.TotalTokens,
	}
}

// GenerationResponse contains the result from the LLM
type GenerationResponse struct {
	Text     string `json:"text"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
	Usage    Usage  `json:"usage"`
}

// Errors providers wrap so callers can react without knowing the SDK
var (
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrInvalidAPIKey = errors.New("invalid api_key")
	ErrEmptyOutput   = errors.New("response did not include any output text")
)

// Float returns a pointer to f, for GenerationRequest.Temperature
func Float(f float64) *float64 {
	return &f
}
