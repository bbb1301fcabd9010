package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiProvider_Name(t *testing.T) {
	provider := &GeminiProvider{client: nil}
	assert.Equal(t, "gemini", provider.Name())
}

func TestGeminiProvider_BuildContents(t *testing.T) {
	provider := &GeminiProvider{client: nil}

	tests := []struct {
		name       string
		inputArray []map[string]any
		wantLen    int
	}{
		{
			name:       "single user message",
			inputArray: UserMessage("test content"),
			wantLen:    1,
		},
		{
			name: "developer role converted to user",
			inputArray: []map[string]any{
				{"role": "developer", "content": "system message"},
			},
			wantLen: 1,
		},
		{
			name: "invalid message skipped",
			inputArray: []map[string]any{
				{"role": "user", "content": "valid"},
				{"role": "user"},
			},
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents := provider.buildGeminiContents(tt.inputArray)
			assert.Len(t, contents, tt.wantLen)

			for _, content := range contents {
				assert.Equal(t, "user", content.Role)
				assert.NotEmpty(t, content.Parts)
			}
		})
	}
}

func TestGeminiProvider_BuildConfig(t *testing.T) {
	provider := &GeminiProvider{client: nil}

	config := provider.buildConfig(&GenerationRequest{
		SystemPrompt:    "You are a music expert",
		MaxOutputTokens: 1500,
		Temperature:     Float(0.5),
	})
	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "You are a music expert", config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, int32(1500), config.MaxOutputTokens)
	require.NotNil(t, config.Temperature)
	assert.Equal(t, float32(0.5), *config.Temperature)

	empty := provider.buildConfig(&GenerationRequest{})
	assert.Nil(t, empty.SystemInstruction)
	assert.Nil(t, empty.Temperature)
}

func TestClassifyGeminiError(t *testing.T) {
	quota := classifyGeminiError(genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "slow down"})
	assert.ErrorIs(t, quota, ErrQuotaExceeded)

	key := classifyGeminiError(genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "API key not valid"})
	assert.ErrorIs(t, key, ErrInvalidAPIKey)

	other := errors.New("boom")
	assert.Equal(t, other, classifyGeminiError(other))
}

func TestNewGeminiProvider_InvalidKey(t *testing.T) {
	provider, err := NewGeminiProvider(context.Background(), "invalid-key")

	// client creation does not validate the key against the API
	if err != nil {
		assert.Error(t, err)
	} else {
		assert.NotNil(t, provider)
		assert.Equal(t, "gemini", provider.Name())
	}
}
