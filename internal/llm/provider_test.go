package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider is a test implementation of the Provider interface
type MockProvider struct {
	name         string
	generateFunc func(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, request)
	}
	return &GenerationResponse{}, nil
}

func TestProviderInterface(t *testing.T) {
	var provider Provider = &MockProvider{
		name: "mock",
		generateFunc: func(_ context.Context, request *GenerationRequest) (*GenerationResponse, error) {
			return &GenerationResponse{Text: "echo: " + request.InputArray[0]["content"].(string)}, nil
		},
	}

	resp, err := provider.Generate(context.Background(), &GenerationRequest{InputArray: UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", resp.Text)
	assert.Equal(t, "mock", provider.Name())
}

func TestUsage_Map(t *testing.T) {
	usage := Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}
	m := usage.Map()
	assert.Equal(t, 10, m["input_tokens"])
	assert.Equal(t, 5, m["output_tokens"])
	assert.Equal(t, 15, m["total_tokens"])
}

func TestProviderFactory(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		openaiKey    string
		geminiKey    string
		model        string
		providerName string
		wantName     string
		wantErr      bool
	}{
		{name: "gpt model", openaiKey: "sk", model: "gpt-3.5-turbo", wantName: "openai"},
		{name: "o-series model", openaiKey: "sk", model: "o3-mini", wantName: "openai"},
		{name: "gemini model", geminiKey: "g", model: "gemini-2.5-flash", wantName: "gemini"},
		{name: "explicit provider", openaiKey: "sk", providerName: "OpenAI", wantName: "openai"},
		{name: "missing openai key", model: "gpt-4o", wantErr: true},
		{name: "missing gemini key", openaiKey: "sk", model: "gemini-2.5-pro", wantErr: true},
		{name: "unknown provider", openaiKey: "sk", providerName: "anthropic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := NewProviderFactory(tt.openaiKey, tt.geminiKey)
			provider, err := factory.GetProvider(ctx, tt.model, tt.providerName)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, provider.Name())
		})
	}
}
