package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const (
	// Role constants
	userRole      = "user"
	developerRole = "developer"
	systemRole    = "system"

	// Provider name
	providerNameOpenAI = "openai"

	maxPreviewChars = 200
)

// reasoningModelPrefixes reject sampling parameters such as temperature
var reasoningModelPrefixes = []string{"gpt-5", "o1", "o3", "o4"}

// OpenAIProvider implements the Provider interface using OpenAI's Responses API
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIProvider{
		client: &client,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate implements plain text generation using OpenAI's Responses API
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 OPENAI RECOMMENDATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()
	resp, err := p.client.Responses.New(ctx, params)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", classifyOpenAIError(err))
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)

	response, err := p.processResponsePlainText(resp, request.Model, startTime, transaction)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	transaction.SetTag("success", "true")
	return response, nil
}

// buildRequestParams converts GenerationRequest to OpenAI-specific ResponseNewParams
func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) responses.ResponseNewParams {
	inputItems := responses.ResponseInputParam{}

	for _, item := range request.InputArray {
		role, hasRole := item["role"].(string)
		content, hasContent := item["content"].(string)

		if !hasRole || !hasContent {
			log.Printf("⚠️  Skipping invalid input item (missing role or content): %v", item)
			continue
		}

		var roleEnum responses.EasyInputMessageRole
		switch role {
		case developerRole:
			roleEnum = responses.EasyInputMessageRoleDeveloper
		case systemRole:
			roleEnum = responses.EasyInputMessageRoleSystem
		default:
			roleEnum = responses.EasyInputMessageRoleUser
		}

		inputItems = append(inputItems,
			responses.ResponseInputItemParamOfMessage(content, roleEnum),
		)
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
	}

	if request.SystemPrompt != "" {
		params.Instructions = openai.String(request.SystemPrompt)
	}
	if request.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(request.MaxOutputTokens))
	}
	if request.Temperature != nil && !isReasoningModel(request.Model) {
		params.Temperature = openai.Float(*request.Temperature)
	}

	return params
}

// processResponsePlainText extracts plain text output from OpenAI response
func (p *OpenAIProvider) processResponsePlainText(
	resp *responses.Response,
	model string,
	startTime time.Time,
	transaction *sentry.Span,
) (*GenerationResponse, error) {
	span := transaction.StartChild("process_response_plaintext")
	defer span.Finish()

	textOutput := strings.TrimSpace(resp.OutputText())
	log.Printf("📥 OPENAI PLAIN TEXT RESPONSE: output_length=%d, tokens=%d",
		len(textOutput), resp.Usage.TotalTokens)

	if textOutput == "" {
		return nil, fmt.Errorf("openai: %w", ErrEmptyOutput)
	}

	usage := Usage{
		InputTokens:     int(resp.Usage.InputTokens),
		OutputTokens:    int(resp.Usage.OutputTokens),
		ReasoningTokens: int(resp.Usage.OutputTokensDetails.ReasoningTokens),
		TotalTokens:     int(resp.Usage.TotalTokens),
	}
	logUsageStats(providerNameOpenAI, usage)
	log.Printf("✅ OPENAI PLAIN TEXT COMPLETED in %v (preview: %s)", time.Since(startTime), truncate(textOutput, maxPreviewChars))

	return &GenerationResponse{
		Text:     textOutput,
		Model:    model,
		Provider: providerNameOpenAI,
		Usage:    usage,
	}, nil
}

// classifyOpenAIError tags quota and credential failures with the package sentinels
func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests && apiErr.Code == "insufficient_quota":
			return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.Code == "invalid_api_key":
			return fmt.Errorf("%w: %w", ErrInvalidAPIKey, err)
		}
	}
	return classifyByMessage(err)
}

// classifyByMessage falls back to matching the error text
func classifyByMessage(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"):
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	case strings.Contains(msg, "api_key") || strings.Contains(msg, "api key"):
		return fmt.Errorf("%w: %w", ErrInvalidAPIKey, err)
	default:
		return err
	}
}

func isReasoningModel(model string) bool {
	model = strings.ToLower(model)
	for _, prefix := range reasoningModelPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// logUsageStats logs token usage statistics
func logUsageStats(provider string, usage Usage) {
	log.Printf("📊 %s USAGE: input=%d, output=%d, reasoning=%d, total=%d",
		strings.ToUpper(provider), usage.InputTokens, usage.OutputTokens,
		usage.ReasoningTokens, usage.TotalTokens)
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
