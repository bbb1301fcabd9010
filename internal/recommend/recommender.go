// Package recommend asks an LLM for songs similar to an analyzed one and
// degrades to returning the prompt itself when no provider is usable.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/features"
	"github.com/Conceptual-Machines/vibify-api/internal/llm"
	"github.com/Conceptual-Machines/vibify-api/internal/logger"
	"github.com/Conceptual-Machines/vibify-api/internal/metrics"
	"github.com/Conceptual-Machines/vibify-api/internal/observability"
	"github.com/Conceptual-Machines/vibify-api/internal/prompt"
)

const manualPromptSuffix = "Here's the prompt to use manually:\n\n"

// Recommender turns a feature summary into recommendation text
type Recommender interface {
	Recommend(ctx context.Context, summary *features.Summary, songName string) (string, error)
}

// Option configures an LLM recommender
type Option func(*LLMRecommender)

// WithMetrics records latency and token usage of every call
func WithMetrics(recorder metrics.Recorder) Option {
	return func(r *LLMRecommender) {
		if recorder != nil {
			r.metrics = recorder
		}
	}
}

// WithTracer traces every call through Langfuse
func WithTracer(client *observability.LangfuseClient) Option {
	return func(r *LLMRecommender) {
		r.tracer = client
	}
}

// LLMRecommender is the enabled recommender
type LLMRecommender struct {
	provider    llm.Provider
	builder     *prompt.Builder
	model       string
	maxTokens   int
	temperature float64
	metrics     metrics.Recorder
	tracer      *observability.LangfuseClient
}

// New returns a recommender backed by provider. Model, token cap and
// temperature come from cfg, with the package defaults filling any zero value.
func New(provider llm.Provider, cfg config.Config, opts ...Option) *LLMRecommender {
	r := &LLMRecommender{
		provider:    provider,
		builder:     prompt.NewPromptBuilder(),
		model:       cfg.RecommendationModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		metrics:     metrics.Nop(),
	}
	if r.model == "" {
		r.model = config.DefaultRecommendationModel
	}
	if r.maxTokens <= 0 {
		r.maxTokens = config.DefaultMaxTokens
	}
	if r.temperature <= 0 {
		r.temperature = config.DefaultTemperature
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Model returns the model requested from the provider
func (r *LLMRecommender) Model() string {
	return r.model
}

// Recommend asks the provider for five similar songs. Provider failures are
// folded into the returned text together with the prompt; only context
// cancellation is returned as an error.
func (r *LLMRecommender) Recommend(ctx context.Context, summary *features.Summary, songName string) (string, error) {
	userPrompt := r.builder.SimilarityPrompt(summary, songName)

	request := &llm.GenerationRequest{
		Model:           r.model,
		SystemPrompt:    r.builder.SystemPrompt(),
		InputArray:      llm.UserMessage(userPrompt),
		MaxOutputTokens: r.maxTokens,
		Temperature:     llm.Float(r.temperature),
	}

	trace := r.tracer.StartTrace(ctx, "song-recommendation", map[string]interface{}{
		"song_name": songName,
		"provider":  r.provider.Name(),
	})
	defer trace.Finish()
	generation := trace.Generation("similar-songs", map[string]interface{}{"model": r.model})
	defer generation.Finish()

	logger.Info("Calling LLM for recommendations", logger.Fields{
		"model":     r.model,
		"provider":  r.provider.Name(),
		"song_name": songName,
	})

	start := time.Now()
	resp, err := r.provider.Generate(ctx, request)
	duration := time.Since(start)
	r.metrics.RecordRecommendation(ctx, r.model, duration, err == nil)

	if err != nil {
		generation.LogError(err)
		if ctx.Err() != nil {
			return "", fmt.Errorf("recommendation cancelled: %w", ctx.Err())
		}
		logger.Error("Recommendation request failed", err, logger.Fields{
			"model":     r.model,
			"song_name": songName,
		})
		return failureText(err, userPrompt), nil
	}

	generation.LogResponse(request, resp)
	r.metrics.RecordTokenUsage(ctx, r.model,
		resp.Usage.TotalTokens, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.ReasoningTokens)
	logger.LogRecommendationRequest(ctx, r.model, duration, resp.Usage.Map(), logger.Fields{
		"song_name": songName,
		"cost":      observability.FormatCost(observability.CalculateCost(resp.Model, resp.Usage)),
	})

	return resp.Text, nil
}

// failureText maps a provider error onto the message shown in place of recommendations
func failureText(err error, userPrompt string) string {
	switch {
	case errors.Is(err, llm.ErrQuotaExceeded):
		return "API quota exceeded. " + manualPromptSuffix + userPrompt
	case errors.Is(err, llm.ErrInvalidAPIKey):
		return "Invalid API key. " + manualPromptSuffix + userPrompt
	default:
		sentry.CaptureException(err)
		return fmt.Sprintf("API error: %v\n\n%s%s", err, manualPromptSuffix, userPrompt)
	}
}

type disabledRecommender struct {
	builder *prompt.Builder
}

// Disabled returns the recommender used when no API key is configured. It
// never calls out and answers with the prompt for manual use.
func Disabled() Recommender {
	return disabledRecommender{builder: prompt.NewPromptBuilder()}
}

func (d disabledRecommender) Recommend(_ context.Context, summary *features.Summary, songName string) (string, error) {
	return "No API key provided. " + manualPromptSuffix + d.builder.SimilarityPrompt(summary, songName), nil
}

// FromConfig picks the enabled or disabled recommender for cfg
func FromConfig(ctx context.Context, cfg config.Config, opts ...Option) Recommender {
	if !cfg.RecommenderEnabled() {
		return Disabled()
	}

	factory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	provider, err := factory.GetProvider(ctx, cfg.RecommendationModel, "")
	if err != nil {
		logger.Warn("Falling back to manual recommendations", logger.Fields{
			"model": cfg.RecommendationModel,
			"error": err.Error(),
		})
		return Disabled()
	}
	return New(provider, cfg, opts...)
}
