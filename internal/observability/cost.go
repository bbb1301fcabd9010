package observability

import (
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/vibify-api/internal/llm"
)

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6

	// GPT-3.5-turbo pricing
	gpt35InputPrice  = 0.0005
	gpt35OutputPrice = 0.0015

	// GPT-4o pricing
	gpt4oInputPrice  = 0.005
	gpt4oOutputPrice = 0.015

	// GPT-4o-mini pricing
	gpt4oMiniInputPrice  = 0.00015
	gpt4oMiniOutputPrice = 0.0006

	// GPT-5.1 pricing
	gpt51InputPrice  = 0.001
	gpt51OutputPrice = 0.003

	// Gemini 2.5 Flash pricing
	geminiFlashInputPrice  = 0.0003
	geminiFlashOutputPrice = 0.0025

	// Embedding pricing (input only)
	embeddingSmallPrice = 0.00002
	embeddingLargePrice = 0.00013

	defaultPricingModel = "gpt-3.5-turbo"
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// PricingTable contains pricing for all models
var PricingTable = map[string]ModelPricing{
	"gpt-3.5-turbo": {
		InputPricePer1K:  gpt35InputPrice,
		OutputPricePer1K: gpt35OutputPrice,
	},
	"gpt-4o": {
		InputPricePer1K:  gpt4oInputPrice,
		OutputPricePer1K: gpt4oOutputPrice,
	},
	"gpt-4o-mini": {
		InputPricePer1K:  gpt4oMiniInputPrice,
		OutputPricePer1K: gpt4oMiniOutputPrice,
	},
	"gpt-5.1": {
		InputPricePer1K:  gpt51InputPrice,
		OutputPricePer1K: gpt51OutputPrice,
	},
	"gemini-2.5-flash": {
		InputPricePer1K:  geminiFlashInputPrice,
		OutputPricePer1K: geminiFlashOutputPrice,
	},
	"text-embedding-3-small": {
		InputPricePer1K: embeddingSmallPrice,
	},
	"text-embedding-3-large": {
		InputPricePer1K: embeddingLargePrice,
	},
}

// lookupPricing matches the model exactly, then by the longest known prefix
// (so dated snapshots such as "gpt-4o-mini-2024-07-18" resolve).
func lookupPricing(model string) ModelPricing {
	if pricing, ok := PricingTable[model]; ok {
		return pricing
	}

	best := ""
	for name := range PricingTable {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return PricingTable[best]
	}
	return PricingTable[defaultPricingModel]
}

// CalculateCost calculates the cost in USD of one LLM call
func CalculateCost(model string, usage llm.Usage) float64 {
	pricing := lookupPricing(model)

	inputCost := (float64(usage.InputTokens) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.OutputTokens) / tokensPerKilo) * pricing.OutputPricePer1K

	// reasoning tokens are billed like input tokens
	reasoningCost := 0.0
	if usage.ReasoningTokens > 0 {
		reasoningCost = (float64(usage.ReasoningTokens) / tokensPerKilo) * pricing.InputPricePer1K
	}

	return inputCost + outputCost + reasoningCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}
