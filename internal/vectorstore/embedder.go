package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"gonum.org/v1/gonum/floats"

	"github.com/Conceptual-Machines/vibify-api/internal/config"
)

// Embedder maps text to a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OpenAIEmbedder embeds text with the OpenAI embeddings API
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

// NewOpenAIEmbedder creates an embedder for model, text-embedding-3-small when empty
func NewOpenAIEmbedder(apiKey, model string, opts ...option.RequestOption) *OpenAIEmbedder {
	if model == "" {
		model = config.DefaultEmbeddingModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIEmbedder{client: openai.NewClient(opts...), model: model}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embed with %s: %w", e.model, err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response contained no vectors")
	}
	return resp.Data[0].Embedding, nil
}

// DefaultHashDimensions is the vector size of the hashing embedder
const DefaultHashDimensions = 256

// HashEmbedder is a deterministic local bag-of-words embedder. Each lower-cased
// word is hashed into one of Dimensions buckets with a hash-derived sign, and
// the vector is L2-normalized.
type HashEmbedder struct {
	Dimensions int
}

func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{Dimensions: DefaultHashDimensions}
}

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	dims := e.Dimensions
	if dims <= 0 {
		dims = DefaultHashDimensions
	}

	vec := make([]float64, dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.'
	})
	for _, w := range words {
		w = strings.Trim(w, ".")
		if w == "" {
			continue
		}
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum64()

		sign := 1.0
		if sum>>63 == 1 {
			sign = -1
		}
		vec[sum%uint64(dims)] += sign
	}

	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec, nil
}

// NewEmbedder picks the OpenAI embedder when a key is configured and the
// hashing embedder otherwise
func NewEmbedder(cfg config.Config) Embedder {
	if cfg.OpenAIAPIKey != "" && !cfg.DisableAPI {
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	}
	return NewHashEmbedder()
}

// cosineDistance is 1 - cos(a, b). Vectors of different length or zero norm
// are not comparable.
func cosineDistance(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0, false
	}
	return 1 - floats.Dot(a, b)/(na*nb), true
}
