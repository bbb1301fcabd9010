package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/vibify-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// SystemPrompt loads the recommender system prompt
func (l *Loader) SystemPrompt() string {
	return strings.TrimSpace(string(embedded.SystemPromptTxt))
}

// SimilarityTemplate loads the raw similarity prompt template
func (l *Loader) SimilarityTemplate() string {
	return string(embedded.SimilarityPromptTmpl)
}
