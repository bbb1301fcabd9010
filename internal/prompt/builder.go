package prompt

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/Conceptual-Machines/vibify-api/internal/features"
	"github.com/Conceptual-Machines/vibify-api/internal/music"
)

// onsetPreviewSize is how many onset intervals the prompt lists
const onsetPreviewSize = 3

// Builder builds recommendation prompts from feature summaries
type Builder struct {
	loader *Loader
	tmpl   *template.Template
}

// NewPromptBuilder creates a new prompt builder. It panics if the embedded
// template does not parse.
func NewPromptBuilder() *Builder {
	loader := NewPromptLoader()
	tmpl := template.Must(template.New("similarity").Funcs(template.FuncMap{
		"pitchClasses": music.FormatPitchClasses,
		"intervals":    music.FormatIntervals,
		"onsets":       formatOnsets,
	}).Parse(loader.SimilarityTemplate()))

	return &Builder{loader: loader, tmpl: tmpl}
}

// SystemPrompt returns the system prompt sent alongside every similarity prompt
func (b *Builder) SystemPrompt() string {
	return b.loader.SystemPrompt()
}

type similarityData struct {
	*features.Summary
	SongDesc string
}

// SimilarityPrompt renders the prompt asking for five songs similar to the
// summarized one. An error summary yields a short explanation instead.
func (b *Builder) SimilarityPrompt(summary *features.Summary, songName string) string {
	if summary == nil {
		return "Could not analyze the song: no feature summary"
	}
	if summary.Error != "" {
		return "Could not analyze the song: " + summary.Error
	}
	if err := summary.Validate(); err != nil {
		return "Could not analyze the song: " + err.Error()
	}

	songDesc := "this song"
	if songName != "" {
		songDesc = "'" + songName + "'"
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, similarityData{Summary: summary, SongDesc: songDesc}); err != nil {
		return fmt.Sprintf("Could not analyze the song: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// formatOnsets renders the first onset intervals as a bracketed list, e.g. [0.25, 0.5, 1.0]
func formatOnsets(pattern []float64) string {
	if len(pattern) > onsetPreviewSize {
		pattern = pattern[:onsetPreviewSize]
	}

	parts := make([]string, len(pattern))
	for i, v := range pattern {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
