package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteName(t *testing.T) {
	tests := []struct {
		midi     float64
		expected string
	}{
		{60, "C4"},
		{69, "A4"},
		{72, "C5"},
		{61, "C#4"},
		{0, "C-1"},
		{127, "G9"},
		{61.7, "C#4"},
		{-1, "B-2"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, NoteName(tt.midi))
		})
	}
}

func TestPitchClass(t *testing.T) {
	assert.Equal(t, 0, PitchClass(48))
	assert.Equal(t, 11, PitchClass(-1))
	assert.Equal(t, 9, PitchClass(69.99))
	assert.Equal(t, "F#", PitchClassName(66))
}

func TestFormatPitchClasses(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]int
		expected string
	}{
		{
			name:     "fewer than four entries",
			input:    map[string]int{"C": 20, "G": 15, "F": 10},
			expected: "C(20), G(15), F(10)",
		},
		{
			name:     "truncates to four",
			input:    map[string]int{"C": 20, "G": 15, "F": 10, "D": 8, "E": 2},
			expected: "C(20), G(15), F(10), D(8)",
		},
		{
			name:     "ties in chromatic order",
			input:    map[string]int{"G": 5, "C": 5, "A#": 5},
			expected: "C(5), G(5), A#(5)",
		},
		{
			name:     "empty",
			input:    map[string]int{},
			expected: "No pitch data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPitchClasses(tt.input))
		})
	}
}

func TestFormatIntervals(t *testing.T) {
	assert.Equal(t, "No clear patterns", FormatIntervals(nil))
	assert.Equal(t, "2(10), 1(7), 0(3)", FormatIntervals(map[int]int{0: 3, 1: 7, 2: 10, 5: 1}))
	assert.Equal(t, "1(4), 3(4)", FormatIntervals(map[int]int{3: 4, 1: 4}))
}

func TestTopPitchClasses(t *testing.T) {
	pc := map[string]int{"E": 2, "C": 9, "G": 4, "B": 4}
	assert.Equal(t, []string{"C", "G", "B"}, TopPitchClasses(pc, 3))
	assert.Empty(t, TopPitchClasses(nil, 3))
}

func TestClassifyTempo(t *testing.T) {
	tests := []struct {
		bpm         float64
		description string
		label       string
	}{
		{0, "very slow", "Very Slow (Largo)"},
		{59.9, "very slow", "Very Slow (Largo)"},
		{60, "slow", "Slow (Adagio)"},
		{75.9, "slow", "Slow (Adagio)"},
		{76, "moderate", "Moderate (Andante)"},
		{108, "moderately fast", "Moderately Fast (Moderato)"},
		{120, "fast", "Fast (Allegro)"},
		{167.9, "fast", "Fast (Allegro)"},
		{168, "very fast", "Very Fast (Presto)"},
		{400, "very fast", "Very Fast (Presto)"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			category := ClassifyTempo(tt.bpm)
			assert.Equal(t, tt.description, category.Description())
			assert.Equal(t, tt.label, category.Label())
		})
	}
}

func TestDescribeDynamics(t *testing.T) {
	assert.Equal(t, "soft and consistent", DescribeDynamics(39, 19))
	assert.Equal(t, "moderate and varied", DescribeDynamics(40, 20))
	assert.Equal(t, "loud and highly dynamic", DescribeDynamics(80, 50))
}

func TestInferStyle(t *testing.T) {
	assert.Equal(t, "balanced", InferStyle(100, 3, 5))
	assert.Equal(t, "energetic, complex, melodically varied", InferStyle(141, 6, 9))
	assert.Equal(t, "relaxed, sparse, melodically stable", InferStyle(69, 0.5, 2))
	assert.Equal(t, "sparse", InferStyle(140, 0.9, 8))
}

func TestKeyHints(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]int
		expected []string
	}{
		{
			name:     "empty",
			input:    map[string]int{},
			expected: []string{"Unknown"},
		},
		{
			name:     "c major triad ties resolve in declaration order",
			input:    map[string]int{"C": 10, "E": 10, "G": 10},
			expected: []string{"C", "G", "F"},
		},
		{
			name:     "sharp-heavy distribution",
			input:    map[string]int{"F#": 10, "C#": 10, "G#": 10, "D#": 10},
			expected: []string{"E", "A", "D"},
		},
		{
			name:     "low scores are filtered",
			input:    map[string]int{"D#": 95, "F#": 5},
			expected: []string{"E", "A#"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KeyHints(tt.input))
		})
	}
}

func TestAssessComplexity(t *testing.T) {
	high := AssessComplexity(12, 6, 25)
	assert.Equal(t, TierHigh, high.Melody.Tier)
	assert.Equal(t, TierHigh, high.Rhythm.Tier)
	assert.Equal(t, TierHigh, high.Dynamics.Tier)
	assert.Equal(t, "High (Wide pitch range, varied melodies)", high.Melody.String())

	low := AssessComplexity(3, 1, 5)
	assert.Equal(t, TierLow, low.Melody.Tier)
	assert.Equal(t, TierLow, low.Rhythm.Tier)
	assert.Equal(t, TierLow, low.Dynamics.Tier)

	medium := AssessComplexity(6, 3, 15)
	assert.Equal(t, TierMedium, medium.Melody.Tier)
	assert.Equal(t, "Medium (Moderate rhythmic activity)", medium.Rhythm.String())
	assert.Equal(t, "Some dynamic variation", medium.Dynamics.Detail)
}
