// Package describe renders a feature summary as the descriptive text that is
// embedded for similarity search. The clause order and punctuation are part of
// the stored index format: changing them breaks comparability with vectors
// already persisted.
package describe

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/vibify-api/internal/features"
	"github.com/Conceptual-Machines/vibify-api/internal/music"
)

const (
	clauseSeparator   = ". "
	prominentNotes    = 3
	missingSummaryMsg = "no feature summary"
)

// Text builds the deterministic description of a summary for the given song label
func Text(summary *features.Summary, label string) string {
	if summary == nil {
		return fmt.Sprintf("Analysis failed for %s: %s", label, missingSummaryMsg)
	}
	if summary.Error != "" {
		return fmt.Sprintf("Analysis failed for %s: %s", label, summary.Error)
	}

	pitch := valueOr(summary.PitchRange)
	rhythm := valueOr(summary.Rhythm)
	dynamics := valueOr(summary.Dynamics)
	temporal := valueOr(summary.Temporal)
	harmony := valueOr(summary.Harmony)

	parts := []string{fmt.Sprintf("Song: %s", label)}

	if tempo := temporal.TempoEstimate; tempo > 0 {
		parts = append(parts, fmt.Sprintf("Tempo: %.0f BPM (%s)", tempo, music.ClassifyTempo(tempo).Description()))
	}

	if pitch.Max > pitch.Min {
		parts = append(parts,
			fmt.Sprintf("Pitch range from %s to %s", music.NoteName(pitch.Min), music.NoteName(pitch.Max)),
			fmt.Sprintf("Average pitch around %s", music.NoteName(pitch.Mean)),
		)
	}

	parts = append(parts,
		fmt.Sprintf("Contains %d notes with density of %.1f notes per second", rhythm.TotalNotes, rhythm.NoteDensity),
		fmt.Sprintf("Average note duration of %.2f seconds", rhythm.AvgDuration),
		fmt.Sprintf("Dynamics: %s", music.DescribeDynamics(dynamics.AvgVelocity, dynamics.VelocityRange)),
	)

	if len(harmony.PitchClasses) > 0 {
		top := music.TopPitchClasses(harmony.PitchClasses, prominentNotes)
		parts = append(parts, fmt.Sprintf("Most prominent notes: %s", strings.Join(top, ", ")))
	}

	style := music.InferStyle(temporal.TempoEstimate, rhythm.NoteDensity, pitch.Std)
	parts = append(parts, fmt.Sprintf("Musical characteristics: %s", style))

	return strings.Join(parts, clauseSeparator) + "."
}

// valueOr dereferences a section, treating a missing one as all zeros
func valueOr[T any](section *T) T {
	if section == nil {
		var zero T
		return zero
	}
	return *section
}
