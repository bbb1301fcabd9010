package features

import (
	"fmt"
	"math"

	"github.com/Conceptual-Machines/vibify-api/internal/music"
)

// NoNotesDetected is the error message carried by the empty-input sentinel
const NoNotesDetected = "No notes detected"

// PitchRange holds pitch statistics in MIDI note numbers
type PitchRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Rhythm holds note count and duration statistics
type Rhythm struct {
	TotalNotes  int     `json:"total_notes"`
	AvgDuration float64 `json:"avg_duration"`
	DurationStd float64 `json:"duration_std"`
	NoteDensity float64 `json:"note_density"`
}

// Dynamics holds velocity statistics
type Dynamics struct {
	AvgVelocity   float64 `json:"avg_velocity"`
	VelocityRange float64 `json:"velocity_range"`
	VelocityStd   float64 `json:"velocity_std"`
}

// Temporal holds song length, common inter-onset intervals and the density-based tempo
type Temporal struct {
	SongDuration  float64   `json:"song_duration"`
	OnsetPattern  []float64 `json:"onset_pattern"`
	TempoEstimate float64   `json:"tempo_estimate"`
}

// Harmony holds pitch class counts and the melodic interval histogram
type Harmony struct {
	PitchClasses         map[string]int `json:"pitch_classes"`
	IntervalDistribution map[int]int    `json:"interval_distribution"`
}

// Summary is the feature summary of one song. When Error is set the summary
// is the "no notes" sentinel and every section is nil.
type Summary struct {
	Error      string      `json:"error,omitempty"`
	PitchRange *PitchRange `json:"pitch_range,omitempty"`
	Rhythm     *Rhythm     `json:"rhythm,omitempty"`
	Dynamics   *Dynamics   `json:"dynamics,omitempty"`
	Temporal   *Temporal   `json:"temporal,omitempty"`
	Harmony    *Harmony    `json:"harmony,omitempty"`
}

// Sentinel returns the summary that stands for an empty note sequence
func Sentinel() *Summary {
	return &Summary{Error: NoNotesDetected}
}

// IsSentinel reports whether the summary carries an error instead of features
func (s *Summary) IsSentinel() bool {
	return s == nil || s.Error != ""
}

// Tempo returns the tempo estimate, or 0 for the sentinel
func (s *Summary) Tempo() float64 {
	if s.IsSentinel() || s.Temporal == nil {
		return 0
	}
	return s.Temporal.TempoEstimate
}

// Complexity buckets the summary on the melody, rhythm and dynamics axes
func (s *Summary) Complexity() (music.Complexity, error) {
	if err := s.requireSections(); err != nil {
		return music.Complexity{}, err
	}
	return music.AssessComplexity(s.PitchRange.Std, s.Rhythm.NoteDensity, s.Dynamics.VelocityStd), nil
}

// KeyHints returns likely major keys for the pitch class distribution
func (s *Summary) KeyHints() []string {
	if s.IsSentinel() || s.Harmony == nil {
		return []string{"Unknown"}
	}
	return music.KeyHints(s.Harmony.PitchClasses)
}

func (s *Summary) requireSections() error {
	if s == nil {
		return fmt.Errorf("summary is nil")
	}
	if s.Error != "" {
		return fmt.Errorf("summary is an error sentinel: %s", s.Error)
	}
	if s.PitchRange == nil || s.Rhythm == nil || s.Dynamics == nil || s.Temporal == nil || s.Harmony == nil {
		return fmt.Errorf("summary is missing one or more sections")
	}
	return nil
}

// Validate checks that a non-sentinel summary is complete and holds only
// finite numbers, so it can always be encoded as JSON.
func (s *Summary) Validate() error {
	if s == nil {
		return fmt.Errorf("summary is nil")
	}
	if s.Error != "" {
		return nil
	}
	if err := s.requireSections(); err != nil {
		return err
	}

	values := map[string]float64{
		"pitch_range.min":         s.PitchRange.Min,
		"pitch_range.max":         s.PitchRange.Max,
		"pitch_range.mean":        s.PitchRange.Mean,
		"pitch_range.std":         s.PitchRange.Std,
		"rhythm.avg_duration":     s.Rhythm.AvgDuration,
		"rhythm.duration_std":     s.Rhythm.DurationStd,
		"rhythm.note_density":     s.Rhythm.NoteDensity,
		"dynamics.avg_velocity":   s.Dynamics.AvgVelocity,
		"dynamics.velocity_range": s.Dynamics.VelocityRange,
		"dynamics.velocity_std":   s.Dynamics.VelocityStd,
		"temporal.song_duration":  s.Temporal.SongDuration,
		"temporal.tempo_estimate": s.Temporal.TempoEstimate,
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not finite: %v", name, v)
		}
	}
	for i, v := range s.Temporal.OnsetPattern {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("temporal.onset_pattern[%d] is not finite: %v", i, v)
		}
	}
	return nil
}
