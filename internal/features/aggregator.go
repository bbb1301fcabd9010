package features

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Conceptual-Machines/vibify-api/internal/music"
	"github.com/Conceptual-Machines/vibify-api/internal/notes"
)

const (
	// notes per second to BPM, assuming 4 notes per beat
	tempoFactor = 60.0 / 4.0

	maxOnsetPatterns = 5
	maxIntervalSize  = 12
)

// AggregationError reports malformed note data found while computing a summary
type AggregationError struct {
	Index  int
	Field  string
	Value  float64
	Reason string
}

func (e *AggregationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("note %d: %s %s (%v)", e.Index, e.Field, e.Reason, e.Value)
}

// Aggregate computes the feature summary of a canonical note sequence.
// An empty sequence yields the sentinel summary, not an error.
func Aggregate(events []notes.Event) (*Summary, error) {
	if len(events) == 0 {
		return Sentinel(), nil
	}
	if err := checkEvents(events); err != nil {
		return nil, err
	}

	n := len(events)
	pitches := make([]float64, n)
	durations := make([]float64, n)
	velocities := make([]float64, n)
	onsets := make([]float64, n)
	ends := make([]float64, n)
	for i, ev := range events {
		pitches[i] = ev.Pitch
		durations[i] = ev.Duration
		velocities[i] = ev.Velocity
		onsets[i] = ev.StartTime
		ends[i] = ev.EndTime
	}

	songDuration := floats.Max(ends)
	density := 0.0
	tempo := 0.0
	if songDuration > 0 {
		density = float64(n) / songDuration
		tempo = density * tempoFactor
	}

	summary := &Summary{
		PitchRange: &PitchRange{
			Min:  floats.Min(pitches),
			Max:  floats.Max(pitches),
			Mean: stat.Mean(pitches, nil),
			Std:  sampleStd(pitches),
		},
		Rhythm: &Rhythm{
			TotalNotes:  n,
			AvgDuration: stat.Mean(durations, nil),
			DurationStd: sampleStd(durations),
			NoteDensity: density,
		},
		Dynamics: &Dynamics{
			AvgVelocity:   stat.Mean(velocities, nil),
			VelocityRange: floats.Max(velocities) - floats.Min(velocities),
			VelocityStd:   sampleStd(velocities),
		},
		Temporal: &Temporal{
			SongDuration:  songDuration,
			OnsetPattern:  onsetPattern(onsets),
			TempoEstimate: tempo,
		},
		Harmony: &Harmony{
			PitchClasses:         pitchClasses(pitches),
			IntervalDistribution: intervalDistribution(pitches),
		},
	}

	if err := summary.Validate(); err != nil {
		return nil, &AggregationError{Index: -1, Field: "summary", Reason: err.Error()}
	}
	return summary, nil
}

func checkEvents(events []notes.Event) error {
	for i, ev := range events {
		fields := []struct {
			name  string
			value float64
		}{
			{"start_time", ev.StartTime},
			{"end_time", ev.EndTime},
			{"duration", ev.Duration},
			{"pitch", ev.Pitch},
			{"velocity", ev.Velocity},
			{"confidence", ev.Confidence},
		}
		for _, f := range fields {
			if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
				return &AggregationError{Index: i, Field: f.name, Value: f.value, Reason: "is not a finite number"}
			}
		}
		if ev.EndTime < ev.StartTime {
			return &AggregationError{Index: i, Field: "end_time", Value: ev.EndTime, Reason: fmt.Sprintf("is before start_time %v", ev.StartTime)}
		}
	}
	return nil
}

// sampleStd is the n-1 standard deviation, clamped to 0 for a single value
func sampleStd(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.StdDev(x, nil)
}

// roundHundredths rounds half to even at two decimals
func roundHundredths(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}

// onsetPattern returns up to five of the most frequent inter-onset intervals.
// Distinct intervals are sorted ascending, then stably by ascending count, and
// the last five are kept in that order.
func onsetPattern(onsets []float64) []float64 {
	if len(onsets) < 2 {
		return []float64{}
	}

	sorted := append([]float64(nil), onsets...)
	sort.Float64s(sorted)

	counts := make(map[float64]int)
	for i := 1; i < len(sorted); i++ {
		counts[roundHundredths(sorted[i]-sorted[i-1])]++
	}

	unique := make([]float64, 0, len(counts))
	for v := range counts {
		unique = append(unique, v)
	}
	sort.Float64s(unique)
	sort.SliceStable(unique, func(i, j int) bool {
		return counts[unique[i]] < counts[unique[j]]
	})

	if len(unique) > maxOnsetPatterns {
		unique = unique[len(unique)-maxOnsetPatterns:]
	}
	return unique
}

func pitchClasses(pitches []float64) map[string]int {
	classes := make(map[string]int)
	for _, p := range pitches {
		classes[music.PitchClassName(p)]++
	}
	return classes
}

// intervalDistribution counts successive differences of the sorted pitches,
// ignoring leaps wider than an octave.
func intervalDistribution(pitches []float64) map[int]int {
	dist := make(map[int]int)
	if len(pitches) < 2 {
		return dist
	}

	sorted := append([]float64(nil), pitches...)
	sort.Float64s(sorted)
	for i := 1; i < len(sorted); i++ {
		d := sorted[i] - sorted[i-1]
		if math.Abs(d) > maxIntervalSize {
			continue
		}
		dist[int(d)]++
	}
	return dist
}
