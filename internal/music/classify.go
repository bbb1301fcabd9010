package music

import (
	"fmt"
	"sort"
	"strings"
)

// TempoCategory is a bucket on the canonical tempo scale
type TempoCategory int

const (
	TempoVerySlow TempoCategory = iota
	TempoSlow
	TempoModerate
	TempoModeratelyFast
	TempoFast
	TempoVeryFast
)

// Upper bounds (exclusive, BPM) of each tempo bucket except the last
const (
	verySlowMaxBPM       = 60
	slowMaxBPM           = 76
	moderateMaxBPM       = 108
	moderatelyFastMaxBPM = 120
	fastMaxBPM           = 168
)

var tempoDescriptions = map[TempoCategory]string{
	TempoVerySlow:       "very slow",
	TempoSlow:           "slow",
	TempoModerate:       "moderate",
	TempoModeratelyFast: "moderately fast",
	TempoFast:           "fast",
	TempoVeryFast:       "very fast",
}

var tempoLabels = map[TempoCategory]string{
	TempoVerySlow:       "Very Slow (Largo)",
	TempoSlow:           "Slow (Adagio)",
	TempoModerate:       "Moderate (Andante)",
	TempoModeratelyFast: "Moderately Fast (Moderato)",
	TempoFast:           "Fast (Allegro)",
	TempoVeryFast:       "Very Fast (Presto)",
}

// ClassifyTempo places a BPM value on the tempo scale
func ClassifyTempo(bpm float64) TempoCategory {
	switch {
	case bpm < verySlowMaxBPM:
		return TempoVerySlow
	case bpm < slowMaxBPM:
		return TempoSlow
	case bpm < moderateMaxBPM:
		return TempoModerate
	case bpm < moderatelyFastMaxBPM:
		return TempoModeratelyFast
	case bpm < fastMaxBPM:
		return TempoFast
	default:
		return TempoVeryFast
	}
}

// Description is the lowercase wording used in descriptive text
func (c TempoCategory) Description() string {
	return tempoDescriptions[c]
}

// Label is the human-facing label with its Italian tempo marking
func (c TempoCategory) Label() string {
	return tempoLabels[c]
}

func (c TempoCategory) String() string {
	return c.Description()
}

// Classification thresholds
const (
	softVelocityMax       = 40
	moderateVelocityMax   = 80
	consistentRangeMax    = 20
	variedRangeMax        = 50
	energeticTempoMin     = 140
	relaxedTempoMax       = 70
	complexDensityMin     = 5
	sparseDensityMax      = 1
	variedPitchStdMin     = 8
	stablePitchStdMax     = 3
	keyHintMinScore       = 0.1
	maxKeyHints           = 3
	maxFormattedClasses   = 4
	maxFormattedIntervals = 3
)

// DescribeDynamics combines an intensity tier and a variation tier, e.g. "moderate and varied"
func DescribeDynamics(avgVelocity, velocityRange float64) string {
	var intensity string
	switch {
	case avgVelocity < softVelocityMax:
		intensity = "soft"
	case avgVelocity < moderateVelocityMax:
		intensity = "moderate"
	default:
		intensity = "loud"
	}

	var variation string
	switch {
	case velocityRange < consistentRangeMax:
		variation = "consistent"
	case velocityRange < variedRangeMax:
		variation = "varied"
	default:
		variation = "highly dynamic"
	}

	return intensity + " and " + variation
}

// InferStyle derives style words from tempo, note density and pitch spread.
// It returns "balanced" when no heuristic applies.
func InferStyle(tempo, noteDensity, pitchStd float64) string {
	var traits []string

	if tempo > energeticTempoMin {
		traits = append(traits, "energetic")
	} else if tempo < relaxedTempoMax {
		traits = append(traits, "relaxed")
	}

	if noteDensity > complexDensityMin {
		traits = append(traits, "complex")
	} else if noteDensity < sparseDensityMax {
		traits = append(traits, "sparse")
	}

	if pitchStd > variedPitchStdMin {
		traits = append(traits, "melodically varied")
	} else if pitchStd < stablePitchStdMax {
		traits = append(traits, "melodically stable")
	}

	if len(traits) == 0 {
		return "balanced"
	}
	return strings.Join(traits, ", ")
}

type majorKey struct {
	tonic string
	scale []string
}

// majorKeys is ordered; the order breaks ties between equal scores
var majorKeys = []majorKey{
	{tonic: "C", scale: []string{"C", "D", "E", "F", "G", "A", "B"}},
	{tonic: "G", scale: []string{"G", "A", "B", "C", "D", "E", "F#"}},
	{tonic: "D", scale: []string{"D", "E", "F#", "G", "A", "B", "C#"}},
	{tonic: "A", scale: []string{"A", "B", "C#", "D", "E", "F#", "G#"}},
	{tonic: "E", scale: []string{"E", "F#", "G#", "A", "B", "C#", "D#"}},
	{tonic: "F", scale: []string{"F", "G", "A", "A#", "C", "D", "E"}},
	{tonic: "A#", scale: []string{"A#", "C", "D", "D#", "F", "G", "A"}},
}

// KeyHints scores candidate major keys against a pitch class distribution and
// returns up to three tonics whose score exceeds 0.1, best first.
func KeyHints(pitchClasses map[string]int) []string {
	if len(pitchClasses) == 0 {
		return []string{"Unknown"}
	}

	total := 0
	for _, count := range pitchClasses {
		total += count
	}

	type scored struct {
		tonic string
		score float64
	}
	scores := make([]scored, 0, len(majorKeys))
	for _, key := range majorKeys {
		score := 0.0
		if total > 0 {
			for _, note := range key.scale {
				score += float64(pitchClasses[note]) / float64(total)
			}
		}
		scores = append(scores, scored{tonic: key.tonic, score: score})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})
	if len(scores) > maxKeyHints {
		scores = scores[:maxKeyHints]
	}

	hints := make([]string, 0, maxKeyHints)
	for _, s := range scores {
		if s.score > keyHintMinScore {
			hints = append(hints, s.tonic)
		}
	}
	return hints
}

// Tier is a qualitative complexity level
type Tier string

const (
	TierHigh   Tier = "High"
	TierMedium Tier = "Medium"
	TierLow    Tier = "Low"
)

// Assessment is one complexity axis
type Assessment struct {
	Tier   Tier   `json:"tier"`
	Detail string `json:"detail"`
}

func (a Assessment) String() string {
	return fmt.Sprintf("%s (%s)", a.Tier, a.Detail)
}

// Complexity holds the melody, rhythm and dynamics axes
type Complexity struct {
	Melody   Assessment `json:"melody"`
	Rhythm   Assessment `json:"rhythm"`
	Dynamics Assessment `json:"dynamics"`
}

type tierThresholds struct {
	high, medium float64
	details      [3]string
}

var (
	melodyTiers = tierThresholds{
		high: 10, medium: 5,
		details: [3]string{"Wide pitch range, varied melodies", "Moderate pitch variation", "Simple, narrow range melodies"},
	}
	rhythmTiers = tierThresholds{
		high: 5, medium: 2,
		details: [3]string{"Dense, complex rhythms", "Moderate rhythmic activity", "Simple, sparse rhythms"},
	}
	dynamicsTiers = tierThresholds{
		high: 20, medium: 10,
		details: [3]string{"Wide dynamic range", "Some dynamic variation", "Consistent dynamics"},
	}
)

func (t tierThresholds) assess(value float64) Assessment {
	switch {
	case value > t.high:
		return Assessment{Tier: TierHigh, Detail: t.details[0]}
	case value > t.medium:
		return Assessment{Tier: TierMedium, Detail: t.details[1]}
	default:
		return Assessment{Tier: TierLow, Detail: t.details[2]}
	}
}

// AssessComplexity buckets pitch spread, note density and velocity spread
func AssessComplexity(pitchStd, noteDensity, velocityStd float64) Complexity {
	return Complexity{
		Melody:   melodyTiers.assess(pitchStd),
		Rhythm:   rhythmTiers.assess(noteDensity),
		Dynamics: dynamicsTiers.assess(velocityStd),
	}
}
