package music

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const semitonesPerOctave = 12

// NoteNames are the twelve pitch class names in chromatic order
var NoteNames = [semitonesPerOctave]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var pitchClassIndex = func() map[string]int {
	idx := make(map[string]int, len(NoteNames))
	for i, name := range NoteNames {
		idx[name] = i
	}
	return idx
}()

// floorMod returns x mod m with the sign of m
func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

// PitchClass reduces a MIDI pitch to a pitch class index in [0, 11].
// Fractional pitches are truncated toward the lower class.
func PitchClass(midi float64) int {
	pc := int(floorMod(midi, semitonesPerOctave))
	if pc >= semitonesPerOctave {
		pc = semitonesPerOctave - 1
	}
	return pc
}

// PitchClassName returns the note name of a MIDI pitch without octave
func PitchClassName(midi float64) string {
	return NoteNames[PitchClass(midi)]
}

// NoteName renders a MIDI pitch as a note name with octave, e.g. 60 -> "C4"
func NoteName(midi float64) string {
	octave := int(math.Floor(midi/semitonesPerOctave)) - 1
	return fmt.Sprintf("%s%d", PitchClassName(midi), octave)
}

type pitchClassCount struct {
	name  string
	count int
}

// rankPitchClasses orders pitch classes by descending count, ties in chromatic order
func rankPitchClasses(pitchClasses map[string]int) []pitchClassCount {
	ranked := make([]pitchClassCount, 0, len(pitchClasses))
	for name, count := range pitchClasses {
		ranked = append(ranked, pitchClassCount{name: name, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return chromaticOrder(ranked[i].name) < chromaticOrder(ranked[j].name)
	})
	return ranked
}

func chromaticOrder(name string) int {
	if idx, ok := pitchClassIndex[name]; ok {
		return idx
	}
	return semitonesPerOctave
}

// TopPitchClasses returns up to n pitch class names ordered by descending count
func TopPitchClasses(pitchClasses map[string]int, n int) []string {
	ranked := rankPitchClasses(pitchClasses)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	names := make([]string, 0, len(ranked))
	for _, pc := range ranked {
		names = append(names, pc.name)
	}
	return names
}

// FormatPitchClasses renders the four most used pitch classes as "C(20), G(15)"
func FormatPitchClasses(pitchClasses map[string]int) string {
	if len(pitchClasses) == 0 {
		return "No pitch data"
	}

	ranked := rankPitchClasses(pitchClasses)
	if len(ranked) > maxFormattedClasses {
		ranked = ranked[:maxFormattedClasses]
	}
	parts := make([]string, 0, len(ranked))
	for _, pc := range ranked {
		parts = append(parts, fmt.Sprintf("%s(%d)", pc.name, pc.count))
	}
	return strings.Join(parts, ", ")
}

// FormatIntervals renders the three most common intervals as "2(10), 1(7)".
// Ties are ordered by ascending interval.
func FormatIntervals(intervals map[int]int) string {
	if len(intervals) == 0 {
		return "No clear patterns"
	}

	keys := make([]int, 0, len(intervals))
	for k := range intervals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if intervals[keys[i]] != intervals[keys[j]] {
			return intervals[keys[i]] > intervals[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > maxFormattedIntervals {
		keys = keys[:maxFormattedIntervals]
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d(%d)", k, intervals[k]))
	}
	return strings.Join(parts, ", ")
}
