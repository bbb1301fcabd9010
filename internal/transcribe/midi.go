package transcribe

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/Conceptual-Machines/vibify-api/internal/notes"
)

// defaultBPM applies until the first tempo meta event
const defaultBPM = 120.0

// MIDITranscriber reads note events from a Standard MIDI File
type MIDITranscriber struct{}

func NewMIDITranscriber() *MIDITranscriber {
	return &MIDITranscriber{}
}

func (t *MIDITranscriber) Transcribe(ctx context.Context, path string) ([]notes.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, failed(path, err)
	}

	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, failed(path, err)
	}

	raw, err := notesFromSMF(s)
	if err != nil {
		return nil, failed(path, err)
	}
	return raw, nil
}

type tempoChange struct {
	tick uint64
	bpm  float64
}

// tempoMap converts absolute ticks to seconds
type tempoMap struct {
	ticksPerQuarter float64
	changes         []tempoChange
}

func newTempoMap(s *smf.SMF, ticksPerQuarter float64) tempoMap {
	changes := []tempoChange{{tick: 0, bpm: defaultBPM}}
	for _, track := range s.Tracks {
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
				changes = append(changes, tempoChange{tick: abs, bpm: bpm})
			}
		}
	}
	// later entries win at the same tick, so the default at 0 can be replaced
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].tick < changes[j].tick })
	return tempoMap{ticksPerQuarter: ticksPerQuarter, changes: changes}
}

func (m tempoMap) seconds(tick uint64) float64 {
	var secs float64
	for i, c := range m.changes {
		if c.tick >= tick {
			break
		}
		end := tick
		if i+1 < len(m.changes) && m.changes[i+1].tick < tick {
			end = m.changes[i+1].tick
		}
		secs += float64(end-c.tick) * 60 / (c.bpm * m.ticksPerQuarter)
	}
	return secs
}

type noteKey struct {
	channel uint8
	key     uint8
}

type openNote struct {
	tick     uint64
	velocity uint8
}

type midiNote struct {
	start, end uint64
	key        uint8
	velocity   uint8
}

func notesFromSMF(s *smf.SMF) ([]notes.Raw, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format %v", s.TimeFormat)
	}
	if ticks.Ticks4th() == 0 {
		return nil, errors.New("zero ticks per quarter note")
	}
	tempo := newTempoMap(s, float64(ticks.Ticks4th()))

	var collected []midiNote
	for _, track := range s.Tracks {
		open := map[noteKey][]openNote{}
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			msg := midi.Message(ev.Message)

			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				k := noteKey{channel: ch, key: key}
				open[k] = append(open[k], openNote{tick: abs, velocity: vel})
			case msg.GetNoteEnd(&ch, &key):
				k := noteKey{channel: ch, key: key}
				pending := open[k]
				if len(pending) == 0 {
					continue
				}
				collected = append(collected, midiNote{start: pending[0].tick, end: abs, key: key, velocity: pending[0].velocity})
				open[k] = pending[1:]
			}
		}
		// notes still sounding at the end of the track end there
		for k, pending := range open {
			for _, n := range pending {
				collected = append(collected, midiNote{start: n.tick, end: abs, key: k.key, velocity: n.velocity})
			}
		}
	}

	sort.SliceStable(collected, func(i, j int) bool {
		if collected[i].start != collected[j].start {
			return collected[i].start < collected[j].start
		}
		if collected[i].key != collected[j].key {
			return collected[i].key < collected[j].key
		}
		if collected[i].end != collected[j].end {
			return collected[i].end < collected[j].end
		}
		return collected[i].velocity < collected[j].velocity
	})

	raw := make([]notes.Raw, 0, len(collected))
	for _, n := range collected {
		raw = append(raw, notes.FromTuple(
			tempo.seconds(n.start),
			tempo.seconds(n.end),
			float64(n.key),
			float64(n.velocity),
		))
	}
	return raw, nil
}
