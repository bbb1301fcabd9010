package notes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedEvent marks note input that cannot be read as a note
var ErrMalformedEvent = errors.New("malformed note event")

// Kind identifies which shape a raw event arrived in
type Kind int

const (
	// KindTuple is a positional (start, end, pitch, velocity[, confidence]) event
	KindTuple Kind = iota + 1
	// KindRecord is an already-structured event
	KindRecord
)

const (
	minTupleLen = 4
	maxTupleLen = 5
)

func (k Kind) String() string {
	switch k {
	case KindTuple:
		return "tuple"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Tuple holds the positional fields of a tuple event
type Tuple struct {
	Start      float64
	End        float64
	Pitch      float64
	Velocity   float64
	Confidence *float64
}

// Record is the structured event shape. Duration is accepted on input but
// always recomputed during normalization.
type Record struct {
	StartTime  float64  `json:"start_time"`
	EndTime    float64  `json:"end_time"`
	Duration   *float64 `json:"duration,omitempty"`
	Pitch      float64  `json:"pitch"`
	Velocity   float64  `json:"velocity"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Raw is a note event in either of the two accepted shapes
type Raw struct {
	kind   Kind
	tuple  Tuple
	record Record
}

// FromTuple builds a raw tuple event. At most one confidence value is used.
func FromTuple(start, end, pitch, velocity float64, confidence ...float64) Raw {
	t := Tuple{Start: start, End: end, Pitch: pitch, Velocity: velocity}
	if len(confidence) > 0 {
		c := confidence[0]
		t.Confidence = &c
	}
	return Raw{kind: KindTuple, tuple: t}
}

// FromRecord builds a raw record event
func FromRecord(r Record) Raw {
	return Raw{kind: KindRecord, record: r}
}

// Kind reports the shape of the event
func (r Raw) Kind() Kind {
	return r.kind
}

// Valid reports whether the event has a known shape
func (r Raw) Valid() bool {
	return r.kind == KindTuple || r.kind == KindRecord
}

// Event converts the raw event into its canonical form. Events of unknown
// shape must be filtered with Valid first.
func (r Raw) Event() Event {
	var start, end, pitch, velocity float64
	var confidence *float64

	switch r.kind {
	case KindTuple:
		start, end, pitch, velocity = r.tuple.Start, r.tuple.End, r.tuple.Pitch, r.tuple.Velocity
		confidence = r.tuple.Confidence
	case KindRecord:
		start, end, pitch, velocity = r.record.StartTime, r.record.EndTime, r.record.Pitch, r.record.Velocity
		confidence = r.record.Confidence
	}

	ev := Event{
		StartTime:  start,
		EndTime:    end,
		Duration:   end - start,
		Pitch:      pitch,
		Velocity:   velocity,
		Confidence: DefaultConfidence,
	}
	if confidence != nil {
		ev.Confidence = *confidence
	}
	return ev
}

// MarshalJSON writes tuples as arrays and records as objects
func (r Raw) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case KindTuple:
		values := []float64{r.tuple.Start, r.tuple.End, r.tuple.Pitch, r.tuple.Velocity}
		if r.tuple.Confidence != nil {
			values = append(values, *r.tuple.Confidence)
		}
		return json.Marshal(values)
	case KindRecord:
		return json.Marshal(r.record)
	default:
		return nil, fmt.Errorf("cannot marshal raw event of kind %s", r.kind)
	}
}

// recordFields decodes a record with every required field left nil when absent
type recordFields struct {
	StartTime  *float64 `json:"start_time"`
	EndTime    *float64 `json:"end_time"`
	Duration   *float64 `json:"duration"`
	Pitch      *float64 `json:"pitch"`
	Velocity   *float64 `json:"velocity"`
	Confidence *float64 `json:"confidence"`
}

func (f recordFields) record() (Record, error) {
	required := []struct {
		name  string
		value *float64
	}{
		{"start_time", f.StartTime},
		{"end_time", f.EndTime},
		{"pitch", f.Pitch},
		{"velocity", f.Velocity},
	}
	for _, field := range required {
		if field.value == nil {
			return Record{}, fmt.Errorf("%w: missing field %q", ErrMalformedEvent, field.name)
		}
	}
	return Record{
		StartTime:  *f.StartTime,
		EndTime:    *f.EndTime,
		Duration:   f.Duration,
		Pitch:      *f.Pitch,
		Velocity:   *f.Velocity,
		Confidence: f.Confidence,
	}, nil
}

// UnmarshalJSON accepts a 4 or 5 element number array or an event object
// carrying start_time, end_time, pitch and velocity
func (r *Raw) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty note event", ErrMalformedEvent)
	}

	switch trimmed[0] {
	case '[':
		var values []float64
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return fmt.Errorf("%w: invalid tuple: %w", ErrMalformedEvent, err)
		}
		if len(values) < minTupleLen || len(values) > maxTupleLen {
			return fmt.Errorf("%w: tuple must have %d or %d values, got %d", ErrMalformedEvent, minTupleLen, maxTupleLen, len(values))
		}
		*r = FromTuple(values[0], values[1], values[2], values[3], values[minTupleLen:]...)
		return nil
	case '{':
		var fields recordFields
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return fmt.Errorf("%w: invalid record: %w", ErrMalformedEvent, err)
		}
		rec, err := fields.record()
		if err != nil {
			return err
		}
		*r = FromRecord(rec)
		return nil
	default:
		return fmt.Errorf("%w: must be an array or an object", ErrMalformedEvent)
	}
}
