package notes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	conf := 0.9

	tests := []struct {
		name     string
		input    []Raw
		expected []Event
	}{
		{
			name:     "empty input",
			input:    nil,
			expected: []Event{},
		},
		{
			name:  "tuple without confidence",
			input: []Raw{FromTuple(0.5, 1.25, 60, 100)},
			expected: []Event{
				{StartTime: 0.5, EndTime: 1.25, Duration: 0.75, Pitch: 60, Velocity: 100, Confidence: 0.5},
			},
		},
		{
			name:  "tuple with confidence",
			input: []Raw{FromTuple(0, 1, 64, 80, 0.8)},
			expected: []Event{
				{StartTime: 0, EndTime: 1, Duration: 1, Pitch: 64, Velocity: 80, Confidence: 0.8},
			},
		},
		{
			name: "record derives duration",
			input: []Raw{FromRecord(Record{
				StartTime:  2,
				EndTime:    2.5,
				Duration:   func() *float64 { d := 99.0; return &d }(),
				Pitch:      67,
				Velocity:   70,
				Confidence: &conf,
			})},
			expected: []Event{
				{StartTime: 2, EndTime: 2.5, Duration: 0.5, Pitch: 67, Velocity: 70, Confidence: 0.9},
			},
		},
		{
			name: "mixed shapes",
			input: []Raw{
				FromTuple(0, 0.5, 60, 90),
				FromRecord(Record{StartTime: 0.5, EndTime: 1, Pitch: 62, Velocity: 91}),
			},
			expected: []Event{
				{StartTime: 0, EndTime: 0.5, Duration: 0.5, Pitch: 60, Velocity: 90, Confidence: 0.5},
				{StartTime: 0.5, EndTime: 1, Duration: 0.5, Pitch: 62, Velocity: 91, Confidence: 0.5},
			},
		},
		{
			name:     "unknown shape dropped",
			input:    []Raw{{}},
			expected: []Event{},
		},
		{
			name:  "unknown shape between notes",
			input: []Raw{FromTuple(0, 1, 60, 90), {}, FromTuple(1, 2, 62, 90)},
			expected: []Event{
				{StartTime: 0, EndTime: 1, Duration: 1, Pitch: 60, Velocity: 90, Confidence: 0.5},
				{StartTime: 1, EndTime: 2, Duration: 1, Pitch: 62, Velocity: 90, Confidence: 0.5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestRaw_UnmarshalJSON(t *testing.T) {
	input := `[
		[0.0, 0.5, 60, 100],
		[0.5, 1.0, 62, 90, 0.75],
		{"start_time": 1.0, "end_time": 1.5, "pitch": 64, "velocity": 80}
	]`

	var raw []Raw
	require.NoError(t, json.Unmarshal([]byte(input), &raw))
	require.Len(t, raw, 3)

	assert.Equal(t, KindTuple, raw[0].Kind())
	assert.Equal(t, KindTuple, raw[1].Kind())
	assert.Equal(t, KindRecord, raw[2].Kind())

	events := Normalize(raw)
	assert.Equal(t, 0.5, events[0].Confidence)
	assert.Equal(t, 0.75, events[1].Confidence)
	assert.Equal(t, 0.5, events[2].Duration)
}

func TestRaw_UnmarshalJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{name: "too short tuple", input: `[[0, 1, 60]]`},
		{name: "too long tuple", input: `[[0, 1, 60, 100, 0.5, 7]]`},
		{name: "non numeric tuple", input: `[[0, 1, "C4", 100]]`},
		{name: "scalar event", input: `[42]`},
		{name: "empty record", input: `[{}]`, field: "start_time"},
		{name: "record with pitch only", input: `[{"pitch": 60}]`, field: "start_time"},
		{name: "record with velocity only", input: `[{"velocity": 90}]`, field: "start_time"},
		{name: "record without pitch", input: `[{"start_time": 0, "end_time": 1, "velocity": 90}]`, field: "pitch"},
		{name: "record without velocity", input: `[{"start_time": 0, "end_time": 1, "pitch": 60}]`, field: "velocity"},
		{name: "record with string pitch", input: `[{"start_time": 0, "end_time": 1, "pitch": "C4", "velocity": 90}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw []Raw
			err := json.Unmarshal([]byte(tt.input), &raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedEvent)
			if tt.field != "" {
				assert.Contains(t, err.Error(), `missing field "`+tt.field+`"`)
			}
		})
	}
}

func TestRaw_UnmarshalJSONOptionalFields(t *testing.T) {
	var raw Raw
	require.NoError(t, json.Unmarshal([]byte(`{"start_time": 1, "end_time": 1.5, "pitch": 64, "velocity": 80}`), &raw))
	assert.True(t, raw.Valid())

	ev := raw.Event()
	assert.Equal(t, DefaultConfidence, ev.Confidence)
	assert.Equal(t, 0.5, ev.Duration)

	assert.False(t, Raw{}.Valid())
}

func TestRaw_MarshalJSON(t *testing.T) {
	data, err := json.Marshal([]Raw{FromTuple(0, 1, 60, 100), FromTuple(0, 1, 60, 100, 0.3)})
	require.NoError(t, err)
	assert.JSONEq(t, `[[0,1,60,100],[0,1,60,100,0.3]]`, string(data))

	data, err = json.Marshal(FromRecord(Record{StartTime: 1, EndTime: 2, Pitch: 60, Velocity: 64}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"start_time":1,"end_time":2,"pitch":60,"velocity":64}`, string(data))
}
