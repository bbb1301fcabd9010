package notes

// DefaultConfidence is used when a raw event carries no confidence value
const DefaultConfidence = 0.5

// Event is a single transcribed note in canonical form
type Event struct {
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Duration   float64 `json:"duration"`
	Pitch      float64 `json:"pitch"`
	Velocity   float64 `json:"velocity"`
	Confidence float64 `json:"confidence"`
}

// Normalize converts raw events into canonical events.
// Duration is always derived from the end and start times, and a missing
// confidence falls back to DefaultConfidence. Events of unknown shape are
// dropped. An empty input yields an empty slice.
func Normalize(raw []Raw) []Event {
	events := make([]Event, 0, len(raw))
	for _, r := range raw {
		if !r.Valid() {
			continue
		}
		events = append(events, r.Event())
	}
	return events
}
