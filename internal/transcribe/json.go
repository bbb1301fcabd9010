package transcribe

import (
	"context"
	"encoding/json"
	"os"

	"github.com/Conceptual-Machines/vibify-api/internal/notes"
)

// JSONTranscriber reads a JSON array of note events, either
// [start, end, pitch, velocity(, confidence)] tuples or records
type JSONTranscriber struct{}

func NewJSONTranscriber() *JSONTranscriber {
	return &JSONTranscriber{}
}

func (t *JSONTranscriber) Transcribe(ctx context.Context, path string) ([]notes.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, failed(path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failed(path, err)
	}

	var raw []notes.Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, failed(path, err)
	}
	if raw == nil {
		raw = []notes.Raw{}
	}
	return raw, nil
}
