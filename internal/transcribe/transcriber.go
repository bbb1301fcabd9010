// Package transcribe turns an input file into raw note events
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Conceptual-Machines/vibify-api/internal/notes"
)

// ErrTranscriptionFailed marks every failure to produce note events. A
// successful transcription with zero notes is not an error.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Transcriber produces raw note events for a file
type Transcriber interface {
	Transcribe(ctx context.Context, path string) ([]notes.Raw, error)
}

func failed(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTranscriptionFailed, filepath.Base(path), err)
}

// Router dispatches on file extension
type Router struct {
	midi         Transcriber
	json         Transcriber
	audio        Transcriber
	audioFormats map[string]bool
}

// NewRouter builds a router. audio may be nil when no audio transcription
// command is available; audio inputs then fail.
func NewRouter(midi, json, audio Transcriber, audioFormats []string) *Router {
	formats := make(map[string]bool, len(audioFormats))
	for _, f := range audioFormats {
		formats[strings.ToLower(f)] = true
	}
	return &Router{midi: midi, json: json, audio: audio, audioFormats: formats}
}

// Transcribe routes path to the transcriber for its extension
func (r *Router) Transcribe(ctx context.Context, path string) ([]notes.Raw, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".mid" || ext == ".midi":
		return r.midi.Transcribe(ctx, path)
	case ext == ".json":
		return r.json.Transcribe(ctx, path)
	case r.audioFormats[ext]:
		if r.audio == nil {
			return nil, failed(path, errors.New("no audio transcriber configured"))
		}
		return r.audio.Transcribe(ctx, path)
	default:
		return nil, failed(path, fmt.Errorf("unsupported extension %q", ext))
	}
}
