package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Conceptual-Machines/vibify-api/internal/logger"
	"github.com/Conceptual-Machines/vibify-api/internal/notes"
)

// basicPitchSuffix is appended to the input stem by the basic-pitch CLI
const basicPitchSuffix = "_basic_pitch.mid"

// CommandTranscriber runs an external audio-to-MIDI command, invoked as
// "<command> <outdir> <audio>", and reads the MIDI file it writes
type CommandTranscriber struct {
	command []string
	midi    *MIDITranscriber
}

// NewCommandTranscriber parses command into program and leading arguments
func NewCommandTranscriber(command string) *CommandTranscriber {
	return &CommandTranscriber{command: strings.Fields(command), midi: NewMIDITranscriber()}
}

// Available reports whether the command can be found on PATH
func (t *CommandTranscriber) Available() bool {
	if len(t.command) == 0 {
		return false
	}
	_, err := exec.LookPath(t.command[0])
	return err == nil
}

func (t *CommandTranscriber) Transcribe(ctx context.Context, path string) ([]notes.Raw, error) {
	if len(t.command) == 0 {
		return nil, failed(path, errors.New("no transcription command configured"))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, failed(path, err)
	}

	outDir, err := os.MkdirTemp("", "vibify-transcribe-*")
	if err != nil {
		return nil, failed(path, err)
	}
	defer os.RemoveAll(outDir)

	args := append(append([]string{}, t.command[1:]...), outDir, path)
	cmd := exec.CommandContext(ctx, t.command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Running transcription command", logger.Fields{
		"command": t.command[0],
		"file":    filepath.Base(path),
	})
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, failed(path, ctx.Err())
		}
		return nil, failed(path, fmt.Errorf("%s: %w (stderr: %s)", t.command[0], err, strings.TrimSpace(stderr.String())))
	}

	midiPath, err := producedMIDI(outDir, path)
	if err != nil {
		return nil, failed(path, err)
	}
	return t.midi.Transcribe(ctx, midiPath)
}

// producedMIDI locates the MIDI file written for input. It prefers the
// basic-pitch naming and falls back to the only .mid file in dir.
func producedMIDI(dir, input string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	expected := filepath.Join(dir, stem+basicPitchSuffix)
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.mid"))
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("expected one MIDI file in output, found %d", len(matches))
	}
	return matches[0], nil
}
