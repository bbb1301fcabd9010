package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/features"
	"github.com/Conceptual-Machines/vibify-api/internal/notes"
	"github.com/Conceptual-Machines/vibify-api/internal/transcribe"
)

type fakeTranscriber struct {
	raw []notes.Raw
	err error
}

func (f fakeTranscriber) Transcribe(context.Context, string) ([]notes.Raw, error) {
	return f.raw, f.err
}

type analysisRecord struct {
	noteCount int
	success   bool
}

type fakeRecorder struct {
	analyses []analysisRecord
}

func (f *fakeRecorder) RecordAnalysis(_ context.Context, _ time.Duration, noteCount int, success bool) {
	f.analyses = append(f.analyses, analysisRecord{noteCount: noteCount, success: success})
}

func (f *fakeRecorder) RecordRecommendation(context.Context, string, time.Duration, bool) {}

func (f *fakeRecorder) RecordTokenUsage(context.Context, string, int, int, int, int) {}

func fourNotes() []notes.Raw {
	return []notes.Raw{
		notes.FromTuple(0, 0.5, 60, 80),
		notes.FromTuple(0.5, 1, 64, 90),
		notes.FromTuple(1, 1.5, 67, 100),
		notes.FromTuple(1.5, 2, 72, 110),
	}
}

func TestAnalyze(t *testing.T) {
	recorder := &fakeRecorder{}
	a := New(config.Config{}, fakeTranscriber{raw: fourNotes()}, WithMetrics(recorder))

	analysis, err := a.Analyze(context.Background(), "/music/test_song.mp3")
	require.NoError(t, err)

	assert.Equal(t, "Test Song", analysis.SongName)
	assert.Equal(t, "/music/test_song.mp3", analysis.FilePath)
	require.False(t, analysis.Summary.IsSentinel())
	assert.Equal(t, 4, analysis.NoteCount())
	assert.Contains(t, analysis.Text, "Song: Test Song. Tempo: 30 BPM (very slow).")
	assert.Equal(t, []analysisRecord{{noteCount: 4, success: true}}, recorder.analyses)
}

func TestAnalyze_NoNotes(t *testing.T) {
	recorder := &fakeRecorder{}
	a := New(config.Config{}, fakeTranscriber{raw: []notes.Raw{}}, WithMetrics(recorder))

	analysis, err := a.Analyze(context.Background(), "silence.mid")
	require.NoError(t, err)
	assert.True(t, analysis.Summary.IsSentinel())
	assert.Equal(t, features.NoNotesDetected, analysis.Summary.Error)
	assert.Equal(t, "Analysis failed for Silence: No notes detected", analysis.Text)
	assert.Equal(t, 0, analysis.NoteCount())
	assert.Equal(t, []analysisRecord{{noteCount: 0, success: false}}, recorder.analyses)
}

func TestAnalyze_TranscriptionFailure(t *testing.T) {
	recorder := &fakeRecorder{}
	failure := fmt.Errorf("%w: model crashed", transcribe.ErrTranscriptionFailed)
	a := New(config.Config{}, fakeTranscriber{err: failure}, WithMetrics(recorder))

	analysis, err := a.Analyze(context.Background(), "broken.wav")
	assert.Nil(t, analysis)
	assert.ErrorIs(t, err, transcribe.ErrTranscriptionFailed)
	assert.Equal(t, []analysisRecord{{noteCount: 0, success: false}}, recorder.analyses)
}

func TestAnalyze_MalformedNotes(t *testing.T) {
	a := New(config.Config{}, fakeTranscriber{raw: []notes.Raw{notes.FromTuple(1, 0.5, 60, 80)}})

	_, err := a.Analyze(context.Background(), "backwards.json")
	var aggErr *features.AggregationError
	assert.True(t, errors.As(err, &aggErr))
}

func TestAnalyzeNotes(t *testing.T) {
	a := New(config.Config{}, nil)

	analysis, err := a.AnalyzeNotes("Direct", "direct.json", fourNotes())
	require.NoError(t, err)
	assert.Equal(t, "Direct", analysis.SongName)
	assert.InDelta(t, 65.75, analysis.Summary.PitchRange.Mean, 1e-9)
}

func TestNewDefault_JSONInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "json-song.json")
	require.NoError(t, os.WriteFile(path, []byte(`[[0, 0.5, 60, 80], [0.5, 1, 62, 80]]`), 0o644))

	analysis, err := NewDefault(config.Config{SupportedFormats: config.DefaultSupportedFormats}).
		Analyze(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Json Song", analysis.SongName)
	assert.Equal(t, 2, analysis.NoteCount())
}

func TestSongNameFromPath(t *testing.T) {
	tests := map[string]string{
		"sample.mp3":                  "Sample",
		"/in/my_favorite-song.wav":    "My Favorite Song",
		"ALL_CAPS.flac":               "All Caps",
		"track2mix.mid":               "Track2Mix",
		"data/input/no-extension":     "No Extension",
		"already Titled Song.m4a":     "Already Titled Song",
		"two__underscores--dash.json": "Two  Underscores  Dash",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, SongNameFromPath(in))
		})
	}
}
