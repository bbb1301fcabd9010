// Package analyzer runs the transcription, feature and description pipeline
// for one input file.
package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/describe"
	"github.com/Conceptual-Machines/vibify-api/internal/features"
	"github.com/Conceptual-Machines/vibify-api/internal/logger"
	"github.com/Conceptual-Machines/vibify-api/internal/metrics"
	"github.com/Conceptual-Machines/vibify-api/internal/notes"
	"github.com/Conceptual-Machines/vibify-api/internal/transcribe"
)

// Analysis is the result of analyzing one song
type Analysis struct {
	SongName string            `json:"song_name"`
	FilePath string            `json:"file_path"`
	Summary  *features.Summary `json:"features"`
	Text     string            `json:"description"`
}

// NoteCount returns the number of notes summarized, 0 for the sentinel
func (a *Analysis) NoteCount() int {
	if a.Summary.IsSentinel() || a.Summary.Rhythm == nil {
		return 0
	}
	return a.Summary.Rhythm.TotalNotes
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithMetrics records duration, note count and outcome of each analysis
func WithMetrics(recorder metrics.Recorder) Option {
	return func(a *Analyzer) {
		if recorder != nil {
			a.metrics = recorder
		}
	}
}

// Analyzer is the pipeline entry point
type Analyzer struct {
	cfg         config.Config
	transcriber transcribe.Transcriber
	metrics     metrics.Recorder
}

// New returns an analyzer reading notes through t
func New(cfg config.Config, t transcribe.Transcriber, opts ...Option) *Analyzer {
	a := &Analyzer{cfg: cfg, transcriber: t, metrics: metrics.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the configuration the analyzer was built with
func (a *Analyzer) Config() config.Config {
	return a.cfg
}

// NewDefault wires the extension router with the MIDI, JSON and audio
// command transcribers named by cfg
func NewDefault(cfg config.Config, opts ...Option) *Analyzer {
	var audio transcribe.Transcriber
	if cfg.TranscribeCommand != "" {
		audio = transcribe.NewCommandTranscriber(cfg.TranscribeCommand)
	}
	router := transcribe.NewRouter(
		transcribe.NewMIDITranscriber(),
		transcribe.NewJSONTranscriber(),
		audio,
		cfg.SupportedFormats,
	)
	return New(cfg, router, opts...)
}

// Analyze transcribes path and summarizes its notes. A transcription failure
// is returned as an error; a file without notes yields the sentinel summary.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Analysis, error) {
	start := time.Now()
	songName := SongNameFromPath(path)

	span := sentry.StartSpan(ctx, "analyzer.analyze")
	span.Description = filepath.Base(path)
	defer span.Finish()

	logger.Info("Analyzing song", logger.Fields{"song_name": songName, "file": filepath.Base(path)})

	raw, err := a.transcriber.Transcribe(span.Context(), path)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		a.metrics.RecordAnalysis(ctx, time.Since(start), 0, false)
		logger.Error("Transcription failed", err, logger.Fields{"song_name": songName})
		return nil, err
	}

	analysis, err := a.AnalyzeNotes(songName, path, raw)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		a.metrics.RecordAnalysis(ctx, time.Since(start), 0, false)
		logger.Error("Feature aggregation failed", err, logger.Fields{"song_name": songName})
		return nil, err
	}

	a.metrics.RecordAnalysis(ctx, time.Since(start), analysis.NoteCount(), !analysis.Summary.IsSentinel())
	logger.Info("Analysis complete", logger.Fields{
		"song_name":   songName,
		"notes":       analysis.NoteCount(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return analysis, nil
}

// AnalyzeNotes runs the pure part of the pipeline on already transcribed notes
func (a *Analyzer) AnalyzeNotes(songName, path string, raw []notes.Raw) (*Analysis, error) {
	summary, err := features.Aggregate(notes.Normalize(raw))
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", songName, err)
	}

	return &Analysis{
		SongName: songName,
		FilePath: path,
		Summary:  summary,
		Text:     describe.Text(summary, songName),
	}, nil
}

// SongNameFromPath derives a display name from the file stem:
// "my_favorite-song.mp3" becomes "My Favorite Song"
func SongNameFromPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return titleCase(stem)
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inWord := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) && !inWord:
			b.WriteRune(unicode.ToUpper(r))
			inWord = true
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
			inWord = false
		}
	}
	return b.String()
}
