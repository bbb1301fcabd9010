package models

import (
	"time"

	"github.com/Conceptual-Machines/vibify-api/internal/features"
)

// SongAnalysis is a stored song with its feature summary, descriptive text
// and the embedding of that text. Numeric columns stay NULL for songs whose
// analysis found no notes.
type SongAnalysis struct {
	ID            string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SongName      string            `gorm:"index;not null" json:"songName"`
	FilePath      string            `json:"filePath"`
	AnalysisText  string            `gorm:"type:text" json:"analysisText"`
	RawFeatures   *features.Summary `gorm:"type:text;serializer:json" json:"rawFeatures"`
	Timestamp     time.Time         `gorm:"index" json:"timestamp"`
	Tempo         *float64          `gorm:"index" json:"tempo,omitempty"`
	PitchRangeMin *float64          `json:"pitchRangeMin,omitempty"`
	PitchRangeMax *float64          `json:"pitchRangeMax,omitempty"`
	NoteCount     *int              `json:"noteCount,omitempty"`
	SongDuration  *float64          `json:"songDuration,omitempty"`
	NoteDensity   *float64          `json:"noteDensity,omitempty"`
	Embedding     []float64         `gorm:"type:text;serializer:json" json:"-"`
}

// TableName keeps one table name across drivers
func (SongAnalysis) TableName() string {
	return "song_analyses"
}

// SetNumericProperties copies the queryable numbers out of summary. The
// error sentinel leaves them unset.
func (s *SongAnalysis) SetNumericProperties(summary *features.Summary) {
	s.Tempo, s.PitchRangeMin, s.PitchRangeMax = nil, nil, nil
	s.NoteCount, s.SongDuration, s.NoteDensity = nil, nil, nil
	if summary.IsSentinel() || summary.PitchRange == nil || summary.Rhythm == nil || summary.Temporal == nil {
		return
	}

	tempo := summary.Temporal.TempoEstimate
	minPitch, maxPitch := summary.PitchRange.Min, summary.PitchRange.Max
	count := summary.Rhythm.TotalNotes
	duration := summary.Temporal.SongDuration
	density := summary.Rhythm.NoteDensity

	s.Tempo = &tempo
	s.PitchRangeMin, s.PitchRangeMax = &minPitch, &maxPitch
	s.NoteCount = &count
	s.SongDuration = &duration
	s.NoteDensity = &density
}
