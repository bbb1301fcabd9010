package models

import (
	"github.com/Conceptual-Machines/vibify-api/internal/features"
)

// AnalyzeResponse is returned by the upload analysis endpoint
type AnalyzeResponse struct {
	Filename    string            `json:"filename"`
	FileSize    int64             `json:"file_size"`
	SongName    string            `json:"song_name"`
	Features    *features.Summary `json:"features"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
}

// RecommendResponse is returned by the upload recommendation endpoint
type RecommendResponse struct {
	Filename        string            `json:"filename"`
	SongName        string            `json:"song_name"`
	Features        *features.Summary `json:"features"`
	Recommendations string            `json:"recommendations"`
	Songs           []string          `json:"songs"`
	Status          string            `json:"status"`
}

// FeaturesRequest carries a feature summary computed elsewhere
type FeaturesRequest struct {
	Features *features.Summary `json:"features" binding:"required"`
	SongName string            `json:"song_name"`
	FilePath string            `json:"file_path"`
	Limit    int               `json:"limit"`
}

// FeaturesRecommendResponse is returned by the recommend-from-features endpoint
type FeaturesRecommendResponse struct {
	SongName        string   `json:"song_name"`
	Recommendations string   `json:"recommendations"`
	Songs           []string `json:"songs"`
	Status          string   `json:"status"`
}

// PipelineResponse is returned by the default-input recommendation endpoint
type PipelineResponse struct {
	Songs               []string `json:"songs"`
	RawText             string   `json:"raw_text"`
	AnalysisPath        string   `json:"analysis_path,omitempty"`
	RecommendationsPath string   `json:"recommendations_path,omitempty"`
}

// SimilarSong is one similarity search hit
type SimilarSong struct {
	Song       SongAnalysis `json:"song"`
	Distance   float64      `json:"distance"`
	Similarity float64      `json:"similarity"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}
