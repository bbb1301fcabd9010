package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Conceptual-Machines/vibify-api/internal/analyzer"
	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/features"
	"github.com/Conceptual-Machines/vibify-api/internal/logger"
	"github.com/Conceptual-Machines/vibify-api/internal/models"
	"github.com/Conceptual-Machines/vibify-api/internal/notes"
	"github.com/Conceptual-Machines/vibify-api/internal/recommend"
	"github.com/Conceptual-Machines/vibify-api/internal/storage"
	"github.com/Conceptual-Machines/vibify-api/internal/transcribe"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	analyzer    *analyzer.Analyzer
	recommender recommend.Recommender
	cfg         config.Config
}

func NewAnalysisHandler(a *analyzer.Analyzer, r recommend.Recommender, cfg config.Config) *AnalysisHandler {
	return &AnalysisHandler{analyzer: a, recommender: r, cfg: cfg}
}

// Analyze extracts the feature summary and description of an uploaded file
// POST /api/v1/analyze
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	u, err := receiveUpload(c, h.cfg.SupportedFormats)
	if err != nil {
		return
	}
	defer u.cleanup()

	analysis, ok := h.analyze(c, u.Path)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.AnalyzeResponse{
		Filename:    u.Filename,
		FileSize:    u.Size,
		SongName:    analysis.SongName,
		Features:    analysis.Summary,
		Description: analysis.Text,
		Status:      statusSuccess,
	})
}

// Recommend analyzes an uploaded file and asks for similar songs
// POST /api/v1/recommend
func (h *AnalysisHandler) Recommend(c *gin.Context) {
	u, err := receiveUpload(c, h.cfg.SupportedFormats)
	if err != nil {
		return
	}
	defer u.cleanup()

	analysis, ok := h.analyze(c, u.Path)
	if !ok {
		return
	}

	songName := strings.TrimSpace(c.PostForm("song_name"))
	if songName == "" {
		songName = u.Filename
	}
	c.Set("song_name", songName)

	text, ok := h.recommend(c, analysis.Summary, songName)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.RecommendResponse{
		Filename:        u.Filename,
		SongName:        songName,
		Features:        analysis.Summary,
		Recommendations: text,
		Songs:           recommend.ParseTopSongs(text, recommend.DefaultTopSongs),
		Status:          statusSuccess,
	})
}

// RecommendFromFeatures asks for similar songs given a summary computed elsewhere
// POST /api/v1/recommend-from-features
func (h *AnalysisHandler) RecommendFromFeatures(c *gin.Context) {
	var req models.FeaturesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validFeatures(c, req.Features) {
		return
	}
	c.Set("song_name", req.SongName)

	text, ok := h.recommend(c, req.Features, req.SongName)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.FeaturesRecommendResponse{
		SongName:        req.SongName,
		Recommendations: text,
		Songs:           recommend.ParseTopSongs(text, recommend.DefaultTopSongs),
		Status:          statusSuccess,
	})
}

// DefaultRecommendations runs the whole pipeline on the configured default
// input and saves both result files
// GET /recommendations
func (h *AnalysisHandler) DefaultRecommendations(c *gin.Context) {
	audio := h.cfg.DefaultAudioPath()
	if err := storage.ValidateInputFile(audio, h.cfg.SupportedFormats); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, storage.ErrFileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pipelineTimeout)
	defer cancel()
	c.Request = c.Request.WithContext(ctx)

	analysis, ok := h.analyze(c, audio)
	if !ok {
		return
	}

	paths := storage.NewPaths(h.cfg)
	analysisPath := paths.AnalysisPath(audio)
	if err := storage.SaveAnalysis(analysis.Summary, analysisPath); err != nil {
		logger.Error("Failed to save analysis", err, logger.WithContext(c))
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save analysis"})
		return
	}

	text, ok := h.recommend(c, analysis.Summary, analysis.SongName)
	if !ok {
		return
	}

	recommendationsPath := paths.RecommendationsPath(audio)
	if err := storage.SaveRecommendations(text, recommendationsPath, audio); err != nil {
		logger.Error("Failed to save recommendations", err, logger.WithContext(c))
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save recommendations"})
		return
	}

	c.JSON(http.StatusOK, models.PipelineResponse{
		Songs:               recommend.ParseTopSongs(text, recommend.DefaultTopSongs),
		RawText:             text,
		AnalysisPath:        analysisPath,
		RecommendationsPath: recommendationsPath,
	})
}

// analyze runs the analyzer and maps its failures onto responses
func (h *AnalysisHandler) analyze(c *gin.Context, path string) (*analyzer.Analysis, bool) {
	analysis, err := h.analyzer.Analyze(c.Request.Context(), path)
	if err != nil {
		fields := logger.WithContext(c)
		if isMalformedInput(err) {
			fields["error"] = err.Error()
			logger.Warn("Malformed note input", fields)
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Analysis error: %v", err)})
			return nil, false
		}
		if errors.Is(err, transcribe.ErrTranscriptionFailed) {
			logger.Error("Transcription failed", err, fields)
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to analyze audio file: %v", err)})
			return nil, false
		}
		logger.Error("Analysis failed", err, fields)
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error processing file: %v", err)})
		return nil, false
	}

	if analysis.Summary.IsSentinel() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Analysis error: " + analysis.Summary.Error})
		return nil, false
	}
	return analysis, true
}

// isMalformedInput reports whether err comes from note data the client sent
func isMalformedInput(err error) bool {
	var aggErr *features.AggregationError
	return errors.As(err, &aggErr) || errors.Is(err, notes.ErrMalformedEvent)
}

func (h *AnalysisHandler) recommend(c *gin.Context, summary *features.Summary, songName string) (string, bool) {
	text, err := h.recommender.Recommend(c.Request.Context(), summary, songName)
	if err != nil {
		logger.Error("Recommendation failed", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error generating recommendations: %v", err)})
		return "", false
	}
	return text, true
}

// validFeatures rejects sentinel and incomplete summaries
func validFeatures(c *gin.Context, summary *features.Summary) bool {
	if summary.IsSentinel() {
		msg := features.NoNotesDetected
		if summary != nil {
			msg = summary.Error
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Analysis error: " + msg})
		return false
	}
	if err := summary.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid features: %v", err)})
		return false
	}
	return true
}
