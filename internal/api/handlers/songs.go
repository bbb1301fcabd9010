package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/vibify-api/internal/analyzer"
	"github.com/Conceptual-Machines/vibify-api/internal/describe"
	"github.com/Conceptual-Machines/vibify-api/internal/logger"
	"github.com/Conceptual-Machines/vibify-api/internal/models"
	"github.com/Conceptual-Machines/vibify-api/internal/vectorstore"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

const similarQueryLabel = "query song"

type SongsHandler struct {
	store vectorstore.Store
}

func NewSongsHandler(store vectorstore.Store) *SongsHandler {
	return &SongsHandler{store: store}
}

// Create stores a summary and its description in the vector store
// POST /api/v1/songs
func (h *SongsHandler) Create(c *gin.Context) {
	if !h.available(c) {
		return
	}

	var req models.FeaturesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	songName := strings.TrimSpace(req.SongName)
	if songName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "song_name is required"})
		return
	}
	if err := req.Features.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid features: %v", err)})
		return
	}

	analysis := &analyzer.Analysis{
		SongName: songName,
		FilePath: req.FilePath,
		Summary:  req.Features,
		Text:     describe.Text(req.Features, songName),
	}
	id, err := h.store.Save(c.Request.Context(), analysis)
	if err != nil {
		h.storeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          id,
		"song_name":   songName,
		"description": analysis.Text,
		"status":      statusSuccess,
	})
}

// List returns the most recently stored songs
// GET /api/v1/songs?limit=50
func (h *SongsHandler) List(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	songs, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"songs": songs, "count": len(songs)})
}

// Get returns the newest song stored under a name
// GET /api/v1/songs/:name
func (h *SongsHandler) Get(c *gin.Context) {
	song, err := h.store.GetBySongName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, song)
}

// Delete removes every song stored under a name
// DELETE /api/v1/songs/:name
func (h *SongsHandler) Delete(c *gin.Context) {
	name := c.Param("name")
	if err := h.store.Delete(c.Request.Context(), name); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": name, "status": statusSuccess})
}

// Similar finds the stored songs closest to a summary
// POST /api/v1/songs/similar
func (h *SongsHandler) Similar(c *gin.Context) {
	if !h.available(c) {
		return
	}

	var req models.FeaturesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validFeatures(c, req.Features) {
		return
	}
	if req.Limit < 0 || req.Limit > maxSongLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", maxSongLimit)})
		return
	}
	label := req.SongName
	if label == "" {
		label = similarQueryLabel
	}

	matches, err := h.store.FindSimilar(c.Request.Context(), describe.Text(req.Features, label), req.Limit)
	if err != nil {
		h.storeError(c, err)
		return
	}

	results := make([]models.SimilarSong, 0, len(matches))
	for _, m := range matches {
		results = append(results, models.SimilarSong{
			Song:       m.Song,
			Distance:   m.Distance,
			Similarity: m.Similarity(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// ByTempo finds songs whose tempo estimate lies in [min, max]
// GET /api/v1/songs/by-tempo?min=&max=&limit=
func (h *SongsHandler) ByTempo(c *gin.Context) {
	minTempo, err := strconv.ParseFloat(c.Query("min"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min must be a number"})
		return
	}
	maxTempo, err := strconv.ParseFloat(c.Query("max"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max must be a number"})
		return
	}
	if minTempo > maxTempo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min must not exceed max"})
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	songs, err := h.store.FindByTempo(c.Request.Context(), minTempo, maxTempo, limit)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"songs": songs, "count": len(songs)})
}

func (h *SongsHandler) available(c *gin.Context) bool {
	if !vectorstore.Enabled(h.store) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": vectorstore.ErrStoreDisabled.Error()})
		return false
	}
	return true
}

func (h *SongsHandler) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, vectorstore.ErrStoreDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, vectorstore.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.Error("Vector store operation failed", err, logger.WithContext(c))
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Vector store error"})
	}
}

func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultSongLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxSongLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", maxSongLimit)})
		return 0, false
	}
	return limit, true
}
