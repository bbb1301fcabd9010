package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/metrics"
	"github.com/Conceptual-Machines/vibify-api/internal/vectorstore"
	"github.com/gin-gonic/gin"
)

const bytesToMB = 1024 * 1024

// MetricsHandler reports process health, service capabilities and the
// running pipeline totals
type MetricsHandler struct {
	startTime time.Time
	version   string
	cfg       config.Config
	store     vectorstore.Store
	counters  *metrics.Counters
}

func NewMetricsHandler(version string, cfg config.Config, store vectorstore.Store, counters *metrics.Counters) *MetricsHandler {
	return &MetricsHandler{
		startTime: time.Now(),
		version:   version,
		cfg:       cfg,
		store:     store,
		counters:  counters,
	}
}

type MetricsResponse struct {
	Status       string                   `json:"status"`
	Uptime       string                   `json:"uptime"`
	UptimeSecs   float64                  `json:"uptime_seconds"`
	Timestamp    string                   `json:"timestamp"`
	Version      string                   `json:"version"`
	StartTime    string                   `json:"start_time"`
	Runtime      RuntimeMetrics           `json:"runtime"`
	Capabilities Capabilities             `json:"capabilities"`
	Pipeline     metrics.CountersSnapshot `json:"pipeline"`
}

type RuntimeMetrics struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	HeapAllocMB  uint64 `json:"heap_alloc_mb"`
	NumGC        uint32 `json:"num_gc"`
}

// Capabilities lists what this instance can do with its configuration
type Capabilities struct {
	Recommendations     bool     `json:"recommendations"`
	RecommendationModel string   `json:"recommendation_model"`
	VectorStore         bool     `json:"vector_store"`
	EmbeddingModel      string   `json:"embedding_model"`
	AudioFormats        []string `json:"audio_formats"`
	AudioTranscription  bool     `json:"audio_transcription"`
}

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	uptime := time.Since(h.startTime).Round(time.Millisecond)

	c.JSON(http.StatusOK, MetricsResponse{
		Status:     "healthy",
		Uptime:     uptime.String(),
		UptimeSecs: uptime.Seconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Version:    h.version,
		StartTime:  h.startTime.UTC().Format(time.RFC3339),
		Runtime: RuntimeMetrics{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			HeapAllocMB:  mem.HeapAlloc / bytesToMB,
			NumGC:        mem.NumGC,
		},
		Capabilities: Capabilities{
			Recommendations:     h.cfg.RecommenderEnabled(),
			RecommendationModel: h.cfg.RecommendationModel,
			VectorStore:         vectorstore.Enabled(h.store),
			EmbeddingModel:      h.cfg.EmbeddingModel,
			AudioFormats:        h.cfg.SupportedFormats,
			AudioTranscription:  h.cfg.TranscribeCommand != "",
		},
		Pipeline: h.counters.Snapshot(),
	})
}
