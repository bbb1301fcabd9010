package metrics

import (
	"context"
	"sync"
	"time"
)

// Counters keeps in-process totals of the pipeline measurements for the
// metrics endpoint
type Counters struct {
	mu                    sync.Mutex
	analyses              int
	failedAnalyses        int
	notesDetected         int
	analysisTime          time.Duration
	recommendations       int
	failedRecommendations int
	recommendationTime    time.Duration
	tokensByModel         map[string]int
}

// CountersSnapshot is a point-in-time copy of Counters
type CountersSnapshot struct {
	Analyses              int            `json:"analyses"`
	FailedAnalyses        int            `json:"failed_analyses"`
	NotesDetected         int            `json:"notes_detected"`
	AvgAnalysisMs         float64        `json:"avg_analysis_ms"`
	Recommendations       int            `json:"recommendations"`
	FailedRecommendations int            `json:"failed_recommendations"`
	AvgRecommendationMs   float64        `json:"avg_recommendation_ms"`
	TokensByModel         map[string]int `json:"tokens_by_model"`
}

func NewCounters() *Counters {
	return &Counters{tokensByModel: make(map[string]int)}
}

func (c *Counters) RecordAnalysis(_ context.Context, duration time.Duration, noteCount int, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyses++
	if !success {
		c.failedAnalyses++
	}
	c.notesDetected += noteCount
	c.analysisTime += duration
}

func (c *Counters) RecordRecommendation(_ context.Context, _ string, duration time.Duration, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recommendations++
	if !success {
		c.failedRecommendations++
	}
	c.recommendationTime += duration
}

func (c *Counters) RecordTokenUsage(_ context.Context, model string, totalTokens, _, _, _ int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokensByModel[model] += totalTokens
}

// Snapshot copies the current totals. A nil receiver yields zero totals.
func (c *Counters) Snapshot() CountersSnapshot {
	if c == nil {
		return CountersSnapshot{TokensByModel: map[string]int{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := CountersSnapshot{
		Analyses:              c.analyses,
		FailedAnalyses:        c.failedAnalyses,
		NotesDetected:         c.notesDetected,
		AvgAnalysisMs:         averageMs(c.analysisTime, c.analyses),
		Recommendations:       c.recommendations,
		FailedRecommendations: c.failedRecommendations,
		AvgRecommendationMs:   averageMs(c.recommendationTime, c.recommendations),
		TokensByModel:         make(map[string]int, len(c.tokensByModel)),
	}
	for model, tokens := range c.tokensByModel {
		snap.TokensByModel[model] = tokens
	}
	return snap
}

func averageMs(total time.Duration, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(total.Milliseconds()) / float64(n)
}
