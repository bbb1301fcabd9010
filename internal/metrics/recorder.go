package metrics

import (
	"context"
	"time"
)

// Recorder receives pipeline and recommendation measurements
type Recorder interface {
	RecordAnalysis(ctx context.Context, duration time.Duration, noteCount int, success bool)
	RecordRecommendation(ctx context.Context, model string, duration time.Duration, success bool)
	RecordTokenUsage(ctx context.Context, model string, totalTokens, inputTokens, outputTokens, reasoningTokens int)
}

type nopRecorder struct{}

func (nopRecorder) RecordAnalysis(context.Context, time.Duration, int, bool)          {}
func (nopRecorder) RecordRecommendation(context.Context, string, time.Duration, bool) {}
func (nopRecorder) RecordTokenUsage(context.Context, string, int, int, int, int)      {}

// Nop returns a recorder that discards everything
func Nop() Recorder {
	return nopRecorder{}
}

type multiRecorder []Recorder

// Multi fans measurements out to every non-nil recorder
func Multi(recorders ...Recorder) Recorder {
	var m multiRecorder
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	if len(m) == 0 {
		return Nop()
	}
	return m
}

func (m multiRecorder) RecordAnalysis(ctx context.Context, duration time.Duration, noteCount int, success bool) {
	for _, r := range m {
		r.RecordAnalysis(ctx, duration, noteCount, success)
	}
}

func (m multiRecorder) RecordRecommendation(ctx context.Context, model string, duration time.Duration, success bool) {
	for _, r := range m {
		r.RecordRecommendation(ctx, model, duration, success)
	}
}

func (m multiRecorder) RecordTokenUsage(ctx context.Context, model string, totalTokens, inputTokens, outputTokens, reasoningTokens int) {
	for _, r := range m {
		r.RecordTokenUsage(ctx, model, totalTokens, inputTokens, outputTokens, reasoningTokens)
	}
}
