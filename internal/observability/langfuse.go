package observability

import (
	"context"
	"log"
	"sync"
	"time"

	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"

	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/llm"
)

// LangfuseClient wraps the Langfuse client with our configuration
type LangfuseClient struct {
	client  *langfuse.Langfuse
	enabled bool
	ctx     context.Context
}

var (
	globalMu     sync.RWMutex
	globalClient *LangfuseClient
)

// InitializeLangfuse initializes the global Langfuse client. The SDK reads
// LANGFUSE_PUBLIC_KEY, LANGFUSE_SECRET_KEY and LANGFUSE_HOST from the environment.
func InitializeLangfuse(ctx context.Context, cfg config.Config) *LangfuseClient {
	client := &LangfuseClient{enabled: false, ctx: ctx}

	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" {
		log.Println("⚠️  Langfuse not configured (LANGFUSE_ENABLED=false or LANGFUSE_SECRET_KEY not set)")
	} else {
		client = &LangfuseClient{
			client:  langfuse.New(ctx),
			enabled: true,
			ctx:     ctx,
		}
		log.Printf("✅ Langfuse initialized (host: %s)", cfg.LangfuseHost)
	}

	globalMu.Lock()
	globalClient = client
	globalMu.Unlock()
	return client
}

// GetClient returns the global Langfuse client, or a disabled one
func GetClient() *LangfuseClient {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalClient == nil {
		return &LangfuseClient{enabled: false, ctx: context.Background()}
	}
	return globalClient
}

// IsEnabled returns whether Langfuse is enabled
func (c *LangfuseClient) IsEnabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// StartTrace starts a new trace in Langfuse
func (c *LangfuseClient) StartTrace(ctx context.Context, name string, metadata map[string]interface{}) *Trace {
	if !c.IsEnabled() {
		return &Trace{enabled: false, ctx: ctx}
	}

	trace, err := c.client.Trace(&model.Trace{
		Name:     name,
		Metadata: metadata,
	})
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse trace: %v", err)
		return &Trace{enabled: false, ctx: ctx}
	}

	return &Trace{
		trace:   trace,
		enabled: true,
		ctx:     ctx,
		client:  c.client,
	}
}

// Trace represents a Langfuse trace
type Trace struct {
	trace   *model.Trace
	enabled bool
	ctx     context.Context
	client  *langfuse.Langfuse
}

// Enabled reports whether the trace is recorded
func (t *Trace) Enabled() bool {
	return t.enabled
}

// Generation creates a new generation span within the trace
func (t *Trace) Generation(name string, metadata map[string]interface{}) *Generation {
	if !t.enabled {
		return &Generation{enabled: false}
	}

	now := time.Now()
	gen, err := t.client.Generation(&model.Generation{
		TraceID:   t.trace.ID,
		Name:      name,
		StartTime: &now,
		Metadata:  metadata,
	}, nil)
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse generation: %v", err)
		return &Generation{enabled: false}
	}

	return &Generation{
		generation: gen,
		enabled:    true,
		client:     t.client,
	}
}

// Finish flushes all batched events for the trace
func (t *Trace) Finish() {
	if t.enabled && t.client != nil {
		t.client.Flush(t.ctx)
	}
}

// Generation represents a Langfuse generation span
type Generation struct {
	generation *model.Generation
	enabled    bool
	client     *langfuse.Langfuse
}

// Metadata merges metadata into the generation
func (g *Generation) Metadata(metadata map[string]interface{}) {
	if !g.enabled || g.generation == nil {
		return
	}
	md, ok := g.generation.Metadata.(map[string]interface{})
	if !ok || md == nil {
		md = make(map[string]interface{}, len(metadata))
	}
	for k, v := range metadata {
		md[k] = v
	}
	g.generation.Metadata = md
}

// SetLevel sets the level of the generation
func (g *Generation) SetLevel(level model.ObservationLevel) {
	if g.enabled && g.generation != nil {
		g.generation.Level = level
	}
}

// LogResponse records prompt, output, usage and cost of a completed LLM call
func (g *Generation) LogResponse(request *llm.GenerationRequest, resp *llm.GenerationResponse) {
	if !g.enabled || g.generation == nil || resp == nil {
		return
	}

	cost := CalculateCost(resp.Model, resp.Usage)
	g.generation.Model = resp.Model
	g.generation.Input = request.InputArray
	g.generation.Output = resp.Text
	g.generation.Usage = model.Usage{
		Input:     resp.Usage.InputTokens,
		Output:    resp.Usage.OutputTokens,
		Total:     resp.Usage.TotalTokens,
		Unit:      model.ModelUsageUnitTokens,
		TotalCost: cost,
	}
	g.Metadata(map[string]interface{}{
		"provider": resp.Provider,
		"cost_usd": cost,
	})
}

// LogError marks the generation as failed
func (g *Generation) LogError(err error) {
	if !g.enabled || g.generation == nil || err == nil {
		return
	}
	g.SetLevel(model.ObservationLevelError)
	g.generation.StatusMessage = err.Error()
}

// Finish completes the generation and queues it for sending
func (g *Generation) Finish() {
	if g.enabled && g.generation != nil && g.client != nil {
		now := time.Now()
		g.generation.EndTime = &now
		if _, err := g.client.GenerationEnd(g.generation); err != nil {
			log.Printf("⚠️  Failed to end Langfuse generation: %v", err)
		}
	}
}
