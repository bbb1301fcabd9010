package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/vibify-api/internal/analyzer"
	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/logger"
	"github.com/Conceptual-Machines/vibify-api/internal/metrics"
	"github.com/Conceptual-Machines/vibify-api/internal/observability"
	"github.com/Conceptual-Machines/vibify-api/internal/recommend"
	"github.com/Conceptual-Machines/vibify-api/internal/vectorstore"
	"github.com/gin-gonic/gin"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server is the HTTP server with its collaborators
type Server struct {
	cfg    config.Config
	store  vectorstore.Store
	router *gin.Engine
}

// NewServer wires metrics, tracing, the vector store, the analyzer and the
// recommender for cfg. A store that cannot be opened is logged and replaced
// by the disabled one.
func NewServer(ctx context.Context, cfg config.Config, version string) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	cw, err := metrics.NewClient(ctx, cfg.Environment, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	counters := metrics.NewCounters()
	recorder := metrics.Multi(metrics.NewSentryMetrics(), cw, counters)
	tracer := observability.InitializeLangfuse(ctx, cfg)

	store, err := vectorstore.FromConfig(cfg)
	if err != nil {
		logger.Error("Vector store unavailable", err, logger.Fields{"dsn_postgres": vectorstore.IsPostgresDSN(cfg.StoreDSN)})
		store = vectorstore.Disabled()
	}

	deps := Dependencies{
		Analyzer:    analyzer.NewDefault(cfg, analyzer.WithMetrics(recorder)),
		Recommender: recommend.FromConfig(ctx, cfg, recommend.WithMetrics(recorder), recommend.WithTracer(tracer)),
		Store:       store,
		CloudWatch:  cw,
		Counters:    counters,
	}

	return &Server{
		cfg:    cfg,
		store:  store,
		router: SetupRouter(deps, cfg, version),
	}, nil
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on cfg.Port until ctx is cancelled, then shuts down gracefully
// and closes the store
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			logger.Warn("Failed to close vector store", logger.Fields{"error": err.Error()})
		}
	}()

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Starting server on port %s", s.cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
