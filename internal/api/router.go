package api

import (
	"github.com/Conceptual-Machines/vibify-api/internal/analyzer"
	"github.com/Conceptual-Machines/vibify-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/vibify-api/internal/api/middleware"
	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/metrics"
	"github.com/Conceptual-Machines/vibify-api/internal/recommend"
	"github.com/Conceptual-Machines/vibify-api/internal/vectorstore"
	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators served over HTTP
type Dependencies struct {
	Analyzer    *analyzer.Analyzer
	Recommender recommend.Recommender
	Store       vectorstore.Store
	CloudWatch  *metrics.Client // optional
	Counters    *metrics.Counters
}

func SetupRouter(deps Dependencies, cfg config.Config, version string) *gin.Engine {
	if deps.Analyzer == nil {
		deps.Analyzer = analyzer.NewDefault(cfg)
	}
	if deps.Recommender == nil {
		deps.Recommender = recommend.Disabled()
	}
	if deps.Store == nil {
		deps.Store = vectorstore.Disabled()
	}
	if deps.Counters == nil {
		deps.Counters = metrics.NewCounters()
	}

	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.CloudWatch))

	router.Use(apimiddleware.CORS(cfg.CORSOrigins))

	router.GET("/", handlers.Root(version))

	healthHandler := handlers.NewHealthHandler(cfg, deps.Store)
	router.GET("/health", healthHandler.HealthCheck)

	metricsHandler := handlers.NewMetricsHandler(version, cfg, deps.Store, deps.Counters)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	analysisHandler := handlers.NewAnalysisHandler(deps.Analyzer, deps.Recommender, cfg)
	router.GET("/recommendations", analysisHandler.DefaultRecommendations)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyze", analysisHandler.Analyze)
		v1.POST("/recommend", analysisHandler.Recommend)
		v1.POST("/recommend-from-features", analysisHandler.RecommendFromFeatures)

		songsHandler := handlers.NewSongsHandler(deps.Store)
		songs := v1.Group("/songs")
		{
			songs.POST("", songsHandler.Create)
			songs.GET("", songsHandler.List)
			songs.POST("/similar", songsHandler.Similar)
			songs.GET("/by-tempo", songsHandler.ByTempo)
			songs.GET("/:name", songsHandler.Get)
			songs.DELETE("/:name", songsHandler.Delete)
		}
	}

	return router
}
