package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/vectorstore"
	"github.com/gin-gonic/gin"
)

const serviceName = "Vibify API"

type HealthHandler struct {
	cfg   config.Config
	store vectorstore.Store
}

func NewHealthHandler(cfg config.Config, store vectorstore.Store) *HealthHandler {
	return &HealthHandler{cfg: cfg, store: store}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"api_key_configured": h.cfg.RecommenderEnabled(),
		"vector_store":       vectorstore.Enabled(h.store),
	})
}

// Root describes the service
func Root(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": serviceName,
			"version": version,
		})
	}
}
