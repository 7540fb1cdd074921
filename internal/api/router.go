package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/api/handlers"
	"github.com/jafarshop/ledgersync/internal/api/middleware"
	"github.com/jafarshop/ledgersync/internal/config"
	"github.com/jafarshop/ledgersync/internal/repository"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, syncer handlers.SyncRunner, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "ledgersync",
			"endpoints": []string{
				"GET /health",
				"GET /metrics",
				"POST /internal/sync",
				"GET /internal/sync/stats",
				"GET /internal/sync/logs",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	internal := router.Group("/internal")
	internal.Use(middleware.AdminAuthMiddleware(cfg.API.AdminKeyHash, logger))
	{
		internal.POST("/sync", handlers.HandleTriggerSync(syncer, logger))
		internal.GET("/sync/stats", handlers.HandleGetStats(repos, logger))
		internal.GET("/sync/logs", handlers.HandleListLogs(repos, logger))
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		if path == "/metrics" || path == "/health" {
			logger.Debug("HTTP request", zap.String("path", path), zap.Int("status", status))
			return
		}
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
