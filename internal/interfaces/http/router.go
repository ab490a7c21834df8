// Package http wires the gin route tree and the HTTP server for the
// substance matching API.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/logging"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/prometheus"
	"github.com/medcodelab/substance-mapper/internal/interfaces/http/handlers"
	"github.com/medcodelab/substance-mapper/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies for the
// complete route tree.
type RouterConfig struct {
	MatchHandler      *handlers.MatchHandler
	VocabularyHandler *handlers.VocabularyHandler
	HealthHandler     *handlers.HealthHandler

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the gin engine: global middleware, public probes, the
// metrics endpoint, and the versioned API group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	{
		if cfg.MatchHandler != nil {
			api.POST("/match", cfg.MatchHandler.Match)
			api.POST("/match/jobs", cfg.MatchHandler.SubmitJob)
		}
		if cfg.VocabularyHandler != nil {
			api.GET("/vocabulary", cfg.VocabularyHandler.Get)
			api.POST("/vocabulary/refresh", cfg.VocabularyHandler.Refresh)
		}
	}

	return r
}
