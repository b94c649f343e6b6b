package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/internal/interfaces/http/handlers"
	"github.com/turtacn/aopwiki-graph/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers of the worker's HTTP surface. Nil
// handlers leave their routes unmounted.
type RouterConfig struct {
	HealthHandler  *handlers.HealthHandler
	RunHandler     *handlers.RunHandler
	MetricsHandler http.Handler
	Logger         logging.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}
	if cfg.RunHandler != nil {
		runs := r.Group("/runs")
		runs.GET("", cfg.RunHandler.List)
		runs.GET("/:id", cfg.RunHandler.Get)
	}
	return r
}
