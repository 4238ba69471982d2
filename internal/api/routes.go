package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/bovara-ml/internal/api/handlers"
	"github.com/irfndi/bovara-ml/internal/middleware"
	"github.com/irfndi/bovara-ml/internal/services"
)

// Metrics is what the router needs from the metrics collector
type Metrics interface {
	middleware.APIRecorder
	Handler() http.Handler
}

// Dependencies bundles everything the HTTP surface serves
type Dependencies struct {
	Cluster     services.ClusterExecutor
	Forecast    services.ForecastExecutor
	Refresher   handlers.RanchRefresher
	Health      map[string]handlers.HealthChecker
	Metrics     Metrics
	AdminAPIKey string
	Timeout     time.Duration
	Version     string
	Logger      *logrus.Logger
}

// NewRouter builds a gin engine with the standard middleware stack
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.TelemetryMiddleware())
	router.Use(middleware.RequestTimeout(deps.Timeout))
	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics))
	}
	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	health := handlers.NewHealthHandler(deps.Version, deps.Health)
	router.GET("/health", health.HealthCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	predictions := handlers.NewPredictionHandler(deps.Cluster, deps.Forecast, deps.Refresher, deps.Logger)
	admin := middleware.NewAdminMiddleware(deps.AdminAPIKey)

	// API v1 routes
	v1 := router.Group("/api/v1", admin.RequireAdminAuth())
	{
		ranches := v1.Group("/ranches/:ranch_id")
		{
			ranches.POST("/animals/:animal_id/cluster", predictions.Cluster)
			ranches.POST("/animals/:animal_id/forecast", predictions.Forecast)
			ranches.POST("/refresh", predictions.Refresh)
		}
	}
}
