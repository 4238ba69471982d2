package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/bovara-ml/internal/analytics"
	"github.com/irfndi/bovara-ml/internal/config"
	"github.com/irfndi/bovara-ml/internal/database"
	"github.com/irfndi/bovara-ml/internal/logging"
	"github.com/irfndi/bovara-ml/internal/metrics"
	"github.com/irfndi/bovara-ml/internal/services"
	"github.com/irfndi/bovara-ml/internal/telemetry"
)

const serviceName = "bovara-ml"

// app holds the dependencies every command shares
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	metrics   *metrics.MetricsCollector
	db        *database.PostgresDB
	pool      database.DatabasePool
	cluster   *services.ClusterService
	forecast  *services.ForecastService
	refresher *services.RanchRefresher
}

// newApp loads configuration, connects to Postgres and builds the use cases
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	if err := telemetry.Init(telemetry.OptionsFromConfig(cfg.Telemetry, cfg.Environment)); err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	engine, err := analytics.NewEngine(cfg.Analytics.EngineConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to build prediction engine: %w", err)
	}

	db, err := database.NewPostgresConnection(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	collector := metrics.NewMetricsCollector(serviceName)
	pool := database.NewTracedDB(db.Pool, collector, logger)
	repos := services.Repositories{
		Animals:     database.NewAnimalRepository(pool),
		Events:      database.NewEventRepository(pool),
		Ranches:     database.NewRanchConfigRepository(pool),
		Predictions: database.NewPredictionRepository(pool),
	}
	opts := services.OptionsFromConfig(cfg.Worker)
	cluster := services.NewClusterService(repos, engine, opts, collector, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   collector,
		db:        db,
		pool:      pool,
		cluster:   cluster,
		forecast:  services.NewForecastService(repos, engine, opts, collector, logger),
		refresher: services.NewRanchRefresher(cluster, logger),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
	telemetry.Flush(2 * time.Second)
}
