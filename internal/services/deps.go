package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/irfndi/bovara-ml/internal/analytics"
	"github.com/irfndi/bovara-ml/internal/config"
	"github.com/irfndi/bovara-ml/internal/models"
	"github.com/irfndi/bovara-ml/pkg/interfaces"
)

// Repositories bundles the ports the prediction services read and write
type Repositories struct {
	Animals     interfaces.AnimalRepository
	Events      interfaces.EventRepository
	Ranches     interfaces.RanchConfigRepository
	Predictions interfaces.PredictionRepository
}

// Options sets the history windows and peer fan-out
type Options struct {
	WeightLookbackDays int
	ReproLookbackDays  int
	BirthLookbackDays  int
	PeerConcurrency    int
}

// DefaultOptions mirrors the worker config defaults
func DefaultOptions() Options {
	return Options{
		WeightLookbackDays: 90,
		ReproLookbackDays:  365,
		BirthLookbackDays:  1095,
		PeerConcurrency:    4,
	}
}

// OptionsFromConfig maps the worker section
func OptionsFromConfig(cfg config.WorkerConfig) Options {
	return Options{
		WeightLookbackDays: cfg.WeightLookbackDays,
		ReproLookbackDays:  cfg.ReproLookbackDays,
		BirthLookbackDays:  cfg.BirthLookbackDays,
		PeerConcurrency:    cfg.RefreshConcurrency,
	}
}

// PredictionRecorder receives every produced prediction
type PredictionRecorder interface {
	RecordClusterAssignment(a models.ClusterAssignment)
	RecordForecast(f models.ForecastResult)
}

// TaskRecorder receives the outcome of every processed task
type TaskRecorder interface {
	RecordTask(kind models.TaskKind, status string, duration time.Duration)
}

// ClusterExecutor runs the cluster use case for one animal
type ClusterExecutor interface {
	Execute(ctx context.Context, ranchID, animalID uuid.UUID) (*models.ClusterResult, error)
}

// ForecastExecutor runs the forecast use case for one animal
type ForecastExecutor interface {
	Execute(ctx context.Context, ranchID, animalID uuid.UUID) (*models.ForecastOutcome, error)
}

type noopRecorder struct{}

func (noopRecorder) RecordClusterAssignment(models.ClusterAssignment)  {}
func (noopRecorder) RecordForecast(models.ForecastResult)              {}
func (noopRecorder) RecordTask(models.TaskKind, string, time.Duration) {}

// loadPeerSeries fetches the weight history of every peer with at most
// concurrency queries in flight. The result keeps the order of peers.
func loadPeerSeries(ctx context.Context, events interfaces.EventRepository, peers []models.Animal, daysBack, concurrency int) ([]analytics.PeerSeries, error) {
	series := make([]analytics.PeerSeries, len(peers))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency < 1 {
		concurrency = 1
	}
	g.SetLimit(concurrency)

	for i := range peers {
		g.Go(func() error {
			weights, err := events.FindWeightEvents(gctx, peers[i].ID, daysBack)
			if err != nil {
				return fmt.Errorf("failed to load weights of peer %s: %w", peers[i].ID, err)
			}
			series[i] = analytics.PeerSeries{
				AnimalID: peers[i].ID,
				Snapshot: peers[i].Snapshot(),
				Weights:  weights,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return series, nil
}
