package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/bovara-ml/internal/analytics"
	"github.com/irfndi/bovara-ml/internal/models"
	"github.com/irfndi/bovara-ml/internal/telemetry"
	"github.com/irfndi/bovara-ml/internal/utils"
)

const (
	sectionReproSettings   = "reproductive settings"
	sectionProductionGoals = "production goals"
)

// ForecastService projects sale, calving, dry-off and heat dates for one animal
type ForecastService struct {
	repos    Repositories
	engine   *analytics.Engine
	opts     Options
	recorder PredictionRecorder
	tracer   *telemetry.InvocationTracer
	logger   *logrus.Logger
	now      func() time.Time
}

// NewForecastService creates a new forecast service. A nil recorder disables metrics.
func NewForecastService(repos Repositories, engine *analytics.Engine, opts Options, recorder PredictionRecorder, logger *logrus.Logger) *ForecastService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ForecastService{
		repos:    repos,
		engine:   engine,
		opts:     opts,
		recorder: recorder,
		tracer:   telemetry.NewInvocationTracer(),
		logger:   logger,
		now:      time.Now,
	}
}

// Execute runs the forecast, writes the forecast columns and the audit record
func (s *ForecastService) Execute(ctx context.Context, ranchID, animalID uuid.UUID) (outcome *models.ForecastOutcome, err error) {
	ctx, span := s.tracer.TracePrediction(ctx, string(models.TaskForecast), ranchID.String(), animalID.String())
	var summary telemetry.PredictionOutcome
	defer func() {
		s.tracer.RecordOutcome(span, summary, err)
		span.Finish()
	}()

	animal, err := findAnimal(ctx, s.repos.Animals, ranchID, animalID)
	if err != nil {
		return nil, err
	}
	ranch, err := s.ranchConfig(ctx, ranchID)
	if err != nil {
		return nil, err
	}

	weights, err := s.repos.Events.FindWeightEvents(ctx, animalID, s.opts.WeightLookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load weights of animal %s: %w", animalID, err)
	}
	breedings, err := s.repos.Events.FindBreedingEvents(ctx, animalID, s.opts.ReproLookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load breedings of animal %s: %w", animalID, err)
	}

	now := s.now().UTC()
	result := s.engine.Forecast(analytics.ForecastInput{
		Snapshot:  animal.Snapshot(),
		Weights:   weights,
		Breedings: breedings,
		Ranch:     ranch,
		Today:     now,
	})

	updated, err := s.repos.Animals.UpdateForecastFields(ctx, animalID, result.Fields())
	if err != nil {
		return nil, fmt.Errorf("failed to update forecast fields: %w", err)
	}
	if !updated {
		s.logger.WithField("animal_id", animalID).Warn("Forecast update touched no rows")
	}

	record := models.NewPredictionRecord(ranchID, animalID, models.PredictionForecastUpdate, result.Confidence, result.Explanation, result.Severity, now)
	if _, err := s.repos.Predictions.Save(ctx, &record); err != nil {
		return nil, fmt.Errorf("failed to save forecast prediction: %w", err)
	}

	s.report(ranchID, animalID, result)
	summary = telemetry.PredictionOutcome{
		Severity:   string(result.Severity),
		Confidence: result.Confidence,
	}
	if len(result.Degraded) > 0 {
		summary.Reason = string(result.Degraded[0])
	}
	return &models.ForecastOutcome{
		AnimalID:  animalID,
		RanchID:   ranchID,
		Forecast:  result,
		Timestamp: now,
	}, nil
}

// ranchConfig requires both configuration sections
func (s *ForecastService) ranchConfig(ctx context.Context, ranchID uuid.UUID) (models.RanchConfig, error) {
	repro, err := s.repos.Ranches.GetReproSettings(ctx, ranchID)
	if err != nil {
		return models.RanchConfig{}, fmt.Errorf("failed to load reproductive settings: %w", err)
	}
	if repro == nil {
		return models.RanchConfig{}, utils.NewConfigMissingError(ranchID, sectionReproSettings)
	}
	goals, err := s.repos.Ranches.GetProductionGoals(ctx, ranchID)
	if err != nil {
		return models.RanchConfig{}, fmt.Errorf("failed to load production goals: %w", err)
	}
	if goals == nil {
		return models.RanchConfig{}, utils.NewConfigMissingError(ranchID, sectionProductionGoals)
	}
	return models.NewRanchConfig(*repro, *goals), nil
}

func (s *ForecastService) report(ranchID, animalID uuid.UUID, result models.ForecastResult) {
	s.recorder.RecordForecast(result)

	entry := s.logger.WithFields(logrus.Fields{
		"ranch_id":   ranchID,
		"animal_id":  animalID,
		"confidence": result.Confidence,
		"severity":   result.Severity,
	})
	if len(result.Degraded) > 0 {
		entry.WithField("degraded", result.Degraded).Warn("Forecast completed with missing signals")
		return
	}
	entry.Info("Forecast completed")
}
