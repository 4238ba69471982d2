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
	"github.com/irfndi/bovara-ml/pkg/interfaces"
)

// ClusterService assigns a cluster label to one animal against its herd
type ClusterService struct {
	repos    Repositories
	engine   *analytics.Engine
	opts     Options
	recorder PredictionRecorder
	tracer   *telemetry.InvocationTracer
	logger   *logrus.Logger
	now      func() time.Time
}

// NewClusterService creates a new cluster service. A nil recorder disables metrics.
func NewClusterService(repos Repositories, engine *analytics.Engine, opts Options, recorder PredictionRecorder, logger *logrus.Logger) *ClusterService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ClusterService{
		repos:    repos,
		engine:   engine,
		opts:     opts,
		recorder: recorder,
		tracer:   telemetry.NewInvocationTracer(),
		logger:   logger,
		now:      time.Now,
	}
}

// Execute clusters the animal, stores the label and writes the audit record
func (s *ClusterService) Execute(ctx context.Context, ranchID, animalID uuid.UUID) (result *models.ClusterResult, err error) {
	ctx, span := s.tracer.TracePrediction(ctx, string(models.TaskCluster), ranchID.String(), animalID.String())
	var outcome telemetry.PredictionOutcome
	defer func() {
		s.tracer.RecordOutcome(span, outcome, err)
		span.Finish()
	}()

	animal, err := findAnimal(ctx, s.repos.Animals, ranchID, animalID)
	if err != nil {
		return nil, err
	}

	peers, err := s.repos.Animals.FindActivePeers(ctx, ranchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load herd of ranch %s: %w", ranchID, err)
	}
	series, err := loadPeerSeries(ctx, s.repos.Events, peers, s.opts.WeightLookbackDays, s.opts.PeerConcurrency)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	eval, err := s.evaluate(ctx, *animal, series, now)
	if err != nil {
		return nil, err
	}

	if err := s.storeLabel(ctx, animalID, eval.Assignment.Label); err != nil {
		return nil, err
	}
	record := clusterRecord(ranchID, animalID, eval.Assignment, now)
	if _, err := s.repos.Predictions.Save(ctx, &record); err != nil {
		return nil, fmt.Errorf("failed to save cluster prediction: %w", err)
	}

	s.report(ranchID, animalID, eval)
	outcome = clusterOutcome(eval)
	return &models.ClusterResult{
		AnimalID:   animalID,
		RanchID:    ranchID,
		Assignment: eval.Assignment,
		Timestamp:  now,
	}, nil
}

// evaluate reads the focal history and runs the engine. The focal weights are
// taken from the peer series when the animal is part of the active herd.
func (s *ClusterService) evaluate(ctx context.Context, animal models.Animal, peers []analytics.PeerSeries, now time.Time) (analytics.ClusterEvaluation, error) {
	weights, ok := seriesWeights(peers, animal.ID)
	if !ok {
		var err error
		weights, err = s.repos.Events.FindWeightEvents(ctx, animal.ID, s.opts.WeightLookbackDays)
		if err != nil {
			return analytics.ClusterEvaluation{}, fmt.Errorf("failed to load weights of animal %s: %w", animal.ID, err)
		}
	}
	births, err := s.repos.Events.FindBirthEvents(ctx, animal.ID, s.opts.BirthLookbackDays)
	if err != nil {
		return analytics.ClusterEvaluation{}, fmt.Errorf("failed to load births of animal %s: %w", animal.ID, err)
	}
	breedings, err := s.repos.Events.FindBreedingEvents(ctx, animal.ID, s.opts.ReproLookbackDays)
	if err != nil {
		return analytics.ClusterEvaluation{}, fmt.Errorf("failed to load breedings of animal %s: %w", animal.ID, err)
	}

	return s.engine.AssignCluster(analytics.ClusterInput{
		Snapshot:  animal.Snapshot(),
		Weights:   weights,
		Births:    births,
		Breedings: breedings,
		Peers:     peers,
		Today:     now,
	}), nil
}

func (s *ClusterService) storeLabel(ctx context.Context, animalID uuid.UUID, label models.ClusterLabel) error {
	updated, err := s.repos.Animals.UpdateClusterLabel(ctx, animalID, label)
	if err != nil {
		return fmt.Errorf("failed to update cluster label: %w", err)
	}
	if !updated {
		s.logger.WithField("animal_id", animalID).Warn("Cluster label update touched no rows")
	}
	return nil
}

func (s *ClusterService) report(ranchID, animalID uuid.UUID, eval analytics.ClusterEvaluation) {
	s.recorder.RecordClusterAssignment(eval.Assignment)

	fields := logrus.Fields{
		"ranch_id":    ranchID,
		"animal_id":   animalID,
		"label":       eval.Assignment.Label,
		"confidence":  eval.Assignment.Confidence,
		"severity":    eval.Assignment.Severity,
		"cohort_size": eval.CohortSize,
	}
	if eval.Silhouette != nil {
		fields["silhouette"] = *eval.Silhouette
	}

	entry := s.logger.WithFields(fields)
	switch {
	case eval.FitError != nil:
		entry.WithError(eval.FitError).Warn("Cluster fit failed, animal left pending")
	case eval.Assignment.Reason != models.ReasonNone:
		entry.WithField("reason", eval.Assignment.Reason).Warn("Cluster assignment degraded")
	default:
		entry.Info("Cluster assignment completed")
	}
}

func clusterRecord(ranchID, animalID uuid.UUID, a models.ClusterAssignment, now time.Time) models.PredictionRecord {
	return models.NewPredictionRecord(ranchID, animalID, models.PredictionClusterAssignment, a.Confidence, a.Explanation, a.Severity, now)
}

func clusterOutcome(eval analytics.ClusterEvaluation) telemetry.PredictionOutcome {
	return telemetry.PredictionOutcome{
		Label:      string(eval.Assignment.Label),
		Severity:   string(eval.Assignment.Severity),
		Confidence: eval.Assignment.Confidence,
		Reason:     string(eval.Assignment.Reason),
		CohortSize: eval.CohortSize,
		Silhouette: eval.Silhouette,
	}
}

func seriesWeights(peers []analytics.PeerSeries, id uuid.UUID) ([]models.WeightObservation, bool) {
	for _, p := range peers {
		if p.AnimalID == id {
			return p.Weights, true
		}
	}
	return nil, false
}

// findAnimal loads an animal and hides animals that belong to another ranch
func findAnimal(ctx context.Context, animals interfaces.AnimalRepository, ranchID, animalID uuid.UUID) (*models.Animal, error) {
	animal, err := animals.FindByID(ctx, animalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load animal %s: %w", animalID, err)
	}
	if animal == nil || animal.RanchID != ranchID {
		return nil, utils.NewNotFoundError("animal", animalID)
	}
	return animal, nil
}
