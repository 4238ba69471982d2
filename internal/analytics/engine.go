package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/irfndi/bovara-ml/internal/models"
)

// BreedingWindowDays is the trailing window breeding attempts are counted over
const BreedingWindowDays = 365

// Config tunes the engine. The zero value is not usable, start from DefaultConfig.
type Config struct {
	KMeans        KMeansConfig
	LabelStrategy string
	TrendDegree   int
	HorizonDays   int
}

// DefaultConfig returns the production engine settings
func DefaultConfig() Config {
	return Config{
		KMeans:        DefaultKMeansConfig(),
		LabelStrategy: OwnGainStrategy{}.Name(),
		TrendDegree:   1,
		HorizonDays:   DefaultSearchHorizon,
	}
}

// Engine runs one stateless prediction per call and is safe for concurrent use
type Engine struct {
	clusterer  *HerdClusterer
	forecaster WeightForecaster
}

// NewEngine validates cfg and builds an engine
func NewEngine(cfg Config) (*Engine, error) {
	strategy, err := StrategyByName(cfg.LabelStrategy)
	if err != nil {
		return nil, err
	}
	if cfg.KMeans.K < 1 {
		return nil, fmt.Errorf("k-means k must be at least 1, got %d", cfg.KMeans.K)
	}
	if cfg.TrendDegree != 1 && cfg.TrendDegree != 2 {
		return nil, fmt.Errorf("trend degree must be 1 or 2, got %d", cfg.TrendDegree)
	}
	if cfg.HorizonDays <= 0 {
		return nil, fmt.Errorf("search horizon must be positive, got %d", cfg.HorizonDays)
	}

	forecaster := NewWeightForecaster(cfg.TrendDegree)
	forecaster.HorizonDays = cfg.HorizonDays
	return &Engine{
		clusterer:  NewHerdClusterer(cfg.KMeans, strategy),
		forecaster: forecaster,
	}, nil
}

// PeerSeries is one herd peer's weight history
type PeerSeries struct {
	AnimalID uuid.UUID
	Snapshot models.AnimalSnapshot
	Weights  []models.WeightObservation
}

// ClusterInput is everything one cluster invocation reads
type ClusterInput struct {
	Snapshot  models.AnimalSnapshot
	Weights   []models.WeightObservation
	Births    []models.ReproductiveEvent
	Breedings []models.ReproductiveEvent
	Peers     []PeerSeries
	Today     time.Time
}

// ClusterEvaluation carries the final assignment plus diagnostics for logging and metrics
type ClusterEvaluation struct {
	Assignment   models.ClusterAssignment
	Repro        LabelDecision
	CohortSize   int
	Silhouette   *float64
	FitError     error
	Productivity *LabelDecision
}

// AssignCluster runs the productivity path and the reproductive override
func (e *Engine) AssignCluster(in ClusterInput) ClusterEvaluation {
	today := models.DateOnly(in.Today)
	repro := EvaluateReproductiveStatus(ReproInputs{
		DaysOpen:         in.Snapshot.DaysOpen(today),
		CalvingInterval:  models.CalvingInterval(in.Births),
		BreedingAttempts: CountWithin(in.Breedings, today, BreedingWindowDays),
	})
	eval := ClusterEvaluation{Repro: repro}

	focal, ok := Featurize(in.Weights, in.Snapshot.AgeDays(today))
	if !ok {
		eval.Assignment = ResolveAssignment(PendingAssignment(InsufficientWeightsConfidence, InsufficientWeightsMessage, models.ReasonInsufficientWeights), repro)
		return eval
	}

	cohort := make([]Features, 0, len(in.Peers))
	for _, p := range in.Peers {
		if f, ok := Featurize(p.Weights, p.Snapshot.AgeDays(today)); ok {
			cohort = append(cohort, f)
		}
	}
	eval.CohortSize = len(cohort)

	outcome, err := e.clusterer.Assign(cohort, focal)
	switch {
	case errors.Is(err, ErrInsufficientHerd):
		eval.Assignment = ResolveAssignment(PendingAssignment(FitFailureConfidence, InsufficientHerdMessage, models.ReasonInsufficientHerd), repro)
		return eval
	case err != nil:
		eval.FitError = err
		eval.Assignment = ResolveAssignment(PendingAssignment(FitFailureConfidence, "clustering fit failed", models.ReasonFitFailure), repro)
		return eval
	}

	clusterID := outcome.ClusterID
	productivity := models.ClusterAssignment{
		Label:       outcome.Decision.Label,
		Confidence:  outcome.Confidence,
		Explanation: outcome.Decision.Explanation,
		ClusterID:   &clusterID,
	}
	if outcome.SilhouetteOK {
		s := outcome.Silhouette
		productivity.Silhouette = &s
		eval.Silhouette = &s
	}
	eval.Productivity = &outcome.Decision
	eval.Assignment = ResolveAssignment(productivity, repro)
	return eval
}

// InsufficientHerdMessage explains a PENDING result for a herd below MinHerdSize
const InsufficientHerdMessage = "insufficient herd"

// PENDING result for a focal animal without enough weighings to featurize
const (
	InsufficientWeightsConfidence = 0.0
	InsufficientWeightsMessage    = "insufficient weight history"
)

// ForecastInput is everything one forecast invocation reads
type ForecastInput struct {
	Snapshot  models.AnimalSnapshot
	Weights   []models.WeightObservation
	Breedings []models.ReproductiveEvent
	Ranch     models.RanchConfig
	Today     time.Time
}

// Forecast runs the weight and reproductive forecasters and composes the result
func (e *Engine) Forecast(in ForecastInput) models.ForecastResult {
	today := models.DateOnly(in.Today)

	current := 0.0
	if len(in.Weights) > 0 {
		sorted := SortObservations(in.Weights)
		current = sorted[len(sorted)-1].WeightKg
	}

	conception := ConceptionSuccess(
		in.Snapshot.AgeDays(today),
		in.Snapshot.HealthScore,
		in.Snapshot.DaysOpen(today),
		CountWithin(in.Breedings, today, BreedingWindowDays),
	)
	calving := CalvingWindow(in.Snapshot.LastInseminationDate, in.Ranch.AvgGestationDays, today)

	return ComposeForecast(ForecastInputs{
		SaleDate:          e.forecaster.SaleDate(in.Weights, in.Ranch.TargetSaleWeightKg, today),
		Calving:           calving,
		DryOff:            DryOffDate(calving, in.Ranch.DaysToDryOff, today),
		NextHeat:          NextHeat(in.Snapshot.LastHeatDate, in.Ranch.EstrusCycleDays, today),
		Weight30d:         e.forecaster.Projection30d(in.Weights),
		CurrentWeightKg:   current,
		ConceptionSuccess: conception,
	})
}

// CountWithin counts events dated in the trailing window of days ending today
func CountWithin(events []models.ReproductiveEvent, today time.Time, days int) int {
	n := 0
	for _, ev := range events {
		if d := models.DaysBetween(ev.Date, today); d >= 0 && d <= days {
			n++
		}
	}
	return n
}
