package analytics

import (
	"math"
	"time"

	"github.com/irfndi/bovara-ml/internal/models"
)

// Weight forecast confidences
const (
	TargetReachedConfidence = 0.95
	MaxSaleDateConfidence   = 0.95
	MaxProjectionConfidence = 0.90
	LowDataConfidence       = 0.3
	DefaultSearchHorizon    = 730
	DefaultConfidenceFloor  = 0.1
	ProjectionDays          = 30
)

// WeightForecaster projects a weight series forward with a fitted trend
type WeightForecaster struct {
	Degree          int
	HorizonDays     int
	ConfidenceFloor float64
}

// NewWeightForecaster returns a forecaster with the default horizon and floor
func NewWeightForecaster(degree int) WeightForecaster {
	return WeightForecaster{
		Degree:          degree,
		HorizonDays:     DefaultSearchHorizon,
		ConfidenceFloor: DefaultConfidenceFloor,
	}
}

// SaleDate estimates when the series first reaches target. Fewer than
// MinTrendObservations weighings give no date, even when the target is met.
// A met target returns today; an unreachable one is a low-confidence empty estimate.
func (f WeightForecaster) SaleDate(obs []models.WeightObservation, target float64, today time.Time) models.DateEstimate {
	today = models.DateOnly(today)
	if len(obs) == 0 {
		return models.DateEstimate{Reason: models.ReasonInsufficientTrendData}
	}
	if len(obs) < MinTrendObservations {
		return models.DateEstimate{Confidence: LowDataConfidence, Reason: models.ReasonInsufficientTrendData}
	}
	sorted := SortObservations(obs)
	if sorted[len(sorted)-1].WeightKg >= target {
		return models.DateEstimate{Date: &today, Confidence: TargetReachedConfidence}
	}

	trend, err := FitTrend(sorted, f.Degree)
	if err != nil {
		return models.DateEstimate{Confidence: LowDataConfidence, Reason: models.ReasonFitFailure}
	}
	last := float64(trend.LastOffset)
	if dailyGainSorted(sorted) == 0 || trend.Slope(last) <= 0 {
		return models.DateEstimate{Reason: models.ReasonNoWeightGain}
	}

	for d := trend.LastOffset + 1; d <= trend.LastOffset+f.HorizonDays; d++ {
		if trend.At(float64(d)) < target {
			continue
		}
		date := trend.DateAt(d)
		if date.Before(today) {
			date = today
		}
		conf := math.Min(math.Max(trend.RSquared, f.ConfidenceFloor), MaxSaleDateConfidence)
		return models.DateEstimate{Date: &date, Confidence: conf}
	}
	return models.DateEstimate{Confidence: LowDataConfidence, Reason: models.ReasonHorizonExhausted}
}

// Projection30d evaluates the trend thirty days past the last weighing
func (f WeightForecaster) Projection30d(obs []models.WeightObservation) models.WeightEstimate {
	if len(obs) == 0 {
		return models.WeightEstimate{Reason: models.ReasonInsufficientTrendData}
	}
	if len(obs) < MinTrendObservations {
		return models.WeightEstimate{Confidence: LowDataConfidence, Reason: models.ReasonInsufficientTrendData}
	}
	trend, err := FitTrend(SortObservations(obs), f.Degree)
	if err != nil {
		return models.WeightEstimate{Confidence: LowDataConfidence, Reason: models.ReasonFitFailure}
	}
	w := math.Max(0, trend.At(float64(trend.LastOffset+ProjectionDays)))
	return models.WeightEstimate{
		WeightKg:   &w,
		Confidence: math.Min(trend.RSquared, MaxProjectionConfidence),
	}
}
