package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ClusterLabel is the semantic segment assigned to an animal
type ClusterLabel string

const (
	LabelProductiveA  ClusterLabel = "PRODUCTIVO_A"
	LabelProductiveB  ClusterLabel = "PRODUCTIVO_B"
	LabelProductiveC  ClusterLabel = "PRODUCTIVO_C"
	LabelReproOptimal ClusterLabel = "REPRO_OPTIMO"
	LabelReproProblem ClusterLabel = "REPRO_PROBLEMA"
	LabelReproNormal  ClusterLabel = "REPRO_NORMAL"
	LabelPending      ClusterLabel = "PENDING"
)

// Valid reports whether l is one of the enumerated labels
func (l ClusterLabel) Valid() bool {
	switch l {
	case LabelProductiveA, LabelProductiveB, LabelProductiveC,
		LabelReproOptimal, LabelReproProblem, LabelReproNormal, LabelPending:
		return true
	}
	return false
}

// Severity signals whether a result needs operator attention
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// DegradedReason explains why a successful result carries reduced information
type DegradedReason string

const (
	ReasonNone                  DegradedReason = ""
	ReasonInsufficientWeights   DegradedReason = "insufficient_weights"
	ReasonInsufficientHerd      DegradedReason = "insufficient_herd"
	ReasonFitFailure            DegradedReason = "fit_failure"
	ReasonInsufficientTrendData DegradedReason = "insufficient_trend_data"
	ReasonHorizonExhausted      DegradedReason = "horizon_exhausted"
	ReasonNoWeightGain          DegradedReason = "no_weight_gain"
	ReasonUnknownInsemination   DegradedReason = "unknown_insemination"
	ReasonCalvingElapsed        DegradedReason = "calving_elapsed"
	ReasonNoCalvingDate         DegradedReason = "no_calving_date"
	ReasonDryOffElapsed         DegradedReason = "dry_off_elapsed"
	ReasonInvalidCycle          DegradedReason = "invalid_cycle"
)

// ClampConfidence forces a confidence into [0, 1]; NaN becomes 0
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c) || c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

// ClusterAssignment is the outcome of the productivity/reproductive segmentation
type ClusterAssignment struct {
	Label       ClusterLabel   `json:"label"`
	Confidence  float64        `json:"confidence"`
	Explanation string         `json:"explanation"`
	Severity    Severity       `json:"severity"`
	Reason      DegradedReason `json:"reason,omitempty"`
	ClusterID   *int           `json:"cluster_id,omitempty"`
	Silhouette  *float64       `json:"silhouette,omitempty"`
}

// DateEstimate pairs an optional date with the confidence behind it
type DateEstimate struct {
	Date       *time.Time     `json:"date,omitempty"`
	Confidence float64        `json:"confidence"`
	Reason     DegradedReason `json:"reason,omitempty"`
}

// Available reports whether the estimate produced a date
func (d DateEstimate) Available() bool {
	return d.Date != nil
}

// WeightEstimate pairs an optional projected weight with its confidence
type WeightEstimate struct {
	WeightKg   *float64       `json:"weight_kg,omitempty"`
	Confidence float64        `json:"confidence"`
	Reason     DegradedReason `json:"reason,omitempty"`
}

// ForecastConfidences exposes the per-signal confidences behind a forecast
type ForecastConfidences struct {
	SaleDate          float64 `json:"sale_date"`
	Calving           float64 `json:"calving"`
	DryOff            float64 `json:"dry_off"`
	NextHeat          float64 `json:"next_heat"`
	ConceptionSuccess float64 `json:"conception_success"`
	Weight30d         float64 `json:"weight_30d"`
}

// ForecastResult is the outcome of the forecast use case
type ForecastResult struct {
	PredictedSaleDate   *time.Time          `json:"predicted_sale_date,omitempty"`
	ExpectedCalvingDate *time.Time          `json:"expected_calving_date,omitempty"`
	SuggestedDryDate    *time.Time          `json:"suggested_dry_date,omitempty"`
	NextLikelyHeatDate  *time.Time          `json:"next_likely_heat_date,omitempty"`
	ProjectedWeight30d  *float64            `json:"projected_weight_30d,omitempty"`
	CurrentWeightKg     float64             `json:"current_weight_kg"`
	ConceptionSuccess   float64             `json:"conception_success"`
	Confidence          float64             `json:"confidence"`
	Explanation         string              `json:"explanation"`
	Severity            Severity            `json:"severity"`
	Components          ForecastConfidences `json:"components"`
	Degraded            []DegradedReason    `json:"degraded,omitempty"`
}

// Fields returns the forecast columns to persist on the animal
func (f ForecastResult) Fields() ForecastFields {
	return ForecastFields{
		PredictedSaleDate:   f.PredictedSaleDate,
		ExpectedCalvingDate: f.ExpectedCalvingDate,
		SuggestedDryDate:    f.SuggestedDryDate,
		NextLikelyHeatDate:  f.NextLikelyHeatDate,
		ProjectedWeight30d:  f.ProjectedWeight30d,
	}
}

// PredictionType tags an audit record
type PredictionType string

const (
	PredictionClusterAssignment PredictionType = "cluster_assignment"
	PredictionForecastUpdate    PredictionType = "forecast_update"
)

// predictionNamespace scopes deterministic prediction ids
var predictionNamespace = uuid.MustParse("6f1c2a8e-3b7d-5e41-9a0c-2d8f4b6e1a73")

// PredictionID derives the audit record id for an animal, type and day. Retried
// deliveries of the same task therefore land on the same row.
func PredictionID(animalID uuid.UUID, kind PredictionType, day time.Time) uuid.UUID {
	key := fmt.Sprintf("%s|%s|%s", animalID, kind, DateOnly(day).Format(time.DateOnly))
	return uuid.NewSHA1(predictionNamespace, []byte(key))
}

// PredictionRecord is the audit entity persisted once per invocation
type PredictionRecord struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	RanchID        uuid.UUID      `json:"ranch_id" db:"ranch_id"`
	AnimalID       uuid.UUID      `json:"animal_id" db:"animal_id"`
	Type           PredictionType `json:"prediction_type" db:"prediction_type"`
	PredictionDate time.Time      `json:"prediction_date" db:"prediction_date"`
	Confidence     float64        `json:"confidence_score" db:"confidence_score"`
	Explanation    string         `json:"explanation" db:"explanation"`
	Severity       Severity       `json:"severity" db:"severity"`
	IsAcknowledged bool           `json:"is_acknowledged" db:"is_acknowledged"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// NewPredictionRecord builds an audit record stamped at now
func NewPredictionRecord(ranchID, animalID uuid.UUID, kind PredictionType, confidence float64, explanation string, severity Severity, now time.Time) PredictionRecord {
	return PredictionRecord{
		ID:             PredictionID(animalID, kind, now),
		RanchID:        ranchID,
		AnimalID:       animalID,
		Type:           kind,
		PredictionDate: DateOnly(now),
		Confidence:     ClampConfidence(confidence),
		Explanation:    explanation,
		Severity:       severity,
		CreatedAt:      now,
	}
}

// ClusterResult is returned by the clustering use case
type ClusterResult struct {
	AnimalID   uuid.UUID         `json:"animal_id"`
	RanchID    uuid.UUID         `json:"ranch_id"`
	Assignment ClusterAssignment `json:"assignment"`
	Timestamp  time.Time         `json:"timestamp"`
}

// ForecastOutcome is returned by the forecast use case
type ForecastOutcome struct {
	AnimalID  uuid.UUID      `json:"animal_id"`
	RanchID   uuid.UUID      `json:"ranch_id"`
	Forecast  ForecastResult `json:"forecast"`
	Timestamp time.Time      `json:"timestamp"`
}
