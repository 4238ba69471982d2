package analytics

import (
	"math"
	"time"

	"github.com/irfndi/bovara-ml/internal/models"
)

// Reproductive forecast confidences. These are policy values, not fitted.
const (
	BaseConceptionProbability = 0.65
	CalvingConfidenceFactor   = 0.95
	MaxCalvingConfidence      = 0.95
	DryOffConfidence          = 0.90
	DryOffElapsedConfidence   = 0.5
	NextHeatConfidence        = 0.65
)

// Conception-success heuristic terms
const (
	ConceptionBase          = 0.80
	ConceptionFloor         = 0.10
	FertileAgeMinDays       = 600
	FertileAgeMaxDays       = 2500
	AgePenalty              = 0.15
	LowHealthThreshold      = 70
	LowHealthPenalty        = 0.20
	ExtendedDaysOpen        = 150
	ExtendedDaysOpenPenalty = 0.25
	FreeBreedingAttempts    = 3
	ExtraAttemptPenalty     = 0.10
)

// CalvingWindow projects the calving date from the last insemination. Unknown
// insemination or a date already in the past yields an empty estimate.
func CalvingWindow(insemination *time.Time, gestationDays int, today time.Time) models.DateEstimate {
	if insemination == nil {
		return models.DateEstimate{Reason: models.ReasonUnknownInsemination}
	}
	today = models.DateOnly(today)
	date := models.AddDays(*insemination, gestationDays)
	if date.Before(today) {
		return models.DateEstimate{Reason: models.ReasonCalvingElapsed}
	}
	return models.DateEstimate{
		Date:       &date,
		Confidence: math.Min(BaseConceptionProbability*CalvingConfidenceFactor, MaxCalvingConfidence),
	}
}

// DryOffDate backs off daysToDryOff from the projected calving
func DryOffDate(calving models.DateEstimate, daysToDryOff int, today time.Time) models.DateEstimate {
	if !calving.Available() {
		return models.DateEstimate{Reason: models.ReasonNoCalvingDate}
	}
	today = models.DateOnly(today)
	date := models.AddDays(*calving.Date, -daysToDryOff)
	if date.Before(today) {
		return models.DateEstimate{Date: &today, Confidence: DryOffElapsedConfidence, Reason: models.ReasonDryOffElapsed}
	}
	return models.DateEstimate{Date: &date, Confidence: DryOffConfidence}
}

// NextHeat rolls the last heat forward by whole estrus cycles until it is not
// before today. Without a recorded heat it projects one cycle from today.
func NextHeat(lastHeat *time.Time, cycleDays int, today time.Time) models.DateEstimate {
	if cycleDays <= 0 {
		return models.DateEstimate{Reason: models.ReasonInvalidCycle}
	}
	today = models.DateOnly(today)
	if lastHeat == nil {
		date := models.AddDays(today, cycleDays)
		return models.DateEstimate{Date: &date, Confidence: NextHeatConfidence}
	}

	k := 0
	if elapsed := models.DaysBetween(*lastHeat, today); elapsed > 0 {
		k = (elapsed + cycleDays - 1) / cycleDays
	}
	date := models.AddDays(*lastHeat, k*cycleDays)
	return models.DateEstimate{Date: &date, Confidence: NextHeatConfidence}
}

// ConceptionSuccess scores the chance of a successful next insemination
func ConceptionSuccess(ageDays, healthScore, daysOpen, breedingAttempts int) float64 {
	score := ConceptionBase
	if ageDays < FertileAgeMinDays || ageDays > FertileAgeMaxDays {
		score -= AgePenalty
	}
	if healthScore < LowHealthThreshold {
		score -= LowHealthPenalty
	}
	if daysOpen > ExtendedDaysOpen {
		score -= ExtendedDaysOpenPenalty
	}
	if extra := breedingAttempts - FreeBreedingAttempts; extra > 0 {
		score -= ExtraAttemptPenalty * float64(extra)
	}
	return math.Max(score, ConceptionFloor)
}
