package analytics

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/irfndi/bovara-ml/internal/models"
)

const (
	// UnavailableConfidence stands in for a forecast signal that produced no value
	UnavailableConfidence = 0.3
	// InfoConfidenceThreshold is the overall confidence at which a forecast is info
	InfoConfidenceThreshold = 0.70
	// InsufficientDataMessage is the explanation when no fragment qualifies
	InsufficientDataMessage = "insufficient data for forecast"

	explanationSeparator = " | "
)

// ForecastInputs are the per-signal estimates the composer blends
type ForecastInputs struct {
	SaleDate          models.DateEstimate
	Calving           models.DateEstimate
	DryOff            models.DateEstimate
	NextHeat          models.DateEstimate
	Weight30d         models.WeightEstimate
	CurrentWeightKg   float64
	ConceptionSuccess float64
}

// ComposeForecast blends the signal confidences and builds the explanation
func ComposeForecast(in ForecastInputs) models.ForecastResult {
	components := models.ForecastConfidences{
		SaleDate:          signalConfidence(in.SaleDate),
		Calving:           signalConfidence(in.Calving),
		DryOff:            signalConfidence(in.DryOff),
		NextHeat:          signalConfidence(in.NextHeat),
		ConceptionSuccess: models.ClampConfidence(in.ConceptionSuccess),
		Weight30d:         models.ClampConfidence(in.Weight30d.Confidence),
	}
	if in.ConceptionSuccess <= 0 {
		components.ConceptionSuccess = UnavailableConfidence
	}

	overall := models.ClampConfidence((components.SaleDate + components.Calving + components.DryOff +
		components.NextHeat + components.ConceptionSuccess) / 5)

	severity := models.SeverityWarning
	if overall >= InfoConfidenceThreshold {
		severity = models.SeverityInfo
	}

	return models.ForecastResult{
		PredictedSaleDate:   in.SaleDate.Date,
		ExpectedCalvingDate: in.Calving.Date,
		SuggestedDryDate:    in.DryOff.Date,
		NextLikelyHeatDate:  in.NextHeat.Date,
		ProjectedWeight30d:  in.Weight30d.WeightKg,
		CurrentWeightKg:     in.CurrentWeightKg,
		ConceptionSuccess:   in.ConceptionSuccess,
		Confidence:          overall,
		Explanation:         explainForecast(in),
		Severity:            severity,
		Components:          components,
		Degraded:            degradedReasons(in),
	}
}

// degradedReasons lists why signals carry reduced information, in signal order
func degradedReasons(in ForecastInputs) []models.DegradedReason {
	var reasons []models.DegradedReason
	for _, r := range []models.DegradedReason{
		in.SaleDate.Reason,
		in.Calving.Reason,
		in.DryOff.Reason,
		in.NextHeat.Reason,
		in.Weight30d.Reason,
	} {
		if r != models.ReasonNone {
			reasons = append(reasons, r)
		}
	}
	return reasons
}

func signalConfidence(e models.DateEstimate) float64 {
	if !e.Available() {
		return UnavailableConfidence
	}
	return models.ClampConfidence(e.Confidence)
}

func explainForecast(in ForecastInputs) string {
	var parts []string
	if in.SaleDate.Available() {
		parts = append(parts, "predicted sale date "+in.SaleDate.Date.Format(time.DateOnly))
	}
	if in.Calving.Available() {
		parts = append(parts, "expected calving date "+in.Calving.Date.Format(time.DateOnly))
	}
	if in.CurrentWeightKg > 0 {
		parts = append(parts, "current weight "+decimal.NewFromFloat(in.CurrentWeightKg).StringFixed(1)+" kg")
	}
	if in.ConceptionSuccess > 0 {
		pct := decimal.NewFromFloat(in.ConceptionSuccess).Mul(decimal.NewFromInt(100)).Round(0)
		parts = append(parts, "conception success "+pct.String()+"%")
	}
	if len(parts) == 0 {
		return InsufficientDataMessage
	}
	return strings.Join(parts, explanationSeparator)
}
