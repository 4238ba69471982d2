package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/irfndi/bovara-ml/internal/models"
)

func TestComposeForecast_AllSignals(t *testing.T) {
	in := ForecastInputs{
		SaleDate:          models.DateEstimate{Date: ptr(daysFromToday(20)), Confidence: 0.95},
		Calving:           models.DateEstimate{Date: ptr(daysFromToday(185)), Confidence: 0.6175},
		DryOff:            models.DateEstimate{Date: ptr(daysFromToday(125)), Confidence: 0.90},
		NextHeat:          models.DateEstimate{Date: ptr(daysFromToday(12)), Confidence: 0.65},
		Weight30d:         models.WeightEstimate{WeightKg: ptr(420.0), Confidence: 0.90},
		CurrentWeightKg:   360,
		ConceptionSuccess: 0.80,
	}

	r := ComposeForecast(in)

	assert.InDelta(t, 0.7835, r.Confidence, 1e-9)
	assert.Equal(t, models.SeverityInfo, r.Severity)
	assert.Equal(t,
		"predicted sale date 2026-04-04 | expected calving date 2026-09-16 | current weight 360.0 kg | conception success 80%",
		r.Explanation)
	assert.Equal(t, daysFromToday(20), *r.PredictedSaleDate)
	assert.Equal(t, daysFromToday(125), *r.SuggestedDryDate)
	assert.Equal(t, 420.0, *r.ProjectedWeight30d)
	assert.Equal(t, 0.90, r.Components.Weight30d)
	assert.Equal(t, 0.95, r.Components.SaleDate)
	assert.Empty(t, r.Degraded)
}

func TestComposeForecast_SubstitutesUnavailable(t *testing.T) {
	in := ForecastInputs{
		SaleDate:          models.DateEstimate{Reason: models.ReasonNoWeightGain},
		CurrentWeightKg:   352.26,
		ConceptionSuccess: 0.6175,
	}

	r := ComposeForecast(in)

	assert.InDelta(t, (4*0.3+0.6175)/5, r.Confidence, 1e-9)
	assert.Equal(t, models.SeverityWarning, r.Severity)
	assert.Equal(t, "current weight 352.3 kg | conception success 62%", r.Explanation)
	assert.Nil(t, r.PredictedSaleDate)
	assert.Equal(t, UnavailableConfidence, r.Components.SaleDate)
	assert.Equal(t, []models.DegradedReason{models.ReasonNoWeightGain}, r.Degraded)
}

func TestComposeForecast_InsufficientData(t *testing.T) {
	r := ComposeForecast(ForecastInputs{})

	assert.Equal(t, InsufficientDataMessage, r.Explanation)
	assert.InDelta(t, 0.3, r.Confidence, 1e-12)
	assert.Equal(t, models.SeverityWarning, r.Severity)
	assert.Equal(t, models.ForecastFields{}, r.Fields())
}

func TestComposeForecast_SeverityThreshold(t *testing.T) {
	date := ptr(daysFromToday(10))
	in := ForecastInputs{
		SaleDate:          models.DateEstimate{Date: date, Confidence: 0.70},
		Calving:           models.DateEstimate{Date: date, Confidence: 0.70},
		DryOff:            models.DateEstimate{Date: date, Confidence: 0.70},
		NextHeat:          models.DateEstimate{Date: date, Confidence: 0.70},
		ConceptionSuccess: 0.70,
	}

	r := ComposeForecast(in)
	assert.Equal(t, models.SeverityInfo, r.Severity)

	in.NextHeat.Confidence = 0.60
	assert.Equal(t, models.SeverityWarning, ComposeForecast(in).Severity)
}
