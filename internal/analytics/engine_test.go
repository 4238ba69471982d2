package analytics

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/bovara-ml/internal/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

// growth builds a three-point series gaining rate kg/day over sixty days
func growth(rate float64) []models.WeightObservation {
	return series(point{-60, 250}, point{-30, 250 + 30*rate}, point{0, 250 + 60*rate})
}

func herd(rates ...float64) []PeerSeries {
	peers := make([]PeerSeries, len(rates))
	for i, r := range rates {
		peers[i] = PeerSeries{AnimalID: uuid.New(), Weights: growth(r)}
	}
	return peers
}

func TestNewEngine_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown strategy", func(c *Config) { c.LabelStrategy = "vote" }},
		{"zero k", func(c *Config) { c.KMeans.K = 0 }},
		{"cubic trend", func(c *Config) { c.TrendDegree = 3 }},
		{"no horizon", func(c *Config) { c.HorizonDays = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewEngine(cfg)
			assert.Error(t, err)
		})
	}
}

func TestEngine_AssignCluster_InsufficientWeights(t *testing.T) {
	e := newTestEngine(t)

	eval := e.AssignCluster(ClusterInput{
		Weights: series(point{0, 300}),
		Peers:   herd(0.2, 0.6, 1.0),
		Today:   testToday,
	})

	assert.Equal(t, models.LabelPending, eval.Assignment.Label)
	assert.Equal(t, InsufficientWeightsConfidence, eval.Assignment.Confidence)
	assert.Contains(t, eval.Assignment.Explanation, InsufficientWeightsMessage)
	assert.Equal(t, models.ReasonInsufficientWeights, eval.Assignment.Reason)
	assert.Equal(t, models.SeverityInfo, eval.Assignment.Severity)
}

func TestEngine_AssignCluster_InsufficientHerd(t *testing.T) {
	e := newTestEngine(t)
	peers := herd(0.4, 0.9)
	peers = append(peers, PeerSeries{AnimalID: uuid.New(), Weights: series(point{0, 310})})

	eval := e.AssignCluster(ClusterInput{
		Weights: growth(0.9),
		Peers:   peers,
		Today:   testToday,
	})

	assert.Equal(t, 2, eval.CohortSize)
	assert.Equal(t, models.LabelPending, eval.Assignment.Label)
	assert.Equal(t, 0.5, eval.Assignment.Confidence)
	assert.Contains(t, eval.Assignment.Explanation, "insufficient herd")
	assert.Equal(t, models.ReasonInsufficientHerd, eval.Assignment.Reason)
	assert.NoError(t, eval.FitError)
}

func TestEngine_AssignCluster_ReproProblemOverridesPending(t *testing.T) {
	e := newTestEngine(t)

	eval := e.AssignCluster(ClusterInput{
		Snapshot: models.AnimalSnapshot{LastBirthDate: ptr(daysFromToday(-200))},
		Weights:  growth(0.9),
		Peers:    herd(0.4, 0.9),
		Today:    testToday,
	})

	assert.Equal(t, models.LabelReproProblem, eval.Assignment.Label)
	assert.Equal(t, models.SeverityWarning, eval.Assignment.Severity)
	assert.Contains(t, eval.Assignment.Explanation, "200 days open")
}

func TestEngine_AssignCluster_FullHerd(t *testing.T) {
	e := newTestEngine(t)

	eval := e.AssignCluster(ClusterInput{
		Weights: growth(1.2),
		Peers:   herd(0.2, 0.25, 0.6, 0.65, 1.1, 1.2),
		Today:   testToday,
	})

	require.NoError(t, eval.FitError)
	assert.Equal(t, 6, eval.CohortSize)
	assert.Equal(t, models.LabelProductiveA, eval.Assignment.Label)
	assert.Equal(t, models.SeverityInfo, eval.Assignment.Severity)
	assert.NotNil(t, eval.Assignment.ClusterID)
	assert.NotNil(t, eval.Silhouette)
	assert.GreaterOrEqual(t, eval.Assignment.Confidence, 0.0)
	assert.LessOrEqual(t, eval.Assignment.Confidence, 1.0)
	require.NotNil(t, eval.Productivity)
	assert.Equal(t, models.LabelProductiveA, eval.Productivity.Label)
	assert.Equal(t, models.LabelReproNormal, eval.Repro.Label)
}

func TestEngine_AssignCluster_ReproProblemOverridesProductivity(t *testing.T) {
	e := newTestEngine(t)
	births := []models.ReproductiveEvent{
		{Date: daysFromToday(-40), Kind: models.EventBirth},
		{Date: daysFromToday(-600), Kind: models.EventBirth},
	}

	eval := e.AssignCluster(ClusterInput{
		Snapshot: models.AnimalSnapshot{LastBirthDate: ptr(daysFromToday(-40))},
		Weights:  growth(1.2),
		Births:   births,
		Peers:    herd(0.2, 0.25, 0.6, 0.65, 1.1, 1.2),
		Today:    testToday,
	})

	assert.Equal(t, models.LabelReproProblem, eval.Assignment.Label)
	assert.Contains(t, eval.Assignment.Explanation, "560 days")
	require.NotNil(t, eval.Productivity)
	assert.Equal(t, models.LabelProductiveA, eval.Productivity.Label)
}

func TestEngine_AssignCluster_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	in := ClusterInput{
		Weights: growth(0.6),
		Peers:   herd(0.2, 0.25, 0.6, 0.65, 1.1, 1.2),
		Today:   testToday,
	}

	first := e.AssignCluster(in)
	second := e.AssignCluster(in)

	assert.Equal(t, first.Assignment.Label, second.Assignment.Label)
	assert.Equal(t, first.Assignment.Explanation, second.Assignment.Explanation)
	assert.InDelta(t, first.Assignment.Confidence, second.Assignment.Confidence, 1e-12)
	assert.Equal(t, first.Assignment.ClusterID, second.Assignment.ClusterID)
}

func forecastInput() ForecastInput {
	return ForecastInput{
		Snapshot: models.AnimalSnapshot{
			BirthDate:            ptr(daysFromToday(-1000)),
			HealthScore:          90,
			LastHeatDate:         ptr(daysFromToday(-30)),
			LastBirthDate:        ptr(daysFromToday(-90)),
			LastInseminationDate: ptr(daysFromToday(-100)),
		},
		Weights:   linearSeries(),
		Breedings: []models.ReproductiveEvent{{Date: daysFromToday(-100), Kind: models.EventBreeding}},
		Ranch: models.RanchConfig{
			AvgGestationDays:   285,
			EstrusCycleDays:    21,
			DaysToDryOff:       60,
			TargetSaleWeightKg: 401,
		},
		Today: testToday,
	}
}

func TestEngine_Forecast(t *testing.T) {
	e := newTestEngine(t)

	r := e.Forecast(forecastInput())

	require.NotNil(t, r.PredictedSaleDate)
	assert.Equal(t, daysFromToday(21), *r.PredictedSaleDate)
	require.NotNil(t, r.ExpectedCalvingDate)
	assert.Equal(t, daysFromToday(185), *r.ExpectedCalvingDate)
	require.NotNil(t, r.SuggestedDryDate)
	assert.Equal(t, daysFromToday(125), *r.SuggestedDryDate)
	require.NotNil(t, r.NextLikelyHeatDate)
	assert.Equal(t, daysFromToday(12), *r.NextLikelyHeatDate)
	require.NotNil(t, r.ProjectedWeight30d)
	assert.InDelta(t, 420, *r.ProjectedWeight30d, 1e-9)
	assert.Equal(t, 360.0, r.CurrentWeightKg)
	assert.InDelta(t, 0.80, r.ConceptionSuccess, 1e-12)
	assert.InDelta(t, 0.7835, r.Confidence, 1e-9)
	assert.Equal(t, models.SeverityInfo, r.Severity)
	assert.Equal(t,
		"predicted sale date 2026-04-05 | expected calving date 2026-09-16 | current weight 360.0 kg | conception success 80%",
		r.Explanation)
}

func TestEngine_Forecast_NoHistory(t *testing.T) {
	e := newTestEngine(t)

	r := e.Forecast(ForecastInput{
		Snapshot: models.AnimalSnapshot{HealthScore: 80},
		Ranch:    models.RanchConfig{AvgGestationDays: 285, EstrusCycleDays: 21, DaysToDryOff: 60, TargetSaleWeightKg: 450},
		Today:    testToday,
	})

	assert.Nil(t, r.PredictedSaleDate)
	assert.Nil(t, r.ExpectedCalvingDate)
	assert.Nil(t, r.SuggestedDryDate)
	assert.Nil(t, r.ProjectedWeight30d)
	require.NotNil(t, r.NextLikelyHeatDate)
	assert.Equal(t, daysFromToday(21), *r.NextLikelyHeatDate)
	assert.InDelta(t, 0.65, r.ConceptionSuccess, 1e-12)
	assert.InDelta(t, 0.44, r.Confidence, 1e-9)
	assert.Equal(t, models.SeverityWarning, r.Severity)
	assert.Equal(t, "conception success 65%", r.Explanation)
}

func TestEngine_Forecast_Idempotent(t *testing.T) {
	e := newTestEngine(t)

	first := e.Forecast(forecastInput())
	second := e.Forecast(forecastInput())

	assert.Equal(t, first, second)
}

func TestCountWithin(t *testing.T) {
	events := []models.ReproductiveEvent{
		{Date: daysFromToday(-10)},
		{Date: daysFromToday(-365)},
		{Date: daysFromToday(-366)},
		{Date: daysFromToday(3)},
	}

	assert.Equal(t, 2, CountWithin(events, testToday, 365))
}
