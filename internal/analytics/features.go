// Package analytics holds the livestock prediction engine. Every function here is a
// pure computation over one invocation's snapshot; nothing is cached between calls.
package analytics

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/irfndi/bovara-ml/internal/models"
)

// FeatureCount is the length of a feature vector
const FeatureCount = 6

// Features is the fixed-size description of one animal's weight series
type Features struct {
	GDP           float64 `json:"gdp"`
	CurrentWeight float64 `json:"current_weight"`
	Trend         float64 `json:"trend"`
	StdDev        float64 `json:"std_dev"`
	Median        float64 `json:"median"`
	AgeDays       float64 `json:"age_days"`
}

// Vector returns the features in their fixed column order
func (f Features) Vector() []float64 {
	return []float64{f.GDP, f.CurrentWeight, f.Trend, f.StdDev, f.Median, f.AgeDays}
}

// SortObservations returns a copy of obs ordered by ascending date
func SortObservations(obs []models.WeightObservation) []models.WeightObservation {
	sorted := slices.Clone(obs)
	slices.SortStableFunc(sorted, func(a, b models.WeightObservation) int {
		return a.Date.Compare(b.Date)
	})
	return sorted
}

// DailyGain returns the average daily weight gain between the first and last
// observation. It is never negative and is 0 for a single observation or a
// zero-day span.
func DailyGain(obs []models.WeightObservation) float64 {
	if len(obs) < 2 {
		return 0
	}
	sorted := SortObservations(obs)
	return dailyGainSorted(sorted)
}

func dailyGainSorted(sorted []models.WeightObservation) float64 {
	first, last := sorted[0], sorted[len(sorted)-1]
	days := models.DaysBetween(first.Date, last.Date)
	if days == 0 {
		return 0
	}
	gdp := (last.WeightKg - first.WeightKg) / float64(days)
	if gdp < 0 {
		return 0
	}
	return gdp
}

// Featurize turns a weight series into a feature vector. It reports ok=false
// when fewer than two observations are available.
func Featurize(obs []models.WeightObservation, ageDays int) (Features, bool) {
	if len(obs) < 2 {
		return Features{}, false
	}
	sorted := SortObservations(obs)
	weights := make([]float64, len(sorted))
	for i, o := range sorted {
		weights[i] = o.WeightKg
	}

	n := len(weights)
	_, std := stat.PopMeanStdDev(weights, nil)

	return Features{
		GDP:           dailyGainSorted(sorted),
		CurrentWeight: weights[n-1],
		Trend:         weights[n-1] - weights[n-2],
		StdDev:        std,
		Median:        median(weights),
		AgeDays:       float64(ageDays),
	}, true
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
