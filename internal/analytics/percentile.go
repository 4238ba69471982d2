package analytics

import (
	"fmt"
	"slices"

	"github.com/irfndi/bovara-ml/internal/models"
)

// MinHerdSize is the smallest cohort the herd-relative rules accept
const MinHerdSize = 3

// Label rule confidences
const (
	ProductiveAConfidence = 0.90
	ProductiveBConfidence = 0.85
	ProductiveCConfidence = 0.80
)

// HerdPercentiles are the herd gdp thresholds used for labeling
type HerdPercentiles struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
}

// DefaultPercentiles apply when no herd gdp is available
var DefaultPercentiles = HerdPercentiles{P25: 0.4, P50: 0.6, P75: 0.8}

// ComputePercentiles returns nearest-rank percentiles, index floor(n*q) over the
// sorted gdps.
func ComputePercentiles(gdps []float64) HerdPercentiles {
	if len(gdps) == 0 {
		return DefaultPercentiles
	}
	sorted := slices.Clone(gdps)
	slices.Sort(sorted)
	return HerdPercentiles{
		P25: nearestRank(sorted, 0.25),
		P50: nearestRank(sorted, 0.50),
		P75: nearestRank(sorted, 0.75),
	}
}

func nearestRank(sorted []float64, q float64) float64 {
	idx := int(float64(len(sorted)) * q)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// LabelDecision is a label together with the confidence and explanation behind it
type LabelDecision struct {
	Label       models.ClusterLabel
	Confidence  float64
	Explanation string
}

// LabelByGain applies the top-down percentile rule to a gdp value
func LabelByGain(gdp float64, p HerdPercentiles) LabelDecision {
	switch {
	case gdp >= p.P75:
		return LabelDecision{
			Label:       models.LabelProductiveA,
			Confidence:  ProductiveAConfidence,
			Explanation: fmt.Sprintf("GDP %.2f kg/day above p75 (%.2f)", gdp, p.P75),
		}
	case gdp >= p.P25:
		return LabelDecision{
			Label:       models.LabelProductiveB,
			Confidence:  ProductiveBConfidence,
			Explanation: fmt.Sprintf("GDP %.2f kg/day within normal range", gdp),
		}
	default:
		return LabelDecision{
			Label:       models.LabelProductiveC,
			Confidence:  ProductiveCConfidence,
			Explanation: fmt.Sprintf("GDP %.2f kg/day below p25 (%.2f), sanitary-sale candidate", gdp, p.P25),
		}
	}
}

// LabelStrategy maps a fitted cluster to a semantic label
type LabelStrategy interface {
	Name() string
	Label(focalGDP float64, clusterGDPs []float64, herd HerdPercentiles) LabelDecision
}

// OwnGainStrategy labels by the focal animal's own gdp, independent of clustering noise
type OwnGainStrategy struct{}

func (OwnGainStrategy) Name() string { return "own_gain" }

func (OwnGainStrategy) Label(focalGDP float64, _ []float64, herd HerdPercentiles) LabelDecision {
	return LabelByGain(focalGDP, herd)
}

// ClusterMeanStrategy labels by the mean gdp of the cluster the animal was assigned to
type ClusterMeanStrategy struct{}

func (ClusterMeanStrategy) Name() string { return "cluster_mean" }

func (ClusterMeanStrategy) Label(focalGDP float64, clusterGDPs []float64, herd HerdPercentiles) LabelDecision {
	if len(clusterGDPs) == 0 {
		return LabelByGain(focalGDP, herd)
	}
	sum := 0.0
	for _, g := range clusterGDPs {
		sum += g
	}
	decision := LabelByGain(sum/float64(len(clusterGDPs)), herd)
	decision.Explanation = "cluster " + decision.Explanation
	return decision
}

// StrategyByName resolves a configured strategy name
func StrategyByName(name string) (LabelStrategy, error) {
	switch name {
	case "", OwnGainStrategy{}.Name():
		return OwnGainStrategy{}, nil
	case ClusterMeanStrategy{}.Name():
		return ClusterMeanStrategy{}, nil
	}
	return nil, fmt.Errorf("unknown label strategy %q", name)
}
