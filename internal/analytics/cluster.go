package analytics

import (
	"fmt"
	"math"
)

// FitFailureConfidence is reported when clustering cannot produce a result
const FitFailureConfidence = 0.5

// ClusterOutcome is the herd-relative productivity decision for the focal animal
type ClusterOutcome struct {
	Decision          LabelDecision
	ClusterID         int
	ClusterConfidence float64
	Confidence        float64
	Silhouette        float64
	SilhouetteOK      bool
	Percentiles       HerdPercentiles
}

// HerdClusterer fits k-means over a herd cohort and labels the focal animal
type HerdClusterer struct {
	cfg      KMeansConfig
	strategy LabelStrategy
}

// NewHerdClusterer creates a clusterer. A nil strategy selects OwnGainStrategy.
func NewHerdClusterer(cfg KMeansConfig, strategy LabelStrategy) *HerdClusterer {
	if strategy == nil {
		strategy = OwnGainStrategy{}
	}
	return &HerdClusterer{cfg: cfg, strategy: strategy}
}

// Strategy returns the configured label strategy
func (c *HerdClusterer) Strategy() LabelStrategy {
	return c.strategy
}

// Assign clusters the cohort and places focal in it. The cohort must hold at
// least MinHerdSize rows; ErrInsufficientHerd is returned otherwise. Any other
// error is a numeric fit failure.
func (c *HerdClusterer) Assign(cohort []Features, focal Features) (ClusterOutcome, error) {
	if len(cohort) < MinHerdSize {
		return ClusterOutcome{}, fmt.Errorf("%w: %d peers, need %d", ErrInsufficientHerd, len(cohort), MinHerdSize)
	}

	rows := make([][]float64, len(cohort))
	gdps := make([]float64, len(cohort))
	for i, f := range cohort {
		rows[i] = f.Vector()
		gdps[i] = f.GDP
	}

	scaler, err := FitScaler(rows)
	if err != nil {
		return ClusterOutcome{}, fmt.Errorf("failed to fit scaler: %w", err)
	}
	scaled, err := scaler.TransformAll(rows)
	if err != nil {
		return ClusterOutcome{}, fmt.Errorf("failed to scale cohort: %w", err)
	}
	point, err := scaler.Transform(focal.Vector())
	if err != nil {
		return ClusterOutcome{}, fmt.Errorf("failed to scale focal animal: %w", err)
	}

	model, err := FitKMeans(scaled, c.cfg)
	if err != nil {
		return ClusterOutcome{}, fmt.Errorf("failed to fit k-means: %w", err)
	}

	clusterID, dist := model.Predict(point)
	if math.IsNaN(dist) || math.IsInf(dist, 0) {
		return ClusterOutcome{}, fmt.Errorf("%w: distance to centroid is not finite", ErrDegenerateInput)
	}
	clusterConf := math.Min(1/(1+dist), 1)

	var members []float64
	for i, label := range model.Labels {
		if label == clusterID {
			members = append(members, gdps[i])
		}
	}

	herd := ComputePercentiles(gdps)
	decision := c.strategy.Label(focal.GDP, members, herd)
	silhouette, ok := Silhouette(scaled, model.Labels)

	return ClusterOutcome{
		Decision:          decision,
		ClusterID:         clusterID,
		ClusterConfidence: clusterConf,
		Confidence:        (clusterConf + decision.Confidence) / 2,
		Silhouette:        silhouette,
		SilhouetteOK:      ok,
		Percentiles:       herd,
	}, nil
}
