package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/bovara-ml/internal/models"
)

func TestComputePercentiles_EmptyUsesDefaults(t *testing.T) {
	p := ComputePercentiles(nil)

	assert.Equal(t, HerdPercentiles{P25: 0.4, P50: 0.6, P75: 0.8}, p)
}

func TestComputePercentiles_NearestRank(t *testing.T) {
	p := ComputePercentiles([]float64{0.4, 0.1, 0.3, 0.2})

	assert.Equal(t, 0.2, p.P25)
	assert.Equal(t, 0.3, p.P50)
	assert.Equal(t, 0.4, p.P75)
}

func TestComputePercentiles_Ordered(t *testing.T) {
	inputs := [][]float64{
		{1.0},
		{0.5, 0.5},
		{2.1, 0.0, 0.7},
		{0.9, 0.1, 1.5, 0.3, 0.3, 1.1, 0.8},
	}

	for _, gdps := range inputs {
		p := ComputePercentiles(gdps)
		assert.LessOrEqual(t, p.P25, p.P50)
		assert.LessOrEqual(t, p.P50, p.P75)
	}
}

func TestLabelByGain(t *testing.T) {
	herd := DefaultPercentiles

	tests := []struct {
		name       string
		gdp        float64
		label      models.ClusterLabel
		confidence float64
		mentions   []string
	}{
		{"above p75", 0.95, models.LabelProductiveA, 0.90, []string{"0.95", "above p75"}},
		{"exactly p75", 0.8, models.LabelProductiveA, 0.90, []string{"above p75"}},
		{"normal range", 0.5, models.LabelProductiveB, 0.85, []string{"within normal range"}},
		{"exactly p25", 0.4, models.LabelProductiveB, 0.85, []string{"within normal range"}},
		{"below p25", 0.1, models.LabelProductiveC, 0.80, []string{"below p25", "sanitary-sale candidate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := LabelByGain(tt.gdp, herd)
			assert.Equal(t, tt.label, d.Label)
			assert.Equal(t, tt.confidence, d.Confidence)
			for _, m := range tt.mentions {
				assert.Contains(t, d.Explanation, m)
			}
		})
	}
}

func TestClusterMeanStrategy_UsesClusterMean(t *testing.T) {
	d := ClusterMeanStrategy{}.Label(0.1, []float64{0.9, 1.0}, DefaultPercentiles)

	assert.Equal(t, models.LabelProductiveA, d.Label)
	assert.Contains(t, d.Explanation, "cluster GDP 0.95")

	fallback := ClusterMeanStrategy{}.Label(0.1, nil, DefaultPercentiles)
	assert.Equal(t, models.LabelProductiveC, fallback.Label)
}

func TestOwnGainStrategy_IgnoresCluster(t *testing.T) {
	d := OwnGainStrategy{}.Label(0.1, []float64{0.9, 1.0}, DefaultPercentiles)

	assert.Equal(t, models.LabelProductiveC, d.Label)
}

func TestStrategyByName(t *testing.T) {
	s, err := StrategyByName("")
	require.NoError(t, err)
	assert.Equal(t, "own_gain", s.Name())

	s, err = StrategyByName("cluster_mean")
	require.NoError(t, err)
	assert.Equal(t, "cluster_mean", s.Name())

	_, err = StrategyByName("centroid_vote")
	assert.Error(t, err)
}
