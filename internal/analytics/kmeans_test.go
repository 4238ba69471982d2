package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeGroups() [][]float64 {
	return [][]float64{
		{0, 0}, {0.2, 0.1}, {0.1, 0.3},
		{10, 10}, {10.2, 9.9}, {9.8, 10.1},
		{-10, 10}, {-10.1, 9.8}, {-9.9, 10.2},
	}
}

func TestFitScaler_ZeroVarianceColumn(t *testing.T) {
	s, err := FitScaler([][]float64{{1, 5}, {2, 5}, {3, 5}})
	require.NoError(t, err)

	assert.Equal(t, 1.0, s.Scale[1])

	row, err := s.Transform([]float64{2, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, row)
}

func TestFitScaler_RejectsDegenerateInput(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
	}{
		{"empty", nil},
		{"ragged", [][]float64{{1, 2}, {3}}},
		{"nan", [][]float64{{1, 2}, {math.NaN(), 3}}},
		{"inf", [][]float64{{1, math.Inf(1)}, {2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitScaler(tt.rows)
			assert.ErrorIs(t, err, ErrDegenerateInput)
		})
	}
}

func TestScaler_TransformChecksWidth(t *testing.T) {
	s, err := FitScaler([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	_, err = s.Transform([]float64{1})
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

func TestFitKMeans_SeparatesGroups(t *testing.T) {
	model, err := FitKMeans(threeGroups(), DefaultKMeansConfig())
	require.NoError(t, err)

	require.Len(t, model.Centroids, 3)
	l := model.Labels
	assert.Equal(t, l[0], l[1])
	assert.Equal(t, l[0], l[2])
	assert.Equal(t, l[3], l[4])
	assert.Equal(t, l[3], l[5])
	assert.Equal(t, l[6], l[7])
	assert.Equal(t, l[6], l[8])
	assert.NotEqual(t, l[0], l[3])
	assert.NotEqual(t, l[0], l[6])
	assert.NotEqual(t, l[3], l[6])
	assert.LessOrEqual(t, model.Iterations, DefaultKMeansConfig().MaxIter)
}

func TestFitKMeans_Deterministic(t *testing.T) {
	first, err := FitKMeans(threeGroups(), DefaultKMeansConfig())
	require.NoError(t, err)
	second, err := FitKMeans(threeGroups(), DefaultKMeansConfig())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFitKMeans_CapsKAtPointCount(t *testing.T) {
	model, err := FitKMeans([][]float64{{0, 0}, {1, 1}}, DefaultKMeansConfig())
	require.NoError(t, err)

	assert.Len(t, model.Centroids, 2)
}

func TestFitKMeans_IdenticalPoints(t *testing.T) {
	points := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}

	model, err := FitKMeans(points, DefaultKMeansConfig())
	require.NoError(t, err)

	assert.Equal(t, 0.0, model.Inertia)
	for _, c := range model.Centroids {
		assert.Equal(t, []float64{1, 1}, c)
	}
}

func TestKMeansModel_Predict(t *testing.T) {
	model := &KMeansModel{Centroids: [][]float64{{0, 0}, {3, 4}}}

	idx, dist := model.Predict([]float64{3, 4})
	assert.Equal(t, 1, idx)
	assert.Equal(t, 0.0, dist)

	idx, dist = model.Predict([]float64{0, 1})
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1.0, dist)
}

func TestSilhouette(t *testing.T) {
	points := threeGroups()
	model, err := FitKMeans(points, DefaultKMeansConfig())
	require.NoError(t, err)

	score, ok := Silhouette(points, model.Labels)
	assert.True(t, ok)
	assert.Greater(t, score, 0.8)
	assert.LessOrEqual(t, score, 1.0)
}

func TestSilhouette_Undefined(t *testing.T) {
	points := [][]float64{{0}, {1}, {2}}

	_, ok := Silhouette(points, []int{0, 0, 0})
	assert.False(t, ok)

	_, ok = Silhouette(points, []int{0, 1, 2})
	assert.False(t, ok)
}
