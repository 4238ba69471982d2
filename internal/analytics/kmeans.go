package analytics

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrDegenerateInput is returned when a matrix is empty, ragged or not finite
	ErrDegenerateInput = errors.New("degenerate input matrix")
	// ErrInsufficientHerd is returned when the cohort is smaller than MinHerdSize
	ErrInsufficientHerd = errors.New("insufficient herd")
)

// zeroScale is the relative spread below which a column counts as constant
const zeroScale = 1e-12

// Scaler standardizes columns to zero mean and unit variance. Columns without
// variance keep a scale of 1 so they are only centered.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler learns per-column mean and population standard deviation
func FitScaler(rows [][]float64) (*Scaler, error) {
	if err := validateMatrix(rows); err != nil {
		return nil, err
	}
	dims := len(rows[0])
	s := &Scaler{Mean: make([]float64, dims), Scale: make([]float64, dims)}
	column := make([]float64, len(rows))
	for j := 0; j < dims; j++ {
		for i, row := range rows {
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if math.IsNaN(std) || std <= zeroScale*math.Max(1, math.Abs(mean)) {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

// Transform standardizes one row with the fitted parameters
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("%w: row has %d columns, scaler expects %d", ErrDegenerateInput, len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite value in column %d", ErrDegenerateInput, j)
		}
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll standardizes every row
func (s *Scaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

func validateMatrix(rows [][]float64) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return fmt.Errorf("%w: empty matrix", ErrDegenerateInput)
	}
	dims := len(rows[0])
	for i, row := range rows {
		if len(row) != dims {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrDegenerateInput, i, len(row), dims)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value in row %d", ErrDegenerateInput, i)
			}
		}
	}
	return nil
}

// KMeansConfig controls the k-means fit
type KMeansConfig struct {
	K         int
	MaxIter   int
	Restarts  int
	Seed      uint64
	Tolerance float64
}

// DefaultKMeansConfig mirrors the production settings
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		K:         3,
		MaxIter:   300,
		Restarts:  10,
		Seed:      42,
		Tolerance: 1e-4,
	}
}

// KMeansModel is a fitted k-means partition
type KMeansModel struct {
	Centroids  [][]float64
	Labels     []int
	Inertia    float64
	Iterations int
}

// FitKMeans runs Lloyd's algorithm from Restarts k-means++ seedings and keeps the
// lowest-inertia partition. K is capped at the number of points. The random source
// is seeded from cfg.Seed so the same input always yields the same model.
func FitKMeans(points [][]float64, cfg KMeansConfig) (*KMeansModel, error) {
	if err := validateMatrix(points); err != nil {
		return nil, err
	}
	k := min(cfg.K, len(points))
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be positive", ErrDegenerateInput)
	}
	maxIter := max(cfg.MaxIter, 1)
	restarts := max(cfg.Restarts, 1)

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	var best *KMeansModel
	for r := 0; r < restarts; r++ {
		model := lloyd(points, seedPlusPlus(points, k, rng), maxIter, cfg.Tolerance)
		if best == nil || model.Inertia < best.Inertia {
			best = model
		}
	}
	return best, nil
}

// Predict returns the nearest centroid and the euclidean distance to it
func (m *KMeansModel) Predict(point []float64) (int, float64) {
	bestIdx, bestDist := 0, math.Inf(1)
	for i, c := range m.Centroids {
		if d := floats.Distance(point, c, 2); d < bestDist {
			bestIdx, bestDist = i, d
		}
	}
	return bestIdx, bestDist
}

func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.IntN(len(points))]))

	dist := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			nearest := math.Inf(1)
			for _, c := range centroids {
				d := floats.Distance(p, c, 2)
				nearest = math.Min(nearest, d*d)
			}
			dist[i] = nearest
			total += nearest
		}

		if total == 0 {
			centroids = append(centroids, clone(points[rng.IntN(len(points))]))
			continue
		}
		target := rng.Float64() * total
		chosen := len(points) - 1
		for i, d := range dist {
			target -= d
			if target <= 0 {
				chosen = i
				break
			}
		}
		centroids = append(centroids, clone(points[chosen]))
	}
	return centroids
}

func lloyd(points, centroids [][]float64, maxIter int, tol float64) *KMeansModel {
	k, dims := len(centroids), len(points[0])
	labels := make([]int, len(points))
	model := &KMeansModel{Centroids: centroids, Labels: labels}

	for iter := 1; iter <= maxIter; iter++ {
		model.Iterations = iter
		for i, p := range points {
			labels[i], _ = model.Predict(p)
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}

		shift := 0.0
		for c := range centroids {
			var next []float64
			if counts[c] == 0 {
				next = clone(points[farthestPoint(points, labels, centroids)])
			} else {
				next = sums[c]
				floats.Scale(1/float64(counts[c]), next)
			}
			shift += floats.Distance(next, centroids[c], 2)
			centroids[c] = next
		}
		if shift <= tol {
			break
		}
	}

	for i, p := range points {
		var d float64
		labels[i], d = model.Predict(p)
		model.Inertia += d * d
	}
	return model
}

func farthestPoint(points [][]float64, labels []int, centroids [][]float64) int {
	idx, far := 0, -1.0
	for i, p := range points {
		if d := floats.Distance(p, centroids[labels[i]], 2); d > far {
			idx, far = i, d
		}
	}
	return idx
}

// Silhouette returns the mean silhouette coefficient of a partition. It reports
// ok=false when the score is undefined, i.e. fewer than two clusters are populated
// or every point is its own cluster.
func Silhouette(points [][]float64, labels []int) (float64, bool) {
	n := len(points)
	clusters := map[int]int{}
	for _, l := range labels {
		clusters[l]++
	}
	if len(clusters) < 2 || len(clusters) >= n {
		return 0, false
	}

	total := 0.0
	for i := range points {
		if clusters[labels[i]] == 1 {
			continue
		}
		sums := map[int]float64{}
		for j := range points {
			if i != j {
				sums[labels[j]] += floats.Distance(points[i], points[j], 2)
			}
		}
		a := sums[labels[i]] / float64(clusters[labels[i]]-1)
		b := math.Inf(1)
		for l, size := range clusters {
			if l != labels[i] {
				b = math.Min(b, sums[l]/float64(size))
			}
		}
		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n), true
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
