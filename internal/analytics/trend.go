package analytics

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/irfndi/bovara-ml/internal/models"
)

// MinTrendObservations is the number of weighings a trend fit needs
const MinTrendObservations = 3

// Trend is a least-squares polynomial of weight against day offset from Origin
type Trend struct {
	Degree     int
	Coeffs     []float64
	RSquared   float64
	Origin     time.Time
	LastOffset int
}

// FitTrend fits a degree 1 or 2 polynomial to an ascending weight series
func FitTrend(sorted []models.WeightObservation, degree int) (*Trend, error) {
	if len(sorted) < MinTrendObservations {
		return nil, fmt.Errorf("%w: %d observations, need %d", ErrDegenerateInput, len(sorted), MinTrendObservations)
	}
	if degree != 1 && degree != 2 {
		return nil, fmt.Errorf("unsupported trend degree %d", degree)
	}

	origin := models.DateOnly(sorted[0].Date)
	xs := make([]float64, len(sorted))
	ys := make([]float64, len(sorted))
	for i, o := range sorted {
		xs[i] = float64(models.DaysBetween(origin, o.Date))
		ys[i] = o.WeightKg
	}

	var coeffs []float64
	if degree == 1 {
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		coeffs = []float64{alpha, beta}
	} else {
		var err error
		if coeffs, err = fitQuadratic(xs, ys); err != nil {
			return nil, err
		}
	}
	for _, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: regression coefficients are not finite", ErrDegenerateInput)
		}
	}

	t := &Trend{
		Degree:     degree,
		Coeffs:     coeffs,
		Origin:     origin,
		LastOffset: int(xs[len(xs)-1]),
	}
	t.RSquared = t.rSquared(xs, ys)
	return t, nil
}

func fitQuadratic(xs, ys []float64) ([]float64, error) {
	a := mat.NewDense(len(xs), 3, nil)
	for i, x := range xs {
		a.Set(i, 0, 1)
		a.Set(i, 1, x)
		a.Set(i, 2, x*x)
	}
	var c mat.VecDense
	if err := c.SolveVec(a, mat.NewVecDense(len(ys), ys)); err != nil {
		return nil, fmt.Errorf("%w: quadratic least squares: %v", ErrDegenerateInput, err)
	}
	return []float64{c.AtVec(0), c.AtVec(1), c.AtVec(2)}, nil
}

// rSquared is 1 - SSres/SStot. A constant series is fitted perfectly or not at all.
func (t *Trend) rSquared(xs, ys []float64) float64 {
	mean := stat.Mean(ys, nil)
	var ssRes, ssTot float64
	for i, x := range xs {
		r := ys[i] - t.At(x)
		d := ys[i] - mean
		ssRes += r * r
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes < 1e-9 {
			return 1
		}
		return 0
	}
	return models.ClampConfidence(1 - ssRes/ssTot)
}

// At evaluates the trend at a day offset from Origin
func (t *Trend) At(offset float64) float64 {
	v, p := 0.0, 1.0
	for _, c := range t.Coeffs {
		v += c * p
		p *= offset
	}
	return v
}

// Slope is the derivative of the trend at a day offset
func (t *Trend) Slope(offset float64) float64 {
	if len(t.Coeffs) < 2 {
		return 0
	}
	s := t.Coeffs[1]
	if len(t.Coeffs) > 2 {
		s += 2 * t.Coeffs[2] * offset
	}
	return s
}

// DateAt converts a day offset back to a calendar date
func (t *Trend) DateAt(offset int) time.Time {
	return models.AddDays(t.Origin, offset)
}
