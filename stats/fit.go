package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

var ErrTooFewPoints = errors.New("need at least two distinct points")

// Line is a least-squares fit y = Intercept + Slope*x.
type Line struct {
	Intercept   float64 `json:"intercept" yaml:"intercept"`
	Slope       float64 `json:"slope" yaml:"slope"`
	Correlation float64 `json:"correlation" yaml:"correlation"`
	RSquared    float64 `json:"r_squared" yaml:"r_squared"`
}

func (l Line) Predict(x float64) float64 {
	return l.Intercept + l.Slope*x
}

// Fit regresses ys on xs.
func Fit(xs, ys []float64) (Line, error) {
	if len(xs) != len(ys) {
		return Line{}, errors.New("xs and ys differ in length")
	}
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return Line{}, ErrTooFewPoints
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	corr := stat.Correlation(xs, ys, nil)
	if math.IsNaN(corr) {
		// ys is constant; the line fits exactly.
		corr = 0
	}
	return Line{
		Intercept:   alpha,
		Slope:       beta,
		Correlation: corr,
		RSquared:    stat.RSquared(xs, ys, nil, alpha, beta),
	}, nil
}

// MeanAbsoluteError compares the line's predictions with ys.
func (l Line) MeanAbsoluteError(xs, ys []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	total := 0.0
	for i := range xs {
		total += math.Abs(l.Predict(xs[i]) - ys[i])
	}
	return total / float64(len(xs))
}
