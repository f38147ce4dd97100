package stats

import (
	"fmt"
	"math"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic accumulates a running mean and spread in constant space, using
// Welford's algorithm.
type Statistic struct {
	count int
	mean  float64
	// sum of squared deviations from the mean
	sdm float64
	min float64
	max float64
}

func (s *Statistic) Push(val float64) {
	s.count++
	delta := val - s.mean
	s.mean += delta / float64(s.count)
	s.sdm += delta * (val - s.mean)
	if s.count == 1 || val < s.min {
		s.min = val
	}
	if s.count == 1 || val > s.max {
		s.max = val
	}
}

func (s *Statistic) Mean() float64 {
	return s.mean
}

// Variance is the sample variance.
func (s *Statistic) Variance() float64 {
	if s.count <= 1 {
		return 0.0
	}
	return s.sdm / float64(s.count-1)
}

func (s *Statistic) PopulationVariance() float64 {
	if s.count == 0 {
		return 0.0
	}
	return s.sdm / float64(s.count)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) PopulationStdev() float64 {
	return math.Sqrt(s.PopulationVariance())
}

// StandardError returns the standard error of the mean.
func (s *Statistic) StandardError() float64 {
	if s.count == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.count))
}

func (s *Statistic) Iterations() int {
	return s.count
}

func (s *Statistic) Min() float64 {
	return s.min
}

func (s *Statistic) Max() float64 {
	return s.max
}

// String formats the statistic as "mean ± sd".
func (s *Statistic) String() string {
	return fmt.Sprintf("%.2f ± %.2f", s.Mean(), s.Stdev())
}
