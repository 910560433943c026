package indicator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Rolling evaluates trailing window statistics over a series. Every window ends at and includes
// the current point with no centering. Positions without a full window are NaN.
type Rolling struct {
	y []float64
}

// NewRolling wraps the series. The series is not copied and must not be modified while in use.
func NewRolling(y []float64) Rolling {
	return Rolling{y: y}
}

// Len returns the length of the underlying series
func (r Rolling) Len() int {
	return len(r.y)
}

func (r Rolling) apply(n int, fn func(window []float64) float64) []float64 {
	res := nanSlice(len(r.y))
	if n <= 0 {
		return res
	}
	for i := n - 1; i < len(r.y); i++ {
		res[i] = fn(r.y[i-n+1 : i+1])
	}
	return res
}

// Mean returns the trailing arithmetic mean over n points
func (r Rolling) Mean(n int) []float64 {
	return r.apply(n, func(window []float64) float64 {
		return stat.Mean(window, nil)
	})
}

// StdDev returns the trailing sample standard deviation over n points. A window of a single point
// has no spread and is NaN.
func (r Rolling) StdDev(n int) []float64 {
	if n < 2 {
		return nanSlice(len(r.y))
	}
	return r.apply(n, func(window []float64) float64 {
		_, std := stat.MeanStdDev(window, nil)
		return std
	})
}

// MeanStdDev returns the trailing mean and sample standard deviation over n points evaluated on
// the same windows
func (r Rolling) MeanStdDev(n int) ([]float64, []float64) {
	mean := nanSlice(len(r.y))
	std := nanSlice(len(r.y))
	if n < 2 {
		return r.Mean(n), std
	}
	for i := n - 1; i < len(r.y); i++ {
		mean[i], std[i] = stat.MeanStdDev(r.y[i-n+1:i+1], nil)
	}
	return mean, std
}

// EMA returns the exponential moving average with smoothing factor 2/(n+1). The recurrence is
// seeded with the first value and carries no bias adjustment so every position is defined.
func (r Rolling) EMA(n int) []float64 {
	res := nanSlice(len(r.y))
	if n <= 0 || len(r.y) == 0 {
		return res
	}
	alpha := 2.0 / float64(n+1)
	res[0] = r.y[0]
	for i := 1; i < len(r.y); i++ {
		res[i] = alpha*r.y[i] + (1-alpha)*res[i-1]
	}
	return res
}

// Delta returns the difference to the previous point. The first position is NaN.
func (r Rolling) Delta() []float64 {
	res := nanSlice(len(r.y))
	for i := 1; i < len(r.y); i++ {
		res[i] = r.y[i] - r.y[i-1]
	}
	return res
}

func nanSlice(n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = math.NaN()
	}
	return res
}
