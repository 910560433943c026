package forecaster

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-priceanomaly/stats"
)

const (
	DefaultDeviationK = 2.0

	// relativeStdFloor treats a deviation spread this small relative to the price scale as a
	// perfect fit with nothing to flag
	relativeStdFloor = 1e-9
)

var (
	ErrDeviationLenMismatch = errors.New("dates, actual and forecast must have the same length")
	ErrInvalidDeviationK    = errors.New("deviation multiplier must be positive")
)

// Deviation is the signed difference between the observed and forecast price at a date
type Deviation struct {
	T         time.Time `json:"date"`
	Actual    float64   `json:"actual"`
	Forecast  float64   `json:"forecast"`
	Deviation float64   `json:"deviation"`
	Anomaly   bool      `json:"anomaly"`
}

// DeviationResult holds every deviation with the single threshold used to flag them
type DeviationResult struct {
	StdDev    float64     `json:"std_dev"`
	Threshold float64     `json:"threshold"`
	Points    []Deviation `json:"points"`
}

// Deviations flags every date whose absolute deviation from the forecast is strictly greater than
// k times the sample standard deviation of all deviations. One threshold applies to the whole
// history.
func Deviations(t []time.Time, actual, forecast []float64, k float64) (*DeviationResult, error) {
	if len(t) != len(actual) || len(t) != len(forecast) {
		return nil, fmt.Errorf("got %d dates, %d actual and %d forecast, %w", len(t), len(actual), len(forecast), ErrDeviationLenMismatch)
	}
	if k <= 0 || math.IsNaN(k) {
		return nil, fmt.Errorf("got %.3f, %w", k, ErrInvalidDeviationK)
	}

	devs := make([]float64, len(t))
	for i := range t {
		devs[i] = actual[i] - forecast[i]
	}

	std := stats.StdDevIgnoreNaN(devs)
	res := &DeviationResult{
		StdDev:    std,
		Threshold: k * std,
		Points:    make([]Deviation, len(t)),
	}

	flag := std > relativeStdFloor*stats.MeanAbsIgnoreNaN(actual)
	for i := range t {
		res.Points[i] = Deviation{
			T:         t[i],
			Actual:    actual[i],
			Forecast:  forecast[i],
			Deviation: devs[i],
			Anomaly:   flag && math.Abs(devs[i]) > res.Threshold,
		}
	}
	return res, nil
}

// Dates returns the flagged dates in order
func (r *DeviationResult) Dates() []time.Time {
	if r == nil {
		return nil
	}
	var dates []time.Time
	for _, p := range r.Points {
		if p.Anomaly {
			dates = append(dates, p.T)
		}
	}
	return dates
}
