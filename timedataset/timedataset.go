// Package timedataset holds validated daily price series keyed by date along with helpers
// to simulate series for tests and benchmarks.
package timedataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidSeries    = errors.New("invalid price series")
	ErrInsufficientData = errors.New("insufficient data")

	ErrNoTrainingData     = errors.New("no training data")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrCannotInferFreq    = errors.New("cannot infer frequency from time slice")

	ErrNonMontonic  = fmt.Errorf("time feature is not monotonic, %w", ErrInvalidSeries)
	ErrNonFinite    = fmt.Errorf("price is not finite, %w", ErrInvalidSeries)
	ErrNonPositive  = fmt.Errorf("price is not positive, %w", ErrInvalidSeries)
	ErrAssetExists  = errors.New("asset already exists in store")
	ErrUnknownAsset = errors.New("unknown asset")
)

// TimeDataset represents a price series storing a slice of dates and prices.
// Both must be of the same length, dates are strictly increasing and prices are finite
// and positive.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// NewUnivariateDataset returns a validated copy of the input dates and prices. Invalid input
// is rejected rather than repaired.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, fmt.Errorf("%w, %w", ErrNoTrainingData, ErrInvalidSeries)
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w, %w",
			len(t), len(y), ErrDatasetLenMismatch, ErrInvalidSeries,
		)
	}

	var lastT time.Time
	for i := 0; i < len(t); i++ {
		currT := t[i]
		if i > 0 && !currT.After(lastT) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
		lastT = currT

		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, fmt.Errorf("value %v at %d, %w", y[i], i, ErrNonFinite)
		}
		if y[i] <= 0 {
			return nil, fmt.Errorf("value %v at %d, %w", y[i], i, ErrNonPositive)
		}
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(t))
	copy(tSeries, t)
	copy(ySeries, y)
	td := &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}

	return td, nil
}

// Copy returns a deep copy of the dataset
func (td *TimeDataset) Copy() *TimeDataset {
	if td == nil {
		return nil
	}
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.T))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// Len returns the number of observations
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.T)
}

// StartTime returns the first date of the dataset
func (td *TimeDataset) StartTime() time.Time {
	if td == nil {
		return time.Time{}
	}
	return TimeSlice(td.T).StartTime()
}

// EndTime returns the last observed date of the dataset
func (td *TimeDataset) EndTime() time.Time {
	if td == nil {
		return time.Time{}
	}
	return TimeSlice(td.T).EndTime()
}

// Index returns the position of the given date in the dataset
func (td *TimeDataset) Index(t time.Time) (int, bool) {
	if td == nil {
		return -1, false
	}
	lo, hi := 0, len(td.T)
	for lo < hi {
		mid := (lo + hi) / 2
		if td.T[mid].Before(t) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(td.T) && td.T[lo].Equal(t) {
		return lo, true
	}
	return -1, false
}

// DropNan returns a new dataset without any observations that are NaN. This is meant to
// be used by ingestion before validation and is never applied by the detectors.
func (td *TimeDataset) DropNan() *TimeDataset {
	if td == nil {
		return nil
	}

	res := &TimeDataset{
		T: make([]time.Time, 0, len(td.T)),
		Y: make([]float64, 0, len(td.Y)),
	}
	for i := 0; i < len(td.T); i++ {
		if math.IsNaN(td.Y[i]) {
			continue
		}
		res.T = append(res.T, td.T[i])
		res.Y = append(res.Y, td.Y[i])
	}
	return res
}
