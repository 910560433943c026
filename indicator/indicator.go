// Package indicator computes the technical indicators of a daily price series used as features by
// the outlier detector
package indicator

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/aouyang1/go-priceanomaly/timedataset"
)

const (
	DefaultSMAWindow       = 20
	DefaultEMAWindow       = 20
	DefaultRSIWindow       = 14
	DefaultBollingerWindow = 20
	DefaultBollingerK      = 2.0

	// RSINeutral is reported for a window with neither gains nor losses
	RSINeutral = 50.0
	// RSIMax is reported for a window with gains and no losses
	RSIMax = 100.0
)

var (
	ErrInvalidWindow     = errors.New("indicator window must be positive")
	ErrInvalidBollingerK = errors.New("bollinger band multiplier must be positive")
)

// SMA returns the simple moving average over the last n prices inclusive of the current price
func SMA(y []float64, n int) []float64 {
	return NewRolling(y).Mean(n)
}

// EMA returns the exponential moving average seeded by the first price
func EMA(y []float64, n int) []float64 {
	return NewRolling(y).EMA(n)
}

// RSI returns the relative strength index using the simple average of gains and losses over the
// last n price changes. The first n positions are NaN. A window without losses is 100 when it has
// gains and 50 when the price did not move at all.
func RSI(y []float64, n int) []float64 {
	delta := NewRolling(y).Delta()
	gains := make([]float64, len(delta))
	losses := make([]float64, len(delta))
	for i, d := range delta {
		if math.IsNaN(d) {
			gains[i], losses[i] = d, d
			continue
		}
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}

	avgGain := NewRolling(gains).Mean(n)
	avgLoss := NewRolling(losses).Mean(n)

	res := nanSlice(len(y))
	for i := range res {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		switch {
		case l == 0 && g == 0:
			res[i] = RSINeutral
		case l == 0:
			res[i] = RSIMax
		default:
			res[i] = 100.0 - 100.0/(1.0+g/l)
		}
	}
	return res
}

// Bollinger returns the middle, upper and lower bands where the bands sit k sample standard
// deviations away from the n point simple moving average
func Bollinger(y []float64, n int, k float64) ([]float64, []float64, []float64) {
	middle, std := NewRolling(y).MeanStdDev(n)
	upper := make([]float64, len(y))
	lower := make([]float64, len(y))
	for i := range y {
		upper[i] = middle[i] + k*std[i]
		lower[i] = middle[i] - k*std[i]
	}
	return middle, upper, lower
}

// Options configures the indicator windows
type Options struct {
	SMAWindow       int     `json:"sma_window"`
	EMAWindow       int     `json:"ema_window"`
	RSIWindow       int     `json:"rsi_window"`
	BollingerWindow int     `json:"bollinger_window"`
	BollingerK      float64 `json:"bollinger_k"`
}

// NewDefaultOptions returns SMA(20), EMA(20), RSI(14) and 2 sigma Bollinger(20)
func NewDefaultOptions() *Options {
	return &Options{
		SMAWindow:       DefaultSMAWindow,
		EMAWindow:       DefaultEMAWindow,
		RSIWindow:       DefaultRSIWindow,
		BollingerWindow: DefaultBollingerWindow,
		BollingerK:      DefaultBollingerK,
	}
}

// Validate returns the default options when nil and otherwise checks every window
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	windows := []struct {
		name string
		size int
	}{
		{"sma", o.SMAWindow},
		{"ema", o.EMAWindow},
		{"rsi", o.RSIWindow},
		{"bollinger", o.BollingerWindow},
	}
	for _, w := range windows {
		if w.size <= 0 {
			return nil, fmt.Errorf("%s window of %d, %w", w.name, w.size, ErrInvalidWindow)
		}
	}
	if o.BollingerWindow < 2 {
		return nil, fmt.Errorf("bollinger window needs at least 2 points for a standard deviation, %w", ErrInvalidWindow)
	}
	if o.BollingerK <= 0 || math.IsNaN(o.BollingerK) {
		return nil, fmt.Errorf("got %.3f, %w", o.BollingerK, ErrInvalidBollingerK)
	}
	res := *o
	return &res, nil
}

// WarmUp returns the number of prices needed before every indicator is defined. RSI needs one
// extra price since it averages price changes.
func (o *Options) WarmUp() int {
	return max(o.SMAWindow, o.BollingerWindow, o.RSIWindow+1)
}

// Row holds every indicator for a single date
type Row struct {
	T              time.Time `json:"date"`
	Price          float64   `json:"price"`
	SMA            float64   `json:"sma"`
	EMA            float64   `json:"ema"`
	RSI            float64   `json:"rsi"`
	BollingerUpper float64   `json:"bollinger_upper"`
	BollingerLower float64   `json:"bollinger_lower"`
}

func (r Row) complete() bool {
	for _, v := range []float64{r.Price, r.SMA, r.EMA, r.RSI, r.BollingerUpper, r.BollingerLower} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Compute derives every indicator over the price series and drops the leading rows where any
// window is not yet populated. The result has one row per date from the end of the warm up.
func Compute(ds *timedataset.TimeDataset, opt *Options) (Rows, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid indicator options, %w", err)
	}
	if ds == nil {
		return nil, fmt.Errorf("no price series, %w", timedataset.ErrInvalidSeries)
	}
	ds, err = timedataset.NewUnivariateDataset(ds.T, ds.Y)
	if err != nil {
		return nil, fmt.Errorf("unable to compute indicators, %w", err)
	}

	if warmUp := opt.WarmUp(); ds.Len() < warmUp {
		return nil, fmt.Errorf(
			"got %d prices but indicators need %d, %w",
			ds.Len(), warmUp, timedataset.ErrInsufficientData,
		)
	}

	sma := SMA(ds.Y, opt.SMAWindow)
	ema := EMA(ds.Y, opt.EMAWindow)
	rsi := RSI(ds.Y, opt.RSIWindow)
	_, upper, lower := Bollinger(ds.Y, opt.BollingerWindow, opt.BollingerK)

	rows := make(Rows, 0, ds.Len()-opt.WarmUp()+1)
	for i, t := range ds.T {
		row := Row{
			T:              t,
			Price:          ds.Y[i],
			SMA:            sma[i],
			EMA:            ema[i],
			RSI:            rsi[i],
			BollingerUpper: upper[i],
			BollingerLower: lower[i],
		}
		if !row.complete() {
			continue
		}
		rows = append(rows, row)
	}
	return slices.Clip(rows), nil
}
