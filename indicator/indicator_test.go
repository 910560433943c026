package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1/go-priceanomaly/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSeries(t *testing.T, expected, actual []float64, msg string) {
	t.Helper()
	require.Len(t, actual, len(expected), msg)
	for i := range expected {
		if math.IsNaN(expected[i]) {
			assert.True(t, math.IsNaN(actual[i]), "%s: expected NaN at %d, got %.5f", msg, i, actual[i])
			continue
		}
		assert.InDelta(t, expected[i], actual[i], 1e-9, "%s: at %d", msg, i)
	}
}

func newDataset(t *testing.T, y []float64) *timedataset.TimeDataset {
	t.Helper()
	ds, err := timedataset.NewUnivariateDataset(
		timedataset.GenerateDailyT(len(y), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		y,
	)
	require.Nil(t, err)
	return ds
}

func TestRolling(t *testing.T) {
	nan := math.NaN()
	r := NewRolling([]float64{1, 2, 3, 4, 5})

	testData := map[string]struct {
		res      []float64
		expected []float64
	}{
		"mean":             {r.Mean(3), []float64{nan, nan, 2, 3, 4}},
		"mean full window": {r.Mean(5), []float64{nan, nan, nan, nan, 3}},
		"mean too long":    {r.Mean(6), []float64{nan, nan, nan, nan, nan}},
		"mean zero window": {r.Mean(0), []float64{nan, nan, nan, nan, nan}},
		"stddev":           {r.StdDev(3), []float64{nan, nan, 1, 1, 1}},
		"stddev single":    {r.StdDev(1), []float64{nan, nan, nan, nan, nan}},
		"ema":              {r.EMA(3), []float64{1, 1.5, 2.25, 3.125, 4.0625}},
		"delta":            {r.Delta(), []float64{nan, 1, 1, 1, 1}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assertSeries(t, td.expected, td.res, name)
		})
	}
}

func TestRollingMeanStdDev(t *testing.T) {
	nan := math.NaN()
	r := NewRolling([]float64{1, 2, 3, 4, 5})
	mean, std := r.MeanStdDev(3)
	assertSeries(t, r.Mean(3), mean, "mean")
	assertSeries(t, r.StdDev(3), std, "std")

	mean, std = r.MeanStdDev(1)
	assertSeries(t, []float64{1, 2, 3, 4, 5}, mean, "single mean")
	assertSeries(t, []float64{nan, nan, nan, nan, nan}, std, "single std")
}

func TestRSI(t *testing.T) {
	nan := math.NaN()

	const n = 30
	rising := timedataset.GenerateLinearY(n, 1).Add(timedataset.GenerateConstY(n, 1))
	flat := timedataset.GenerateConstY(n, 42.5)

	risingExp := make([]float64, n)
	flatExp := make([]float64, n)
	for i := range risingExp {
		risingExp[i], flatExp[i] = nan, nan
		if i >= DefaultRSIWindow {
			risingExp[i], flatExp[i] = RSIMax, RSINeutral
		}
	}

	testData := map[string]struct {
		y        []float64
		n        int
		expected []float64
	}{
		"alternating": {
			y:        []float64{10, 11, 10, 12, 11},
			n:        2,
			expected: []float64{nan, nan, 50, 100 - 100.0/3, 100 - 100.0/3},
		},
		"only losses": {
			y:        []float64{5, 4, 3, 2},
			n:        2,
			expected: []float64{nan, nan, 0, 0},
		},
		"rising": {
			y:        rising,
			n:        DefaultRSIWindow,
			expected: risingExp,
		},
		"flat": {
			y:        flat,
			n:        DefaultRSIWindow,
			expected: flatExp,
		},
		"too short": {
			y:        []float64{1, 2},
			n:        2,
			expected: []float64{nan, nan},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assertSeries(t, td.expected, RSI(td.y, td.n), "rsi")
		})
	}
}

func TestBollinger(t *testing.T) {
	nan := math.NaN()
	middle, upper, lower := Bollinger([]float64{1, 2, 3, 5}, 3, 2)
	assertSeries(t, []float64{nan, nan, 2, 10.0 / 3}, middle, "middle")

	std := math.Sqrt(7.0 / 3.0)
	assertSeries(t, []float64{nan, nan, 4, 10.0/3 + 2*std}, upper, "upper")
	assertSeries(t, []float64{nan, nan, 0, 10.0/3 - 2*std}, lower, "lower")
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		err error
	}{
		"nil is default": {},
		"zero sma":       {opt: &Options{EMAWindow: 20, RSIWindow: 14, BollingerWindow: 20, BollingerK: 2}, err: ErrInvalidWindow},
		"negative rsi":   {opt: &Options{SMAWindow: 20, EMAWindow: 20, RSIWindow: -1, BollingerWindow: 20, BollingerK: 2}, err: ErrInvalidWindow},
		"single point bollinger": {
			opt: &Options{SMAWindow: 20, EMAWindow: 20, RSIWindow: 14, BollingerWindow: 1, BollingerK: 2},
			err: ErrInvalidWindow,
		},
		"zero k": {
			opt: &Options{SMAWindow: 20, EMAWindow: 20, RSIWindow: 14, BollingerWindow: 20},
			err: ErrInvalidBollingerK,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, NewDefaultOptions(), opt)
			assert.Equal(t, 20, opt.WarmUp())
		})
	}
}

func TestComputeConstant(t *testing.T) {
	const price = 42.5
	rows, err := Compute(newDataset(t, timedataset.GenerateConstY(30, price)), nil)
	require.Nil(t, err)
	require.Len(t, rows, 11)

	for _, row := range rows {
		assert.InDelta(t, price, row.Price, 1e-9)
		assert.InDelta(t, price, row.SMA, 1e-9)
		assert.InDelta(t, price, row.EMA, 1e-9)
		assert.InDelta(t, price, row.BollingerUpper, 1e-9)
		assert.InDelta(t, price, row.BollingerLower, 1e-9)
		assert.Equal(t, RSINeutral, row.RSI)
	}
}

func TestComputeRowCount(t *testing.T) {
	testData := map[string]struct {
		n       int
		opt     *Options
		expRows int
		err     error
	}{
		"exactly warm up": {n: 20, expRows: 1},
		"hundred days":    {n: 100, expRows: 81},
		"one short":       {n: 19, err: timedataset.ErrInsufficientData},
		"long rsi window": {
			n:       100,
			opt:     &Options{SMAWindow: 20, EMAWindow: 20, RSIWindow: 25, BollingerWindow: 20, BollingerK: 2},
			expRows: 75,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			y := timedataset.GenerateWaveY(
				timedataset.GenerateDailyT(td.n, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
				5, 7*86400, 1, 0,
			).Add(timedataset.GenerateConstY(td.n, 100))
			ds := newDataset(t, y)

			rows, err := Compute(ds, td.opt)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			require.Len(t, rows, td.expRows)

			opt, err := td.opt.Validate()
			require.Nil(t, err)
			assert.Equal(t, ds.T[opt.WarmUp()-1], rows[0].T, "first row date")
			assert.Equal(t, ds.EndTime(), rows[len(rows)-1].T, "last row date")
			for _, row := range rows {
				assert.True(t, row.complete(), "row at %s", row.T)
				assert.GreaterOrEqual(t, row.RSI, 0.0)
				assert.LessOrEqual(t, row.RSI, 100.0)
				assert.GreaterOrEqual(t, row.BollingerUpper, row.BollingerLower)
			}
		})
	}
}

func TestComputeInvalid(t *testing.T) {
	_, err := Compute(nil, nil)
	assert.ErrorIs(t, err, timedataset.ErrInvalidSeries)

	ds := &timedataset.TimeDataset{
		T: timedataset.GenerateDailyT(3, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Y: []float64{1, -2, 3},
	}
	_, err = Compute(ds, nil)
	assert.ErrorIs(t, err, timedataset.ErrInvalidSeries)

	_, err = Compute(newDataset(t, timedataset.GenerateConstY(30, 1)), &Options{})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
