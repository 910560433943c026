package outlier

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1/go-priceanomaly/indicator"
	"github.com/aouyang1/go-priceanomaly/isolation"
	"github.com/aouyang1/go-priceanomaly/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indicatorRows(t *testing.T, y []float64) indicator.Rows {
	t.Helper()
	ds, err := timedataset.NewUnivariateDataset(
		timedataset.GenerateDailyT(len(y), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		y,
	)
	require.Nil(t, err)
	rows, err := indicator.Compute(ds, nil)
	require.Nil(t, err)
	return rows
}

func noisySeries(n int) []float64 {
	return timedataset.GenerateConstY(n, 100).
		Add(timedataset.GenerateLinearY(n, 0.2)).
		Add(timedataset.GenerateNoise(n, 1.0, timedataset.NewRand(5)))
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		err error
	}{
		"nil is default": {},
		"empty fills defaults": {
			opt: &Options{},
		},
		"unknown feature": {
			opt: &Options{FeatureSet: indicator.FeatureSet{"volume"}},
			err: indicator.ErrUnknownFeature,
		},
		"invalid forest": {
			opt: &Options{Forest: &isolation.Options{NumTrees: 10, SampleSize: 10, Contamination: 0.9}},
			err: isolation.ErrContamination,
		},
		"negative min rows": {
			opt: &Options{MinRows: -1},
			err: ErrInvalidMinRows,
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
			assert.Equal(t, indicator.FeatureSetBasic(), opt.FeatureSet)
			assert.Equal(t, DefaultMinRows, opt.MinRows)
			assert.Equal(t, 0.05, opt.Forest.Contamination)
			assert.Greater(t, opt.Forest.Parallelization, 0)
		})
	}
}

func TestFitPredict(t *testing.T) {
	testData := map[string]struct {
		featureSet indicator.FeatureSet
	}{
		"basic":    {indicator.FeatureSetBasic()},
		"extended": {indicator.FeatureSetExtended()},
	}

	rows := indicatorRows(t, noisySeries(100))
	require.Len(t, rows, 81)

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			d, err := New(&Options{FeatureSet: td.featureSet})
			require.Nil(t, err)

			labels, err := d.FitPredict(rows)
			require.Nil(t, err)
			require.Len(t, labels, len(rows))

			for i, l := range labels {
				assert.Equal(t, rows[i].T, l.T)
			}
			expected := int(math.Round(0.05 * float64(len(rows))))
			assert.InDelta(t, expected, len(labels.Dates()), 1)

			again, err := d.FitPredict(rows)
			require.Nil(t, err)
			assert.Equal(t, labels, again, "deterministic")
		})
	}
}

func TestFitPredictFlat(t *testing.T) {
	d, err := New(nil)
	require.Nil(t, err)
	assert.Greater(t, d.Options().Forest.Parallelization, 0)

	labels, err := d.FitPredict(indicatorRows(t, timedataset.GenerateConstY(100, 42.5)))
	require.Nil(t, err)
	assert.Empty(t, labels.Dates())
}

func TestFitPredictInsufficientRows(t *testing.T) {
	d, err := New(nil)
	require.Nil(t, err)

	rows := indicatorRows(t, noisySeries(70))
	require.Len(t, rows, 51)
	_, err = d.FitPredict(rows)
	assert.ErrorIs(t, err, timedataset.ErrInsufficientData)

	_, err = d.FitPredict(nil)
	assert.ErrorIs(t, err, timedataset.ErrInsufficientData)
}
