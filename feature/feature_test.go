package feature

import (
	"math"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureString(t *testing.T) {
	testData := map[string]struct {
		feat     Feature
		expected string
		expType  FeatureType
	}{
		"changepoint bias": {
			feat:     NewChangepoint("auto_03", ChangepointCompBias),
			expected: "chpnt_auto_03_bias",
			expType:  FeatureTypeChangepoint,
		},
		"changepoint slope": {
			feat:     NewChangepoint("auto_03", ChangepointCompSlope),
			expected: "chpnt_auto_03_slope",
			expType:  FeatureTypeChangepoint,
		},
		"seasonality": {
			feat:     NewSeasonality("weekly", FourierCompSin, 2),
			expected: "seas_weekly_02_sin",
			expType:  FeatureTypeSeasonality,
		},
		"growth": {
			feat:     Linear(),
			expected: "growth_linear",
			expType:  FeatureTypeGrowth,
		},
		"time": {
			feat:     NewTime("epoch"),
			expected: "tfeat_epoch",
			expType:  FeatureTypeTime,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, td.feat.String())
			assert.Equal(t, td.expType, td.feat.Type())
		})
	}
}

func TestFeatureGet(t *testing.T) {
	feat := NewSeasonality("yearly", FourierCompCos, 3)

	testData := map[string]struct {
		label     string
		expVal    string
		expExists bool
	}{
		"unknown":     {label: "unknown"},
		"capitalized": {label: "NAME", expVal: "yearly", expExists: true},
		"fourier":     {label: "fourier_component", expVal: "cos", expExists: true},
		"order":       {label: "order", expVal: "3", expExists: true},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			val, exists := feat.Get(td.label)
			assert.Equal(t, td.expExists, exists, "exists")
			assert.Equal(t, td.expVal, val, "value")
		})
	}
}

func TestFeatureUnmarshalJSON(t *testing.T) {
	t.Run("changepoint", func(t *testing.T) {
		feat := NewChangepoint("auto_01", ChangepointCompSlope)
		out, err := json.Marshal(feat.Decode())
		require.NoError(t, err)

		var next Changepoint
		require.NoError(t, json.Unmarshal(out, &next))
		assert.Equal(t, feat, &next)
	})

	t.Run("seasonality", func(t *testing.T) {
		feat := NewSeasonality("weekly", FourierCompSin, 1)
		out, err := json.Marshal(feat.Decode())
		require.NoError(t, err)

		var next Seasonality
		require.NoError(t, json.Unmarshal(out, &next))
		assert.Equal(t, feat, &next)
	})

	t.Run("seasonality bad order", func(t *testing.T) {
		var next Seasonality
		err := json.Unmarshal([]byte(`{"name":"weekly","fourier_component":"sin","order":"x"}`), &next)
		assert.Error(t, err)
	})

	t.Run("growth", func(t *testing.T) {
		feat := Quadratic()
		out, err := json.Marshal(feat.Decode())
		require.NoError(t, err)

		var next Growth
		require.NoError(t, json.Unmarshal(out, &next))
		assert.Equal(t, feat, &next)
	})
}

func TestSeasonalityGenerate(t *testing.T) {
	period := 4.0
	epoch := []float64{0, 1, 2, 3}

	sin := NewSeasonality("test", FourierCompSin, 1).Generate(epoch, period)
	cos := NewSeasonality("test", FourierCompCos, 1).Generate(epoch, period)

	expSin := []float64{0, 1, 0, -1}
	expCos := []float64{1, 0, -1, 0}
	for i := range epoch {
		assert.InDelta(t, expSin[i], sin[i], 1e-12, "sin %d", i)
		assert.InDelta(t, expCos[i], cos[i], 1e-12, "cos %d", i)
	}
}

func TestGrowthGenerate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)
	tSeries := []time.Time{start, start.AddDate(0, 0, 2), end, start.AddDate(0, 0, 8)}
	epoch := NewTime("epoch").Generate(tSeries)

	assert.Equal(t, []float64{0, 0.5, 1, 2}, Linear().Generate(epoch, start, end))
	assert.Equal(t, []float64{0, 0.25, 1, 4}, Quadratic().Generate(epoch, start, end))
	assert.Equal(t, []float64{0, 0, 0, 0}, Linear().Generate(epoch, start, start))
}

func TestTimeGenerate(t *testing.T) {
	tSeries := []time.Time{
		time.Unix(0, 0),
		time.Unix(86400, 0),
	}
	assert.Equal(t, []float64{0, 86400}, NewTime("epoch").Generate(tSeries))
	assert.Equal(t, []float64{}, NewTime("epoch").Generate(nil))
	assert.False(t, math.IsNaN(NewTime("epoch").Generate(tSeries)[1]))
}
