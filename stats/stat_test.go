package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectOutliers(t *testing.T) {
	testData := map[string]struct {
		y           []float64
		lowerPerc   float64
		upperPerc   float64
		tukeyFactor float64
		expected    []int
	}{
		"empty": {
			lowerPerc: 0.25, upperPerc: 0.75, tukeyFactor: 1.5,
		},
		"constant": {
			y:         []float64{1, 1, 1, 1, 1, 1},
			lowerPerc: 0.25, upperPerc: 0.75, tukeyFactor: 1.5,
		},
		"single high outlier": {
			y:         []float64{1, 2, 1, 2, 1, 2, 1, 2, 50},
			lowerPerc: 0.25, upperPerc: 0.75, tukeyFactor: 1.5,
			expected:  []int{8},
		},
		"high and low outliers with nan": {
			y:         []float64{-40, 1, 2, math.NaN(), 1, 2, 1, 2, 1, 2, 50},
			lowerPerc: 0.25, upperPerc: 0.75, tukeyFactor: 1.5,
			expected:  []int{0, 10},
		},
		"inverted percentiles": {
			y:         []float64{1, 2, 3, 100},
			lowerPerc: 0.75, upperPerc: 0.25, tukeyFactor: 1.5,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := DetectOutliers(td.y, td.lowerPerc, td.upperPerc, td.tukeyFactor)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestStdDevIgnoreNaN(t *testing.T) {
	testData := map[string]struct {
		y        []float64
		expected float64
	}{
		"empty":        {expected: 0},
		"single value": {y: []float64{3}, expected: 0},
		"with nan":     {y: []float64{2, math.NaN(), 4, 4, 4, 5, 5, 7, 9}, expected: 2.138},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, td.expected, StdDevIgnoreNaN(td.y), 1e-3)
		})
	}
}

func TestMeanAbsIgnoreNaN(t *testing.T) {
	assert.Equal(t, 0.0, MeanAbsIgnoreNaN(nil))
	assert.InDelta(t, 2.0, MeanAbsIgnoreNaN([]float64{-1, math.NaN(), 3}), 1e-9)
}
