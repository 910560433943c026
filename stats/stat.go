// Package stats contains the residual statistics shared by the forecast deviation detector
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DetectOutliers returns the indices of values outside of the Tukey fences built from the
// lower and upper percentiles. NaNs are never reported. A zero inner range reports nothing
// since every point would otherwise sit on a fence.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := DropNaN(y)
	if len(yCopy) == 0 || lowerPerc >= upperPerc {
		return nil
	}
	sort.Float64s(yCopy)
	lowerIdx := int(math.Floor(float64(len(yCopy)-1) * lowerPerc))
	upperIdx := int(math.Ceil(float64(len(yCopy)-1) * upperPerc))

	lower := yCopy[lowerIdx]
	upper := yCopy[upperIdx]
	innerRange := upper - lower
	if innerRange <= 0 {
		return nil
	}
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if math.IsNaN(y[i]) {
			continue
		}
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// DropNaN returns a copy of y without NaNs
func DropNaN(y []float64) []float64 {
	res := make([]float64, 0, len(y))
	for _, v := range y {
		if math.IsNaN(v) {
			continue
		}
		res = append(res, v)
	}
	return res
}

// StdDevIgnoreNaN returns the sample standard deviation of all non NaN values. Fewer than
// two values returns 0.
func StdDevIgnoreNaN(y []float64) float64 {
	vals := DropNaN(y)
	if len(vals) < 2 {
		return 0
	}
	return stat.StdDev(vals, nil)
}

// MeanAbsIgnoreNaN returns the mean of the absolute value of all non NaN values
func MeanAbsIgnoreNaN(y []float64) float64 {
	var sum float64
	var cnt int
	for _, v := range y {
		if math.IsNaN(v) {
			continue
		}
		sum += math.Abs(v)
		cnt++
	}
	if cnt == 0 {
		return 0
	}
	return sum / float64(cnt)
}
