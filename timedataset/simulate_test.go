package timedataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateT(t *testing.T) {
	nowFunc := func() time.Time {
		return time.Date(1970, 1, 8, 0, 0, 0, 0, time.UTC)
	}

	numPnts := 7
	res := GenerateT(numPnts, 24*time.Hour, nowFunc)
	assert.Len(t, res, numPnts)

	assert.Equal(t, res[0], time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, res[numPnts-1], time.Date(1970, 1, 7, 0, 0, 0, 0, time.UTC))
}

func TestGenerateBusinessT(t *testing.T) {
	// 2024-01-05 is a Friday
	res := GenerateBusinessT(3, time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC))
	expected := []time.Time{
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, expected, res)
}

func TestSeries(t *testing.T) {
	numPnts := 7
	s := Series(GenerateConstY(numPnts, 1))

	res := s.Add(GenerateConstY(numPnts, 2))
	require.Equal(t, Series([]float64{3, 3, 3, 3, 3, 3, 3}), res)

	nowFunc := func() time.Time {
		return time.Date(1970, 1, 8, 0, 0, 0, 0, time.UTC)
	}

	tSeries := GenerateT(numPnts, 24*time.Hour, nowFunc)
	s.SetConst(tSeries, 2.0,
		time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(1970, 1, 5, 0, 0, 0, 0, time.UTC),
	)
	assert.Equal(t, Series([]float64{3, 3, 2, 2, 3, 3, 3}), s)

	s.AddSpike(6, 10).AddSpike(7, 10)
	assert.Equal(t, Series([]float64{3, 3, 2, 2, 3, 3, 13}), s)

	s.Add(GenerateLinearY(numPnts, 1))
	assert.Equal(t, Series([]float64{3, 4, 4, 5, 7, 8, 19}), s)
}

func TestGenerateNoiseDeterministic(t *testing.T) {
	a := GenerateNoise(50, 2.0, NewRand(7))
	b := GenerateNoise(50, 2.0, NewRand(7))
	c := GenerateNoise(50, 2.0, NewRand(8))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
