package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSet(t *testing.T) {
	s := NewSet()
	growth := Linear()
	sin := NewSeasonality("weekly", FourierCompSin, 1)
	chpnt := NewChangepoint("auto_00", ChangepointCompSlope)

	s.Set(growth, []float64{1, 2}).Set(sin, []float64{3, 4, 5})
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, s.Rows())

	data, exists := s.Get(growth)
	require.True(t, exists)
	assert.Equal(t, []float64{1, 2, 0}, data)

	s.Set(chpnt, []float64{7})
	data, exists = s.Get(chpnt)
	require.True(t, exists)
	assert.Equal(t, []float64{7, 0, 0}, data)

	seas := s.FilterByType(FeatureTypeSeasonality)
	assert.Equal(t, 1, seas.Len())

	labels := s.Labels()
	require.Equal(t, 3, labels.Len())
	assert.Equal(t, "chpnt_auto_00_slope", labels.Labels()[0].String())
	assert.Equal(t, "growth_linear", labels.Labels()[1].String())
	assert.Equal(t, "seas_weekly_01_sin", labels.Labels()[2].String())

	idx, exists := labels.Index(sin)
	assert.True(t, exists)
	assert.Equal(t, 2, idx)

	s.Del(chpnt)
	assert.Equal(t, 2, s.Len())
	_, exists = s.Get(chpnt)
	assert.False(t, exists)

	other := NewSet().Set(chpnt, []float64{9, 9, 9})
	s.Update(other)
	assert.Equal(t, 3, s.Len())
}

func TestSetMatrix(t *testing.T) {
	var nilSet *Set
	assert.Nil(t, nilSet.Matrix(true))
	assert.Nil(t, NewSet().Matrix(false))

	s := NewSet().
		Set(NewSeasonality("weekly", FourierCompSin, 1), []float64{5, 6}).
		Set(Linear(), []float64{1, 2})

	mx := s.Matrix(true)
	m, n := mx.Dims()
	assert.Equal(t, 2, m)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float64{1, 1, 5}, mat.Row(nil, 0, mx))
	assert.Equal(t, []float64{1, 2, 6}, mat.Row(nil, 1, mx))

	mx = s.Matrix(false)
	assert.Equal(t, []float64{1, 5}, mat.Row(nil, 0, mx))
}
