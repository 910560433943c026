package timedataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	s := NewStore()
	tSeries := GenerateDailyT(3, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.Nil(t, s.AddSeries("TSLA", tSeries, []float64{1, 2, 3}))
	require.Nil(t, s.AddSeries("AAPL", tSeries, []float64{4, 5, 6}))

	err := s.AddSeries("AAPL", tSeries, []float64{4, 5, 6})
	assert.ErrorIs(t, err, ErrAssetExists)

	err = s.AddSeries("MSFT", tSeries, []float64{4, -5, 6})
	assert.ErrorIs(t, err, ErrInvalidSeries)

	err = s.Add("MSFT", nil)
	assert.ErrorIs(t, err, ErrInvalidSeries)

	assert.Equal(t, []string{"AAPL", "TSLA"}, s.Assets())
	assert.Equal(t, 2, s.Len())

	ds, err := s.Get("AAPL")
	require.Nil(t, err)
	assert.Equal(t, []float64{4, 5, 6}, ds.Y)

	// mutating the returned copy must not leak back into the store
	ds.Y[0] = 100
	ds, err = s.Get("AAPL")
	require.Nil(t, err)
	assert.Equal(t, []float64{4, 5, 6}, ds.Y)

	_, err = s.Get("GOOG")
	assert.ErrorIs(t, err, ErrUnknownAsset)
}
