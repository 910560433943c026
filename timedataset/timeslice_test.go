package timedataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartEndTime(t *testing.T) {
	testData := map[string]struct {
		tSlice   TimeSlice
		expStart time.Time
		expEnd   time.Time
		expSpan  time.Duration
	}{
		"nil input": {},
		"single point": {
			tSlice:   TimeSlice{time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)},
			expStart: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expEnd:   time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		"valid": {
			tSlice: TimeSlice([]time.Time{
				time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
			}),
			expStart: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expEnd:   time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
			expSpan:  48 * time.Hour,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expStart, td.tSlice.StartTime(), "start")
			assert.Equal(t, td.expEnd, td.tSlice.EndTime(), "end")
			assert.Equal(t, td.expSpan, td.tSlice.Span(), "span")
		})
	}
}

func TestEstimateFreq(t *testing.T) {
	testData := map[string]struct {
		tSlice   TimeSlice
		expected time.Duration
		err      error
	}{
		"not enough points": {
			tSlice: TimeSlice{time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)},
			err:    ErrCannotInferFreq,
		},
		"daily": {
			tSlice:   TimeSlice(GenerateDailyT(10, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))),
			expected: 24 * time.Hour,
		},
		"business days": {
			tSlice:   TimeSlice(GenerateBusinessT(20, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
			expected: 24 * time.Hour,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			freq, err := td.tSlice.EstimateFreq()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, freq)
		})
	}
}
