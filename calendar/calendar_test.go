package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNext(t *testing.T) {
	testData := map[string]struct {
		cal      Calendar
		t        time.Time
		expected time.Time
	}{
		"daily across weekend":   {Daily{}, date(2024, 3, 29), date(2024, 3, 30)},
		"weekdays friday":        {Weekdays{}, date(2024, 3, 22), date(2024, 3, 25)},
		"weekdays saturday":      {Weekdays{}, date(2024, 3, 23), date(2024, 3, 25)},
		"weekdays midweek":       {Weekdays{}, date(2024, 3, 26), date(2024, 3, 27)},
		"nyse good friday":       {NewNYSE(), date(2024, 3, 28), date(2024, 4, 1)},
		"nyse christmas":         {NewNYSE(), date(2024, 12, 24), date(2024, 12, 26)},
		"nyse thanksgiving":      {NewNYSE(), date(2024, 11, 27), date(2024, 11, 29)},
		"nyse observed july 4th": {NewNYSE(), date(2026, 7, 2), date(2026, 7, 6)},
		"nyse regular day":       {NewNYSE(), date(2024, 5, 14), date(2024, 5, 15)},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, td.cal.Next(td.t))
		})
	}
}

func TestNextKeepsClock(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	res := Weekdays{}.Next(time.Date(2024, 3, 22, 16, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 3, 25, 16, 0, 0, 0, loc), res)
}

func TestHorizon(t *testing.T) {
	res := Horizon(NewNYSE(), date(2024, 12, 20), 5)
	expected := []time.Time{
		date(2024, 12, 23),
		date(2024, 12, 24),
		date(2024, 12, 26),
		date(2024, 12, 27),
		date(2024, 12, 30),
	}
	assert.Equal(t, expected, res)

	assert.Len(t, Horizon(Daily{}, date(2024, 1, 1), 30), 30)
	assert.Nil(t, Horizon(Daily{}, date(2024, 1, 1), 0))

	for _, d := range Horizon(NewNYSE(), date(2024, 1, 1), 250) {
		assert.True(t, d.After(date(2024, 1, 1)))
		assert.False(t, isWeekend(d), "weekend %s", d)
	}
}

func TestNYSEHolidays(t *testing.T) {
	expected := []time.Time{
		date(2024, 1, 1),
		date(2024, 1, 15),
		date(2024, 2, 19),
		date(2024, 3, 29),
		date(2024, 5, 27),
		date(2024, 6, 19),
		date(2024, 7, 4),
		date(2024, 9, 2),
		date(2024, 11, 28),
		date(2024, 12, 25),
	}
	assert.Equal(t, expected, NewNYSE().Holidays(2024))

	// new year's day 2022 fell on a saturday
	assert.False(t, NewNYSE().IsHoliday(date(2021, 12, 31)))
}

func TestByName(t *testing.T) {
	testData := map[string]struct {
		name     string
		expected string
		err      error
	}{
		"daily":    {name: "daily", expected: NameDaily},
		"weekdays": {name: "weekdays", expected: NameWeekdays},
		"nyse":     {name: "nyse", expected: NameNYSE},
		"default":  {name: "", expected: NameNYSE},
		"unknown":  {name: "lse", err: ErrUnknownCalendar},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			c, err := ByName(td.name)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, c.Name())
		})
	}
}
