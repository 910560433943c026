// Package calendar generates the future dates a forecast horizon covers
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/aa"
	"github.com/rickar/cal/v2/us"
)

const (
	NameDaily    = "daily"
	NameWeekdays = "weekdays"
	NameNYSE     = "nyse"
)

var ErrUnknownCalendar = errors.New("unknown calendar")

// Calendar steps from one trading date to the next
type Calendar interface {
	// Next returns the first trading date strictly after t keeping the clock and location of t
	Next(t time.Time) time.Time
	Name() string
}

// ByName resolves a calendar from its name. An empty name is the NYSE calendar.
func ByName(name string) (Calendar, error) {
	switch name {
	case NameDaily:
		return Daily{}, nil
	case NameWeekdays:
		return Weekdays{}, nil
	case "", NameNYSE:
		return NewNYSE(), nil
	default:
		return nil, fmt.Errorf("%q, %w", name, ErrUnknownCalendar)
	}
}

// Horizon returns the n trading dates following last
func Horizon(c Calendar, last time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	res := make([]time.Time, n)
	t := last
	for i := range res {
		t = c.Next(t)
		res[i] = t
	}
	return res
}

// Daily includes every calendar day
type Daily struct{}

func (Daily) Next(t time.Time) time.Time {
	return t.AddDate(0, 0, 1)
}

func (Daily) Name() string {
	return NameDaily
}

// Weekdays skips Saturdays and Sundays
type Weekdays struct{}

func (Weekdays) Next(t time.Time) time.Time {
	t = t.AddDate(0, 0, 1)
	for isWeekend(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func (Weekdays) Name() string {
	return NameWeekdays
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// NYSE skips weekends and the full day closures of the New York Stock Exchange
type NYSE struct {
	holidays []*cal.Holiday
}

// NewNYSE returns the exchange calendar with the federal market holidays and Good Friday
func NewNYSE() *NYSE {
	return &NYSE{
		holidays: []*cal.Holiday{
			us.NewYear,
			us.MlkDay,
			us.PresidentsDay,
			aa.GoodFriday,
			us.MemorialDay,
			us.Juneteenth,
			us.IndependenceDay,
			us.LaborDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		},
	}
}

func (c *NYSE) Next(t time.Time) time.Time {
	t = t.AddDate(0, 0, 1)
	for isWeekend(t) || c.IsHoliday(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func (c *NYSE) Name() string {
	return NameNYSE
}

// IsHoliday reports whether the exchange is closed for a holiday on the date of t. Only the
// observed date of the same year counts so a Saturday New Year's Day does not close the prior
// Friday.
func (c *NYSE) IsHoliday(t time.Time) bool {
	year, month, day := t.Date()
	for _, hol := range c.holidays {
		_, observed := hol.Calc(year)
		if observed.IsZero() {
			continue
		}
		oy, om, od := observed.Date()
		if oy == year && om == month && od == day {
			return true
		}
	}
	return false
}

// Holidays returns the observed closures within the year in date order
func (c *NYSE) Holidays(year int) []time.Time {
	var res []time.Time
	for _, hol := range c.holidays {
		_, observed := hol.Calc(year)
		if observed.IsZero() || observed.Year() != year {
			continue
		}
		y, m, d := observed.Date()
		res = append(res, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}
	return res
}
