package options

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-priceanomaly/feature"
	"github.com/aouyang1/go-priceanomaly/forecast/util"
)

const (
	DefaultAutoNumChangepoints = 10
	DefaultAutoRange           = 0.8
)

var ErrInvalidChangepointRange = errors.New("changepoint range must be within (0, 1]")

// Changepoint describes a point in time that will change the ongoing trend. This will
// include a slope change and optionally a level shift.
type Changepoint struct {
	T    time.Time `json:"time"`
	Name string    `json:"name"`
}

func NewChangepoint(name string, t time.Time) Changepoint {
	return Changepoint{t, name}
}

// ChangepointOptions configures the changepoint fit to either use auto-detection by evenly
// placing N changepoints in the first AutoRange fraction of the training window or to use the
// explicitly listed changepoints.
type ChangepointOptions struct {
	Changepoints        []Changepoint `json:"changepoints"`
	EnableBias          bool          `json:"enable_bias"`
	Auto                bool          `json:"auto"`
	AutoNumChangepoints int           `json:"auto_num_changepoints"`
	AutoRange           float64       `json:"auto_range"`
}

func (c ChangepointOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(c.Changepoints) > 0 {
		noCfg = ""
		fmt.Fprintf(tbl, "%s%sName\tDate\t\n", prefix, util.IndentExpand(indent, indentGrowth+1))
	}
	fmt.Fprintf(w, "%s%sChangepoints:%s\n", prefix, util.IndentExpand(indent, indentGrowth), noCfg)
	for _, chpt := range c.Changepoints {
		fmt.Fprintf(tbl, "%s%s%s\t%s\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			chpt.Name, chpt.T.Format(time.DateOnly))
	}
	return tbl.Flush()
}

// NewDefaultChangepointOptions generates a set of default changepoint options
func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		Auto:                true,
		AutoNumChangepoints: DefaultAutoNumChangepoints,
		AutoRange:           DefaultAutoRange,
		Changepoints:        nil,
	}
}

// Validate checks the auto changepoint settings
func (c ChangepointOptions) Validate() error {
	if !c.Auto {
		return nil
	}
	if c.AutoRange < 0 || c.AutoRange > 1 {
		return fmt.Errorf("range of %.3f, %w", c.AutoRange, ErrInvalidChangepointRange)
	}
	return nil
}

// GenerateAutoChangepoints replaces the changepoints with N evenly spaced changepoints after the
// first training time up to the auto range fraction of the training window. Nothing is changed if
// auto-detection is disabled.
func (c *ChangepointOptions) GenerateAutoChangepoints(t []time.Time) []Changepoint {
	if !c.Auto {
		return c.Changepoints
	}
	if len(t) < 2 {
		c.Changepoints = nil
		return nil
	}

	if c.AutoNumChangepoints <= 0 {
		c.AutoNumChangepoints = DefaultAutoNumChangepoints
	}
	if c.AutoRange <= 0 {
		c.AutoRange = DefaultAutoRange
	}
	n := c.AutoNumChangepoints

	minTime, maxTime := t[0], t[len(t)-1]
	window := float64(maxTime.Sub(minTime).Nanoseconds()) * c.AutoRange
	chpts := make([]Changepoint, 0, n)
	for i := 1; i <= n; i++ {
		offset := time.Duration(window * float64(i) / float64(n))
		chpts = append(
			chpts,
			NewChangepoint(fmt.Sprintf("auto_%02d", i), minTime.Add(offset)),
		)
	}

	c.Changepoints = chpts
	return chpts
}

// GenerateFeatures builds the slope ramp and optional bias step of every changepoint within the
// training window. Ramps are scaled by the training window so they share units with the growth
// feature and keep extrapolating past the training end time.
func (c ChangepointOptions) GenerateFeatures(t []time.Time, trainStartTime, trainEndTime time.Time) *feature.Set {
	feat := feature.NewSet()

	window := trainEndTime.Sub(trainStartTime).Seconds()
	if window <= 0 {
		return feat
	}

	for i, chpt := range c.Changepoints {
		// changepoints outside of the training window would only produce zeroes or constants
		if !chpt.T.After(trainStartTime) || chpt.T.After(trainEndTime) {
			continue
		}

		name := chpt.Name
		if name == "" {
			name = fmt.Sprintf("%02d", i)
		}

		slope := make([]float64, len(t))
		var bias []float64
		if c.EnableBias {
			bias = make([]float64, len(t))
		}
		for j, tPnt := range t {
			if tPnt.Before(chpt.T) {
				continue
			}
			slope[j] = tPnt.Sub(chpt.T).Seconds() / window
			if c.EnableBias {
				bias[j] = 1.0
			}
		}

		feat.Set(feature.NewChangepoint(name, feature.ChangepointCompSlope), slope)
		if c.EnableBias {
			feat.Set(feature.NewChangepoint(name, feature.ChangepointCompBias), bias)
		}
	}
	return feat
}
