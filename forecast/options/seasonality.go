package options

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-priceanomaly/forecast/util"
)

const (
	DefaultWeeklyOrders = 2
	DefaultYearlyOrders = 6

	// MinSeasonalityCycles is the number of full periods the training window must span before a
	// seasonality is modeled
	MinSeasonalityCycles = 2

	Year = 365*24*time.Hour + 6*time.Hour
)

// SeasonalityOptions configures the number of seasonality components to fit for.
type SeasonalityOptions struct {
	SeasonalityConfigs []SeasonalityConfig `json:"seasonality_configs"`
}

func (s SeasonalityOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(s.SeasonalityConfigs) > 0 {
		noCfg = ""
		fmt.Fprintf(tbl, "%s%sName\tPeriod\tOrders\t\n", prefix, util.IndentExpand(indent, indentGrowth+1))
	}
	fmt.Fprintf(w, "%s%sSeasonality:%s\n", prefix, util.IndentExpand(indent, indentGrowth), noCfg)
	for _, seasCfg := range s.SeasonalityConfigs {
		fmt.Fprintf(tbl, "%s%s%s\t%s\t%d\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			seasCfg.Name, seasCfg.Period, seasCfg.Orders)
	}
	return tbl.Flush()
}

// NewDefaultSeasonalityOptions generates a default seasonality config with weekly and yearly
// seasonal components. Weekly orders stay low so that business day series with five observed
// days per week remain full rank.
func NewDefaultSeasonalityOptions() SeasonalityOptions {
	return SeasonalityOptions{
		SeasonalityConfigs: []SeasonalityConfig{
			NewWeeklySeasonalityConfig(DefaultWeeklyOrders),
			NewYearlySeasonalityConfig(DefaultYearlyOrders),
		},
	}
}

// Active returns the seasonality options that can be estimated from a training window of the
// given span sampled at the given interval. A seasonality needs at least two full cycles and
// each order must resolve at least two samples per cycle.
func (s SeasonalityOptions) Active(span, interval time.Duration) SeasonalityOptions {
	res := SeasonalityOptions{
		SeasonalityConfigs: make([]SeasonalityConfig, 0, len(s.SeasonalityConfigs)),
	}
	for _, seasCfg := range s.deduplicate() {
		if span < MinSeasonalityCycles*seasCfg.Period {
			slog.Debug("skipping seasonality with insufficient history", "name", seasCfg.Name, "period", seasCfg.Period, "span", span)
			continue
		}
		orders := seasCfg.Orders
		if interval > 0 {
			maxOrders := int(seasCfg.Period / (2 * interval))
			if orders > maxOrders {
				slog.Warn("reducing seasonality orders above sampling limit", "name", seasCfg.Name, "orders", orders, "max_orders", maxOrders)
				orders = maxOrders
			}
		}
		if orders <= 0 {
			continue
		}
		res.SeasonalityConfigs = append(res.SeasonalityConfigs, NewSeasonalityConfig(seasCfg.Name, seasCfg.Period, orders))
	}
	return res
}

// deduplicate returns the valid configs keeping only the highest order config of each period
func (s SeasonalityOptions) deduplicate() []SeasonalityConfig {
	optSeasConfigs := slices.Clone(s.SeasonalityConfigs)
	sort.Slice(optSeasConfigs, func(i, j int) bool {
		if optSeasConfigs[i].Period != optSeasConfigs[j].Period {
			return optSeasConfigs[i].Period < optSeasConfigs[j].Period
		}
		if optSeasConfigs[i].Orders != optSeasConfigs[j].Orders {
			return optSeasConfigs[i].Orders > optSeasConfigs[j].Orders
		}
		return optSeasConfigs[i].Name < optSeasConfigs[j].Name
	})

	validated := make([]SeasonalityConfig, 0, len(optSeasConfigs))
	var lastValidPeriod time.Duration
	for _, seasCfg := range optSeasConfigs {
		if seasCfg.Period > 0 && seasCfg.Period > lastValidPeriod && seasCfg.Name != "" && seasCfg.Orders > 0 {
			validated = append(validated, seasCfg)
			lastValidPeriod = seasCfg.Period
		}
	}
	return validated
}

// SeasonalityConfig represents a single seasonality configuration to model. This will generate
// Fourier series of the specified period and number of orders. E.g. a period of 7*24*time.Hour
// with 2 orders will create 4 Fourier series of order 1, 2 for the sine/cosine components
// where order 1 will have a period of 1 week and order 2 will have a period of 3.5 days.
type SeasonalityConfig struct {
	Name   string        `json:"name"`
	Orders int           `json:"orders"`
	Period time.Duration `json:"period"`
}

// NewSeasonalityConfig creates a new seasonality config given a name, period and orders
func NewSeasonalityConfig(name string, period time.Duration, orders int) SeasonalityConfig {
	if orders < 0 {
		orders = 0
	}

	return SeasonalityConfig{
		Name:   name,
		Orders: orders,
		Period: period,
	}
}

// NewWeeklySeasonalityConfig creates a weekly seasonality config given a specified number of orders
func NewWeeklySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasWeekly, 7*24*time.Hour, orders)
}

// NewYearlySeasonalityConfig creates a yearly seasonality config given a specified number of orders
func NewYearlySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasYearly, Year, orders)
}
