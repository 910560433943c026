package forecaster

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-priceanomaly/forecast/options"
)

const (
	DefaultResidualWindow = 20
	DefaultResidualZscore = 1.96

	// DefaultMinPoints covers two weekly cycles of daily prices
	DefaultMinPoints = 14

	DefaultSeriesIterations = 2000
	DefaultSeriesTolerance  = 1e-6
)

var (
	ErrInvalidOutlierOptions = errors.New("invalid outlier options")
	ErrInvalidResidualZscore = errors.New("residual z-score must be positive")
	ErrInvalidMinPoints      = errors.New("minimum points must be at least 2")
)

// OutlierOptions configures the iterative removal of training points whose residual falls outside
// of the Tukey fences before the final series fit
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

// NewOutlierOptions returns the standard interquartile fences
func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		UpperPercentile: 0.75,
		LowerPercentile: 0.25,
		TukeyFactor:     1.5,
	}
}

func (o *OutlierOptions) validate() error {
	if o == nil {
		return nil
	}
	if o.NumPasses < 0 || o.TukeyFactor < 0 ||
		o.LowerPercentile < 0 || o.UpperPercentile > 1 || o.LowerPercentile >= o.UpperPercentile {
		return ErrInvalidOutlierOptions
	}
	return nil
}

// Options configures the series fit, the uncertainty fit on the rolling residual standard
// deviation, and the optional outlier removal passes.
type Options struct {
	SeriesOptions      *options.Options `json:"series_options"`
	UncertaintyOptions *options.Options `json:"uncertainty_options"`

	OutlierOptions *OutlierOptions `json:"outlier_options"`
	ResidualWindow int             `json:"residual_window"`
	ResidualZscore float64         `json:"residual_zscore"`
	MinPoints      int             `json:"min_points"`
}

// NewDefaultSeriesOptions returns the series forecast options used by default: linear growth
// with automatic changepoints plus weekly and yearly seasonality
func NewDefaultSeriesOptions() *options.Options {
	opt := options.NewDefaultOptions()
	opt.Iterations = DefaultSeriesIterations
	opt.Tolerance = DefaultSeriesTolerance
	return opt
}

// NewDefaultUncertaintyOptions returns a smooth model for the residual standard deviation with
// linear growth and weekly seasonality only
func NewDefaultUncertaintyOptions() *options.Options {
	opt := options.NewDefaultOptions()
	opt.ChangepointOptions.Auto = false
	opt.SeasonalityOptions = options.SeasonalityOptions{
		SeasonalityConfigs: []options.SeasonalityConfig{
			options.NewWeeklySeasonalityConfig(options.DefaultWeeklyOrders),
		},
	}
	return opt
}

// NewDefaultOptions returns a default set of forecaster options
func NewDefaultOptions() *Options {
	return &Options{
		SeriesOptions:      NewDefaultSeriesOptions(),
		UncertaintyOptions: NewDefaultUncertaintyOptions(),
		ResidualWindow:     DefaultResidualWindow,
		ResidualZscore:     DefaultResidualZscore,
		MinPoints:          DefaultMinPoints,
	}
}

// Validate fills in missing defaults and checks the options
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	res := *o
	if res.SeriesOptions == nil {
		res.SeriesOptions = NewDefaultSeriesOptions()
	}
	if res.UncertaintyOptions == nil {
		res.UncertaintyOptions = NewDefaultUncertaintyOptions()
	}
	if res.ResidualWindow <= 0 {
		res.ResidualWindow = DefaultResidualWindow
	}
	if res.ResidualZscore == 0 {
		res.ResidualZscore = DefaultResidualZscore
	}
	if res.ResidualZscore < 0 {
		return nil, ErrInvalidResidualZscore
	}
	if res.MinPoints == 0 {
		res.MinPoints = DefaultMinPoints
	}
	if res.MinPoints < 2 {
		return nil, fmt.Errorf("got %d, %w", res.MinPoints, ErrInvalidMinPoints)
	}
	if err := res.OutlierOptions.validate(); err != nil {
		return nil, err
	}
	return &res, nil
}
