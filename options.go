package priceanomaly

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/aouyang1/go-priceanomaly/calendar"
	"github.com/aouyang1/go-priceanomaly/forecaster"
	"github.com/aouyang1/go-priceanomaly/indicator"
	"github.com/aouyang1/go-priceanomaly/outlier"
)

const (
	DefaultHorizon  = 30
	DefaultCalendar = calendar.NameNYSE

	// NoHorizon forecasts only the observed dates
	NoHorizon = -1
)

var (
	ErrNegativeHorizon      = errors.New("forecast horizon cannot be negative other than NoHorizon")
	ErrNegativeAssetTimeout = errors.New("asset timeout cannot be negative")
)

// Options configures every stage of the per asset pipeline and the batch runner
type Options struct {
	Indicator  *indicator.Options  `json:"indicator"`
	Outlier    *outlier.Options    `json:"outlier"`
	Forecaster *forecaster.Options `json:"forecaster"`

	// Horizon is the number of future trading dates forecast past the last price. Zero uses the
	// default and NoHorizon forecasts the history only.
	Horizon int `json:"horizon"`

	// Calendar names the trading calendar of the horizon, one of daily, weekdays or nyse
	Calendar string `json:"calendar"`

	// DeviationK multiplies the deviation standard deviation to get the flagging threshold
	DeviationK float64 `json:"deviation_k"`

	// AssetTimeout is the wall clock budget of a single asset in a batch, past which the asset
	// fails with ErrTimeout. Zero disables it. A fit cannot be interrupted, so a timed out asset
	// keeps its batch slot until the fit returns.
	AssetTimeout time.Duration `json:"asset_timeout"`

	// Parallelization sets how many assets of a batch run at once
	Parallelization int `json:"parallelization"`
}

// NewDefaultOptions returns the default options of every stage with a 30 day NYSE horizon
func NewDefaultOptions() *Options {
	return &Options{
		Indicator:       indicator.NewDefaultOptions(),
		Outlier:         outlier.NewDefaultOptions(),
		Forecaster:      forecaster.NewDefaultOptions(),
		Horizon:         DefaultHorizon,
		Calendar:        DefaultCalendar,
		DeviationK:      forecaster.DefaultDeviationK,
		Parallelization: runtime.NumCPU(),
	}
}

// Validate fills in missing defaults and validates the options of every stage
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	res := *o

	var err error
	if res.Indicator, err = res.Indicator.Validate(); err != nil {
		return nil, fmt.Errorf("invalid indicator options, %w", err)
	}
	if res.Outlier, err = res.Outlier.Validate(); err != nil {
		return nil, fmt.Errorf("invalid outlier options, %w", err)
	}
	if res.Forecaster, err = res.Forecaster.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecaster options, %w", err)
	}

	if res.Horizon < NoHorizon {
		return nil, fmt.Errorf("got %d, %w", res.Horizon, ErrNegativeHorizon)
	}
	if res.Horizon == 0 {
		res.Horizon = DefaultHorizon
	}
	if res.Calendar == "" {
		res.Calendar = DefaultCalendar
	}
	if _, err := calendar.ByName(res.Calendar); err != nil {
		return nil, err
	}
	if res.DeviationK == 0 {
		res.DeviationK = forecaster.DefaultDeviationK
	}
	if res.DeviationK < 0 || math.IsNaN(res.DeviationK) {
		return nil, fmt.Errorf("got %.3f, %w", res.DeviationK, forecaster.ErrInvalidDeviationK)
	}
	if res.AssetTimeout < 0 {
		return nil, fmt.Errorf("got %s, %w", res.AssetTimeout, ErrNegativeAssetTimeout)
	}
	if res.Parallelization <= 0 {
		res.Parallelization = runtime.NumCPU()
	}
	return &res, nil
}
