// Package options contains all forecast options for a linear fit of a univariate price series
package options

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aouyang1/go-priceanomaly/feature"
	"github.com/aouyang1/go-priceanomaly/models"
)

const (
	LabelTimeEpoch = "epoch"

	LabelSeasWeekly = "weekly"
	LabelSeasYearly = "yearly"
)

var (
	ErrUnknownTimeFeature = errors.New("unknown time feature")
	ErrUnknownGrowthType  = errors.New("unknown growth type")
	ErrNegativeLambda     = errors.New("negative regularization")
	ErrInvalidLassoParams = errors.New("invalid lasso iterations or tolerance")
)

// Options configures a forecast by specifying the trend growth, changepoints, seasonality orders
// and an optional regularization parameter where higher values removes more features that
// contribute the least to the fit.
type Options struct {
	ChangepointOptions ChangepointOptions `json:"changepoint_options"`

	// Lasso related options. More than one regularization value runs a parallel search keeping
	// the best scoring fit.
	Regularization  []float64 `json:"regularization"`
	Iterations      int       `json:"iterations"`
	Tolerance       float64   `json:"tolerance"`
	Parallelization int       `json:"parallelization"`

	SeasonalityOptions SeasonalityOptions `json:"seasonality_options"`
	GrowthType         string             `json:"growth_type"`
}

// NewDefaultOptions returns a set of default forecast options: linear growth with automatic
// changepoints plus weekly and yearly seasonality fit with ordinary least squares.
func NewDefaultOptions() *Options {
	return &Options{
		ChangepointOptions: NewDefaultChangepointOptions(),
		Regularization:     []float64{0.0},
		SeasonalityOptions: NewDefaultSeasonalityOptions(),
		GrowthType:         feature.GrowthLinear,
	}
}

// Validate checks the options for values the fit cannot handle. Nil options are replaced with
// the defaults.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	switch o.GrowthType {
	case "", feature.GrowthLinear, feature.GrowthQuadratic:
	default:
		return nil, fmt.Errorf("%q, %w", o.GrowthType, ErrUnknownGrowthType)
	}
	for _, lambda := range o.Regularization {
		if lambda < 0 {
			return nil, fmt.Errorf("regularization of %.3f, %w", lambda, ErrNegativeLambda)
		}
	}
	if o.Iterations < 0 || o.Tolerance < 0 {
		return nil, ErrInvalidLassoParams
	}
	if err := o.ChangepointOptions.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Copy returns a deep copy of the options so that fitting can record derived settings
// without mutating the caller's options
func (o *Options) Copy() *Options {
	if o == nil {
		return nil
	}
	res := *o
	res.Regularization = slices.Clone(o.Regularization)
	res.ChangepointOptions.Changepoints = slices.Clone(o.ChangepointOptions.Changepoints)
	res.SeasonalityOptions.SeasonalityConfigs = slices.Clone(o.SeasonalityOptions.SeasonalityConfigs)
	return &res
}

// NewLassoAutoOptions maps the forecast options onto the lasso solver
func (o *Options) NewLassoAutoOptions() *models.LassoAutoOptions {
	lassoOpt := models.NewDefaultLassoAutoOptions()
	if len(o.Regularization) > 0 {
		lassoOpt.Lambdas = slices.Clone(o.Regularization)
	} else {
		lassoOpt.Lambdas = []float64{0.0}
	}

	lassoOpt.FitIntercept = true

	lassoOpt.Iterations = o.Iterations
	if o.Iterations == 0 {
		lassoOpt.Iterations = models.DefaultIterations
	}

	lassoOpt.Tolerance = o.Tolerance
	if o.Tolerance == 0 {
		lassoOpt.Tolerance = models.DefaultTolerance
	}

	lassoOpt.Parallelization = o.Parallelization
	return lassoOpt
}

// GenerateTimeFeatures returns the epoch time feature along with the growth feature scaled to the
// training window
func (o *Options) GenerateTimeFeatures(t []time.Time, trainStartTime, trainEndTime time.Time) *feature.Set {
	if o == nil {
		o = NewDefaultOptions()
	}

	tFeat := feature.NewSet()

	feat := feature.NewTime(LabelTimeEpoch)
	epoch := feat.Generate(t)
	tFeat.Set(feat, epoch)

	if trainEndTime.Equal(trainStartTime) || o.GrowthType == "" {
		return tFeat
	}

	var growthFeat *feature.Growth
	switch o.GrowthType {
	case feature.GrowthLinear:
		growthFeat = feature.Linear()
	case feature.GrowthQuadratic:
		growthFeat = feature.Quadratic()
	default:
		return tFeat
	}
	tFeat.Set(growthFeat, growthFeat.Generate(epoch, trainStartTime, trainEndTime))
	return tFeat
}

// GenerateFourierFeatures builds the sine and cosine features for every configured seasonality
// from the epoch time feature
func (o *Options) GenerateFourierFeatures(tFeat *feature.Set) (*feature.Set, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	x := feature.NewSet()

	for _, seasCfg := range o.SeasonalityOptions.deduplicate() {
		seasFeatures, err := generateFourierOrders(tFeat, seasCfg.Orders, seasCfg.Period, seasCfg.Name)
		if err != nil {
			return nil, fmt.Errorf("unable to generate seasonality features for %q, %w", seasCfg.Name, err)
		}
		x.Update(seasFeatures)
	}
	return x, nil
}

func generateFourierOrders(tFeatures *feature.Set, orders int, periodDur time.Duration, label string) (*feature.Set, error) {
	if tFeatures == nil {
		return nil, ErrUnknownTimeFeature
	}

	epoch, exists := tFeatures.Get(feature.NewTime(LabelTimeEpoch))
	if !exists {
		return nil, ErrUnknownTimeFeature
	}

	period := periodDur.Seconds()

	x := feature.NewSet()
	for order := 1; order <= orders; order++ {
		sinFeat := feature.NewSeasonality(label, feature.FourierCompSin, order)
		cosFeat := feature.NewSeasonality(label, feature.FourierCompCos, order)
		x.Set(sinFeat, sinFeat.Generate(epoch, period))
		x.Set(cosFeat, cosFeat.Generate(epoch, period))
	}

	return x, nil
}
