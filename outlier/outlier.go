// Package outlier labels indicator rows with an isolation forest refit from scratch on every call
package outlier

import (
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/go-priceanomaly/indicator"
	"github.com/aouyang1/go-priceanomaly/isolation"
	"github.com/aouyang1/go-priceanomaly/timedataset"
)

// DefaultMinRows is three times the largest default indicator window
const DefaultMinRows = 3 * indicator.DefaultSMAWindow

var ErrInvalidMinRows = errors.New("minimum rows must be at least 2")

// Options configures the detector
type Options struct {
	FeatureSet indicator.FeatureSet `json:"feature_set"`
	Forest     *isolation.Options   `json:"forest"`
	MinRows    int                  `json:"min_rows"`
}

// NewDefaultOptions uses price, SMA and RSI with the default forest
func NewDefaultOptions() *Options {
	return &Options{
		FeatureSet: indicator.FeatureSetBasic(),
		Forest:     isolation.NewDefaultOptions(),
		MinRows:    DefaultMinRows,
	}
}

// Validate fills in missing defaults and checks the options
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	res := *o
	if len(res.FeatureSet) == 0 {
		res.FeatureSet = indicator.FeatureSetBasic()
	}
	if err := res.FeatureSet.Validate(); err != nil {
		return nil, err
	}
	forest, err := res.Forest.Validate()
	if err != nil {
		return nil, err
	}
	res.Forest = forest
	if res.MinRows == 0 {
		res.MinRows = DefaultMinRows
	}
	if res.MinRows < 2 {
		return nil, fmt.Errorf("got %d, %w", res.MinRows, ErrInvalidMinRows)
	}
	return &res, nil
}

// Label is the outlier decision for a single indicator row
type Label struct {
	T       time.Time `json:"date"`
	Anomaly bool      `json:"anomaly"`
	Score   float64   `json:"score"`
}

// Labels is ordered by date
type Labels []Label

// Dates returns the dates labeled as outliers in order
func (ls Labels) Dates() []time.Time {
	var res []time.Time
	for _, l := range ls {
		if l.Anomaly {
			res = append(res, l.T)
		}
	}
	return res
}

// Detector fits a new forest on every call so no state carries over between series
type Detector struct {
	opt *Options
}

// New creates a detector. If no options are provided a default is used.
func New(opt *Options) (*Detector, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid outlier detector options, %w", err)
	}
	return &Detector{opt: opt}, nil
}

// FitPredict builds the feature matrix from the rows, fits the forest and labels each row
func (d *Detector) FitPredict(rows indicator.Rows) (Labels, error) {
	if len(rows) < d.opt.MinRows {
		return nil, fmt.Errorf(
			"got %d indicator rows but need at least %d, %w",
			len(rows), d.opt.MinRows, timedataset.ErrInsufficientData,
		)
	}

	x, err := rows.Matrix(d.opt.FeatureSet)
	if err != nil {
		return nil, fmt.Errorf("unable to build feature matrix, %w", err)
	}

	forest, err := isolation.New(d.opt.Forest)
	if err != nil {
		return nil, err
	}
	anomalies, err := forest.FitPredict(x)
	if err != nil {
		return nil, fmt.Errorf("unable to fit isolation forest, %w", err)
	}
	scores := forest.TrainScores()

	labels := make(Labels, len(rows))
	for i, r := range rows {
		labels[i] = Label{
			T:       r.T,
			Anomaly: anomalies[i],
			Score:   scores[i],
		}
	}
	return labels, nil
}

// Options returns the validated options of the detector
func (d *Detector) Options() *Options {
	return d.opt
}
