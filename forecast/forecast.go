// Package forecast fits an additive trend and seasonality model to a univariate price series.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-priceanomaly/feature"
	"github.com/aouyang1/go-priceanomaly/forecast/options"
	"github.com/aouyang1/go-priceanomaly/models"
	"github.com/aouyang1/go-priceanomaly/timedataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing NaNs")
	ErrMismatchedDataLen        = errors.New("input data has different length than time")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
)

// Forecast represents a single forecast model of a time series. This is a linear model using
// coordinate descent to calculate the weights. This will decompose the series into an intercept,
// trend components (growth and changepoints), and seasonal components.
type Forecast struct {
	baseOpt *options.Options // options as configured by the caller
	opt     *options.Options // options derived from the last training window
	scores  *Scores          // score calculations after training

	fLabels *feature.Labels

	trainStartTime  time.Time
	trainEndTime    time.Time
	residual        []float64
	trainComponents Components

	coef      []float64
	intercept float64
	trained   bool
}

// New creates a new forecast instance with the given options. If none are provided, a default
// is used
func New(opt *options.Options) (*Forecast, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid forecast options, %w", err)
	}
	return &Forecast{baseOpt: opt.Copy()}, nil
}

// generateFeatures returns the design features for the given times. The epoch time feature is
// only an input to the Fourier terms and is not part of the design.
func (f *Forecast) generateFeatures(t []time.Time) (*feature.Set, error) {
	tFeat := f.opt.GenerateTimeFeatures(t, f.trainStartTime, f.trainEndTime)

	x, err := f.opt.GenerateFourierFeatures(tFeat)
	if err != nil {
		return nil, err
	}

	x.Update(tFeat.FilterByType(feature.FeatureTypeGrowth))
	x.Update(f.opt.ChangepointOptions.GenerateFeatures(t, f.trainStartTime, f.trainEndTime))
	return x, nil
}

// Fit takes the input training data and fits a forecast model for the growth, changepoints,
// seasonal components, and intercept. NaN observations are skipped.
func (f *Forecast) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrUninitializedForecast
	}
	if len(t) != len(y) {
		return fmt.Errorf("time has %d points and values have %d, %w", len(t), len(y), ErrMismatchedDataLen)
	}

	trainingT := make([]time.Time, 0, len(t))
	trainingY := make([]float64, 0, len(y))
	for i := 0; i < len(t); i++ {
		if math.IsNaN(y[i]) {
			continue
		}
		trainingT = append(trainingT, t[i])
		trainingY = append(trainingY, y[i])
	}
	if len(trainingT) <= 1 {
		return ErrInsufficientTrainingData
	}

	tSlice := timedataset.TimeSlice(trainingT)
	f.trainStartTime = tSlice.StartTime()
	f.trainEndTime = tSlice.EndTime()

	// derive the seasonality and changepoints that this window can support
	f.opt = f.baseOpt.Copy()
	interval, err := tSlice.EstimateFreq()
	if err != nil {
		interval = 0
	}
	f.opt.SeasonalityOptions = f.baseOpt.SeasonalityOptions.Active(tSlice.Span(), interval)
	f.opt.ChangepointOptions.GenerateAutoChangepoints(trainingT)

	x, err := f.generateFeatures(trainingT)
	if err != nil {
		return fmt.Errorf("unable to generate training features, %w", err)
	}
	f.fLabels = x.Labels()

	if x.Len() == 0 {
		f.intercept = stat.Mean(trainingY, nil)
		f.coef = nil
	} else {
		model, err := models.NewLassoAutoRegression(f.opt.NewLassoAutoOptions())
		if err != nil {
			return fmt.Errorf("unable to initialize lasso regression, %w", err)
		}
		observations := mat.NewDense(len(trainingY), 1, trainingY)
		if err := model.Fit(x.Matrix(false), observations); err != nil {
			return fmt.Errorf("unable to fit lasso regression, %w", err)
		}
		f.intercept = model.Intercept()
		f.coef = append([]float64(nil), model.Coef()...)
	}

	for _, c := range f.coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("non-finite coefficient, %w", ErrNoModelCoefficients)
		}
	}
	f.trained = true

	// use the full input to keep NaN positions aligned
	predicted, comp, err := f.Predict(t)
	if err != nil {
		return err
	}
	f.trainComponents = comp

	scores, err := NewScores(predicted, y)
	if err != nil {
		return err
	}
	f.scores = scores

	residual := make([]float64, len(y))
	for i := range y {
		residual[i] = y[i] - predicted[i]
	}
	f.residual = residual

	return nil
}

// Predict takes a slice of times in any order and produces the predicted value for those
// times given a pre-trained model.
func (f *Forecast) Predict(t []time.Time) ([]float64, Components, error) {
	if f == nil {
		return nil, Components{}, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, Components{}, ErrUntrainedForecast
	}

	x, err := f.generateFeatures(t)
	if err != nil {
		return nil, Components{}, err
	}

	trendSet := x.FilterByType(feature.FeatureTypeGrowth)
	trendSet.Update(x.FilterByType(feature.FeatureTypeChangepoint))
	seasonalitySet := x.FilterByType(feature.FeatureTypeSeasonality)

	comp := Components{
		Trend:       f.runInference(trendSet, len(t), true),
		Seasonality: f.runInference(seasonalitySet, len(t), false),
	}

	res := make([]float64, len(t))
	for i := range res {
		res[i] = comp.Trend[i] + comp.Seasonality[i]
	}
	return res, comp, nil
}

func (f *Forecast) runInference(x *feature.Set, m int, withIntercept bool) []float64 {
	yhat := make([]float64, m)
	if m == 0 {
		return yhat
	}
	if x.Len() == 0 {
		if withIntercept {
			for i := range yhat {
				yhat[i] = f.intercept
			}
		}
		return yhat
	}

	xLabels := x.Labels()

	n := xLabels.Len()
	if withIntercept {
		n += 1
	}

	xWeights := make([]float64, 0, n)
	if withIntercept {
		xWeights = append(xWeights, f.intercept)
	}
	for _, xFeat := range xLabels.Labels() {
		var w float64
		if wIdx, exists := f.fLabels.Index(xFeat); exists {
			w = f.coef[wIdx]
		}
		xWeights = append(xWeights, w)
	}

	wMx := mat.NewDense(1, n, xWeights)
	featMx := x.Matrix(withIntercept).T()

	var resMx mat.Dense
	resMx.Mul(wMx, featMx)
	return mat.Row(yhat, 0, &resMx)
}

// FeatureLabels returns the slice of feature labels in the order of the coefficients
func (f *Forecast) FeatureLabels() []feature.Feature {
	if f == nil {
		return nil
	}
	return f.fLabels.Labels()
}

// Coefficients returns a forecast model map of coefficients keyed by the string
// representation of each feature label
func (f *Forecast) Coefficients() (map[string]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, ErrUntrainedForecast
	}

	labels := f.fLabels.Labels()
	coef := make(map[string]float64, len(f.coef))
	for i := 0; i < len(f.coef); i++ {
		coef[labels[i].String()] = f.coef[i]
	}
	return coef, nil
}

// Intercept returns the intercept of the forecast model
func (f *Forecast) Intercept() float64 {
	if f == nil {
		return 0
	}
	return f.intercept
}

// TrainStartTime returns the first non-NaN training time
func (f *Forecast) TrainStartTime() time.Time {
	if f == nil {
		return time.Time{}
	}
	return f.trainStartTime
}

// TrainEndTime returns the last non-NaN training time
func (f *Forecast) TrainEndTime() time.Time {
	if f == nil {
		return time.Time{}
	}
	return f.trainEndTime
}

// Model returns the serializeable format of the forecast model composing of the derived
// forecast options, intercept, coefficients with their feature labels, and the model fit scores
func (f *Forecast) Model() (Model, error) {
	if f == nil {
		return Model{}, ErrUninitializedForecast
	}
	if !f.trained {
		return Model{}, ErrUntrainedForecast
	}

	fws := make([]FeatureWeight, 0, len(f.coef))
	labels := f.fLabels.Labels()
	for i, c := range f.coef {
		fws = append(fws, NewFeatureWeight(labels[i], c))
	}
	m := Model{
		TrainStartTime: f.trainStartTime,
		TrainEndTime:   f.trainEndTime,
		Options:        f.opt.Copy(),
		Weights: Weights{
			Intercept: f.intercept,
			Coef:      fws,
		},
		Scores: f.scores,
	}
	return m, nil
}

// ModelEq returns a string representation of the model linear equation in the format of
// y ~ b + m1x1 + m2x2 + ...
func (f *Forecast) ModelEq() (string, error) {
	if f == nil {
		return "", ErrUninitializedForecast
	}

	coef, err := f.Coefficients()
	if err != nil {
		return "", err
	}

	eq := fmt.Sprintf("y ~ %.2f", f.Intercept())
	for _, label := range f.fLabels.Labels() {
		w := coef[label.String()]
		if w == 0 {
			continue
		}
		eq += fmt.Sprintf("%+.2f*%s", w, label)
	}
	return eq, nil
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (f *Forecast) Scores() Scores {
	if f == nil || f.scores == nil {
		return Scores{}
	}
	return *f.scores
}

// Residuals returns a slice of values representing the difference between the
// training data and the fit data. NaN training points remain NaN.
func (f *Forecast) Residuals() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.residual))
	copy(res, f.residual)
	return res
}

// TrendComponent represents the overall trend component of the model which is determined
// by the intercept, growth and changepoints.
func (f *Forecast) TrendComponent() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Trend))
	copy(res, f.trainComponents.Trend)
	return res
}

// SeasonalityComponent represents the overall seasonal component of the model
func (f *Forecast) SeasonalityComponent() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Seasonality))
	copy(res, f.trainComponents.Seasonality)
	return res
}
