// Package forecaster fits a price forecast with an uncertainty band and flags observations that
// deviate from it.
package forecaster

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/aouyang1/go-priceanomaly/forecast"
	"github.com/aouyang1/go-priceanomaly/stats"
	"github.com/aouyang1/go-priceanomaly/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrInsufficientResidual = errors.New("insufficient samples from residual after outlier removal")
	ErrEmptyTimeDataset     = errors.New("no timedataset or uninitialized")
	ErrUntrainedForecaster  = errors.New("forecaster has not been fit")
)

const (
	MinResidualWindow       = 2
	MinResidualSize         = 2
	MinResidualWindowFactor = 4
)

// Forecaster fits a series forecast along with an uncertainty forecast of the rolling residual
// standard deviation
type Forecaster struct {
	opt *Options

	seriesForecast      *forecast.Forecast
	uncertaintyForecast *forecast.Forecast

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
	residual        []float64
	residualWindow  int
}

// New creates a new instance of a Forecaster using the provided options. If no options are
// provided a default is used.
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid forecaster options, %w", err)
	}

	f := &Forecaster{
		opt: opt,
	}

	seriesForecast, err := forecast.New(f.opt.SeriesOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast series, %w", err)
	}
	f.seriesForecast = seriesForecast

	uncertaintyForecast, err := forecast.New(f.opt.UncertaintyOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast uncertainty, %w", err)
	}
	f.uncertaintyForecast = uncertaintyForecast
	return f, nil
}

// Fit validates the input price series and fits the series and uncertainty models
func (f *Forecaster) Fit(t []time.Time, y []float64) error {
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	if td.Len() < f.opt.MinPoints {
		return fmt.Errorf("got %d points but need at least %d, %w", td.Len(), f.opt.MinPoints, timedataset.ErrInsufficientData)
	}
	f.fitTrainingData = td

	inlierResidual, err := f.fitSeriesWithOutliers(td.T, slices.Clone(td.Y))
	if err != nil {
		return err
	}

	seriesRes, _, err := f.seriesForecast.Predict(td.T)
	if err != nil {
		return fmt.Errorf("unable to predict training series, %w", err)
	}
	f.residual = make([]float64, td.Len())
	floats.SubTo(f.residual, td.Y, seriesRes)

	if err := f.fitUncertainty(td.T, inlierResidual); err != nil {
		return err
	}

	f.fitResults, err = f.Predict(td.T)
	if err != nil {
		return fmt.Errorf("unable to get predicted values from training set, %w", err)
	}
	return nil
}

func (f *Forecaster) fitSeriesWithOutliers(t []time.Time, y []float64) ([]float64, error) {
	// iterate to remove outliers
	numPasses := 0
	if f.opt.OutlierOptions != nil {
		numPasses = f.opt.OutlierOptions.NumPasses
	}

	var residual []float64
	for i := 0; i <= numPasses; i++ {
		if err := f.seriesForecast.Fit(t, y); err != nil {
			return nil, fmt.Errorf("unable to forecast series, %w", err)
		}

		residual = f.seriesForecast.Residuals()

		// skip outlier detection on the final fit
		if f.opt.OutlierOptions == nil || i == numPasses {
			break
		}

		outlierIdxs := stats.DetectOutliers(
			residual,
			f.opt.OutlierOptions.LowerPercentile,
			f.opt.OutlierOptions.UpperPercentile,
			f.opt.OutlierOptions.TukeyFactor,
		)

		// no more outliers detected with outlier options so break early
		if len(outlierIdxs) == 0 {
			break
		}
		if len(outlierIdxs)+MinResidualSize >= len(stats.DropNaN(y)) {
			slog.Warn("stopping outlier removal to keep enough training points", "pass", i, "outliers", len(outlierIdxs))
			break
		}

		for _, idx := range outlierIdxs {
			y[idx] = math.NaN()
		}
	}
	return residual, nil
}

func (f *Forecaster) fitUncertainty(t []time.Time, residual []float64) error {
	// the window is not necessarily a block of continuous time but could jump across
	// outlier points
	inlierT := make([]time.Time, 0, len(t))
	inlier := make([]float64, 0, len(residual))
	for i, r := range residual {
		if math.IsNaN(r) {
			continue
		}
		inlierT = append(inlierT, t[i])
		inlier = append(inlier, r)
	}
	if len(inlier) < MinResidualSize {
		return ErrInsufficientResidual
	}

	// limit residual window to a quarter of the resulting residual output
	window := f.opt.ResidualWindow
	if len(inlier)/MinResidualWindowFactor < window {
		window = len(inlier) / MinResidualWindowFactor
	}
	if window < MinResidualWindow {
		window = MinResidualWindow
	}
	f.residualWindow = window

	numWindows := len(inlier) - window + 1
	stddevSeries := make([]float64, numWindows)
	for i := 0; i < numWindows; i++ {
		_, stddev := stat.MeanStdDev(inlier[i:i+window], nil)
		stddevSeries[i] = f.opt.ResidualZscore * stddev
	}

	// shifting by half the residual window since computing the residual series is similar to a
	// finite impulse response filtering having a group delay of window/2.
	start := window / 2
	end := start + numWindows

	if err := f.uncertaintyForecast.Fit(inlierT[start:end], stddevSeries); err != nil {
		return fmt.Errorf("unable to forecast uncertainty, %w", err)
	}
	return nil
}

// Predict takes in any set of time samples and generates a forecast, upper, lower values per time point
func (f *Forecaster) Predict(t []time.Time) (*Results, error) {
	seriesRes, seriesComp, err := f.seriesForecast.Predict(t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict series forecasts, %w", err)
	}
	uncertaintyRes, uncertaintyComp, err := f.uncertaintyForecast.Predict(t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict uncertainty forecasts, %w", err)
	}

	// cap uncertainty predictions to be greater than or equal to 0
	for i := 0; i < len(uncertaintyRes); i++ {
		if uncertaintyRes[i] < 0.0 {
			uncertaintyRes[i] = 0.0
		}
	}

	upper := make([]float64, len(seriesRes))
	lower := make([]float64, len(seriesRes))
	floats.AddTo(upper, seriesRes, uncertaintyRes)
	floats.SubTo(lower, seriesRes, uncertaintyRes)

	return &Results{
		T:                     slices.Clone(t),
		Forecast:              seriesRes,
		Upper:                 upper,
		Lower:                 lower,
		SeriesComponents:      seriesComp,
		UncertaintyComponents: uncertaintyComp,
	}, nil
}

// FitPredict fits the dataset and forecasts the historical dates followed by the horizon dates
func (f *Forecaster) FitPredict(ds *timedataset.TimeDataset, horizon []time.Time) (*Results, error) {
	if ds == nil {
		return nil, ErrEmptyTimeDataset
	}
	if err := f.Fit(ds.T, ds.Y); err != nil {
		return nil, err
	}

	t := make([]time.Time, 0, len(ds.T)+len(horizon))
	t = append(t, ds.T...)
	t = append(t, horizon...)
	return f.Predict(t)
}

// Deviations applies the deviation rule to the training data against the fit forecast
func (f *Forecaster) Deviations(k float64) (*DeviationResult, error) {
	if f.fitTrainingData == nil || f.fitResults == nil {
		return nil, ErrUntrainedForecaster
	}
	return Deviations(f.fitTrainingData.T, f.fitTrainingData.Y, f.fitResults.Forecast, k)
}

// Residuals returns the difference between the training data and the final series fit
func (f *Forecaster) Residuals() []float64 {
	return slices.Clone(f.residual)
}

// ResidualWindow returns the rolling window used for the uncertainty fit
func (f *Forecaster) ResidualWindow() int {
	return f.residualWindow
}

// TrendComponent returns the trend component created by growth and changepoints after fitting
func (f *Forecaster) TrendComponent() []float64 {
	return f.seriesForecast.TrendComponent()
}

// SeasonalityComponent returns the seasonality component after fitting the fourier series
func (f *Forecaster) SeasonalityComponent() []float64 {
	return f.seriesForecast.SeasonalityComponent()
}

// SeriesIntercept returns the intercept of the series fit
func (f *Forecaster) SeriesIntercept() float64 {
	return f.seriesForecast.Intercept()
}

// SeriesCoefficients returns all coefficient weight associated with the component label string
func (f *Forecaster) SeriesCoefficients() (map[string]float64, error) {
	return f.seriesForecast.Coefficients()
}

// SeriesModelEq returns a string representation of the fit series model represented as
// y ~ b + m1x1 + m2x2 ...
func (f *Forecaster) SeriesModelEq() (string, error) {
	return f.seriesForecast.ModelEq()
}

// UncertaintyModelEq returns a string representation of the fit uncertainty model represented as
// y ~ b + m1x1 + m2x2 ...
func (f *Forecaster) UncertaintyModelEq() (string, error) {
	return f.uncertaintyForecast.ModelEq()
}

// TrainingData returns the training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.fitTrainingData
}

// FitResults returns the results of the fit which includes the forecast, upper, and lower values
func (f *Forecaster) FitResults() *Results {
	return f.fitResults
}

// Model generates a serializeable representation of the fit options, series model, and
// uncertainty model.
func (f *Forecaster) Model() (Model, error) {
	seriesModel, err := f.seriesForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch series model, %w", err)
	}
	uncertaintyModel, err := f.uncertaintyForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch uncertainty model, %w", err)
	}
	return Model{
		Options:     f.opt,
		Series:      seriesModel,
		Uncertainty: uncertaintyModel,
	}, nil
}

// Model is the serializeable description of both fits
type Model struct {
	Options     *Options       `json:"options"`
	Series      forecast.Model `json:"series_model"`
	Uncertainty forecast.Model `json:"uncertainty_model"`
}

// TablePrint writes the series and uncertainty models as indented tables
func (m Model) TablePrint(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "Series:"); err != nil {
		return err
	}
	if err := m.Series.TablePrint(w, "  ", "  "); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "\nUncertainty:"); err != nil {
		return err
	}
	return m.Uncertainty.TablePrint(w, "  ", "  ")
}
