// Package priceanomaly flags unusual dates in daily equity price series with two independent
// detectors: an isolation forest over technical indicators and the deviation of the price from
// an additive trend and seasonality forecast. The two sets of dates are reported side by side.
package priceanomaly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aouyang1/go-priceanomaly/calendar"
	"github.com/aouyang1/go-priceanomaly/forecaster"
	"github.com/aouyang1/go-priceanomaly/indicator"
	"github.com/aouyang1/go-priceanomaly/outlier"
	"github.com/aouyang1/go-priceanomaly/report"
	"github.com/aouyang1/go-priceanomaly/timedataset"
	"github.com/sourcegraph/conc"
)

var (
	ErrInsufficientData = timedataset.ErrInsufficientData
	ErrInvalidSeries    = timedataset.ErrInvalidSeries
	ErrModelFit         = errors.New("model fit failure")
	ErrTimeout          = errors.New("asset exceeded its time budget")
	ErrNoAsset          = report.ErrNoAsset
)

// Result holds everything produced for one asset. It is never modified after a run returns.
type Result struct {
	Report *report.Report `json:"report"`

	Prices     *timedataset.TimeDataset `json:"-"`
	Indicators indicator.Rows           `json:"indicators"`
	Forecast   []forecaster.Row         `json:"forecast"`

	OutlierLabels   report.Labels `json:"outlier_labels"`
	DeviationLabels report.Labels `json:"deviation_labels"`

	OutlierScores outlier.Labels              `json:"outlier_scores"`
	Deviations    *forecaster.DeviationResult `json:"deviations"`
}

// Plot renders the price, forecast band, indicators and flagged dates of the result
func (r *Result) Plot(w io.Writer) error {
	return report.Plot(w, report.PlotData{
		Prices:     r.Prices,
		Indicators: r.Indicators,
		Forecast:   r.Forecast,
		Report:     r.Report,
	})
}

// HistoryEnd returns the last observed date of the result
func (r *Result) HistoryEnd() time.Time {
	return r.Prices.EndTime()
}

// Pipeline runs the detectors for a single asset. It holds no per asset state so one pipeline
// can run many assets concurrently.
type Pipeline struct {
	opt *Options
	cal calendar.Calendar
}

// New creates a pipeline from the options. If no options are provided a default is used.
func New(opt *Options) (*Pipeline, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	cal, err := calendar.ByName(opt.Calendar)
	if err != nil {
		return nil, err
	}
	return &Pipeline{opt: opt, cal: cal}, nil
}

// Options returns the validated options of the pipeline
func (p *Pipeline) Options() *Options {
	return p.opt
}

// modelFitError keeps data errors as they are and tags everything else as a model fit failure
func modelFitError(stage string, err error) error {
	if errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrInvalidSeries) {
		return fmt.Errorf("%s, %w", stage, err)
	}
	return fmt.Errorf("%s, %w, %w", stage, ErrModelFit, err)
}

type outlierStage struct {
	indicators indicator.Rows
	labels     outlier.Labels
	err        error
}

type forecastStage struct {
	rows       []forecaster.Row
	deviations *forecaster.DeviationResult
	err        error
}

// Run validates the price series of the asset, fits both detectors concurrently from scratch and
// merges their dates into a report. The context only bounds how long the caller waits since the
// fits themselves cannot be interrupted.
func (p *Pipeline) Run(ctx context.Context, asset string, ds *timedataset.TimeDataset) (*Result, error) {
	if asset == "" {
		return nil, ErrNoAsset
	}
	if err := ctx.Err(); err != nil {
		return nil, contextError(asset, err)
	}

	select {
	case <-ctx.Done():
		return nil, contextError(asset, ctx.Err())
	case r := <-p.start(asset, ds):
		return r.res, r.err
	}
}

type runResult struct {
	res *Result
	err error
}

// start runs the asset in the background. The channel receives exactly one result.
func (p *Pipeline) start(asset string, ds *timedataset.TimeDataset) <-chan runResult {
	done := make(chan runResult, 1)
	go func() {
		res, err := p.run(asset, ds)
		done <- runResult{res, err}
	}()
	return done
}

func contextError(asset string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("asset %q, %w, %w", asset, ErrTimeout, err)
	}
	return fmt.Errorf("asset %q, %w", asset, err)
}

func (p *Pipeline) run(asset string, ds *timedataset.TimeDataset) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("asset %q has no price series, %w", asset, ErrInvalidSeries)
	}
	ds, err := timedataset.NewUnivariateDataset(ds.T, ds.Y)
	if err != nil {
		return nil, fmt.Errorf("asset %q, %w", asset, err)
	}

	var out outlierStage
	var fc forecastStage

	var wg conc.WaitGroup
	wg.Go(func() {
		out = p.runOutlier(ds)
	})
	wg.Go(func() {
		fc = p.runForecast(ds)
	})
	wg.Wait()

	if err := errors.Join(out.err, fc.err); err != nil {
		return nil, fmt.Errorf("asset %q, %w", asset, err)
	}

	outlierLabels := make(report.Labels, len(out.labels))
	for i, l := range out.labels {
		outlierLabels[i] = report.Label{T: l.T, Anomaly: l.Anomaly, Source: report.SourceOutlierModel}
	}
	deviationLabels := make(report.Labels, len(fc.deviations.Points))
	for i, d := range fc.deviations.Points {
		deviationLabels[i] = report.Label{T: d.T, Anomaly: d.Anomaly, Source: report.SourceForecastDeviation}
	}

	rep, err := report.Merge(asset, outlierLabels, deviationLabels, ds.EndTime())
	if err != nil {
		return nil, fmt.Errorf("unable to merge labels of asset %q, %w", asset, err)
	}

	slog.Debug("detected price anomalies",
		"asset", asset,
		"prices", ds.Len(),
		"indicator_rows", len(out.indicators),
		"outlier_model_dates", len(rep.OutlierModelDates),
		"forecast_deviation_dates", len(rep.ForecastDeviationDates),
		"deviation_threshold", fc.deviations.Threshold,
	)

	return &Result{
		Report:          rep,
		Prices:          ds,
		Indicators:      out.indicators,
		Forecast:        fc.rows,
		OutlierLabels:   outlierLabels,
		DeviationLabels: deviationLabels,
		OutlierScores:   out.labels,
		Deviations:      fc.deviations,
	}, nil
}

func (p *Pipeline) runOutlier(ds *timedataset.TimeDataset) outlierStage {
	rows, err := indicator.Compute(ds, p.opt.Indicator)
	if err != nil {
		return outlierStage{err: fmt.Errorf("unable to compute indicators, %w", err)}
	}

	d, err := outlier.New(p.opt.Outlier)
	if err != nil {
		return outlierStage{err: fmt.Errorf("unable to initialize outlier detector, %w", err)}
	}
	labels, err := d.FitPredict(rows)
	if err != nil {
		return outlierStage{err: modelFitError("unable to fit outlier model", err)}
	}
	return outlierStage{indicators: rows, labels: labels}
}

func (p *Pipeline) runForecast(ds *timedataset.TimeDataset) forecastStage {
	f, err := forecaster.New(p.opt.Forecaster)
	if err != nil {
		return forecastStage{err: fmt.Errorf("unable to initialize forecaster, %w", err)}
	}

	horizon := calendar.Horizon(p.cal, ds.EndTime(), p.opt.Horizon)
	res, err := f.FitPredict(ds, horizon)
	if err != nil {
		return forecastStage{err: modelFitError("unable to fit forecast model", err)}
	}

	deviations, err := f.Deviations(p.opt.DeviationK)
	if err != nil {
		return forecastStage{err: modelFitError("unable to compute forecast deviations", err)}
	}
	return forecastStage{rows: res.Rows(), deviations: deviations}
}
