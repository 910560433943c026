package forecaster

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aouyang1/go-priceanomaly/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func dateAxis(t []time.Time) []string {
	res := make([]string, len(t))
	for i, tPnt := range t {
		res[i] = tPnt.Format(time.DateOnly)
	}
	return res
}

// lineValue renders NaN as a gap
func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: v}
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The input
// y is a slice of series that must have the same length as the input time slice. NaN values are
// rendered as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	line = line.SetXAxis(dateAxis(t))
	for i, series := range seriesName {
		if i >= len(y) {
			break
		}
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			lineData = append(lineData, lineValue(v))
		}
		line = line.AddSeries(series, lineData)
	}
	return line
}

// LineForecaster generates an echart line chart for the training data plotting the actual values
// along with the forecasted, upper, lower values. Results may extend past the training data.
func LineForecaster(trainingData *timedataset.TimeDataset, res *Results) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Forecast Fit",
			},
		),
	)

	lineDataActual := make([]opts.LineData, 0, len(res.T))
	lineDataForecast := make([]opts.LineData, 0, len(res.T))
	lineDataUpper := make([]opts.LineData, 0, len(res.T))
	lineDataLower := make([]opts.LineData, 0, len(res.T))

	for i := 0; i < len(res.T); i++ {
		actual := math.NaN()
		if idx, exists := trainingData.Index(res.T[i]); exists {
			actual = trainingData.Y[idx]
		}
		lineDataActual = append(lineDataActual, lineValue(actual))
		lineDataForecast = append(lineDataForecast, lineValue(res.Forecast[i]))
		lineDataUpper = append(lineDataUpper, lineValue(res.Upper[i]))
		lineDataLower = append(lineDataLower, lineValue(res.Lower[i]))
	}

	line.SetXAxis(dateAxis(res.T)).
		AddSeries("Actual", lineDataActual).
		AddSeries("Forecast", lineDataForecast).
		AddSeries("Upper", lineDataUpper).
		AddSeries("Lower", lineDataLower)
	return line
}

// PlotFit uses the Apache Echarts library to render an html page showing the resulting fit over
// the training data and horizon, the model components, and the fit residual
func (f *Forecaster) PlotFit(w io.Writer, horizon []time.Time) error {
	td := f.TrainingData()
	if td == nil || f.fitResults == nil {
		return ErrUntrainedForecaster
	}

	forecastRes, err := f.Predict(horizon)
	if err != nil {
		return fmt.Errorf("unable to predict with horizon, %w", err)
	}

	t := make([]time.Time, 0, len(td.T)+len(horizon))
	t = append(t, td.T...)
	t = append(t, horizon...)

	zpad := make([]float64, len(horizon))
	for i := range zpad {
		zpad[i] = math.NaN()
	}
	residuals := append(f.Residuals(), zpad...)
	trendComp := append(f.TrendComponent(), forecastRes.SeriesComponents.Trend...)
	seasonComp := append(f.SeasonalityComponent(), forecastRes.SeriesComponents.Seasonality...)

	fullRes, err := f.Predict(t)
	if err != nil {
		return fmt.Errorf("unable to predict training and horizon, %w", err)
	}

	page := components.NewPage()
	page.AddCharts(
		LineForecaster(td, fullRes),
		LineTSeries(
			"Forecast Components",
			[]string{"Trend", "Seasonality"},
			t,
			[][]float64{
				trendComp,
				seasonComp,
			},
		),
		LineTSeries(
			"Forecast Residual",
			[]string{"Residual"},
			t,
			[][]float64{residuals},
		),
	)
	return page.Render(w)
}
