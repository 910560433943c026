package report

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/aouyang1/go-priceanomaly/forecaster"
	"github.com/aouyang1/go-priceanomaly/indicator"
	"github.com/aouyang1/go-priceanomaly/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

var ErrNoPlotData = errors.New("no price series or report to plot")

// PlotData is everything produced for one asset that is rendered on its page
type PlotData struct {
	Prices     *timedataset.TimeDataset
	Indicators indicator.Rows
	Forecast   []forecaster.Row
	Report     *Report
}

// dates returns the price dates followed by any forecast date past the last price
func (d PlotData) dates() []time.Time {
	t := make([]time.Time, 0, d.Prices.Len()+len(d.Forecast))
	t = append(t, d.Prices.T...)
	end := d.Prices.EndTime()
	for _, r := range d.Forecast {
		if r.T.After(end) {
			t = append(t, r.T)
		}
	}
	return t
}

func alignPrices(t []time.Time, ds *timedataset.TimeDataset) []float64 {
	res := make([]float64, len(t))
	for i, tPnt := range t {
		res[i] = math.NaN()
		if idx, exists := ds.Index(tPnt); exists {
			res[i] = ds.Y[idx]
		}
	}
	return res
}

func alignForecast(t []time.Time, rows []forecaster.Row) ([]float64, []float64, []float64) {
	byDate := make(map[int64]forecaster.Row, len(rows))
	for _, r := range rows {
		byDate[r.T.UnixNano()] = r
	}
	point, lower, upper := nanSeries(len(t)), nanSeries(len(t)), nanSeries(len(t))
	for i, tPnt := range t {
		if r, exists := byDate[tPnt.UnixNano()]; exists {
			point[i], lower[i], upper[i] = r.Point, r.Lower, r.Upper
		}
	}
	return point, lower, upper
}

func alignIndicators(t []time.Time, rows indicator.Rows) map[indicator.Feature][]float64 {
	cols := map[indicator.Feature][]float64{}
	for _, f := range indicator.FeatureSetExtended() {
		cols[f] = nanSeries(len(t))
	}
	idx := make(map[int64]int, len(t))
	for i, tPnt := range t {
		idx[tPnt.UnixNano()] = i
	}
	for _, r := range rows {
		i, exists := idx[r.T.UnixNano()]
		if !exists {
			continue
		}
		for f, col := range cols {
			v, err := r.Value(f)
			if err != nil {
				continue
			}
			col[i] = v
		}
	}
	return cols
}

func nanSeries(n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = math.NaN()
	}
	return res
}

func constSeries(n int, v float64) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = v
	}
	return res
}

// anomalyScatter places a marker at the price of every flagged date and leaves the rest empty
func anomalyScatter(name string, t []time.Time, prices []float64, dates []time.Time) *charts.Scatter {
	flagged := make(map[int64]struct{}, len(dates))
	for _, d := range dates {
		flagged[d.UnixNano()] = struct{}{}
	}
	data := make([]opts.ScatterData, len(t))
	for i, tPnt := range t {
		data[i] = opts.ScatterData{Value: "-"}
		if _, exists := flagged[tPnt.UnixNano()]; exists && !math.IsNaN(prices[i]) {
			data[i] = opts.ScatterData{Value: prices[i], SymbolSize: 12}
		}
	}
	scatter := charts.NewScatter()
	scatter.AddSeries(name, data)
	return scatter
}

// Plot renders the price with the forecast band and the flagged dates of both detectors, the
// price indicators, and the RSI with its overbought and oversold levels
func Plot(w io.Writer, d PlotData) error {
	if d.Prices == nil || d.Report == nil {
		return ErrNoPlotData
	}

	t := d.dates()
	prices := alignPrices(t, d.Prices)
	point, lower, upper := alignForecast(t, d.Forecast)
	cols := alignIndicators(t, d.Indicators)

	priceChart := forecaster.LineTSeries(
		d.Report.Asset+" Price Anomalies",
		[]string{"Price", "Forecast", "Upper", "Lower"},
		t,
		[][]float64{prices, point, upper, lower},
	)
	priceChart.Overlap(
		anomalyScatter(string(SourceOutlierModel), t, prices, d.Report.OutlierModelDates),
		anomalyScatter(string(SourceForecastDeviation), t, prices, d.Report.ForecastDeviationDates),
	)

	indicatorChart := forecaster.LineTSeries(
		d.Report.Asset+" Indicators",
		[]string{"Price", "SMA", "EMA", "Bollinger Upper", "Bollinger Lower"},
		t,
		[][]float64{
			prices,
			cols[indicator.FeatureSMA],
			cols[indicator.FeatureEMA],
			cols[indicator.FeatureBollingerUpper],
			cols[indicator.FeatureBollingerLower],
		},
	)

	rsiChart := forecaster.LineTSeries(
		d.Report.Asset+" RSI",
		[]string{"RSI", "Overbought", "Oversold"},
		t,
		[][]float64{
			cols[indicator.FeatureRSI],
			constSeries(len(t), RSIOverbought),
			constSeries(len(t), RSIOversold),
		},
	)
	rsiChart.SetGlobalOptions(
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)

	page := components.NewPage()
	page.AddCharts(priceChart, indicatorChart, rsiChart)
	return page.Render(w)
}
