// Package report merges the outlier model and forecast deviation labels of an asset into two date
// lists for review. The lists are kept side by side and never reduced to a single decision.
package report

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/aouyang1/go-priceanomaly/forecast/util"
	"github.com/goccy/go-json"
)

// Source names the detector that produced a label
type Source string

const (
	SourceOutlierModel      Source = "outlier-model"
	SourceForecastDeviation Source = "forecast-deviation"
)

var (
	ErrSourceMismatch = errors.New("label source does not match list")
	ErrNoAsset        = errors.New("no asset identifier")
)

// Label is the decision of one detector for one date
type Label struct {
	T       time.Time `json:"date"`
	Anomaly bool      `json:"anomaly"`
	Source  Source    `json:"source"`
}

// Labels is a sequence of labels from a single detector keyed by date
type Labels []Label

// Dates returns the anomalous dates in ascending order without duplicates
func (ls Labels) Dates() []time.Time {
	res := make([]time.Time, 0, len(ls))
	for _, l := range ls {
		if l.Anomaly {
			res = append(res, l.T)
		}
	}
	slices.SortFunc(res, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(res, func(a, b time.Time) bool { return a.Equal(b) })
}

func (ls Labels) check(src Source) error {
	for _, l := range ls {
		if l.Source != src {
			return fmt.Errorf("got %q in %q labels at %s, %w", l.Source, src, l.T.Format(time.DateOnly), ErrSourceMismatch)
		}
	}
	return nil
}

// Report holds the anomalous dates of an asset as found by each detector
type Report struct {
	Asset                  string      `json:"asset"`
	OutlierModelDates      []time.Time `json:"outlier_model_dates"`
	ForecastDeviationDates []time.Time `json:"forecast_deviation_dates"`
}

// Merge builds the report of an asset. Forecast deviation dates after historyEnd belong to the
// forecast horizon and are left out.
func Merge(asset string, outlierLabels, deviationLabels Labels, historyEnd time.Time) (*Report, error) {
	if asset == "" {
		return nil, ErrNoAsset
	}
	if err := outlierLabels.check(SourceOutlierModel); err != nil {
		return nil, err
	}
	if err := deviationLabels.check(SourceForecastDeviation); err != nil {
		return nil, err
	}

	deviationDates := deviationLabels.Dates()
	observed := deviationDates[:0]
	for _, t := range deviationDates {
		if t.After(historyEnd) {
			continue
		}
		observed = append(observed, t)
	}

	return &Report{
		Asset:                  asset,
		OutlierModelDates:      outlierLabels.Dates(),
		ForecastDeviationDates: slices.Clip(observed),
	}, nil
}

type reportJSON struct {
	Asset                  string   `json:"asset"`
	OutlierModelDates      []string `json:"outlier_model_dates"`
	ForecastDeviationDates []string `json:"forecast_deviation_dates"`
}

func formatDates(dates []time.Time) []string {
	res := make([]string, len(dates))
	for i, t := range dates {
		res[i] = t.Format(time.DateOnly)
	}
	return res
}

func parseDates(dates []string) ([]time.Time, error) {
	res := make([]time.Time, len(dates))
	for i, s := range dates {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, err
		}
		res[i] = t
	}
	return res, nil
}

// MarshalJSON writes every date as YYYY-MM-DD. Empty lists are written as [] rather than null.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		Asset:                  r.Asset,
		OutlierModelDates:      formatDates(r.OutlierModelDates),
		ForecastDeviationDates: formatDates(r.ForecastDeviationDates),
	})
}

// UnmarshalJSON reads dates written by MarshalJSON as midnight UTC
func (r *Report) UnmarshalJSON(data []byte) error {
	var aux reportJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	outlierDates, err := parseDates(aux.OutlierModelDates)
	if err != nil {
		return fmt.Errorf("unable to parse outlier model dates, %w", err)
	}
	deviationDates, err := parseDates(aux.ForecastDeviationDates)
	if err != nil {
		return fmt.Errorf("unable to parse forecast deviation dates, %w", err)
	}
	r.Asset = aux.Asset
	r.OutlierModelDates = outlierDates
	r.ForecastDeviationDates = deviationDates
	return nil
}

func joinDates(dates []time.Time) string {
	if len(dates) == 0 {
		return "none"
	}
	return strings.Join(formatDates(dates), ", ")
}

// TablePrint writes the report as indented lines
func (r *Report) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%s%s:\n", prefix, util.IndentExpand(indent, 0), r.Asset); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sOutlier Model (%d): %s\n", prefix, util.IndentExpand(indent, 1),
		len(r.OutlierModelDates), joinDates(r.OutlierModelDates)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s%sForecast Deviation (%d): %s\n", prefix, util.IndentExpand(indent, 1),
		len(r.ForecastDeviationDates), joinDates(r.ForecastDeviationDates))
	return err
}
