package report

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/goccy/go-json"
)

// Outcome is either the complete report of an asset or the error that stopped it
type Outcome struct {
	Report *Report
	Err    error
}

func (o Outcome) ok() bool {
	return o.Err == nil && o.Report != nil
}

func (o Outcome) errString() string {
	if o.Err == nil {
		return "no report"
	}
	return o.Err.Error()
}

// Batch maps every asset of a run to its outcome
type Batch map[string]Outcome

// Assets returns every asset of the batch in sorted order
func (b Batch) Assets() []string {
	res := make([]string, 0, len(b))
	for asset := range b {
		res = append(res, asset)
	}
	slices.Sort(res)
	return res
}

// Failed returns the sorted assets that have no report
func (b Batch) Failed() []string {
	var res []string
	for _, asset := range b.Assets() {
		if !b[asset].ok() {
			res = append(res, asset)
		}
	}
	return res
}

// Reports returns the reports of the successful assets sorted by asset
func (b Batch) Reports() []*Report {
	var res []*Report
	for _, asset := range b.Assets() {
		if o := b[asset]; o.ok() {
			res = append(res, o.Report)
		}
	}
	return res
}

type batchJSON struct {
	Reports  []*Report         `json:"reports"`
	Failures map[string]string `json:"failures"`
}

// MarshalJSON writes the reports in asset order followed by the error message of every failed
// asset
func (b Batch) MarshalJSON() ([]byte, error) {
	out := batchJSON{
		Reports:  b.Reports(),
		Failures: make(map[string]string),
	}
	if out.Reports == nil {
		out.Reports = []*Report{}
	}
	for _, asset := range b.Failed() {
		out.Failures[asset] = b[asset].errString()
	}
	return json.Marshal(out)
}

// TablePrint writes a summary line per asset followed by the report of each successful asset
func (b Batch) TablePrint(w io.Writer, prefix, indent string) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%sAsset\tOutlier Model\tForecast Deviation\tError\t\n", prefix); err != nil {
		return err
	}
	for _, asset := range b.Assets() {
		o := b[asset]
		if !o.ok() {
			if _, err := fmt.Fprintf(tbl, "%s%s\t-\t-\t%s\t\n", prefix, asset, o.errString()); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(tbl, "%s%s\t%d\t%d\t-\t\n", prefix, asset,
			len(o.Report.OutlierModelDates), len(o.Report.ForecastDeviationDates)); err != nil {
			return err
		}
	}
	if err := tbl.Flush(); err != nil {
		return err
	}

	for _, r := range b.Reports() {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := r.TablePrint(w, prefix, indent); err != nil {
			return err
		}
	}
	return nil
}
