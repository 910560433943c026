package forecaster

import (
	"time"

	"github.com/aouyang1/go-priceanomaly/forecast"
)

// Results holds the point forecast with its uncertainty band for each requested time
type Results struct {
	T                     []time.Time         `json:"time"`
	Forecast              []float64           `json:"forecast"`
	Upper                 []float64           `json:"upper"`
	Lower                 []float64           `json:"lower"`
	SeriesComponents      forecast.Components `json:"series_components"`
	UncertaintyComponents forecast.Components `json:"uncertainty_components"`
}

// Row is a single forecast point with its lower and upper bound
type Row struct {
	T     time.Time `json:"date"`
	Point float64   `json:"point"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// Rows returns the results as one row per time
func (r *Results) Rows() []Row {
	if r == nil {
		return nil
	}
	rows := make([]Row, len(r.T))
	for i, t := range r.T {
		rows[i] = Row{
			T:     t,
			Point: r.Forecast[i],
			Lower: r.Lower[i],
			Upper: r.Upper[i],
		}
	}
	return rows
}
