package forecast

// Components splits a forecast into its trend (intercept, growth and changepoints) and
// seasonal parts. The two always sum to the forecast.
type Components struct {
	Trend       []float64 `json:"trend"`
	Seasonality []float64 `json:"seasonality"`
}
