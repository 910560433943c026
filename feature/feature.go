// Package feature labels the columns of the forecast design matrix so that fit coefficients
// can be traced back to the trend or seasonal component that produced them.
package feature

type FeatureType string

const (
	FeatureTypeChangepoint FeatureType = "changepoint"
	FeatureTypeSeasonality FeatureType = "seasonality"
	FeatureTypeGrowth      FeatureType = "growth"
	FeatureTypeTime        FeatureType = "time"
)

// Feature is the interface every design matrix column label implements
type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}
