package indicator

import (
	"errors"
	"fmt"
	"time"

	mat_ "github.com/aouyang1/go-priceanomaly/mat"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrUnknownFeature    = errors.New("unknown indicator feature")
	ErrUnknownFeatureSet = errors.New("unknown indicator feature set")
	ErrEmptyFeatureSet   = errors.New("no indicator features")
)

// Feature names a column of an indicator row
type Feature string

const (
	FeaturePrice          Feature = "price"
	FeatureSMA            Feature = "sma"
	FeatureEMA            Feature = "ema"
	FeatureRSI            Feature = "rsi"
	FeatureBollingerUpper Feature = "bollinger_upper"
	FeatureBollingerLower Feature = "bollinger_lower"
)

const (
	FeatureSetNameBasic    = "basic"
	FeatureSetNameExtended = "extended"
)

// FeatureSet is an ordered list of columns used to build a feature matrix
type FeatureSet []Feature

// FeatureSetBasic returns price, SMA and RSI
func FeatureSetBasic() FeatureSet {
	return FeatureSet{FeaturePrice, FeatureSMA, FeatureRSI}
}

// FeatureSetExtended returns every indicator column
func FeatureSetExtended() FeatureSet {
	return FeatureSet{
		FeaturePrice, FeatureSMA, FeatureEMA, FeatureRSI,
		FeatureBollingerUpper, FeatureBollingerLower,
	}
}

// FeatureSetByName resolves a named feature set
func FeatureSetByName(name string) (FeatureSet, error) {
	switch name {
	case "", FeatureSetNameBasic:
		return FeatureSetBasic(), nil
	case FeatureSetNameExtended:
		return FeatureSetExtended(), nil
	default:
		return nil, fmt.Errorf("%q, %w", name, ErrUnknownFeatureSet)
	}
}

// Validate checks that the set is not empty and only names known columns
func (fs FeatureSet) Validate() error {
	if len(fs) == 0 {
		return ErrEmptyFeatureSet
	}
	var row Row
	for _, f := range fs {
		if _, err := row.Value(f); err != nil {
			return err
		}
	}
	return nil
}

// Value returns the column of the row named by the feature
func (r Row) Value(f Feature) (float64, error) {
	switch f {
	case FeaturePrice:
		return r.Price, nil
	case FeatureSMA:
		return r.SMA, nil
	case FeatureEMA:
		return r.EMA, nil
	case FeatureRSI:
		return r.RSI, nil
	case FeatureBollingerUpper:
		return r.BollingerUpper, nil
	case FeatureBollingerLower:
		return r.BollingerLower, nil
	default:
		return 0, fmt.Errorf("%q, %w", f, ErrUnknownFeature)
	}
}

// Rows is an ordered sequence of indicator rows
type Rows []Row

// Dates returns the date of every row in order
func (rs Rows) Dates() []time.Time {
	res := make([]time.Time, len(rs))
	for i, r := range rs {
		res[i] = r.T
	}
	return res
}

// Matrix returns a row per indicator row and a column per feature in the order of the set
func (rs Rows) Matrix(fs FeatureSet) (*mat.Dense, error) {
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	x := make([][]float64, len(rs))
	for i, r := range rs {
		x[i] = make([]float64, len(fs))
		for j, f := range fs {
			v, err := r.Value(f)
			if err != nil {
				return nil, err
			}
			x[i][j] = v
		}
	}
	return mat_.NewDenseFromArray(x)
}
