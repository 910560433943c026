// Package models is a collection of linear regression fitting implementations used by the
// forecast model
package models

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoOptions          = errors.New("no initialized model options")
	ErrTargetLenMismatch  = errors.New("target length does not match target rows")
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrNoTargetMatrix     = errors.New("no target matrix")
	ErrNoDesignMatrix     = errors.New("no design matrix for inference")
	ErrFeatureLenMismatch = errors.New("number of features does not match number of model coefficients")
	ErrUnfitted           = errors.New("model has not been fit")
)

type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
	Score(x, y mat.Matrix) (float64, error)
	Intercept() float64
	Coef() []float64
}

// withIntercept prepends a constant 1.0 column to the design matrix
func withIntercept(x mat.Matrix) mat.Matrix {
	m, _ := x.Dims()
	ones := make([]float64, m)
	floats.AddConst(1.0, ones)
	onesMx := mat.NewDense(1, m, ones)

	var xWithOnes mat.Dense
	xWithOnes.Stack(onesMx, x.T())
	return xWithOnes.T()
}

// columns returns each column of the design matrix along with its squared norm
func columns(x mat.Matrix) ([][]float64, []float64) {
	m, n := x.Dims()
	xcols := make([][]float64, n)
	xdot := make([]float64, n)
	for i := 0; i < n; i++ {
		xi := mat.Col(nil, i, x)
		if len(xi) < m {
			xi = append(xi, make([]float64, m-len(xi))...)
		}
		xcols[i] = xi
		xdot[i] = floats.Dot(xi, xi)
	}
	return xcols, xdot
}
