// Package mat converts row and column oriented slices into gonum dense matrices
package mat

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyArray  = errors.New("no rows or columns in array")
	ErrColMismatch = errors.New("column size mismatch")
	ErrRowMismatch = errors.New("row size mismatch")
)

// NewDenseFromArray builds an m x n matrix where each element of x is a row
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)

	n := -1
	for i, row := range x {
		if n >= 0 && len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
		if n < 0 {
			n = len(row)
		}
	}
	if m == 0 || n <= 0 {
		return nil, ErrEmptyArray
	}

	// flatten to row order
	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// NewDenseFromColumns builds an m x n matrix where each element of cols is a column of
// length m
func NewDenseFromColumns(cols [][]float64) (*mat.Dense, error) {
	n := len(cols)

	m := -1
	for j, col := range cols {
		if m >= 0 && len(col) != m {
			return nil, fmt.Errorf("at column %d, %w", j, ErrRowMismatch)
		}
		if m < 0 {
			m = len(col)
		}
	}
	if n == 0 || m <= 0 {
		return nil, ErrEmptyArray
	}

	mx := mat.NewDense(m, n, nil)
	for j, col := range cols {
		mx.SetCol(j, col)
	}
	return mx, nil
}
