package models

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultLambda     = 1.0
	DefaultIterations = 1000
	DefaultTolerance  = 1e-4
)

var (
	ErrNegativeLambda     = errors.New("negative lambda")
	ErrNegativeIterations = errors.New("negative iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
	ErrWarmStartBetaSize  = errors.New("warm start beta does not have the same number of coefficients as training features")
	ErrNoLambdas          = errors.New("no lambdas provided to fit with")
)

// LassoOptions represents input options to run the Lasso Regression
type LassoOptions struct {
	// WarmStartBeta is used to prime the coordinate descent to reduce the training time if a previous
	// fit has been performed.
	WarmStartBeta []float64 `json:"warm_start_beta,omitempty"`

	// Lambda represents the L1 multiplier, controlling the regularization. Must be non-negative. 0.0
	// results in converging to Ordinary Least Squares (OLS).
	Lambda float64 `json:"lambda"`

	// Iterations is the maximum number of times the fit loops through training all coefficients.
	Iterations int `json:"iterations"`

	// Tolerance is the smallest coefficient change on each iteration relative to the largest
	// coefficient to determine when to stop iterating.
	Tolerance float64 `json:"tolerance"`

	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool `json:"fit_intercept"`
}

// Validate runs basic validation on Lasso options
func (l *LassoOptions) Validate() (*LassoOptions, error) {
	if l == nil {
		l = NewDefaultLassoOptions()
	}

	if l.Lambda < 0 {
		return nil, ErrNegativeLambda
	}
	if l.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if l.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	return l, nil
}

// NewDefaultLassoOptions returns a default set of Lasso Regression options
func NewDefaultLassoOptions() *LassoOptions {
	return &LassoOptions{
		Lambda:        DefaultLambda,
		Iterations:    DefaultIterations,
		Tolerance:     DefaultTolerance,
		WarmStartBeta: nil,
		FitIntercept:  true,
	}
}

// LassoRegression computes the lasso regression using coordinate descent. lambda = 0 converges to OLS
type LassoRegression struct {
	opt *LassoOptions

	// shared is set by the auto regression so that every lambda reuses the same columns
	shared bool
	xcols  [][]float64
	xdot   []float64
	yArr   []float64

	fitted    bool
	coef      []float64
	intercept float64
}

// NewLassoRegression initializes a Lasso model ready for fitting
func NewLassoRegression(opt *LassoOptions) (*LassoRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &LassoRegression{
		opt: opt,
	}, nil
}

// Fit the model according to the given training data
func (l *LassoRegression) Fit(x, y mat.Matrix) error {
	x, y, err := l.fitValidate(x, y)
	if err != nil {
		return err
	}
	m, n := x.Dims()

	if !l.shared {
		l.xcols, l.xdot = columns(x)
		l.yArr = mat.Col(nil, 0, y)
	}

	gamma := make([]float64, n)
	for j := 0; j < n; j++ {
		if l.xdot[j] > 0 {
			gamma[j] = l.opt.Lambda / l.xdot[j]
		}
	}

	beta := make([]float64, n)
	if l.opt.WarmStartBeta != nil {
		copy(beta, l.opt.WarmStartBeta)
	}

	// residual holds y - x*beta and is kept current as each coordinate moves
	residual := make([]float64, m)
	copy(residual, l.yArr)
	for j := 0; j < n; j++ {
		if beta[j] != 0 {
			floats.AddScaled(residual, -beta[j], l.xcols[j])
		}
	}

	for i := 0; i < l.opt.Iterations; i++ {
		maxCoef := 0.0
		maxUpdate := 0.0

		for j := 0; j < n; j++ {
			// all zero columns carry no information and stay at zero
			if l.xdot[j] == 0 {
				continue
			}
			betaCurr := beta[j]
			if i != 0 && betaCurr == 0 {
				continue
			}

			obsCol := l.xcols[j]
			betaNext := floats.Dot(obsCol, residual)/l.xdot[j] + betaCurr
			betaNext = SoftThreshold(betaNext, gamma[j])

			if delta := betaNext - betaCurr; delta != 0 {
				floats.AddScaled(residual, -delta, obsCol)
				maxUpdate = math.Max(maxUpdate, math.Abs(delta))
			}
			maxCoef = math.Max(maxCoef, math.Abs(betaNext))
			beta[j] = betaNext
		}

		if maxUpdate <= l.opt.Tolerance*maxCoef {
			break
		}
	}

	l.fitted = true
	if l.opt.FitIntercept {
		l.intercept = beta[0]
		l.coef = beta[1:]
		return nil
	}
	l.intercept = 0.0
	l.coef = beta
	return nil
}

func (l *LassoRegression) fitValidate(x, y mat.Matrix) (mat.Matrix, mat.Matrix, error) {
	if l.opt == nil {
		return nil, nil, ErrNoOptions
	}
	if x == nil {
		return nil, nil, ErrNoTrainingMatrix
	}
	if y == nil {
		return nil, nil, ErrNoTargetMatrix
	}

	m, _ := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return nil, nil, fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}

	if l.opt.FitIntercept {
		x = withIntercept(x)
	}
	_, n := x.Dims()

	if l.opt.WarmStartBeta != nil && len(l.opt.WarmStartBeta) != n {
		return nil, nil, fmt.Errorf("warm start beta has %d features instead of %d, %w", len(l.opt.WarmStartBeta), n, ErrWarmStartBetaSize)
	}
	return x, y, nil
}

// Predict using the Lasso model
func (l *LassoRegression) Predict(x mat.Matrix) ([]float64, error) {
	if l.opt == nil {
		return nil, ErrNoOptions
	}
	if !l.fitted {
		return nil, ErrUnfitted
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}

	coef := l.coef
	if l.opt.FitIntercept {
		coef = append([]float64{l.intercept}, l.coef...)
		x = withIntercept(x)
	}
	n := len(coef)

	_, xn := x.Dims()
	if xn != n {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", xn, n, ErrFeatureLenMismatch)
	}

	var res mat.Dense
	res.Mul(mat.NewDense(1, n, coef), x.T())
	return res.RawRowView(0), nil
}

// Score computes the coefficient of determination of the prediction
func (l *LassoRegression) Score(x, y mat.Matrix) (float64, error) {
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}
	res, err := l.Predict(x)
	if err != nil {
		return 0.0, err
	}

	ym, _ := y.Dims()
	if len(res) != ym {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", len(res), ym, ErrTargetLenMismatch)
	}
	return rSquared(res, mat.Col(nil, 0, y)), nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (l *LassoRegression) Intercept() float64 {
	return l.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (l *LassoRegression) Coef() []float64 {
	return l.coef
}

// SoftThreshold returns 0.0 if the value is less than or equal to the gamma input
func SoftThreshold(x, gamma float64) float64 {
	res := math.Max(0, math.Abs(x)-gamma)
	if math.Signbit(x) {
		return -res
	}
	return res
}

// rSquared treats a constant target that is perfectly predicted as a perfect fit
func rSquared(estimate, y []float64) float64 {
	score := stat.RSquaredFrom(estimate, y, nil)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		if floats.EqualApprox(estimate, y, 1e-9) {
			return 1.0
		}
		return 0.0
	}
	return score
}

// LassoAutoOptions represents input options to run the Lasso Regression with optimal regularization parameter lambda
type LassoAutoOptions struct {
	// Lambdas are the candidate L1 multipliers. Each must be non-negative.
	Lambdas []float64 `json:"lambdas"`

	// Iterations is the maximum number of times the fit loops through training all coefficients.
	Iterations int `json:"iterations"`

	// Tolerance is the smallest coefficient change on each iteration to determine when to stop iterating.
	Tolerance float64 `json:"tolerance"`

	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool `json:"fit_intercept"`

	// Parallelization sets how many fits to run in parallel. More will increase memory and compute usage.
	Parallelization int `json:"parallelization"`
}

// Validate runs basic validation on Lasso Auto options
func (l *LassoAutoOptions) Validate() (*LassoAutoOptions, error) {
	if l == nil {
		l = NewDefaultLassoAutoOptions()
	}

	if len(l.Lambdas) == 0 {
		return nil, ErrNoLambdas
	}

	for _, lambda := range l.Lambdas {
		if lambda < 0.0 {
			return nil, ErrNegativeLambda
		}
	}

	if l.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if l.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	if l.Parallelization <= 0 || l.Parallelization > len(l.Lambdas) {
		l.Parallelization = len(l.Lambdas)
	}
	return l, nil
}

// NewDefaultLassoAutoOptions returns a default set of Lasso Auto Regression options
func NewDefaultLassoAutoOptions() *LassoAutoOptions {
	return &LassoAutoOptions{
		Lambdas:         []float64{DefaultLambda},
		Iterations:      DefaultIterations,
		Tolerance:       DefaultTolerance,
		FitIntercept:    true,
		Parallelization: 1,
	}
}

// LassoAutoRegression computes the lasso regression using coordinate descent. lambda is derived by
// fitting every candidate and keeping the best scoring one. Ties go to the earliest candidate so
// the selection does not depend on goroutine scheduling.
type LassoAutoRegression struct {
	opt *LassoAutoOptions

	bestLambda float64
	bestScore  float64
	bestModel  *LassoRegression
}

// NewLassoAutoRegression initializes a Lasso model ready for fitting using automated lambda parameter selection
func NewLassoAutoRegression(opt *LassoAutoOptions) (*LassoAutoRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	return &LassoAutoRegression{
		opt:       opt,
		bestScore: math.Inf(-1),
	}, nil
}

type lassoCandidate struct {
	model *LassoRegression
	score float64
	err   error
}

// Fit the model according to the given training data
func (l *LassoAutoRegression) Fit(x, y mat.Matrix) error {
	x, y, err := l.fitValidate(x, y)
	if err != nil {
		return err
	}

	xcols, xdot := columns(x)
	yArr := mat.Col(nil, 0, y)

	candidates := make([]lassoCandidate, len(l.opt.Lambdas))
	p := pool.New().WithMaxGoroutines(l.opt.Parallelization)
	for i, lambda := range l.opt.Lambdas {
		p.Go(func() {
			candidates[i] = l.runLasso(lambda, x, y, xcols, xdot, yArr)
		})
	}
	p.Wait()

	l.bestModel = nil
	l.bestScore = math.Inf(-1)
	var errs []error
	for i, c := range candidates {
		if c.err != nil {
			slog.Warn("unable to fit lasso candidate", "lambda", l.opt.Lambdas[i], "error", c.err.Error())
			errs = append(errs, c.err)
			continue
		}
		if c.score > l.bestScore {
			l.bestScore = c.score
			l.bestLambda = l.opt.Lambdas[i]
			l.bestModel = c.model
		}
	}
	if l.bestModel == nil {
		return fmt.Errorf("no lasso candidate could be fit, %w", errors.Join(errs...))
	}
	return nil
}

func (l *LassoAutoRegression) fitValidate(x, y mat.Matrix) (mat.Matrix, mat.Matrix, error) {
	if l.opt == nil {
		return nil, nil, ErrNoOptions
	}
	if x == nil {
		return nil, nil, ErrNoTrainingMatrix
	}
	if y == nil {
		return nil, nil, ErrNoTargetMatrix
	}

	m, _ := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return nil, nil, fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}

	if l.opt.FitIntercept {
		x = withIntercept(x)
	}
	return x, y, nil
}

func (l *LassoAutoRegression) runLasso(lambda float64, x, y mat.Matrix, xcols [][]float64, xdot, yArr []float64) lassoCandidate {
	reg, err := NewLassoRegression(&LassoOptions{
		Lambda:       lambda,
		Iterations:   l.opt.Iterations,
		Tolerance:    l.opt.Tolerance,
		FitIntercept: false, // taken care of ahead of time
	})
	if err != nil {
		return lassoCandidate{err: fmt.Errorf("unable to initialize lasso regression, %w", err)}
	}
	reg.shared = true
	reg.xcols = xcols
	reg.xdot = xdot
	reg.yArr = yArr

	if err := reg.Fit(x, y); err != nil {
		return lassoCandidate{err: fmt.Errorf("unable to fit lasso regression, %w", err)}
	}

	score, err := reg.Score(x, y)
	if err != nil {
		return lassoCandidate{err: fmt.Errorf("unable to compute fit score for lasso regression, %w", err)}
	}
	return lassoCandidate{model: reg, score: score}
}

// Predict using the best Lasso model
func (l *LassoAutoRegression) Predict(x mat.Matrix) ([]float64, error) {
	if l.bestModel == nil {
		return nil, ErrUnfitted
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	if l.opt.FitIntercept {
		x = withIntercept(x)
	}
	return l.bestModel.Predict(x)
}

// Score computes the coefficient of determination of the prediction
func (l *LassoAutoRegression) Score(x, y mat.Matrix) (float64, error) {
	if l.bestModel == nil {
		return 0.0, ErrUnfitted
	}
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if l.opt.FitIntercept {
		x = withIntercept(x)
	}
	return l.bestModel.Score(x, y)
}

// Lambda returns the selected regularization parameter
func (l *LassoAutoRegression) Lambda() float64 {
	return l.bestLambda
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (l *LassoAutoRegression) Intercept() float64 {
	if l == nil || l.bestModel == nil {
		return 0.0
	}
	if l.opt.FitIntercept {
		return l.bestModel.Coef()[0]
	}
	return 0.0
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (l *LassoAutoRegression) Coef() []float64 {
	if l == nil || l.bestModel == nil {
		return nil
	}
	if l.opt.FitIntercept {
		return l.bestModel.Coef()[1:]
	}
	return l.bestModel.Coef()
}
