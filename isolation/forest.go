// Package isolation implements an isolation forest, an unsupervised tree ensemble that scores rows
// by how quickly random axis aligned splits isolate them
package isolation

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultNumTrees      = 100
	DefaultSampleSize    = 256
	DefaultContamination = 0.05
	DefaultSeed          = 42
)

var (
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrEmptyMatrix        = errors.New("training matrix has no rows or columns")
	ErrContamination      = errors.New("contamination must be in (0, 0.5]")
	ErrInvalidNumTrees    = errors.New("number of trees must be positive")
	ErrInvalidSampleSize  = errors.New("sample size must be at least 2")
	ErrUnfitted           = errors.New("isolation forest has not been fit")
	ErrFeatureLenMismatch = errors.New("number of features does not match training")
	ErrNonFinite          = errors.New("matrix contains a non-finite value")
)

// Options configures the forest
type Options struct {
	NumTrees      int     `json:"num_trees"`
	SampleSize    int     `json:"sample_size"`
	Contamination float64 `json:"contamination"`
	Seed          uint64  `json:"seed"`

	// Parallelization sets how many trees are grown at once. Every tree owns a generator derived
	// from the seed so the result does not depend on this setting.
	Parallelization int `json:"parallelization"`
}

// NewDefaultOptions returns 100 trees on subsamples of 256 rows expecting 5% of rows to be
// outliers with a fixed seed
func NewDefaultOptions() *Options {
	return &Options{
		NumTrees:      DefaultNumTrees,
		SampleSize:    DefaultSampleSize,
		Contamination: DefaultContamination,
		Seed:          DefaultSeed,
	}
}

// Validate fills in the default options when nil, checks them and sets the parallelization
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	if o.NumTrees <= 0 {
		return nil, fmt.Errorf("got %d, %w", o.NumTrees, ErrInvalidNumTrees)
	}
	if o.SampleSize < 2 {
		return nil, fmt.Errorf("got %d, %w", o.SampleSize, ErrInvalidSampleSize)
	}
	if !(o.Contamination > 0 && o.Contamination <= 0.5) {
		return nil, fmt.Errorf("got %.3f, %w", o.Contamination, ErrContamination)
	}
	res := *o
	if res.Parallelization <= 0 {
		res.Parallelization = runtime.NumCPU()
	}
	return &res, nil
}

// Forest is an isolation forest. A fit forest is read only and safe for concurrent scoring.
type Forest struct {
	opt *Options

	trees       []*tree
	nFeatures   int
	sampleSize  int
	threshold   float64
	trainScores []float64
}

// New creates an unfitted forest from the options. If no options are provided a default is used.
func New(opt *Options) (*Forest, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid isolation forest options, %w", err)
	}
	return &Forest{opt: opt}, nil
}

// Fit grows every tree from scratch on a subsample of the rows of x and sets the outlier
// threshold at the (1 - contamination) quantile of the training scores
func (f *Forest) Fit(x mat.Matrix) error {
	if x == nil {
		return ErrNoTrainingMatrix
	}
	m, n := x.Dims()
	if m == 0 || n == 0 {
		return ErrEmptyMatrix
	}
	if err := checkFinite(x); err != nil {
		return err
	}

	psi := min(f.opt.SampleSize, m)
	heightLimit := int(math.Ceil(math.Log2(float64(psi))))

	trees := make([]*tree, f.opt.NumTrees)
	p := pool.New().WithMaxGoroutines(f.opt.Parallelization)
	for i := range trees {
		p.Go(func() {
			rng := rand.New(rand.NewPCG(f.opt.Seed, uint64(i)))
			sample := rng.Perm(m)[:psi]
			trees[i] = growTree(x, sample, heightLimit, rng)
		})
	}
	p.Wait()

	f.trees = trees
	f.nFeatures = n
	f.sampleSize = psi

	scores, err := f.Score(x)
	if err != nil {
		return fmt.Errorf("unable to score training matrix, %w", err)
	}
	f.trainScores = scores

	sorted := slices.Clone(scores)
	slices.Sort(sorted)
	f.threshold = stat.Quantile(1-f.opt.Contamination, stat.Empirical, sorted, nil)
	return nil
}

// Score returns the anomaly score of every row in (0, 1]. Scores close to 1 are isolated quickly
// while scores well below 0.5 sit in dense regions.
func (f *Forest) Score(x mat.Matrix) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrUnfitted
	}
	if x == nil {
		return nil, ErrNoTrainingMatrix
	}
	m, n := x.Dims()
	if n != f.nFeatures {
		return nil, fmt.Errorf("got %d features but trained on %d, %w", n, f.nFeatures, ErrFeatureLenMismatch)
	}
	if err := checkFinite(x); err != nil {
		return nil, err
	}

	norm := averagePathLength(f.sampleSize)
	scores := make([]float64, m)
	for i := 0; i < m; i++ {
		var total float64
		for _, t := range f.trees {
			total += t.pathLength(x, i)
		}
		meanPath := total / float64(len(f.trees))
		if norm == 0 {
			scores[i] = 1
			continue
		}
		scores[i] = math.Pow(2, -meanPath/norm)
	}
	return scores, nil
}

// Predict labels every row whose score is strictly greater than the training threshold as an
// outlier
func (f *Forest) Predict(x mat.Matrix) ([]bool, error) {
	scores, err := f.Score(x)
	if err != nil {
		return nil, err
	}
	return f.label(scores), nil
}

// FitPredict fits the forest on x and labels the training rows
func (f *Forest) FitPredict(x mat.Matrix) ([]bool, error) {
	if err := f.Fit(x); err != nil {
		return nil, err
	}
	return f.label(f.trainScores), nil
}

func (f *Forest) label(scores []float64) []bool {
	res := make([]bool, len(scores))
	for i, s := range scores {
		res[i] = s > f.threshold
	}
	return res
}

// Threshold returns the score above which a row is an outlier
func (f *Forest) Threshold() float64 {
	return f.threshold
}

// TrainScores returns the scores of the training rows from the last fit
func (f *Forest) TrainScores() []float64 {
	return slices.Clone(f.trainScores)
}

// NumTrees returns the number of grown trees
func (f *Forest) NumTrees() int {
	return len(f.trees)
}

func checkFinite(x mat.Matrix) error {
	m, n := x.Dims()
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			if v := x.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("at row %d col %d, %w", i, j, ErrNonFinite)
			}
		}
	}
	return nil
}
