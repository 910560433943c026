package isolation

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// eulerGamma is used to approximate the harmonic number
const eulerGamma = 0.5772156649015329

// node is either an internal split on a single feature or a leaf holding the number of training
// samples that reached it
type node struct {
	feature int
	split   float64
	left    *node
	right   *node
	size    int
}

func (n *node) leaf() bool {
	return n.left == nil
}

// tree is a single isolation tree grown on a random subsample
type tree struct {
	root *node
}

func growTree(x mat.Matrix, sample []int, heightLimit int, rng *rand.Rand) *tree {
	_, nFeat := x.Dims()
	buf := make([]int, 0, nFeat)
	return &tree{root: grow(x, sample, 0, heightLimit, rng, buf)}
}

func grow(x mat.Matrix, sample []int, depth, heightLimit int, rng *rand.Rand, buf []int) *node {
	if depth >= heightLimit || len(sample) <= 1 {
		return &node{size: len(sample)}
	}

	// only features with a spread can isolate anything
	_, nFeat := x.Dims()
	lo := make([]float64, nFeat)
	hi := make([]float64, nFeat)
	for j := 0; j < nFeat; j++ {
		lo[j], hi[j] = math.Inf(1), math.Inf(-1)
	}
	for _, i := range sample {
		for j := 0; j < nFeat; j++ {
			v := x.At(i, j)
			lo[j] = math.Min(lo[j], v)
			hi[j] = math.Max(hi[j], v)
		}
	}
	candidates := buf[:0]
	for j := 0; j < nFeat; j++ {
		if hi[j] > lo[j] {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return &node{size: len(sample)}
	}

	feature := candidates[rng.IntN(len(candidates))]
	split := lo[feature] + rng.Float64()*(hi[feature]-lo[feature])

	// partition in place keeping samples below the split on the left
	left, right := 0, len(sample)-1
	for left <= right {
		if x.At(sample[left], feature) < split {
			left++
			continue
		}
		sample[left], sample[right] = sample[right], sample[left]
		right--
	}

	return &node{
		feature: feature,
		split:   split,
		left:    grow(x, sample[:left], depth+1, heightLimit, rng, buf),
		right:   grow(x, sample[left:], depth+1, heightLimit, rng, buf),
		size:    len(sample),
	}
}

// pathLength returns the depth at which the row is isolated, extended by the expected depth of
// the unbuilt subtree under a leaf holding several samples
func (t *tree) pathLength(x mat.Matrix, row int) float64 {
	n := t.root
	depth := 0.0
	for !n.leaf() {
		if x.At(row, n.feature) < n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return depth + averagePathLength(n.size)
}

// averagePathLength is the average path length of an unsuccessful search in a binary search
// tree of n points
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2.0*(math.Log(fn-1)+eulerGamma) - 2.0*(fn-1)/fn
	}
}
