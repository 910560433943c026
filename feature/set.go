package feature

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Set represents a mapping to each feature data keyed by the string representation
// of the feature. All features share the same number of observations m; shorter data is
// zero padded and adding longer data pads every existing feature.
type Set struct {
	m      int
	set    map[string][]float64
	labels []Feature
}

// NewSet returns an empty feature set
func NewSet() *Set {
	return &Set{
		set: make(map[string][]float64),
	}
}

// Len returns the number of features in the set
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Rows returns the number of observations per feature
func (s *Set) Rows() int {
	if s == nil {
		return 0
	}
	return s.m
}

// Set adds or replaces the feature data
func (s *Set) Set(f Feature, data []float64) *Set {
	if s == nil || f == nil {
		return s
	}

	if len(data) > s.m {
		s.m = len(data)
		for label, existing := range s.set {
			s.set[label] = pad(existing, s.m)
		}
	}

	key := f.String()
	if _, exists := s.set[key]; !exists {
		s.labels = append(s.labels, f)
	}
	s.set[key] = pad(data, s.m)
	return s
}

func pad(data []float64, m int) []float64 {
	res := make([]float64, m)
	copy(res, data)
	return res
}

// Get returns the data of the feature if it exists
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil || f == nil {
		return nil, false
	}
	data, exists := s.set[f.String()]
	return data, exists
}

// Del removes the feature from the set
func (s *Set) Del(f Feature) {
	if s == nil || f == nil {
		return
	}
	key := f.String()
	if _, exists := s.set[key]; !exists {
		return
	}
	delete(s.set, key)
	for i, label := range s.labels {
		if label.String() == key {
			s.labels = append(s.labels[:i], s.labels[i+1:]...)
			break
		}
	}
}

// Update copies every feature from the other set into this one
func (s *Set) Update(other *Set) *Set {
	if s == nil || other == nil {
		return s
	}
	for _, label := range other.labels {
		s.Set(label, other.set[label.String()])
	}
	return s
}

// FilterByType returns a new set with only the features of the given type
func (s *Set) FilterByType(ft FeatureType) *Set {
	res := NewSet()
	if s == nil {
		return res
	}
	for _, label := range s.labels {
		if label.Type() != ft {
			continue
		}
		res.Set(label, s.set[label.String()])
	}
	return res
}

// Labels returns the sorted slice of all tracked features in the Set
func (s *Set) Labels() *Labels {
	if s == nil {
		return nil
	}

	labels := make([]Feature, len(s.labels))
	copy(labels, s.labels)
	sort.Slice(
		labels,
		func(i, j int) bool {
			return labels[i].String() < labels[j].String()
		},
	)
	return NewLabels(labels)
}

// Matrix returns a metric representation of the Set to be used with matrix methods
// The matrix has m rows representing the number of observations and n columns representing
// the number of features in sorted label order.
func (s *Set) Matrix(intercept bool) *mat.Dense {
	if s == nil {
		return nil
	}

	featureLabels := s.Labels()
	n := featureLabels.Len()
	if intercept {
		n += 1
	}
	if n == 0 || s.m == 0 {
		return nil
	}

	m := s.m
	obs := make([]float64, m*n)

	featNum := 0
	if intercept {
		for i := 0; i < m; i++ {
			obs[n*i] = 1.0
		}
		featNum += 1
	}

	for _, label := range featureLabels.Labels() {
		feature := s.set[label.String()]
		for i := 0; i < len(feature); i++ {
			obs[n*i+featNum] = feature[i]
		}
		featNum += 1
	}
	return mat.NewDense(m, n, obs)
}
