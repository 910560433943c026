package timedataset

import (
	"fmt"
	"sort"
	"time"
)

// Store holds one price series per asset. It is populated before a detection run and only
// read during it, so no locking is done.
type Store struct {
	series map[string]*TimeDataset
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{series: make(map[string]*TimeDataset)}
}

// Add registers a validated dataset for the asset
func (s *Store) Add(asset string, td *TimeDataset) error {
	if td == nil || td.Len() == 0 {
		return fmt.Errorf("asset %q, %w, %w", asset, ErrNoTrainingData, ErrInvalidSeries)
	}
	if _, exists := s.series[asset]; exists {
		return fmt.Errorf("asset %q, %w", asset, ErrAssetExists)
	}
	s.series[asset] = td.Copy()
	return nil
}

// AddSeries validates the input dates and prices and registers them for the asset
func (s *Store) AddSeries(asset string, t []time.Time, y []float64) error {
	td, err := NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("asset %q, %w", asset, err)
	}
	return s.Add(asset, td)
}

// Get returns a copy of the asset series so each run owns its data
func (s *Store) Get(asset string) (*TimeDataset, error) {
	td, exists := s.series[asset]
	if !exists {
		return nil, fmt.Errorf("asset %q, %w", asset, ErrUnknownAsset)
	}
	return td.Copy(), nil
}

// Assets returns the sorted asset identifiers
func (s *Store) Assets() []string {
	assets := make([]string, 0, len(s.series))
	for asset := range s.series {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

// Len returns the number of assets in the store
func (s *Store) Len() int {
	return len(s.series)
}
