package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-priceanomaly/timedataset"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrNoInputFiles  = errors.New("no input files found")
)

// ReadCSV parses one asset from a csv with a header row. Empty or NaN prices are dropped and the
// rest must be positive and strictly increasing in time.
func ReadCSV(r io.Reader, cfg InputConfig) (*timedataset.TimeDataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read header, %w", err)
	}
	dateIdx := columnIndex(header, cfg.DateColumn)
	if dateIdx < 0 {
		return nil, fmt.Errorf("%q, %w", cfg.DateColumn, ErrMissingColumn)
	}
	priceIdx := columnIndex(header, cfg.PriceColumn)
	if priceIdx < 0 {
		return nil, fmt.Errorf("%q, %w", cfg.PriceColumn, ErrMissingColumn)
	}

	var t []time.Time
	var y []float64
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read line %d, %w", line, err)
		}

		ts, err := time.Parse(cfg.DateFormat, strings.TrimSpace(record[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("invalid date on line %d, %w, %w", line, timedataset.ErrInvalidSeries, err)
		}
		t = append(t, ts)
		y = append(y, parsePrice(record[priceIdx]))
	}

	ds := (&timedataset.TimeDataset{T: t, Y: y}).DropNan()
	return timedataset.NewUnivariateDataset(ds.T, ds.Y)
}

func columnIndex(header []string, name string) int {
	return slices.IndexFunc(header, func(h string) bool {
		return strings.EqualFold(strings.TrimSpace(h), name)
	})
}

func parsePrice(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// AssetName derives the asset symbol from a file name, e.g. data/aapl.csv is AAPL
func AssetName(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

// InputFiles lists the configured files followed by every csv in the configured directory
func InputFiles(cfg InputConfig) ([]string, error) {
	files := slices.Clone(cfg.Files)
	if cfg.Dir != "" {
		matches, err := filepath.Glob(filepath.Join(cfg.Dir, "*.csv"))
		if err != nil {
			return nil, err
		}
		slices.Sort(matches)
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, ErrNoInputFiles
	}
	return files, nil
}

// LoadStore reads every input file into a store keyed by asset name
func LoadStore(cfg InputConfig) (*timedataset.Store, error) {
	files, err := InputFiles(cfg)
	if err != nil {
		return nil, err
	}

	store := timedataset.NewStore()
	for _, path := range files {
		ds, err := loadFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("unable to load %s, %w", path, err)
		}
		if err := store.Add(AssetName(path), ds); err != nil {
			return nil, fmt.Errorf("unable to add %s, %w", path, err)
		}
	}
	return store, nil
}

func loadFile(path string, cfg InputConfig) (*timedataset.TimeDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, cfg)
}
