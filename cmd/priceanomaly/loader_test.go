package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/go-priceanomaly/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultInput() InputConfig {
	return InputConfig{
		DateColumn:  "date",
		PriceColumn: "close",
		DateFormat:  time.DateOnly,
	}
}

// writePrices writes n daily prices starting 2024-01-01 to dir/name
func writePrices(t *testing.T, dir, name string, y []float64) string {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var sb strings.Builder
	sb.WriteString("date,open,close\n")
	for i, v := range y {
		fmt.Fprintf(&sb, "%s,%.2f,%.4f\n", start.AddDate(0, 0, i).Format(time.DateOnly), v, v)
	}
	path := filepath.Join(dir, name)
	require.Nil(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	testData := map[string]struct {
		input    string
		cfg      InputConfig
		expected *timedataset.TimeDataset
		err      error
	}{
		"valid": {
			input: "date,open,close\n2024-01-02,1,100.5\n2024-01-03,1,101\n",
			cfg:   defaultInput(),
			expected: &timedataset.TimeDataset{
				T: []time.Time{
					time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
				},
				Y: []float64{100.5, 101},
			},
		},
		"missing prices dropped": {
			input: "Date, Close\n2024-01-02, 100.5\n2024-01-03,\n2024-01-04,NaN\n2024-01-05,102\n",
			cfg:   defaultInput(),
			expected: &timedataset.TimeDataset{
				T: []time.Time{
					time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
				},
				Y: []float64{100.5, 102},
			},
		},
		"custom columns": {
			input: "day,adj_close\n01/02/2024,10\n01/03/2024,11\n",
			cfg: InputConfig{
				DateColumn:  "day",
				PriceColumn: "adj_close",
				DateFormat:  "01/02/2006",
			},
			expected: &timedataset.TimeDataset{
				T: []time.Time{
					time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
				},
				Y: []float64{10, 11},
			},
		},
		"missing price column": {
			input: "date,open\n2024-01-02,1\n",
			cfg:   defaultInput(),
			err:   ErrMissingColumn,
		},
		"missing date column": {
			input: "time,close\n2024-01-02,1\n",
			cfg:   defaultInput(),
			err:   ErrMissingColumn,
		},
		"invalid date": {
			input: "date,close\n2024-13-02,1\n",
			cfg:   defaultInput(),
			err:   timedataset.ErrInvalidSeries,
		},
		"out of order": {
			input: "date,close\n2024-01-03,1\n2024-01-02,2\n",
			cfg:   defaultInput(),
			err:   timedataset.ErrInvalidSeries,
		},
		"non positive": {
			input: "date,close\n2024-01-02,1\n2024-01-03,0\n",
			cfg:   defaultInput(),
			err:   timedataset.ErrInvalidSeries,
		},
		"no rows": {
			input: "date,close\n",
			cfg:   defaultInput(),
			err:   timedataset.ErrInvalidSeries,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ds, err := ReadCSV(strings.NewReader(td.input), td.cfg)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, ds)
		})
	}
}

func TestAssetName(t *testing.T) {
	assert.Equal(t, "AAPL", AssetName("data/aapl.csv"))
	assert.Equal(t, "BRK.B", AssetName("/tmp/brk.b.csv"))
	assert.Equal(t, "MSFT", AssetName("MSFT"))
}

func TestLoadStore(t *testing.T) {
	dir := t.TempDir()
	writePrices(t, dir, "msft.csv", []float64{10, 11, 12})
	writePrices(t, dir, "aapl.csv", []float64{20, 21})
	extra := writePrices(t, t.TempDir(), "tsla.csv", []float64{30})
	require.Nil(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	cfg := defaultInput()
	cfg.Dir = dir
	cfg.Files = []string{extra}

	store, err := LoadStore(cfg)
	require.Nil(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, store.Assets())

	ds, err := store.Get("MSFT")
	require.Nil(t, err)
	assert.Equal(t, []float64{10, 11, 12}, ds.Y)
}

func TestLoadStoreErrors(t *testing.T) {
	cfg := defaultInput()
	cfg.Dir = t.TempDir()
	_, err := LoadStore(cfg)
	assert.ErrorIs(t, err, ErrNoInputFiles)

	dir := t.TempDir()
	writePrices(t, dir, "aapl.csv", []float64{20, 21})
	cfg.Dir = dir
	cfg.Files = []string{filepath.Join(dir, "aapl.csv")}
	_, err = LoadStore(cfg)
	assert.ErrorIs(t, err, timedataset.ErrAssetExists)

	cfg.Files = []string{filepath.Join(dir, "missing.csv")}
	cfg.Dir = ""
	_, err = LoadStore(cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
