package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aouyang1/go-priceanomaly/timedataset"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunConfig(t *testing.T, dir string) *Config {
	t.Helper()
	cfg, err := Load("")
	require.Nil(t, err)
	cfg.Input.Dir = dir
	require.Nil(t, cfg.Validate())
	return cfg
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writePrices(t, dir, "flat.csv", timedataset.GenerateConstY(100, 42.5))
	writePrices(t, dir, "shrt.csv", timedataset.GenerateConstY(30, 42.5))

	t.Run("text", func(t *testing.T) {
		cfg := newRunConfig(t, dir)

		var buf bytes.Buffer
		require.Nil(t, run(context.Background(), cfg, &buf))

		out := buf.String()
		assert.Contains(t, out, "FLAT:")
		assert.Contains(t, out, "  Outlier Model (0): none")
		assert.Contains(t, out, "  Forecast Deviation (0): none")
		assert.Contains(t, out, "insufficient data")
	})

	t.Run("json", func(t *testing.T) {
		cfg := newRunConfig(t, dir)
		cfg.Output.Format = "json"

		var buf bytes.Buffer
		require.Nil(t, run(context.Background(), cfg, &buf))

		var out struct {
			Reports []struct {
				Asset string `json:"asset"`
			} `json:"reports"`
			Failures map[string]string `json:"failures"`
		}
		require.Nil(t, json.Unmarshal(buf.Bytes(), &out))
		require.Len(t, out.Reports, 1)
		assert.Equal(t, "FLAT", out.Reports[0].Asset)
		assert.Contains(t, out.Failures, "SHRT")
	})

	t.Run("plots", func(t *testing.T) {
		cfg := newRunConfig(t, dir)
		cfg.Output.PlotDir = filepath.Join(t.TempDir(), "plots")

		var buf bytes.Buffer
		require.Nil(t, run(context.Background(), cfg, &buf))

		_, err := os.Stat(filepath.Join(cfg.Output.PlotDir, "FLAT.html"))
		assert.Nil(t, err)
		_, err = os.Stat(filepath.Join(cfg.Output.PlotDir, "SHRT.html"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestRunAllFailed(t *testing.T) {
	dir := t.TempDir()
	writePrices(t, dir, "shrt.csv", timedataset.GenerateConstY(30, 42.5))

	var buf bytes.Buffer
	err := run(context.Background(), newRunConfig(t, dir), &buf)
	assert.ErrorIs(t, err, errAllFailed)
	assert.Contains(t, buf.String(), "SHRT")
}

func TestRunNoInput(t *testing.T) {
	var buf bytes.Buffer
	err := run(context.Background(), newRunConfig(t, t.TempDir()), &buf)
	assert.ErrorIs(t, err, ErrNoInputFiles)
}
