// Command priceanomaly reads daily closing prices from csv files, one asset per file, and reports
// the dates flagged by the outlier model and by the forecast deviation of every asset.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aouyang1/go-priceanomaly"
	"github.com/goccy/go-json"
	"github.com/pkg/profile"
)

var errAllFailed = errors.New("every asset failed")

func main() {
	configPath := flag.String("config", "", "path to a yaml configuration file")
	dataDir := flag.String("data", "", "directory of <asset>.csv files, overrides input.dir")
	format := flag.String("out", "", "output format json or text, overrides output.format")
	plotDir := flag.String("plot", "", "directory to write an html chart per asset, overrides output.plot_dir")
	cpuProfile := flag.Bool("profile", false, "write a cpu profile to the working directory")
	flag.Parse()

	cfg, err := Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *dataDir != "" {
		cfg.Input.Dir = *dataDir
	}
	cfg.Input.Files = append(cfg.Input.Files, flag.Args()...)
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *plotDir != "" {
		cfg.Output.PlotDir = *plotDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	slog.SetDefault(NewLogger(cfg.Logging, os.Stderr))

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		slog.Error("price anomaly run failed", "error", err.Error())
		stop()
		os.Exit(1)
	}
}

// run loads every asset, detects anomalies and writes the batch to w
func run(ctx context.Context, cfg *Config, w io.Writer) error {
	opt, err := cfg.Options()
	if err != nil {
		return err
	}
	p, err := priceanomaly.New(opt)
	if err != nil {
		return err
	}

	store, err := LoadStore(cfg.Input)
	if err != nil {
		return err
	}
	slog.Info("loaded price series", "assets", store.Len())

	outcomes := p.RunAll(ctx, store)
	if cfg.Output.PlotDir != "" {
		if err := writePlots(cfg.Output.PlotDir, outcomes); err != nil {
			return err
		}
	}

	b := priceanomaly.NewBatch(outcomes)
	switch cfg.Output.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("unable to encode reports, %w", err)
		}
	default:
		if err := b.TablePrint(w, "", "  "); err != nil {
			return fmt.Errorf("unable to print reports, %w", err)
		}
	}

	if len(b) > 0 && len(b.Failed()) == len(b) {
		return errAllFailed
	}
	return nil
}

// writePlots writes <asset>.html into dir for every asset that produced a result
func writePlots(dir string, outcomes map[string]priceanomaly.Outcome) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create plot directory, %w", err)
	}
	for asset, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			continue
		}
		path := filepath.Join(dir, asset+".html")
		if err := writePlot(path, o.Result); err != nil {
			return fmt.Errorf("unable to plot %s, %w", asset, err)
		}
		slog.Debug("wrote plot", "asset", asset, "path", path)
	}
	return nil
}

func writePlot(path string, res *priceanomaly.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := res.Plot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
