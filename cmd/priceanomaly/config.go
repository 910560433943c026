package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aouyang1/go-priceanomaly"
	"github.com/aouyang1/go-priceanomaly/calendar"
	"github.com/aouyang1/go-priceanomaly/forecaster"
	"github.com/aouyang1/go-priceanomaly/indicator"
	"github.com/aouyang1/go-priceanomaly/isolation"
	"github.com/aouyang1/go-priceanomaly/outlier"
	"github.com/spf13/viper"
)

const envPrefix = "PRICEANOMALY"

// Config is the complete driver configuration
type Config struct {
	Input     InputConfig     `mapstructure:"input"`
	Indicator IndicatorConfig `mapstructure:"indicator"`
	Outlier   OutlierConfig   `mapstructure:"outlier"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// InputConfig locates the price files. Every file holds one asset named after the file.
type InputConfig struct {
	Dir         string   `mapstructure:"dir"`
	Files       []string `mapstructure:"files"`
	DateColumn  string   `mapstructure:"date_column"`
	PriceColumn string   `mapstructure:"price_column"`
	DateFormat  string   `mapstructure:"date_format"`
}

// IndicatorConfig holds the indicator windows
type IndicatorConfig struct {
	SMAWindow       int     `mapstructure:"sma_window"`
	EMAWindow       int     `mapstructure:"ema_window"`
	RSIWindow       int     `mapstructure:"rsi_window"`
	BollingerWindow int     `mapstructure:"bollinger_window"`
	BollingerK      float64 `mapstructure:"bollinger_k"`
}

// OutlierConfig holds the isolation forest settings
type OutlierConfig struct {
	FeatureSet    string  `mapstructure:"feature_set"`
	NumTrees      int     `mapstructure:"num_trees"`
	SampleSize    int     `mapstructure:"sample_size"`
	Contamination float64 `mapstructure:"contamination"`
	Seed          uint64  `mapstructure:"seed"`
	MinRows       int     `mapstructure:"min_rows"`
}

// ForecastConfig holds the forecast and deviation settings
type ForecastConfig struct {
	// Horizon of -1 forecasts the history only
	Horizon        int     `mapstructure:"horizon"`
	Calendar       string  `mapstructure:"calendar"`
	DeviationK     float64 `mapstructure:"deviation_k"`
	ResidualWindow int     `mapstructure:"residual_window"`
	ResidualZscore float64 `mapstructure:"residual_zscore"`
	MinPoints      int     `mapstructure:"min_points"`
	OutlierPasses  int     `mapstructure:"outlier_passes"`
}

// BatchConfig bounds the batch run
type BatchConfig struct {
	Parallelization int           `mapstructure:"parallelization"`
	AssetTimeout    time.Duration `mapstructure:"asset_timeout"`
}

// OutputConfig selects how reports are written
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	PlotDir string `mapstructure:"plot_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration file if one is given and applies environment overrides such as
// PRICEANOMALY_FORECAST_HORIZON
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.dir", "")
	v.SetDefault("input.files", []string{})
	v.SetDefault("input.date_column", "date")
	v.SetDefault("input.price_column", "close")
	v.SetDefault("input.date_format", time.DateOnly)

	v.SetDefault("indicator.sma_window", indicator.DefaultSMAWindow)
	v.SetDefault("indicator.ema_window", indicator.DefaultEMAWindow)
	v.SetDefault("indicator.rsi_window", indicator.DefaultRSIWindow)
	v.SetDefault("indicator.bollinger_window", indicator.DefaultBollingerWindow)
	v.SetDefault("indicator.bollinger_k", indicator.DefaultBollingerK)

	v.SetDefault("outlier.feature_set", indicator.FeatureSetNameBasic)
	v.SetDefault("outlier.num_trees", isolation.DefaultNumTrees)
	v.SetDefault("outlier.sample_size", isolation.DefaultSampleSize)
	v.SetDefault("outlier.contamination", isolation.DefaultContamination)
	v.SetDefault("outlier.seed", isolation.DefaultSeed)
	v.SetDefault("outlier.min_rows", outlier.DefaultMinRows)

	v.SetDefault("forecast.horizon", priceanomaly.DefaultHorizon)
	v.SetDefault("forecast.calendar", priceanomaly.DefaultCalendar)
	v.SetDefault("forecast.deviation_k", forecaster.DefaultDeviationK)
	v.SetDefault("forecast.residual_window", forecaster.DefaultResidualWindow)
	v.SetDefault("forecast.residual_zscore", forecaster.DefaultResidualZscore)
	v.SetDefault("forecast.min_points", forecaster.DefaultMinPoints)
	v.SetDefault("forecast.outlier_passes", 0)

	v.SetDefault("batch.parallelization", 0)
	v.SetDefault("batch.asset_timeout", "0s")

	v.SetDefault("output.format", "text")
	v.SetDefault("output.plot_dir", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks the values the library options do not cover
func (c *Config) Validate() error {
	if c.Input.Dir == "" && len(c.Input.Files) == 0 {
		return fmt.Errorf("input.dir or input.files is required")
	}
	if c.Input.DateColumn == "" || c.Input.PriceColumn == "" {
		return fmt.Errorf("input.date_column and input.price_column are required")
	}
	if c.Input.DateFormat == "" {
		return fmt.Errorf("input.date_format is required")
	}
	if _, err := indicator.FeatureSetByName(c.Outlier.FeatureSet); err != nil {
		return fmt.Errorf("outlier.feature_set must be one of: basic, extended")
	}
	if _, err := calendar.ByName(c.Forecast.Calendar); err != nil {
		return fmt.Errorf("forecast.calendar must be one of: daily, weekdays, nyse")
	}
	if c.Forecast.OutlierPasses < 0 {
		return fmt.Errorf("forecast.outlier_passes must not be negative")
	}
	if c.Batch.AssetTimeout < 0 {
		return fmt.Errorf("batch.asset_timeout must not be negative")
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("output.format must be one of: json, text")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	_, err := c.Options()
	return err
}

// Options maps the configuration onto validated pipeline options
func (c *Config) Options() (*priceanomaly.Options, error) {
	featureSet, err := indicator.FeatureSetByName(c.Outlier.FeatureSet)
	if err != nil {
		return nil, err
	}

	fcOpt := forecaster.NewDefaultOptions()
	fcOpt.ResidualWindow = c.Forecast.ResidualWindow
	fcOpt.ResidualZscore = c.Forecast.ResidualZscore
	fcOpt.MinPoints = c.Forecast.MinPoints
	if c.Forecast.OutlierPasses > 0 {
		fcOpt.OutlierOptions = forecaster.NewOutlierOptions()
		fcOpt.OutlierOptions.NumPasses = c.Forecast.OutlierPasses
	}

	opt := &priceanomaly.Options{
		Indicator: &indicator.Options{
			SMAWindow:       c.Indicator.SMAWindow,
			EMAWindow:       c.Indicator.EMAWindow,
			RSIWindow:       c.Indicator.RSIWindow,
			BollingerWindow: c.Indicator.BollingerWindow,
			BollingerK:      c.Indicator.BollingerK,
		},
		Outlier: &outlier.Options{
			FeatureSet: featureSet,
			Forest: &isolation.Options{
				NumTrees:      c.Outlier.NumTrees,
				SampleSize:    c.Outlier.SampleSize,
				Contamination: c.Outlier.Contamination,
				Seed:          c.Outlier.Seed,
			},
			MinRows: c.Outlier.MinRows,
		},
		Forecaster:      fcOpt,
		Horizon:         c.Forecast.Horizon,
		Calendar:        c.Forecast.Calendar,
		DeviationK:      c.Forecast.DeviationK,
		AssetTimeout:    c.Batch.AssetTimeout,
		Parallelization: c.Batch.Parallelization,
	}
	return opt.Validate()
}

// NewLogger builds the structured logger described by the logging configuration
func NewLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpt := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpt))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpt))
}
