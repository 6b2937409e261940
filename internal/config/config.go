package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPath is the config file read when none is given explicitly.
const DefaultPath = "configs/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Constant   ConstantConfig   `mapstructure:"constant"`
	Prediction PredictionConfig `mapstructure:"prediction"`
	Shielding  ShieldingConfig  `mapstructure:"shielding"`
	Output     OutputConfig     `mapstructure:"output"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ConstantConfig holds the Euler-product configuration
type ConstantConfig struct {
	PrimeLimit  int64   `mapstructure:"prime_limit"`
	Checkpoints []int64 `mapstructure:"checkpoints"`
	Tolerance   float64 `mapstructure:"tolerance"`
	Ceiling     float64 `mapstructure:"ceiling"`
	ScanLimit   int64   `mapstructure:"scan_limit"`
}

// PredictionConfig holds the empirical prime-count configuration
type PredictionConfig struct {
	Limit            int64   `mapstructure:"limit"`
	Checkpoints      []int64 `mapstructure:"checkpoints"`
	Constant         float64 `mapstructure:"constant"`
	Workers          int     `mapstructure:"workers"`
	ProgressEvery    int64   `mapstructure:"progress_every"`
	LiSteps          int     `mapstructure:"li_steps"`
	MaxRelativeError float64 `mapstructure:"max_relative_error"`
}

// ShieldingConfig holds the residue-scan configuration
type ShieldingConfig struct {
	ScanBound int64 `mapstructure:"scan_bound"`
}

// OutputConfig holds CSV output configuration
type OutputConfig struct {
	DataDir       string `mapstructure:"data_dir"`
	Write         bool   `mapstructure:"write"`
	LocalFactors  string `mapstructure:"local_factors"`
	SplittingRows int    `mapstructure:"splitting_rows"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	return load(path, false)
}

// LoadOptional is like Load but treats a missing file as empty.
func LoadOptional(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, optional bool) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override, e.g. BATEMAN_HORN_CONSTANT_PRIME_LIMIT
	v.SetEnvPrefix("BATEMAN_HORN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
			if !(optional && missing) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration with every default applied.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults are static; unmarshalling them cannot fail.
		panic(err)
	}
	return cfg
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Constant defaults
	v.SetDefault("constant.prime_limit", 10_000_000)
	v.SetDefault("constant.checkpoints", []int64{100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000})
	v.SetDefault("constant.tolerance", 1e-3)
	v.SetDefault("constant.ceiling", 1e6)
	v.SetDefault("constant.scan_limit", 10_000)

	// Prediction defaults
	v.SetDefault("prediction.limit", 20_000)
	v.SetDefault("prediction.checkpoints", []int64{1_000, 2_000, 5_000, 10_000, 15_000, 20_000})
	v.SetDefault("prediction.constant", 8.68)
	v.SetDefault("prediction.workers", 0)
	v.SetDefault("prediction.progress_every", 1_000)
	v.SetDefault("prediction.li_steps", 200_000)
	v.SetDefault("prediction.max_relative_error", 0.02)

	// Shielding defaults
	v.SetDefault("shielding.scan_bound", 6_300)

	// Output defaults
	v.SetDefault("output.data_dir", "./data")
	v.SetDefault("output.write", true)
	v.SetDefault("output.local_factors", "full")
	v.SetDefault("output.splitting_rows", 50)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Constant config
	if c.Constant.PrimeLimit < 283 {
		return fmt.Errorf("constant.prime_limit must be at least 283")
	}
	if err := validateCheckpoints("constant.checkpoints", c.Constant.Checkpoints, 2, c.Constant.PrimeLimit); err != nil {
		return err
	}
	if c.Constant.Tolerance < 0 {
		return fmt.Errorf("constant.tolerance must not be negative")
	}
	if c.Constant.Ceiling <= 1 {
		return fmt.Errorf("constant.ceiling must be greater than 1")
	}
	if c.Constant.ScanLimit < 0 {
		return fmt.Errorf("constant.scan_limit must not be negative")
	}

	// Validate Prediction config
	if c.Prediction.Limit < 1 {
		return fmt.Errorf("prediction.limit must be at least 1")
	}
	if err := validateCheckpoints("prediction.checkpoints", c.Prediction.Checkpoints, 1, c.Prediction.Limit); err != nil {
		return err
	}
	if c.Prediction.Constant <= 0 {
		return fmt.Errorf("prediction.constant must be positive")
	}
	if c.Prediction.Workers < 0 {
		return fmt.Errorf("prediction.workers must not be negative")
	}
	if c.Prediction.ProgressEvery < 0 {
		return fmt.Errorf("prediction.progress_every must not be negative")
	}
	if c.Prediction.LiSteps < 1 {
		return fmt.Errorf("prediction.li_steps must be at least 1")
	}
	if c.Prediction.MaxRelativeError < 0 {
		return fmt.Errorf("prediction.max_relative_error must not be negative")
	}

	// Validate Shielding config
	if c.Shielding.ScanBound < 283 {
		return fmt.Errorf("shielding.scan_bound must be at least 283")
	}

	// Validate Output config
	if c.Output.DataDir == "" {
		return fmt.Errorf("output.data_dir is required")
	}
	validModes := map[string]bool{"full": true, "summary": true}
	if !validModes[c.Output.LocalFactors] {
		return fmt.Errorf("output.local_factors must be one of: full, summary")
	}
	if c.Output.SplittingRows < 0 {
		return fmt.Errorf("output.splitting_rows must not be negative")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

func validateCheckpoints(key string, cps []int64, min, max int64) error {
	if len(cps) == 0 {
		return fmt.Errorf("%s must contain at least one value", key)
	}
	for i, cp := range cps {
		if cp < min || cp > max {
			return fmt.Errorf("%s: %d must be between %d and %d", key, cp, min, max)
		}
		if i > 0 && cp <= cps[i-1] {
			return fmt.Errorf("%s must be strictly increasing", key)
		}
	}
	return nil
}
