package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
constant:
  prime_limit: 100000
  checkpoints: [100, 1000, 10000, 100000]
  tolerance: 0.01
  ceiling: 1000000
  scan_limit: 5000

prediction:
  limit: 2000
  checkpoints: [1000, 2000]
  constant: 8.6833
  workers: 4
  progress_every: 500
  li_steps: 100000
  max_relative_error: 0.05

shielding:
  scan_bound: 1000

output:
  data_dir: "./out"
  write: false
  local_factors: summary
  splitting_rows: 10

logging:
  level: "debug"
  format: "json"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Constant.PrimeLimit != 100000 {
		t.Errorf("Unexpected prime limit: %d", cfg.Constant.PrimeLimit)
	}
	if len(cfg.Constant.Checkpoints) != 4 || cfg.Constant.Checkpoints[3] != 100000 {
		t.Errorf("Unexpected checkpoints: %v", cfg.Constant.Checkpoints)
	}
	if cfg.Prediction.Constant != 8.6833 {
		t.Errorf("Unexpected constant: %f", cfg.Prediction.Constant)
	}
	if cfg.Prediction.Workers != 4 {
		t.Errorf("Unexpected workers: %d", cfg.Prediction.Workers)
	}
	if cfg.Output.Write {
		t.Error("Expected output.write to be false")
	}
	if cfg.Output.LocalFactors != "summary" {
		t.Errorf("Unexpected local factor mode: %s", cfg.Output.LocalFactors)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Constant.PrimeLimit != 10_000_000 {
		t.Errorf("Unexpected prime limit: %d", cfg.Constant.PrimeLimit)
	}
	if len(cfg.Constant.Checkpoints) != 6 {
		t.Errorf("Expected 6 checkpoints, got %v", cfg.Constant.Checkpoints)
	}
	if cfg.Constant.Tolerance != 1e-3 {
		t.Errorf("Unexpected tolerance: %g", cfg.Constant.Tolerance)
	}
	if cfg.Prediction.Limit != 20_000 {
		t.Errorf("Unexpected prediction limit: %d", cfg.Prediction.Limit)
	}
	if cfg.Shielding.ScanBound != 6_300 {
		t.Errorf("Unexpected scan bound: %d", cfg.Shielding.ScanBound)
	}
	if !cfg.Output.Write || cfg.Output.LocalFactors != "full" {
		t.Errorf("Unexpected output config: %+v", cfg.Output)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadOptionalMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	if _, err := Load(path); err == nil {
		t.Error("Load should fail for a missing explicit file")
	}

	cfg, err := LoadOptional(path)
	if err != nil {
		t.Fatalf("LoadOptional failed: %v", err)
	}
	if cfg.Prediction.Constant != 8.68 {
		t.Errorf("Unexpected constant: %f", cfg.Prediction.Constant)
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("BATEMAN_HORN_CONSTANT_PRIME_LIMIT", "50000")
	t.Setenv("BATEMAN_HORN_OUTPUT_DATA_DIR", "/tmp/bh")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Constant.PrimeLimit != 50000 {
		t.Errorf("Unexpected prime limit: %d", cfg.Constant.PrimeLimit)
	}
	if cfg.Output.DataDir != "/tmp/bh" {
		t.Errorf("Unexpected data dir: %s", cfg.Output.DataDir)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "prime limit below shielding threshold",
			mutate:  func(c *Config) { c.Constant.PrimeLimit = 100; c.Constant.Checkpoints = []int64{100} },
			wantErr: true,
		},
		{
			name:    "checkpoint beyond prime limit",
			mutate:  func(c *Config) { c.Constant.PrimeLimit = 1_000_000 },
			wantErr: true,
		},
		{
			name:    "unsorted checkpoints",
			mutate:  func(c *Config) { c.Prediction.Checkpoints = []int64{2000, 1000} },
			wantErr: true,
		},
		{
			name:    "negative tolerance",
			mutate:  func(c *Config) { c.Constant.Tolerance = -1 },
			wantErr: true,
		},
		{
			name:    "zero constant",
			mutate:  func(c *Config) { c.Prediction.Constant = 0 },
			wantErr: true,
		},
		{
			name:    "scan bound too small",
			mutate:  func(c *Config) { c.Shielding.ScanBound = 100 },
			wantErr: true,
		},
		{
			name:    "unknown local factor mode",
			mutate:  func(c *Config) { c.Output.LocalFactors = "all" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
