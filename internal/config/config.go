// Package config loads application configuration from a YAML file,
// layering file values over defaults. Command-line flags override
// individual fields after loading.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"factor-eval-lab/internal/domain"
)

// StorageConfig holds database connection settings. Empty DSNs disable
// the corresponding store.
type StorageConfig struct {
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	PostgresDSN   string `yaml:"postgres_dsn"`
}

// OutputConfig holds series export settings.
type OutputConfig struct {
	// Dir is the directory for exported per-period series files. Empty
	// disables export.
	Dir string `yaml:"dir"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	// Addr is the listen address for the /metrics endpoint. Empty
	// disables the endpoint.
	Addr string `yaml:"addr"`
}

// Config is the full application configuration.
type Config struct {
	Evaluation domain.EvaluationConfig `yaml:"evaluation"`
	Storage    StorageConfig           `yaml:"storage"`
	Output     OutputConfig            `yaml:"output"`
	Metrics    MetricsConfig           `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Evaluation: domain.DefaultEvaluationConfig(),
	}
}

// Load reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Evaluation.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
